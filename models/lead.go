package models

// Lead is a contact that can receive SMS messages
type Lead struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Username *string `gorm:"size:191" json:"username,omitempty"`
	PlayerID *string `gorm:"column:player_id;size:191" json:"player_id,omitempty"`
	Mobile   *string `gorm:"size:191;index:idx_leads_mobile" json:"mobile,omitempty"`
}

func (Lead) TableName() string { return "leads" }
