package models

// Campaign is the marketing campaign a message belongs to
type Campaign struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:191" json:"name"`
	CategoryID *uint  `gorm:"column:category_id" json:"category_id,omitempty"`
}

func (Campaign) TableName() string { return "campaigns" }

// CampaignEvent is the campaign action that triggered a send
type CampaignEvent struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CampaignID uint `gorm:"column:campaign_id;not null" json:"campaign_id"`
}

func (CampaignEvent) TableName() string { return "campaign_events" }
