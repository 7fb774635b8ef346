package models

import "time"

// SMSStat is the per-message delivery record. It is created when a message is
// submitted and later mutated by delivery receipts matched on TrackingHash.
type SMSStat struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SMSID        *uint     `gorm:"column:sms_id;index:idx_sms_stat_sms_id" json:"sms_id,omitempty"`
	LeadID       *uint     `gorm:"column:lead_id;index:idx_sms_stat_lead_id" json:"lead_id,omitempty"`
	CampaignID   *uint     `gorm:"column:campaign_id" json:"campaign_id,omitempty"`
	TrackingHash string    `gorm:"size:191;not null;uniqueIndex:idx_sms_stat_tracking_hash" json:"tracking_hash"`
	Mobile       string    `gorm:"size:32;not null" json:"mobile"`
	IsPending    bool      `gorm:"not null;default:false" json:"is_pending"`
	IsDelivered  bool      `gorm:"not null;default:false" json:"is_delivered"`
	HasFailed    bool      `gorm:"not null;default:false" json:"has_failed"`
	DateSent     time.Time `gorm:"not null" json:"date_sent"`
	CreatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SMSStat) TableName() string { return "sms_message_stats" }

// DeliveryFlags is the tri-state projection of a delivery outcome stored on SMSStat
type DeliveryFlags struct {
	IsPending   bool
	IsDelivered bool
	HasFailed   bool
}

// Flags returns the current delivery flags of the record
func (s SMSStat) Flags() DeliveryFlags {
	return DeliveryFlags{
		IsPending:   s.IsPending,
		IsDelivered: s.IsDelivered,
		HasFailed:   s.HasFailed,
	}
}

// Apply copies the flags onto the record
func (s *SMSStat) Apply(f DeliveryFlags) {
	s.IsPending = f.IsPending
	s.IsDelivered = f.IsDelivered
	s.HasFailed = f.HasFailed
}

// SMSStatFilter provides filter fields for repository queries
type SMSStatFilter struct {
	ID           *uint
	SMSID        *uint
	LeadID       *uint
	TrackingHash *string
	IsPending    *bool
	IsDelivered  *bool
	HasFailed    *bool
	SentAfter    *time.Time
	SentBefore   *time.Time
}
