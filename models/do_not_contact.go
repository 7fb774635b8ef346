package models

import (
	"time"

	"github.com/lib/pq"
)

// Do-not-contact reasons
const (
	DNCReasonUnsubscribed = 1
	DNCReasonBounced      = 2
	DNCReasonManual       = 3
)

// DoNotContact marks a lead as opted out of one or more channels
type DoNotContact struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	LeadID    uint           `gorm:"column:lead_id;not null;index:idx_lead_dnc_lead_id" json:"lead_id"`
	Channels  pq.StringArray `gorm:"type:text[];not null" json:"channels"`
	Reason    int            `gorm:"not null" json:"reason"`
	Comments  string         `gorm:"type:text" json:"comments"`
	DateAdded time.Time      `gorm:"column:date_added;not null" json:"date_added"`
}

func (DoNotContact) TableName() string { return "lead_donotcontact" }
