package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReceiptLog keeps the raw delivery receipt next to its classification
type ReceiptLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MessageID string         `gorm:"column:message_id;size:191;index:idx_sms_receipt_logs_message_id" json:"message_id"`
	Shape     string         `gorm:"size:32;not null" json:"shape"`
	GroupID   int            `gorm:"column:group_id" json:"group_id"`
	StatusID  int            `gorm:"column:status_id" json:"status_id"`
	Outcome   string         `gorm:"size:32;not null" json:"outcome"`
	Matched   bool           `gorm:"not null;default:false" json:"matched"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (ReceiptLog) TableName() string { return "sms_receipt_logs" }
