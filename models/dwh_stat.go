package models

import "time"

// DWH event types
const (
	DwhEventRequest   = "request"
	DwhEventFail      = "fail"
	DwhEventPending   = "pending"
	DwhEventDelivered = "delivered"
	DwhEventDNC       = "dnc"
)

// DwhStat is an append-only analytics event consumed by the data warehouse
type DwhStat struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"size:191" json:"username"`
	PlayerID           string    `gorm:"column:player_id;size:191" json:"player_id"`
	CampaignID         int64     `gorm:"column:campaign_id" json:"campaign_id"`
	CampaignCategoryID int64     `gorm:"column:campaign_category_id" json:"campaign_category_id"`
	ChannelID          int64     `gorm:"column:channel_id" json:"channel_id"`
	Channel            string    `gorm:"size:32;not null" json:"channel"`
	EventType          string    `gorm:"column:event_type;size:32;not null;index:idx_dwh_stats_event_type" json:"event_type"`
	EventTs            time.Time `gorm:"column:event_ts;not null" json:"event_ts"`
}

func (DwhStat) TableName() string { return "dwh_stats" }
