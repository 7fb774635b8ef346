package utils

import "time"

// Channel constants
const (
	// ChannelSMS is the channel name recorded on DWH events and do-not-contact rows
	ChannelSMS = "sms"

	// BulkIDPrefix prefixes the campaign id in the vendor bulk identifier
	BulkIDPrefix = "CNO-"

	// StopKeyword is the inbound body that unsubscribes the sender
	StopKeyword = "STOP"
)

// Cache constants
const (
	// CampaignEventCacheTTL is used when no cache TTL is configured
	CampaignEventCacheTTL = 30 * time.Minute
)
