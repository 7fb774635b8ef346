package dto

// SendSMSRequest represents the request to submit one SMS through InfoBip
type SendSMSRequest struct {
	Mobile          string `json:"mobile" validate:"required,max=32"`
	Text            string `json:"text" validate:"required,max=1600"`
	LeadID          *uint  `json:"lead_id,omitempty" validate:"omitempty,gt=0"`
	SMSID           *uint  `json:"sms_id,omitempty" validate:"omitempty,gt=0"`
	CampaignEventID *uint  `json:"campaign_event_id,omitempty" validate:"omitempty,gt=0"`
	TrackingHash    string `json:"tracking_hash,omitempty" validate:"omitempty,max=191"`
}

// SendSMSResponse represents the result of an SMS submission
type SendSMSResponse struct {
	TrackingHash string `json:"tracking_hash"`
	BulkID       string `json:"bulk_id"`
	Mobile       string `json:"mobile"`
	Status       string `json:"status"`
	Recorded     bool   `json:"recorded"`
}
