package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCampaign creates a campaign with one event and returns both
func (tf *TestFixtures) CreateTestCampaign(categoryID uint) (*models.Campaign, *models.CampaignEvent, error) {
	campaign := &models.Campaign{
		Name:       fmt.Sprintf("campaign-%d", rand.Intn(1000000)),
		CategoryID: utils.ToPtr(categoryID),
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	event := &models.CampaignEvent{CampaignID: campaign.ID}
	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create test campaign event: %w", err)
	}

	return campaign, event, nil
}

// CreateTestLead creates a lead with the given E.164 mobile number
func (tf *TestFixtures) CreateTestLead(mobile string) (*models.Lead, error) {
	suffix := rand.Intn(1000000)
	lead := &models.Lead{
		Username: utils.ToPtr(fmt.Sprintf("lead-%d", suffix)),
		PlayerID: utils.ToPtr(fmt.Sprintf("player-%d", suffix)),
		Mobile:   utils.ToPtr(mobile),
	}
	if err := tf.DB.DB.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create test lead: %w", err)
	}
	return lead, nil
}

// CreateTestSMSStat creates a pending message record for the lead
func (tf *TestFixtures) CreateTestSMSStat(lead *models.Lead, campaignID uint) (*models.SMSStat, error) {
	stat := &models.SMSStat{
		SMSID:        utils.ToPtr(uint(rand.Intn(100000) + 1)),
		LeadID:       utils.ToPtr(lead.ID),
		CampaignID:   utils.ToPtr(campaignID),
		TrackingHash: uuid.NewString(),
		Mobile:       utils.Deref(lead.Mobile),
		IsPending:    true,
		DateSent:     utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(stat).Error; err != nil {
		return nil, fmt.Errorf("failed to create test sms stat: %w", err)
	}
	return stat, nil
}
