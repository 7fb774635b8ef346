package businessflow

import (
	"context"
	"slices"
	"strings"

	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/repository"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"github.com/rs/zerolog"
)

// UnsubscribeFlow opts a contact out of the SMS channel
type UnsubscribeFlow interface {
	Unsubscribe(ctx context.Context, from string) error
}

// UnsubscribeFlowImpl implements UnsubscribeFlow
type UnsubscribeFlowImpl struct {
	leadRepo repository.LeadRepository
	dncRepo  repository.DoNotContactRepository
	cfg      config.InfoBipConfig
	logger   zerolog.Logger
}

// NewUnsubscribeFlow creates a new unsubscribe flow instance
func NewUnsubscribeFlow(
	leadRepo repository.LeadRepository,
	dncRepo repository.DoNotContactRepository,
	cfg config.InfoBipConfig,
	logger zerolog.Logger,
) UnsubscribeFlow {
	return &UnsubscribeFlowImpl{
		leadRepo: leadRepo,
		dncRepo:  dncRepo,
		cfg:      cfg,
		logger:   logger.With().Str("component", "unsubscribe").Logger(),
	}
}

// Unsubscribe adds an sms do-not-contact entry for the lead owning the number.
// Repeating it for an already opted-out lead is a no-op.
func (u *UnsubscribeFlowImpl) Unsubscribe(ctx context.Context, from string) error {
	raw := strings.TrimSpace(from)
	if raw == "" {
		return NewBusinessError("MOBILE_REQUIRED", "Sender number is required", ErrMobileRequired)
	}

	candidates := []string{raw}
	if e164, err := utils.SanitizeMobile(raw, u.cfg.DefaultRegion); err == nil {
		candidates = appendUnique(candidates, e164, strings.TrimPrefix(e164, "+"))
	}

	lead, err := u.leadRepo.ByMobile(ctx, candidates...)
	if err != nil {
		return NewBusinessError("CONTACT_LOOKUP_FAILED", "Failed to lookup contact", err)
	}
	if lead == nil {
		return NewBusinessError("CONTACT_NOT_FOUND", "Contact not found", ErrContactNotFound)
	}

	exists, err := u.dncRepo.ExistsForLead(ctx, lead.ID, utils.ChannelSMS)
	if err != nil {
		return NewBusinessError("DNC_LOOKUP_FAILED", "Failed to check do-not-contact entries", err)
	}
	if exists {
		return nil
	}

	row := &models.DoNotContact{
		LeadID:    lead.ID,
		Channels:  []string{utils.ChannelSMS},
		Reason:    models.DNCReasonUnsubscribed,
		Comments:  "User requested removal via SMS STOP",
		DateAdded: utils.UTCNow(),
	}
	if err := u.dncRepo.Save(ctx, row); err != nil {
		return NewBusinessError("DNC_CREATION_FAILED", "Failed to store do-not-contact entry", err)
	}

	u.logger.Info().Uint("lead_id", lead.ID).Msg("Lead unsubscribed from sms")
	return nil
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
