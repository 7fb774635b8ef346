package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/infobip-sms-bridge/app/dto"
	"github.com/amirphl/infobip-sms-bridge/app/infobip"
	"github.com/amirphl/infobip-sms-bridge/app/services"
	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/repository"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SMSSendFlow handles outbound SMS submission
type SMSSendFlow interface {
	Send(ctx context.Context, req *dto.SendSMSRequest) (*dto.SendSMSResponse, error)
}

// SMSSendFlowImpl implements SMSSendFlow
type SMSSendFlowImpl struct {
	client       infobip.Client
	statRepo     repository.SMSStatRepository
	leadRepo     repository.LeadRepository
	campaignRepo repository.CampaignRepository
	sink         services.EventSink
	rc           *redis.Client
	cfg          config.InfoBipConfig
	cachePrefix  string
	cacheTTL     time.Duration
	logger       zerolog.Logger
	requestLog   zerolog.Logger
}

// NewSMSSendFlow creates a new SMS send flow instance. rc may be nil.
func NewSMSSendFlow(
	client infobip.Client,
	statRepo repository.SMSStatRepository,
	leadRepo repository.LeadRepository,
	campaignRepo repository.CampaignRepository,
	sink services.EventSink,
	rc *redis.Client,
	cfg config.InfoBipConfig,
	cache config.CacheConfig,
	logger zerolog.Logger,
	requestLog zerolog.Logger,
) SMSSendFlow {
	ttl := cache.DefaultTTL
	if ttl <= 0 {
		ttl = utils.CampaignEventCacheTTL
	}
	return &SMSSendFlowImpl{
		client:       client,
		statRepo:     statRepo,
		leadRepo:     leadRepo,
		campaignRepo: campaignRepo,
		sink:         sink,
		rc:           rc,
		cfg:          cfg,
		cachePrefix:  cache.RedisPrefix,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "sms_send").Logger(),
		requestLog:   requestLog,
	}
}

// Send submits one message, stores its record and emits a request or fail event
func (s *SMSSendFlowImpl) Send(ctx context.Context, req *dto.SendSMSRequest) (*dto.SendSMSResponse, error) {
	if err := s.validateSendRequest(req); err != nil {
		return nil, NewBusinessError("SMS_VALIDATION_FAILED", "SMS validation failed", err)
	}

	mobile, err := utils.SanitizeMobile(req.Mobile, s.cfg.DefaultRegion)
	if err != nil {
		return nil, NewBusinessError("INVALID_MOBILE", "Mobile number is invalid", fmt.Errorf("%w: %v", ErrInvalidMobile, err))
	}

	var campaignID uint
	if req.CampaignEventID != nil {
		campaignID, err = s.campaignIDForEvent(ctx, *req.CampaignEventID)
		if err != nil {
			return nil, err
		}
	}

	trackingHash := strings.TrimSpace(req.TrackingHash)
	if trackingHash == "" {
		trackingHash = uuid.NewString()
	} else {
		existing, err := s.statRepo.ByTrackingHash(ctx, trackingHash)
		if err != nil {
			return nil, NewBusinessError("MESSAGE_LOOKUP_FAILED", "Failed to look up message record", err)
		}
		if existing != nil {
			return nil, NewBusinessError("TRACKING_HASH_CONFLICT", "Tracking hash already used", ErrTrackingHashConflicted)
		}
	}

	payload, err := s.buildRequest(req, mobile, trackingHash, campaignID)
	if err != nil {
		return nil, NewBusinessError("SMS_REQUEST_BUILD_FAILED", "Failed to build vendor request", err)
	}
	if b, err := json.Marshal(payload); err == nil {
		s.requestLog.Info().RawJSON("request", b).Msg("infobip request")
	}

	resp, sendErr := s.client.SendAdvancedText(ctx, payload)

	flags := models.DeliveryFlags{HasFailed: true}
	if sendErr == nil {
		flags = s.acknowledgedFlags(resp)
		sendsTotal.WithLabelValues("success").Inc()
	} else {
		s.logger.Warn().Err(sendErr).Str("tracking_hash", trackingHash).Msg("Sms send error")
		sendsTotal.WithLabelValues("failure").Inc()
	}

	stat := &models.SMSStat{
		SMSID:        req.SMSID,
		LeadID:       req.LeadID,
		TrackingHash: trackingHash,
		Mobile:       mobile,
		DateSent:     utils.UTCNow(),
	}
	if campaignID > 0 {
		stat.CampaignID = utils.ToPtr(campaignID)
	}
	stat.Apply(flags)

	recorded := true
	if err := s.statRepo.Save(ctx, stat); err != nil {
		recorded = false
		s.logger.Error().Err(err).Str("tracking_hash", trackingHash).Msg("Failed to store message record")
	}

	eventType := models.DwhEventRequest
	if sendErr != nil {
		eventType = models.DwhEventFail
	}
	s.recordSendEvent(ctx, req, campaignID, eventType)

	if sendErr != nil {
		return nil, NewBusinessError("INFOBIP_SEND_FAILED", "Failed to submit SMS", fmt.Errorf("%w: %v", ErrVendorRequestFailed, sendErr))
	}

	return &dto.SendSMSResponse{
		TrackingHash: trackingHash,
		BulkID:       payload.BulkID,
		Mobile:       mobile,
		Status:       outcomeForFlags(flags).String(),
		Recorded:     recorded,
	}, nil
}

func (s *SMSSendFlowImpl) validateSendRequest(req *dto.SendSMSRequest) error {
	if req == nil || strings.TrimSpace(req.Mobile) == "" {
		return ErrMobileRequired
	}
	if strings.TrimSpace(req.Text) == "" {
		return ErrMessageTextRequired
	}
	if s.cfg.Sender == "" {
		return ErrSenderNotConfigured
	}
	return nil
}

func (s *SMSSendFlowImpl) buildRequest(req *dto.SendSMSRequest, mobile, trackingHash string, campaignID uint) (infobip.AdvancedTextRequest, error) {
	msg := infobip.Message{
		From: s.cfg.Sender,
		Destinations: []infobip.Destination{
			{To: mobile, MessageID: trackingHash},
		},
		Text:               req.Text,
		Flash:              false,
		IntermediateReport: true,
	}

	if s.cfg.CallbackURL != "" {
		cb, err := json.Marshal(infobip.CallbackData{
			SMSID:        int64(utils.Deref(req.SMSID)),
			LeadID:       int64(utils.Deref(req.LeadID)),
			CampaignID:   int64(campaignID),
			TrackingHash: trackingHash,
		})
		if err != nil {
			return infobip.AdvancedTextRequest{}, err
		}
		msg.NotifyURL = s.cfg.CallbackURL
		msg.NotifyContentType = "application/json"
		msg.CallbackData = string(cb)
	}

	return infobip.AdvancedTextRequest{
		BulkID:   utils.BulkIDPrefix + strconv.FormatUint(uint64(campaignID), 10),
		Messages: []infobip.Message{msg},
	}, nil
}

// acknowledgedFlags classifies the submission acknowledgment. An accepted
// request whose body cannot be read is treated as pending.
func (s *SMSSendFlowImpl) acknowledgedFlags(resp *infobip.SendResponse) models.DeliveryFlags {
	if resp == nil {
		return models.DeliveryFlags{IsPending: true}
	}
	ack, err := infobip.ParseReceipt(resp.Body)
	if err != nil || ack.Shape != infobip.ShapeSendAcknowledgment {
		return models.DeliveryFlags{IsPending: true}
	}
	return DeliveryFlagsFor(ack.Outcome())
}

func outcomeForFlags(f models.DeliveryFlags) infobip.Outcome {
	switch {
	case f.IsDelivered:
		return infobip.OutcomeDelivered
	case f.IsPending:
		return infobip.OutcomePending
	default:
		return infobip.OutcomeError
	}
}

// campaignIDForEvent resolves the campaign of a campaign event, reading through the cache
func (s *SMSSendFlowImpl) campaignIDForEvent(ctx context.Context, eventID uint) (uint, error) {
	cacheKey := fmt.Sprintf("%scampaign_event:%d", s.cachePrefix, eventID)
	if s.rc != nil {
		v, err := s.rc.Get(ctx, cacheKey).Result()
		if err == nil {
			if id, perr := strconv.ParseUint(v, 10, 64); perr == nil {
				return uint(id), nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", cacheKey).Msg("Campaign event cache read failed")
		}
	}

	event, err := s.campaignRepo.EventByID(ctx, eventID)
	if err != nil {
		return 0, NewBusinessError("CAMPAIGN_EVENT_LOOKUP_FAILED", "Failed to lookup campaign event", err)
	}
	if event == nil {
		return 0, NewBusinessError("CAMPAIGN_EVENT_NOT_FOUND", "Campaign event not found", ErrCampaignEventNotFound)
	}

	if s.rc != nil {
		if err := s.rc.Set(ctx, cacheKey, strconv.FormatUint(uint64(event.CampaignID), 10), s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", cacheKey).Msg("Campaign event cache write failed")
		}
	}
	return event.CampaignID, nil
}

func (s *SMSSendFlowImpl) recordSendEvent(ctx context.Context, req *dto.SendSMSRequest, campaignID uint, eventType string) {
	if s.sink == nil {
		return
	}
	event := &models.DwhStat{
		CampaignID: int64(campaignID),
		ChannelID:  int64(utils.Deref(req.SMSID)),
		Channel:    utils.ChannelSMS,
		EventType:  eventType,
		EventTs:    utils.UTCNow(),
	}
	if req.LeadID != nil {
		lead, err := s.leadRepo.ByID(ctx, *req.LeadID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("lead_id", *req.LeadID).Msg("Failed to load lead for send event")
		} else if lead != nil {
			event.Username = utils.Deref(lead.Username)
			event.PlayerID = utils.Deref(lead.PlayerID)
		}
	}
	if campaignID > 0 {
		campaign, err := s.campaignRepo.ByID(ctx, campaignID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("campaign_id", campaignID).Msg("Failed to load campaign for send event")
		} else if campaign != nil && campaign.CategoryID != nil {
			event.CampaignCategoryID = int64(*campaign.CategoryID)
		}
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record send event")
	}
}
