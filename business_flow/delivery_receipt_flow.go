package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amirphl/infobip-sms-bridge/app/infobip"
	"github.com/amirphl/infobip-sms-bridge/app/services"
	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/repository"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DeliveryReceiptFlow applies vendor delivery receipts to message records
type DeliveryReceiptFlow interface {
	Reconcile(ctx context.Context, body []byte) ReconcileResult
}

// ReconcileResult describes what a receipt did. Err is informational: the
// caller acknowledges the vendor regardless.
type ReconcileResult struct {
	Shape     infobip.Shape
	MessageID string
	Outcome   infobip.Outcome
	Matched   bool
	Applied   bool
	Err       error
}

// DeliveryReceiptFlowImpl implements DeliveryReceiptFlow
type DeliveryReceiptFlowImpl struct {
	statRepo     repository.SMSStatRepository
	leadRepo     repository.LeadRepository
	campaignRepo repository.CampaignRepository
	receiptRepo  repository.ReceiptLogRepository
	sink         services.EventSink
	cfg          config.InfoBipConfig
	logger       zerolog.Logger
}

// NewDeliveryReceiptFlow creates a new delivery receipt flow instance
func NewDeliveryReceiptFlow(
	statRepo repository.SMSStatRepository,
	leadRepo repository.LeadRepository,
	campaignRepo repository.CampaignRepository,
	receiptRepo repository.ReceiptLogRepository,
	sink services.EventSink,
	cfg config.InfoBipConfig,
	logger zerolog.Logger,
) DeliveryReceiptFlow {
	return &DeliveryReceiptFlowImpl{
		statRepo:     statRepo,
		leadRepo:     leadRepo,
		campaignRepo: campaignRepo,
		receiptRepo:  receiptRepo,
		sink:         sink,
		cfg:          cfg,
		logger:       logger.With().Str("component", "delivery_receipt").Logger(),
	}
}

// DeliveryFlagsFor projects an outcome onto the record flags. Exactly one flag is set.
func DeliveryFlagsFor(o infobip.Outcome) models.DeliveryFlags {
	switch o {
	case infobip.OutcomePending:
		return models.DeliveryFlags{IsPending: true}
	case infobip.OutcomeDelivered:
		return models.DeliveryFlags{IsDelivered: true}
	default:
		return models.DeliveryFlags{HasFailed: true}
	}
}

// DwhEventFor names the analytics event emitted for an outcome
func DwhEventFor(o infobip.Outcome) string {
	switch o {
	case infobip.OutcomePending:
		return models.DwhEventPending
	case infobip.OutcomeDelivered:
		return models.DwhEventDelivered
	case infobip.OutcomeDoNotContact:
		return models.DwhEventDNC
	default:
		return models.DwhEventFail
	}
}

// Reconcile parses the receipt, finds the message by tracking hash and stores
// the classified flags. It never panics and never returns an error.
func (f *DeliveryReceiptFlowImpl) Reconcile(ctx context.Context, body []byte) (res ReconcileResult) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().
				Str("message_id", res.MessageID).
				Interface("panic", r).
				Msg("Recovered from panic while reconciling delivery receipt")
			receiptsTotal.WithLabelValues(shapeLabel(res.Shape), resultPanic).Inc()
			res.Applied = false
			res.Err = fmt.Errorf("panic while reconciling receipt: %v", r)
		}
	}()

	receipt, err := infobip.ParseReceipt(body)
	res.Shape = receipt.Shape
	if err != nil {
		f.logger.Warn().Err(err).Int("size", len(body)).Msg("Discarding unparseable delivery receipt")
		receiptsTotal.WithLabelValues(shapeLabel(res.Shape), resultUnparseable).Inc()
		res.Err = NewBusinessError("RECEIPT_UNPARSEABLE", "Failed to parse delivery receipt", fmt.Errorf("%w: %v", ErrReceiptUnparseable, err))
		return res
	}

	res.MessageID = receipt.MessageID
	res.Outcome = receipt.Outcome()
	log := f.logger.With().
		Str("message_id", receipt.MessageID).
		Str("shape", string(receipt.Shape)).
		Int("group_id", int(receipt.GroupID)).
		Int("status_id", int(receipt.StatusID)).
		Str("outcome", res.Outcome.String()).
		Logger()

	stat, err := f.statRepo.ByTrackingHash(ctx, receipt.MessageID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to look up message record")
		receiptsTotal.WithLabelValues(shapeLabel(res.Shape), resultStoreFailure).Inc()
		res.Err = NewBusinessError("MESSAGE_LOOKUP_FAILED", "Failed to look up message record", err)
		return res
	}
	if stat == nil {
		log.Warn().Msg("No message record matches delivery receipt")
		receiptsTotal.WithLabelValues(shapeLabel(res.Shape), resultNotFound).Inc()
		f.recordReceipt(ctx, receipt, res.Outcome, false, body)
		res.Err = NewBusinessError("MESSAGE_NOT_FOUND", "No message record matches the receipt", ErrMessageNotFound)
		return res
	}
	res.Matched = true

	flags := DeliveryFlagsFor(res.Outcome)
	if err := f.statRepo.UpdateDeliveryFlags(ctx, stat.ID, flags); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Uint("sms_stat_id", stat.ID).Msg("Message record disappeared before its flags were stored")
			receiptsTotal.WithLabelValues(shapeLabel(res.Shape), resultNotFound).Inc()
			res.Matched = false
			res.Err = NewBusinessError("MESSAGE_NOT_FOUND", "No message record matches the receipt", ErrMessageNotFound)
			return res
		}
		log.Error().Err(err).Uint("sms_stat_id", stat.ID).Msg("Failed to store delivery flags")
		receiptsTotal.WithLabelValues(shapeLabel(res.Shape), resultStoreFailure).Inc()
		res.Err = NewBusinessError("MESSAGE_UPDATE_FAILED", "Failed to store delivery flags", err)
		return res
	}
	stat.Apply(flags)
	res.Applied = true
	receiptsTotal.WithLabelValues(shapeLabel(res.Shape), resultApplied).Inc()
	receiptOutcomesTotal.WithLabelValues(res.Outcome.String()).Inc()
	log.Debug().Uint("sms_stat_id", stat.ID).Msg("Delivery receipt applied")

	f.recordReceipt(ctx, receipt, res.Outcome, true, body)
	f.emitEvent(ctx, log, receipt, stat, res.Outcome)

	return res
}

// recordReceipt keeps the raw payload for troubleshooting. Failures are logged only.
func (f *DeliveryReceiptFlowImpl) recordReceipt(ctx context.Context, receipt infobip.Receipt, outcome infobip.Outcome, matched bool, body []byte) {
	if !f.cfg.ReceiptAuditEnabled || f.receiptRepo == nil {
		return
	}
	row := &models.ReceiptLog{
		MessageID: receipt.MessageID,
		Shape:     string(receipt.Shape),
		GroupID:   int(receipt.GroupID),
		StatusID:  int(receipt.StatusID),
		Outcome:   outcome.String(),
		Matched:   matched,
		Payload:   datatypes.JSON(body),
	}
	if !json.Valid(body) {
		row.Payload = nil
	}
	if err := f.receiptRepo.Save(ctx, row); err != nil {
		f.logger.Warn().Err(err).Str("message_id", receipt.MessageID).Msg("Failed to store receipt log")
	}
}

// emitEvent writes the analytics event. It runs after the flags are stored and
// its failure never affects them.
func (f *DeliveryReceiptFlowImpl) emitEvent(ctx context.Context, log zerolog.Logger, receipt infobip.Receipt, stat *models.SMSStat, outcome infobip.Outcome) {
	if !f.cfg.ReceiptEventsEnabled || f.sink == nil {
		return
	}

	cb := receipt.Callback
	smsID := cb.SMSID
	if smsID == 0 && stat.SMSID != nil {
		smsID = int64(*stat.SMSID)
	}
	leadID := cb.LeadID
	if leadID == 0 && stat.LeadID != nil {
		leadID = int64(*stat.LeadID)
	}
	campaignID := cb.CampaignID
	if campaignID == 0 && stat.CampaignID != nil {
		campaignID = int64(*stat.CampaignID)
	}

	event := &models.DwhStat{
		CampaignID: campaignID,
		ChannelID:  smsID,
		Channel:    utils.ChannelSMS,
		EventType:  DwhEventFor(outcome),
		EventTs:    utils.UTCNow(),
	}

	if leadID > 0 {
		lead, err := f.leadRepo.ByID(ctx, uint(leadID))
		if err != nil {
			log.Warn().Err(err).Int64("lead_id", leadID).Msg("Failed to load lead for receipt event")
		} else if lead != nil {
			event.Username = utils.Deref(lead.Username)
			event.PlayerID = utils.Deref(lead.PlayerID)
		}
	}
	if campaignID > 0 {
		campaign, err := f.campaignRepo.ByID(ctx, uint(campaignID))
		if err != nil {
			log.Warn().Err(err).Int64("campaign_id", campaignID).Msg("Failed to load campaign for receipt event")
		} else if campaign != nil && campaign.CategoryID != nil {
			event.CampaignCategoryID = int64(*campaign.CategoryID)
		}
	}

	if err := f.sink.Record(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_type", event.EventType).Msg("Failed to record receipt event")
	}
}

func shapeLabel(s infobip.Shape) string {
	if s == "" {
		return string(infobip.ShapeUnrecognized)
	}
	return string(s)
}
