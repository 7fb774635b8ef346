package handlers

import (
	"github.com/amirphl/infobip-sms-bridge/app/dto"
	businessflow "github.com/amirphl/infobip-sms-bridge/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// SMSHandlerInterface defines the contract for outbound SMS handlers
type SMSHandlerInterface interface {
	Send(c fiber.Ctx) error
}

// SMSHandler handles outbound SMS requests
type SMSHandler struct {
	sendFlow  businessflow.SMSSendFlow
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSMSHandler creates a new SMS handler
func NewSMSHandler(sendFlow businessflow.SMSSendFlow, logger zerolog.Logger) SMSHandlerInterface {
	return &SMSHandler{
		sendFlow:  sendFlow,
		validator: validator.New(),
		logger:    logger.With().Str("component", "sms_send").Logger(),
	}
}

// Send submits a single SMS through InfoBip
// @Summary Send SMS
// @Description Submit one text message to the aggregator and create its delivery record
// @Tags SMS
// @Accept json
// @Produce json
// @Param X-API-Key header string true "API key"
// @Param request body dto.SendSMSRequest true "Message to send"
// @Success 200 {object} dto.APIResponse{data=dto.SendSMSResponse} "SMS submitted"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Missing or invalid API key"
// @Failure 404 {object} dto.APIResponse "Campaign event not found"
// @Failure 409 {object} dto.APIResponse "Tracking hash already used"
// @Failure 502 {object} dto.APIResponse "Aggregator rejected the request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/sms/send [post]
func (h *SMSHandler) Send(c fiber.Ctx) error {
	var req dto.SendSMSRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				validationErrors = append(validationErrors, getValidationErrorMessage(fe))
			}
		}
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	ctx, cancel := requestContext(c, "/api/v1/sms/send", defaultRequestTimeout)
	defer cancel()

	result, err := h.sendFlow.Send(ctx, &req)
	if err != nil {
		switch {
		case businessflow.IsMobileRequired(err), businessflow.IsMessageTextRequired(err):
			return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		case businessflow.IsInvalidMobile(err):
			return errorResponse(c, fiber.StatusBadRequest, "Mobile number is invalid", "INVALID_MOBILE", nil)
		case businessflow.IsCampaignEventNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Campaign event not found", "CAMPAIGN_EVENT_NOT_FOUND", nil)
		case businessflow.IsTrackingHashConflicted(err):
			return errorResponse(c, fiber.StatusConflict, "Tracking hash already used", "TRACKING_HASH_CONFLICT", nil)
		case businessflow.IsVendorRequestFailed(err):
			h.logger.Warn().Err(err).Msg("SMS submission failed")
			return errorResponse(c, fiber.StatusBadGateway, "Aggregator request failed", "INFOBIP_SEND_FAILED", nil)
		}

		h.logger.Error().Err(err).Msg("SMS send failed")
		return errorResponse(c, fiber.StatusInternalServerError, "SMS send failed", "SMS_SEND_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "SMS submitted successfully", result)
}
