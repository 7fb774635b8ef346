package handlers

import (
	businessflow "github.com/amirphl/infobip-sms-bridge/business_flow"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

const unsubscribedResponse = "<Response><Sms>You have been unsubscribed.</Sms></Response>"

// SMSCallbackHandlerInterface defines the contract for the vendor callback endpoint
type SMSCallbackHandlerInterface interface {
	Receive(c fiber.Ctx) error
}

// SMSCallbackHandler receives delivery receipts and inbound STOP messages
type SMSCallbackHandler struct {
	receiptFlow     businessflow.DeliveryReceiptFlow
	unsubscribeFlow businessflow.UnsubscribeFlow
	logger          zerolog.Logger
}

// NewSMSCallbackHandler creates a new callback handler
func NewSMSCallbackHandler(
	receiptFlow businessflow.DeliveryReceiptFlow,
	unsubscribeFlow businessflow.UnsubscribeFlow,
	logger zerolog.Logger,
) SMSCallbackHandlerInterface {
	return &SMSCallbackHandler{
		receiptFlow:     receiptFlow,
		unsubscribeFlow: unsubscribeFlow,
		logger:          logger.With().Str("component", "sms_callback").Logger(),
	}
}

// Receive handles vendor callbacks. The vendor always gets a 200.
// @Summary Receive SMS callback
// @Description Applies an InfoBip delivery receipt, or unsubscribes the sender of an inbound STOP message
// @Tags SMS
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param Body formData string false "Inbound message text"
// @Param From formData string false "Inbound sender number"
// @Success 200 {string} string "Empty body, or the unsubscribe acknowledgment"
// @Router /api/v1/sms/callback [post]
func (h *SMSCallbackHandler) Receive(c fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Msg("Recovered from panic in sms callback")
			err = c.Status(fiber.StatusOK).SendString("")
		}
	}()

	body := c.FormValue("Body")
	from := c.FormValue("From")

	if body == utils.StopKeyword && from != "" {
		ctx, cancel := requestContext(c, "/api/v1/sms/callback", defaultRequestTimeout)
		defer cancel()

		if err := h.unsubscribeFlow.Unsubscribe(ctx, from); err != nil {
			h.logger.Warn().Err(err).Msg("Unsubscribe via STOP failed")
			return c.Status(fiber.StatusOK).SendString("")
		}
		c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
		return c.Status(fiber.StatusOK).SendString(unsubscribedResponse)
	}

	ctx, cancel := requestContext(c, "/api/v1/sms/callback", defaultRequestTimeout)
	defer cancel()

	res := h.receiptFlow.Reconcile(ctx, c.Body())
	if res.Err != nil {
		h.logger.Info().
			Err(res.Err).
			Str("message_id", res.MessageID).
			Str("shape", string(res.Shape)).
			Msg("Delivery receipt not applied")
	}

	return c.Status(fiber.StatusOK).SendString("")
}
