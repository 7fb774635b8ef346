// Package businessflow contains the core business logic for sending SMS and reconciling delivery receipts
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Send errors
	ErrMobileRequired         = errors.New("mobile number is required")
	ErrInvalidMobile          = errors.New("mobile number is invalid")
	ErrMessageTextRequired    = errors.New("message text is required")
	ErrCampaignEventNotFound  = errors.New("campaign event not found")
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrLeadNotFound           = errors.New("lead not found")
	ErrSenderNotConfigured    = errors.New("sender is not configured")
	ErrVendorRequestFailed    = errors.New("vendor request failed")
	ErrTrackingHashConflicted = errors.New("tracking hash already used")

	// Receipt errors
	ErrReceiptUnparseable = errors.New("delivery receipt could not be parsed")
	ErrMessageNotFound    = errors.New("no message record matches the receipt")

	// Unsubscribe errors
	ErrContactNotFound = errors.New("contact not found")

	ErrCacheNotAvailable = errors.New("cache not available")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsMobileRequired(err error) bool {
	return errors.Is(err, ErrMobileRequired)
}

func IsInvalidMobile(err error) bool {
	return errors.Is(err, ErrInvalidMobile)
}

func IsMessageTextRequired(err error) bool {
	return errors.Is(err, ErrMessageTextRequired)
}

func IsCampaignEventNotFound(err error) bool {
	return errors.Is(err, ErrCampaignEventNotFound)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}

func IsSenderNotConfigured(err error) bool {
	return errors.Is(err, ErrSenderNotConfigured)
}

func IsVendorRequestFailed(err error) bool {
	return errors.Is(err, ErrVendorRequestFailed)
}

func IsTrackingHashConflicted(err error) bool {
	return errors.Is(err, ErrTrackingHashConflicted)
}

func IsReceiptUnparseable(err error) bool {
	return errors.Is(err, ErrReceiptUnparseable)
}

func IsMessageNotFound(err error) bool {
	return errors.Is(err, ErrMessageNotFound)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}
