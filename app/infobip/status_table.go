// Package infobip holds the InfoBip wire formats, the vendor status table and
// the classifier that turns a delivery receipt into a canonical outcome.
package infobip

// GroupCode is the coarse status group reported by InfoBip
type GroupCode int

// DeliveryCode is the fine-grained status id reported by InfoBip
type DeliveryCode int

// Status groups
const (
	GroupPending       GroupCode = 1
	GroupUndeliverable GroupCode = 2
	GroupDelivered     GroupCode = 3
	GroupExpired       GroupCode = 4
	GroupRejected      GroupCode = 5
)

// Status ids
const (
	StatusPendingWaitingDelivery           DeliveryCode = 3
	StatusPendingEnroute                   DeliveryCode = 7
	StatusPendingAccepted                  DeliveryCode = 26
	StatusUndeliverableRejectedOperator    DeliveryCode = 4
	StatusUndeliverableNotDelivered        DeliveryCode = 9
	StatusDeliveredToOperator              DeliveryCode = 2
	StatusDeliveredToHandset               DeliveryCode = 5
	StatusExpiredExpired                   DeliveryCode = 15
	StatusExpiredDLRUnknown                DeliveryCode = 29
	StatusRejectedNetwork                  DeliveryCode = 6
	StatusRejectedPrefixMissing            DeliveryCode = 8
	StatusRejectedDND                      DeliveryCode = 10
	StatusRejectedSource                   DeliveryCode = 11
	StatusRejectedNotEnoughCredits         DeliveryCode = 12
	StatusRejectedSender                   DeliveryCode = 13
	StatusRejectedDestination              DeliveryCode = 14
	StatusRejectedPrepaidPackageExpired    DeliveryCode = 17
	StatusRejectedDestinationNotRegistered DeliveryCode = 18
	StatusRejectedRouteNotAvailable        DeliveryCode = 19
	StatusRejectedFloodingFilter           DeliveryCode = 20
	StatusRejectedSystemError              DeliveryCode = 21
	StatusRejectedDuplicateMessageID       DeliveryCode = 23
	StatusRejectedInvalidUDH               DeliveryCode = 24
	StatusRejectedMessageTooLong           DeliveryCode = 25
	StatusMissingTo                        DeliveryCode = 51
	StatusRejectedDestinationPrefix        DeliveryCode = 52
)

type codeSet map[DeliveryCode]struct{}

func newCodeSet(codes ...DeliveryCode) codeSet {
	s := make(codeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s codeSet) has(c DeliveryCode) bool {
	_, ok := s[c]
	return ok
}

var (
	pendingCodes = newCodeSet(
		StatusPendingWaitingDelivery,
		StatusPendingEnroute,
		StatusPendingAccepted,
		StatusDeliveredToOperator,
	)

	deliveredCodes = newCodeSet(
		StatusDeliveredToHandset,
	)

	errorCodes = newCodeSet(
		StatusUndeliverableRejectedOperator,
		StatusUndeliverableNotDelivered,
		StatusExpiredExpired,
		StatusExpiredDLRUnknown,
		StatusRejectedNetwork,
		StatusRejectedPrefixMissing,
		StatusRejectedSource,
		StatusRejectedNotEnoughCredits,
		StatusRejectedSender,
		StatusRejectedDestination,
		StatusRejectedPrepaidPackageExpired,
		StatusRejectedDestinationNotRegistered,
		StatusRejectedRouteNotAvailable,
		StatusRejectedFloodingFilter,
		StatusRejectedSystemError,
		StatusRejectedDuplicateMessageID,
		StatusRejectedInvalidUDH,
		StatusRejectedMessageTooLong,
		StatusMissingTo,
		StatusRejectedDestinationPrefix,
	)

	// do not contact
	dncCodes = newCodeSet(
		StatusRejectedDND,
	)
)

// IsPendingCode reports whether the code means the message is still in flight
func IsPendingCode(c DeliveryCode) bool { return pendingCodes.has(c) }

// IsDeliveredCode reports whether the code means the handset received the message
func IsDeliveredCode(c DeliveryCode) bool { return deliveredCodes.has(c) }

// IsErrorCode reports whether the code is a terminal failure
func IsErrorCode(c DeliveryCode) bool { return errorCodes.has(c) }

// IsDNCCode reports whether the recipient refuses messages
func IsDNCCode(c DeliveryCode) bool { return dncCodes.has(c) }
