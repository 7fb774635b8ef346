package infobip

// Outcome is the canonical delivery state derived from a receipt
type Outcome string

const (
	OutcomePending      Outcome = "pending"
	OutcomeDelivered    Outcome = "delivered"
	OutcomeError        Outcome = "error"
	OutcomeDoNotContact Outcome = "dnc"
)

func (o Outcome) String() string { return string(o) }

type classifierRule struct {
	name    string
	match   func(GroupCode, DeliveryCode) bool
	outcome Outcome
}

func outsidePendingAndDelivered(g GroupCode) bool {
	return g != GroupPending && g != GroupDelivered
}

// Rules are evaluated in order and the first match wins.
var classifierRules = []classifierRule{
	{
		name: "pending group with in-flight code",
		match: func(g GroupCode, c DeliveryCode) bool {
			return g == GroupPending && IsPendingCode(c)
		},
		outcome: OutcomePending,
	},
	{
		name: "delivered group reached operator only",
		match: func(g GroupCode, c DeliveryCode) bool {
			return g == GroupDelivered && c == StatusDeliveredToOperator
		},
		outcome: OutcomePending,
	},
	{
		name: "delivered group reached handset",
		match: func(g GroupCode, c DeliveryCode) bool {
			return g == GroupDelivered && IsDeliveredCode(c)
		},
		outcome: OutcomeDelivered,
	},
	{
		name: "rejected as do-not-disturb",
		match: func(g GroupCode, c DeliveryCode) bool {
			return outsidePendingAndDelivered(g) && IsDNCCode(c)
		},
		outcome: OutcomeDoNotContact,
	},
	{
		name: "terminal failure code",
		match: func(g GroupCode, c DeliveryCode) bool {
			return outsidePendingAndDelivered(g) && IsErrorCode(c)
		},
		outcome: OutcomeError,
	},
}

// Classify maps a group and status id to exactly one outcome.
// Anything no rule recognises is an error.
func Classify(group GroupCode, code DeliveryCode) Outcome {
	for _, r := range classifierRules {
		if r.match(group, code) {
			return r.outcome
		}
	}
	return OutcomeError
}
