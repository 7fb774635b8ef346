package infobip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Shape identifies which of the vendor payload layouts a receipt used
type Shape string

const (
	ShapeUnrecognized       Shape = "unrecognized"
	ShapeSendAcknowledgment Shape = "send_acknowledgment"
	ShapeDeliveryReport     Shape = "delivery_report"
)

// CallbackData is the correlation blob attached at send time and echoed back
// on delivery reports
type CallbackData struct {
	SMSID        int64  `json:"smsId"`
	LeadID       int64  `json:"leadId"`
	CampaignID   int64  `json:"campaignId"`
	TrackingHash string `json:"trackingHash"`
}

// IsZero reports whether no correlation data was supplied
func (c CallbackData) IsZero() bool {
	return c == CallbackData{}
}

// Receipt is a parsed vendor payload. Only the first entry of the payload is
// consulted.
type Receipt struct {
	Shape     Shape
	MessageID string
	GroupID   GroupCode
	StatusID  DeliveryCode
	Callback  CallbackData
}

// Outcome classifies the receipt
func (r Receipt) Outcome() Outcome {
	return Classify(r.GroupID, r.StatusID)
}

type receiptStatus struct {
	GroupID looseInt `json:"groupId"`
	ID      looseInt `json:"id"`
}

type receiptEntry struct {
	MessageID    looseString     `json:"messageId"`
	Status       receiptStatus   `json:"status"`
	CallbackData json.RawMessage `json:"callbackData"`
}

type receiptEnvelope struct {
	Messages json.RawMessage `json:"messages"`
	Results  json.RawMessage `json:"results"`
}

// ParseReceipt decodes either payload layout. A body that is not a JSON
// object is an error; a JSON object with neither layout yields an
// unrecognized receipt with empty fields.
func ParseReceipt(body []byte) (Receipt, error) {
	var env receiptEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Receipt{Shape: ShapeUnrecognized}, fmt.Errorf("invalid receipt payload: %w", err)
	}

	// results wins when both are present
	switch {
	case present(env.Results):
		entry, err := firstEntry(env.Results)
		if err != nil {
			return Receipt{Shape: ShapeUnrecognized}, fmt.Errorf("invalid results entry: %w", err)
		}
		r := entry.receipt(ShapeDeliveryReport)
		r.Callback = parseCallbackData(entry.CallbackData)
		return r, nil
	case present(env.Messages):
		entry, err := firstEntry(env.Messages)
		if err != nil {
			return Receipt{Shape: ShapeUnrecognized}, fmt.Errorf("invalid messages entry: %w", err)
		}
		return entry.receipt(ShapeSendAcknowledgment), nil
	default:
		return Receipt{Shape: ShapeUnrecognized}, nil
	}
}

func (e receiptEntry) receipt(shape Shape) Receipt {
	return Receipt{
		Shape:     shape,
		MessageID: string(e.MessageID),
		GroupID:   GroupCode(e.Status.GroupID),
		StatusID:  DeliveryCode(e.Status.ID),
	}
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func firstEntry(raw json.RawMessage) (receiptEntry, error) {
	var entries []receiptEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return receiptEntry{}, err
	}
	if len(entries) == 0 {
		return receiptEntry{}, nil
	}
	return entries[0], nil
}

// parseCallbackData accepts the blob as a JSON-encoded string or as an inline
// object. Anything unreadable yields an empty blob.
func parseCallbackData(raw json.RawMessage) CallbackData {
	if !present(raw) {
		return CallbackData{}
	}

	payload := []byte(raw)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		payload = []byte(encoded)
	}

	var blob struct {
		SMSID        looseInt64  `json:"smsId"`
		LeadID       looseInt64  `json:"leadId"`
		CampaignID   looseInt64  `json:"campaignId"`
		TrackingHash looseString `json:"trackingHash"`
	}
	if err := json.Unmarshal(payload, &blob); err != nil {
		return CallbackData{}
	}
	return CallbackData{
		SMSID:        int64(blob.SMSID),
		LeadID:       int64(blob.LeadID),
		CampaignID:   int64(blob.CampaignID),
		TrackingHash: string(blob.TrackingHash),
	}
}

// looseInt64 decodes numbers, numeric strings and anything else as zero
type looseInt64 int64

func (v *looseInt64) UnmarshalJSON(b []byte) error {
	*v = looseInt64(coerceInt(b))
	return nil
}

type looseInt int

func (v *looseInt) UnmarshalJSON(b []byte) error {
	*v = looseInt(coerceInt(b))
	return nil
}

// looseString keeps strings as-is and renders numbers as their literal text
type looseString string

func (v *looseString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = looseString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*v = looseString(n.String())
		return nil
	}
	*v = ""
	return nil
}

func coerceInt(b []byte) int64 {
	text := strings.TrimSpace(string(b))
	if s, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(s)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int64(f)
	}
	return 0
}
