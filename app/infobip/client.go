package infobip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/amirphl/infobip-sms-bridge/config"
)

const advancedTextPath = "/sms/2/text/advanced"

type Destination struct {
	To        string `json:"to"`
	MessageID string `json:"messageId,omitempty"`
}

type Message struct {
	From               string        `json:"from"`
	Destinations       []Destination `json:"destinations"`
	Text               string        `json:"text"`
	Flash              bool          `json:"flash"`
	IntermediateReport bool          `json:"intermediateReport"`
	NotifyURL          string        `json:"notifyUrl,omitempty"`
	NotifyContentType  string        `json:"notifyContentType,omitempty"`
	CallbackData       string        `json:"callbackData,omitempty"`
}

// AdvancedTextRequest is the body of a fully featured text message submission
type AdvancedTextRequest struct {
	BulkID   string    `json:"bulkId"`
	Messages []Message `json:"messages"`
}

// SendResponse carries the raw acknowledgment so callers can classify it with ParseReceipt
type SendResponse struct {
	StatusCode int
	Body       []byte
}

type Client interface {
	SendAdvancedText(ctx context.Context, req AdvancedTextRequest) (*SendResponse, error)
}

type httpClient struct {
	cfg    config.InfoBipConfig
	client *http.Client
}

// NewClient returns a basic-auth InfoBip client. Requests are sent once.
func NewClient(cfg config.InfoBipConfig) Client {
	return &httpClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SendAdvancedText submits the request and returns the vendor acknowledgment
func (c *httpClient) SendAdvancedText(ctx context.Context, payload AdvancedTextRequest) (*SendResponse, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal infobip request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + advancedTextPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read infobip response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("infobip send http status: %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &SendResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
