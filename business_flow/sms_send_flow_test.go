package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/infobip-sms-bridge/app/dto"
	"github.com/amirphl/infobip-sms-bridge/app/infobip"
	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendFixture struct {
	client    *fakeClient
	stats     *fakeStatRepo
	leads     *fakeLeadRepo
	campaigns *fakeCampaignRepo
	sink      *fakeSink
	flow      SMSSendFlow
}

const acceptedAck = `{"bulkId":"CNO-33","messages":[{"to":"+41793026727","messageId":"m","status":{"groupId":1,"groupName":"PENDING","id":26,"name":"PENDING_ACCEPTED"}}]}`

func newSendFixture(t *testing.T, cfg config.InfoBipConfig) *sendFixture {
	t.Helper()
	f := &sendFixture{
		client: &fakeClient{body: []byte(acceptedAck)},
		stats:  newFakeStatRepo(),
		leads: &fakeLeadRepo{leads: map[uint]*models.Lead{
			22: {ID: 22, Username: utils.ToPtr("jdoe"), PlayerID: utils.ToPtr("player-22")},
		}},
		campaigns: &fakeCampaignRepo{
			campaigns: map[uint]*models.Campaign{33: {ID: 33, CategoryID: utils.ToPtr(uint(4))}},
			events:    map[uint]*models.CampaignEvent{7: {ID: 7, CampaignID: 33}},
		},
		sink: &fakeSink{},
	}
	f.flow = NewSMSSendFlow(f.client, f.stats, f.leads, f.campaigns, f.sink, nil, cfg, config.CacheConfig{RedisPrefix: "test:"}, zerolog.Nop(), zerolog.Nop())
	return f
}

func sendConfig() config.InfoBipConfig {
	return config.InfoBipConfig{
		Sender:        "ACME",
		CallbackURL:   "https://hooks.example.com/api/v1/sms/callback",
		DefaultRegion: "CH",
	}
}

func sampleSendRequest() *dto.SendSMSRequest {
	return &dto.SendSMSRequest{
		Mobile:          "079 302 67 27",
		Text:            "hello",
		LeadID:          utils.ToPtr(uint(22)),
		SMSID:           utils.ToPtr(uint(11)),
		CampaignEventID: utils.ToPtr(uint(7)),
		TrackingHash:    "hash-abc",
	}
}

func TestSend_Success(t *testing.T) {
	f := newSendFixture(t, sendConfig())

	resp, err := f.flow.Send(context.Background(), sampleSendRequest())
	require.NoError(t, err)

	assert.Equal(t, "hash-abc", resp.TrackingHash)
	assert.Equal(t, "CNO-33", resp.BulkID)
	assert.Equal(t, "+41793026727", resp.Mobile)
	assert.Equal(t, "pending", resp.Status)
	assert.True(t, resp.Recorded)

	require.Len(t, f.client.requests, 1)
	sent := f.client.requests[0]
	assert.Equal(t, "CNO-33", sent.BulkID)
	require.Len(t, sent.Messages, 1)
	msg := sent.Messages[0]
	assert.Equal(t, "ACME", msg.From)
	assert.Equal(t, []infobip.Destination{{To: "+41793026727", MessageID: "hash-abc"}}, msg.Destinations)
	assert.False(t, msg.Flash)
	assert.True(t, msg.IntermediateReport)
	assert.Equal(t, "https://hooks.example.com/api/v1/sms/callback", msg.NotifyURL)
	assert.Equal(t, "application/json", msg.NotifyContentType)

	var cb infobip.CallbackData
	require.NoError(t, json.Unmarshal([]byte(msg.CallbackData), &cb))
	assert.Equal(t, infobip.CallbackData{SMSID: 11, LeadID: 22, CampaignID: 33, TrackingHash: "hash-abc"}, cb)

	stat := f.stats.get("hash-abc")
	require.NotNil(t, stat)
	assert.Equal(t, models.DeliveryFlags{IsPending: true}, stat.Flags())
	assert.Equal(t, uint(33), *stat.CampaignID)
	assert.Equal(t, "+41793026727", stat.Mobile)

	require.Len(t, f.sink.events, 1)
	ev := f.sink.events[0]
	assert.Equal(t, models.DwhEventRequest, ev.EventType)
	assert.Equal(t, "jdoe", ev.Username)
	assert.Equal(t, "player-22", ev.PlayerID)
	assert.Equal(t, int64(33), ev.CampaignID)
	assert.Equal(t, int64(4), ev.CampaignCategoryID)
	assert.Equal(t, int64(11), ev.ChannelID)
}

func TestSend_CallbackRoundTripsThroughReceiptParser(t *testing.T) {
	f := newSendFixture(t, sendConfig())
	_, err := f.flow.Send(context.Background(), sampleSendRequest())
	require.NoError(t, err)

	cb := f.client.requests[0].Messages[0].CallbackData
	encoded, err := json.Marshal(cb)
	require.NoError(t, err)
	body := []byte(`{"results":[{"messageId":"hash-abc","status":{"groupId":3,"id":5},"callbackData":` + string(encoded) + `}]}`)

	receipt, err := infobip.ParseReceipt(body)
	require.NoError(t, err)
	assert.Equal(t, int64(33), receipt.Callback.CampaignID)
	assert.Equal(t, "hash-abc", receipt.Callback.TrackingHash)
}

func TestSend_WithoutCallbackURL(t *testing.T) {
	cfg := sendConfig()
	cfg.CallbackURL = ""
	f := newSendFixture(t, cfg)

	_, err := f.flow.Send(context.Background(), sampleSendRequest())
	require.NoError(t, err)

	msg := f.client.requests[0].Messages[0]
	assert.Empty(t, msg.NotifyURL)
	assert.Empty(t, msg.NotifyContentType)
	assert.Empty(t, msg.CallbackData)
}

func TestSend_GeneratesTrackingHash(t *testing.T) {
	f := newSendFixture(t, sendConfig())
	req := sampleSendRequest()
	req.TrackingHash = ""
	req.CampaignEventID = nil

	resp, err := f.flow.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, resp.TrackingHash, 36)
	assert.Equal(t, "CNO-0", resp.BulkID)
	assert.Equal(t, resp.TrackingHash, f.client.requests[0].Messages[0].Destinations[0].MessageID)
	assert.NotNil(t, f.stats.get(resp.TrackingHash))
}

func TestSend_VendorFailure(t *testing.T) {
	f := newSendFixture(t, sendConfig())
	f.client.err = errors.New("connection refused")

	resp, err := f.flow.Send(context.Background(), sampleSendRequest())
	assert.Nil(t, resp)
	assert.True(t, IsVendorRequestFailed(err))

	stat := f.stats.get("hash-abc")
	require.NotNil(t, stat)
	assert.Equal(t, models.DeliveryFlags{HasFailed: true}, stat.Flags())

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, models.DwhEventFail, f.sink.events[0].EventType)
	assert.Len(t, f.client.requests, 1)
}

func TestSend_RejectedAcknowledgment(t *testing.T) {
	f := newSendFixture(t, sendConfig())
	f.client.body = []byte(`{"messages":[{"messageId":"hash-abc","status":{"groupId":5,"id":10}}]}`)

	resp, err := f.flow.Send(context.Background(), sampleSendRequest())
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, models.DeliveryFlags{HasFailed: true}, f.stats.get("hash-abc").Flags())
}

func TestSend_RecordFailureStillReturnsResponse(t *testing.T) {
	f := newSendFixture(t, sendConfig())
	f.stats.saveErr = errors.New("db down")
	f.sink.err = errors.New("sink down")

	resp, err := f.flow.Send(context.Background(), sampleSendRequest())
	require.NoError(t, err)
	assert.False(t, resp.Recorded)
}

func TestSend_Validation(t *testing.T) {
	testcases := []struct {
		name   string
		mutate func(*dto.SendSMSRequest, *config.InfoBipConfig)
		check  func(error) bool
	}{
		{
			name:   "empty mobile",
			mutate: func(r *dto.SendSMSRequest, _ *config.InfoBipConfig) { r.Mobile = "  " },
			check:  IsMobileRequired,
		},
		{
			name:   "empty text",
			mutate: func(r *dto.SendSMSRequest, _ *config.InfoBipConfig) { r.Text = "" },
			check:  IsMessageTextRequired,
		},
		{
			name:   "no sender",
			mutate: func(_ *dto.SendSMSRequest, c *config.InfoBipConfig) { c.Sender = "" },
			check:  IsSenderNotConfigured,
		},
		{
			name:   "invalid mobile",
			mutate: func(r *dto.SendSMSRequest, _ *config.InfoBipConfig) { r.Mobile = "not a number" },
			check:  IsInvalidMobile,
		},
		{
			name:   "unknown campaign event",
			mutate: func(r *dto.SendSMSRequest, _ *config.InfoBipConfig) { r.CampaignEventID = utils.ToPtr(uint(99)) },
			check:  IsCampaignEventNotFound,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			req := sampleSendRequest()
			cfg := sendConfig()
			tc.mutate(req, &cfg)
			f := newSendFixture(t, cfg)

			resp, err := f.flow.Send(context.Background(), req)
			assert.Nil(t, resp)
			assert.True(t, tc.check(err), "unexpected error: %v", err)
			assert.Empty(t, f.client.requests)
			assert.Empty(t, f.sink.events)
		})
	}
}

func TestSend_TrackingHashConflict(t *testing.T) {
	f := newSendFixture(t, sendConfig())
	require.NoError(t, f.stats.Save(context.Background(), &models.SMSStat{TrackingHash: "hash-abc"}))

	_, err := f.flow.Send(context.Background(), sampleSendRequest())
	assert.True(t, IsTrackingHashConflicted(err))
	assert.Empty(t, f.client.requests)
}

func TestNewSMSSendFlow_CacheSettings(t *testing.T) {
	t.Run("configured ttl and prefix", func(t *testing.T) {
		flow := NewSMSSendFlow(&fakeClient{}, newFakeStatRepo(), &fakeLeadRepo{}, &fakeCampaignRepo{}, &fakeSink{}, nil,
			sendConfig(), config.CacheConfig{RedisPrefix: "ib:", DefaultTTL: 5 * time.Minute}, zerolog.Nop(), zerolog.Nop())

		impl, ok := flow.(*SMSSendFlowImpl)
		require.True(t, ok)
		assert.Equal(t, "ib:", impl.cachePrefix)
		assert.Equal(t, 5*time.Minute, impl.cacheTTL)
	})

	t.Run("falls back to default ttl", func(t *testing.T) {
		flow := NewSMSSendFlow(&fakeClient{}, newFakeStatRepo(), &fakeLeadRepo{}, &fakeCampaignRepo{}, &fakeSink{}, nil,
			sendConfig(), config.CacheConfig{}, zerolog.Nop(), zerolog.Nop())

		impl, ok := flow.(*SMSSendFlowImpl)
		require.True(t, ok)
		assert.Equal(t, utils.CampaignEventCacheTTL, impl.cacheTTL)
	})
}
