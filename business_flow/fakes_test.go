package businessflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amirphl/infobip-sms-bridge/app/infobip"
	"github.com/amirphl/infobip-sms-bridge/models"
	"gorm.io/gorm"
)

type fakeStatRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.SMSStat
	nextID    uint
	updates   int
	lookupErr error
	updateErr error
	saveErr   error
	panicMsg  string
}

func newFakeStatRepo(rows ...*models.SMSStat) *fakeStatRepo {
	r := &fakeStatRepo{rows: map[string]*models.SMSStat{}}
	for _, row := range rows {
		r.nextID++
		if row.ID == 0 {
			row.ID = r.nextID
		}
		r.rows[row.TrackingHash] = row
	}
	return r
}

func (r *fakeStatRepo) get(hash string) *models.SMSStat {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[hash]
	if row == nil {
		return nil
	}
	cp := *row
	return &cp
}

func (r *fakeStatRepo) ByID(_ context.Context, id uint) (*models.SMSStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeStatRepo) ByFilter(context.Context, models.SMSStatFilter, string, int, int) ([]*models.SMSStat, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeStatRepo) Save(_ context.Context, stat *models.SMSStat) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stat.ID = r.nextID
	cp := *stat
	r.rows[stat.TrackingHash] = &cp
	return nil
}

func (r *fakeStatRepo) SaveBatch(ctx context.Context, stats []*models.SMSStat) error {
	for _, s := range stats {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeStatRepo) Count(context.Context, models.SMSStatFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeStatRepo) Exists(ctx context.Context, f models.SMSStatFilter) (bool, error) {
	n, err := r.Count(ctx, f)
	return n > 0, err
}

func (r *fakeStatRepo) ByTrackingHash(_ context.Context, hash string) (*models.SMSStat, error) {
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	return r.get(hash), nil
}

func (r *fakeStatRepo) UpdateDeliveryFlags(_ context.Context, id uint, flags models.DeliveryFlags) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.Apply(flags)
			r.updates++
			return nil
		}
	}
	return fmt.Errorf("sms stat %d: %w", id, gorm.ErrRecordNotFound)
}

type fakeLeadRepo struct {
	leads map[uint]*models.Lead
	err   error
	// mobiles passed to the last ByMobile call
	queried []string
}

func (r *fakeLeadRepo) ByID(_ context.Context, id uint) (*models.Lead, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.leads[id], nil
}

func (r *fakeLeadRepo) ByMobile(_ context.Context, mobiles ...string) (*models.Lead, error) {
	r.queried = mobiles
	if r.err != nil {
		return nil, r.err
	}
	for _, lead := range r.leads {
		for _, m := range mobiles {
			if lead.Mobile != nil && *lead.Mobile == m {
				return lead, nil
			}
		}
	}
	return nil, nil
}

type fakeCampaignRepo struct {
	campaigns   map[uint]*models.Campaign
	events      map[uint]*models.CampaignEvent
	eventLookup int
}

func (r *fakeCampaignRepo) ByID(_ context.Context, id uint) (*models.Campaign, error) {
	return r.campaigns[id], nil
}

func (r *fakeCampaignRepo) EventByID(_ context.Context, id uint) (*models.CampaignEvent, error) {
	r.eventLookup++
	return r.events[id], nil
}

type fakeReceiptRepo struct {
	rows []*models.ReceiptLog
	err  error
}

func (r *fakeReceiptRepo) Save(_ context.Context, row *models.ReceiptLog) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

type fakeDNCRepo struct {
	rows []*models.DoNotContact
	err  error
}

func (r *fakeDNCRepo) Save(_ context.Context, row *models.DoNotContact) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *fakeDNCRepo) ExistsForLead(_ context.Context, leadID uint, channel string) (bool, error) {
	for _, row := range r.rows {
		if row.LeadID == leadID {
			for _, c := range row.Channels {
				if c == channel {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

type fakeSink struct {
	events []*models.DwhStat
	err    error
}

func (s *fakeSink) Record(_ context.Context, stat *models.DwhStat) error {
	s.events = append(s.events, stat)
	return s.err
}

func (s *fakeSink) Close() error { return nil }

type fakeClient struct {
	requests []infobip.AdvancedTextRequest
	body     []byte
	err      error
}

func (c *fakeClient) SendAdvancedText(_ context.Context, req infobip.AdvancedTextRequest) (*infobip.SendResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return &infobip.SendResponse{StatusCode: 200, Body: c.body}, nil
}
