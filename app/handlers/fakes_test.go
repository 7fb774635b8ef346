package handlers

import (
	"context"
	"sync"

	"github.com/amirphl/infobip-sms-bridge/app/dto"
	businessflow "github.com/amirphl/infobip-sms-bridge/business_flow"
)

type fakeReceiptFlow struct {
	mu     sync.Mutex
	bodies [][]byte
	result businessflow.ReconcileResult
	panics bool
}

func (f *fakeReceiptFlow) Reconcile(_ context.Context, body []byte) businessflow.ReconcileResult {
	f.mu.Lock()
	f.bodies = append(f.bodies, append([]byte(nil), body...))
	f.mu.Unlock()
	if f.panics {
		panic("store exploded")
	}
	return f.result
}

func (f *fakeReceiptFlow) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

type fakeUnsubscribeFlow struct {
	mu   sync.Mutex
	from []string
	err  error
}

func (f *fakeUnsubscribeFlow) Unsubscribe(_ context.Context, from string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.from = append(f.from, from)
	return f.err
}

type fakeSendFlow struct {
	mu   sync.Mutex
	got  []dto.SendSMSRequest
	resp *dto.SendSMSResponse
	err  error
}

func (f *fakeSendFlow) Send(_ context.Context, req *dto.SendSMSRequest) (*dto.SendSMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, *req)
	return f.resp, f.err
}
