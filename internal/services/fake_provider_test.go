package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"receipt-resender/internal/cache"
	"receipt-resender/internal/dtos"
	"receipt-resender/internal/entities"
	"sync"
)

var errNotFound = errors.New("not found")

type createCall struct {
	payload *entities.ResubmissionPayload
	key     string
}

type fakeProvider struct {
	mu sync.Mutex

	stubs    []dtos.ReceiptStub
	listErr  error
	receipts map[string]map[string]any
	payments map[string]map[string]any
	refunds  map[string]map[string]any

	// createErrs fails creation for the given reference (payment or refund id).
	createErrs map[string]error

	gets    map[string]int
	creates []createCall
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		receipts:   map[string]map[string]any{},
		payments:   map[string]map[string]any{},
		refunds:    map[string]map[string]any{},
		createErrs: map[string]error{},
		gets:       map[string]int{},
	}
}

func (f *fakeProvider) ListReceipts(_ context.Context, _ dtos.ReceiptListFilter) ([]dtos.ReceiptStub, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.stubs, nil
}

func (f *fakeProvider) get(kind string, src map[string]map[string]any, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[kind+":"+id]++
	r, ok := src[id]
	if !ok {
		return nil, errNotFound
	}
	return r, nil
}

func (f *fakeProvider) GetReceipt(_ context.Context, id string) (map[string]any, error) {
	return f.get("receipt", f.receipts, id)
}

func (f *fakeProvider) GetPayment(_ context.Context, id string) (map[string]any, error) {
	return f.get("payment", f.payments, id)
}

func (f *fakeProvider) GetRefund(_ context.Context, id string) (map[string]any, error) {
	return f.get("refund", f.refunds, id)
}

func (f *fakeProvider) CreateReceipt(_ context.Context, p *entities.ResubmissionPayload, key string) (*dtos.CreateReceiptResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{payload: p, key: key})
	if err := f.createErrs[p.Reference()]; err != nil {
		return nil, err
	}
	return &dtos.CreateReceiptResponse{ID: "new-" + p.Reference(), Status: "pending"}, nil
}

func (f *fakeProvider) getCount(kind, id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[kind+":"+id]
}

func (f *fakeProvider) totalGets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.gets {
		n += c
	}
	return n
}

type fakeConfirmer struct {
	answer bool
	err    error
	seen   []*entities.ResubmissionPayload
	calls  int
}

func (c *fakeConfirmer) Confirm(_ context.Context, plan []*entities.ResubmissionPayload) (bool, error) {
	c.calls++
	c.seen = plan
	return c.answer, c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBuilder wires the real components over fp without any caching, so
// remote call counts are observable.
func newTestBuilder(fp *fakeProvider, defaultEmail string) (*PayloadBuilder, *FieldReconciler, *RecordFetcher) {
	logger := discardLogger()
	fetcher := NewRecordFetcher(fp, cache.Nop{}, logger)
	reconciler := NewFieldReconciler(fetcher, false, logger)
	customers := NewCustomerResolver(fetcher, defaultEmail, logger)
	return NewPayloadBuilder(fetcher, reconciler, customers, logger), reconciler, fetcher
}

func amountMap(value, currency string) map[string]any {
	return map[string]any{"value": value, "currency": currency}
}

func paymentWithItems(items []any, amount map[string]any) map[string]any {
	p := map[string]any{"id": "p", "status": "succeeded"}
	if amount != nil {
		p["amount"] = amount
	}
	if items != nil {
		p["receipt"] = map[string]any{"items": items}
	}
	return p
}
