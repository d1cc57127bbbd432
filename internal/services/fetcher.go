package services

import (
	"context"
	"log/slog"
	"receipt-resender/internal/cache"
	"receipt-resender/internal/entities"
	"receipt-resender/internal/gateway"
	"receipt-resender/internal/record"
)

const (
	kindReceipt = "receipt"
	kindPayment = "payment"
	kindRefund  = "refund"
)

type FetchStatus int

const (
	// FetchSkipped means there was no identifier to look up.
	FetchSkipped FetchStatus = iota
	FetchFailed
	Fetched
)

// RefundFetch tells a failed refund lookup apart from a refund that simply
// carries no items or amount.
type RefundFetch struct {
	Status FetchStatus
	Items  []entities.LineItem
	Amount *entities.Amount
}

type RecordFetcher struct {
	provider gateway.ProviderInterface
	cache    cache.LookupCache
	logger   *slog.Logger
}

func NewRecordFetcher(provider gateway.ProviderInterface, lookups cache.LookupCache, logger *slog.Logger) *RecordFetcher {
	if lookups == nil {
		lookups = cache.NewMemoryLookupCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordFetcher{
		provider: provider,
		cache:    lookups,
		logger:   logger,
	}
}

func (rf *RecordFetcher) lookup(ctx context.Context, kind, id string, get func(context.Context, string) (map[string]any, error)) (map[string]any, error) {
	if r, ok := rf.cache.Get(ctx, kind, id); ok {
		return r, nil
	}
	r, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	rf.cache.Set(ctx, kind, id, r)
	return r, nil
}

// FetchFullReceipt loads the complete receipt behind a list stub. When the
// stub has no identifier or the lookup fails, the stub itself is returned.
func (rf *RecordFetcher) FetchFullReceipt(ctx context.Context, stub any) map[string]any {
	data := record.Materialize(stub)

	id := record.String(stub, "id")
	if id == "" {
		id = record.String(stub, "receipt_id")
	}
	if id == "" {
		return data
	}

	full, err := rf.lookup(ctx, kindReceipt, id, rf.provider.GetReceipt)
	if err != nil {
		rf.logger.Warn("failed to load full receipt", "receipt_id", id, "error", err)
		return data
	}
	if len(full) == 0 {
		return data
	}
	return full
}

func (rf *RecordFetcher) FetchPayment(ctx context.Context, paymentID string) (map[string]any, error) {
	return rf.lookup(ctx, kindPayment, paymentID, rf.provider.GetPayment)
}

func (rf *RecordFetcher) FetchPaymentReceiptItems(ctx context.Context, paymentID string) []entities.LineItem {
	if paymentID == "" {
		return nil
	}
	p, err := rf.FetchPayment(ctx, paymentID)
	if err != nil {
		rf.logger.Warn("failed to get items from payment", "payment_id", paymentID, "error", err)
		return nil
	}
	return itemsOf(record.Field(p, "receipt", nil))
}

func (rf *RecordFetcher) FetchPaymentAmount(ctx context.Context, paymentID string) *entities.Amount {
	if paymentID == "" {
		return nil
	}
	p, err := rf.FetchPayment(ctx, paymentID)
	if err != nil {
		rf.logger.Warn("failed to get amount from payment", "payment_id", paymentID, "error", err)
		return nil
	}
	return amountOf(record.Field(p, "amount", nil))
}

func (rf *RecordFetcher) FetchRefundItemsAndAmount(ctx context.Context, refundID string) RefundFetch {
	if refundID == "" {
		return RefundFetch{Status: FetchSkipped}
	}
	r, err := rf.lookup(ctx, kindRefund, refundID, rf.provider.GetRefund)
	if err != nil {
		rf.logger.Warn("failed to get refund", "refund_id", refundID, "error", err)
		return RefundFetch{Status: FetchFailed}
	}
	return RefundFetch{
		Status: Fetched,
		Items:  itemsOf(record.Field(r, "receipt", nil)),
		Amount: amountOf(record.Field(r, "amount", nil)),
	}
}

func itemsOf(rec any) []entities.LineItem {
	raw := record.Slice(rec, "items")
	if len(raw) == 0 {
		return nil
	}
	items := make([]entities.LineItem, 0, len(raw))
	for _, it := range raw {
		items = append(items, record.Materialize(it))
	}
	return items
}

// amountOf returns nil unless both value and currency are present.
func amountOf(rec any) *entities.Amount {
	a := &entities.Amount{
		Value:    record.String(rec, "value"),
		Currency: record.String(rec, "currency"),
	}
	if !a.Usable() {
		return nil
	}
	return a
}
