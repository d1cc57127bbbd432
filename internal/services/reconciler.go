package services

import (
	"context"
	"fmt"
	"log/slog"
	"receipt-resender/internal/entities"
	internalErrors "receipt-resender/internal/errors"
	"receipt-resender/internal/record"

	"github.com/shopspring/decimal"
)

// refs are the receipt type and identifiers, read from the full receipt
// first and the list stub second.
type refs struct {
	ReceiptID string
	Type      string
	PaymentID string
	RefundID  string
}

func resolveRefs(stub any, full map[string]any) refs {
	pick := func(name string) string {
		if v := record.String(full, name); v != "" {
			return v
		}
		return record.String(stub, name)
	}

	r := refs{
		ReceiptID: pick("id"),
		Type:      pick("type"),
		PaymentID: pick("payment_id"),
		RefundID:  pick("refund_id"),
	}
	if r.Type == "" {
		r.Type = entities.ReceiptTypePayment
	}
	return r
}

func (r refs) isRefund() bool {
	return r.Type == entities.ReceiptTypeRefund || r.RefundID != ""
}

type FieldReconciler struct {
	fetcher       *RecordFetcher
	strictAmounts bool
	logger        *slog.Logger
}

func NewFieldReconciler(fetcher *RecordFetcher, strictAmounts bool, logger *slog.Logger) *FieldReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldReconciler{
		fetcher:       fetcher,
		strictAmounts: strictAmounts,
		logger:        logger,
	}
}

// Reconcile fills in the items and settlement amount of a canceled receipt.
// The receipt's own data wins; the originating payment, then refund, are
// consulted only for what is still missing.
func (fr *FieldReconciler) Reconcile(ctx context.Context, stub any) (*entities.Reconciled, error) {
	data := fr.fetcher.FetchFullReceipt(ctx, stub)
	ref := resolveRefs(stub, data)

	items := itemsOf(data)
	var amount *entities.Amount
	if settlements := record.Slice(data, "settlements"); len(settlements) > 0 {
		amount = amountOf(record.Field(settlements[0], "amount", nil))
	}

	if len(items) == 0 {
		if fromPayment := fr.fetcher.FetchPaymentReceiptItems(ctx, ref.PaymentID); len(fromPayment) > 0 {
			items = fromPayment
		}
	}

	if amount == nil {
		if ref.isRefund() {
			if rf := fr.fetcher.FetchRefundItemsAndAmount(ctx, ref.RefundID); rf.Status == Fetched && rf.Amount != nil {
				amount = rf.Amount
			}
		}
		if amount == nil {
			amount = fr.fetcher.FetchPaymentAmount(ctx, ref.PaymentID)
		}
	}

	if len(items) == 0 || amount == nil {
		return nil, internalErrors.ErrIncompleteReceipt
	}

	if fr.strictAmounts {
		if err := checkItemsTotal(items, *amount); err != nil {
			return nil, err
		}
	}

	return &entities.Reconciled{Items: items, Amount: *amount}, nil
}

// checkItemsTotal requires sum(quantity * amount.value) over the items to
// equal the settlement amount.
func checkItemsTotal(items []entities.LineItem, amount entities.Amount) error {
	want, err := amount.Decimal()
	if err != nil {
		return fmt.Errorf("%w: settlement amount %q: %v", internalErrors.ErrAmountMismatch, amount.Value, err)
	}

	total := decimal.Zero
	for i, it := range items {
		qty, err := decimal.NewFromString(record.String(it, "quantity"))
		if err != nil {
			return fmt.Errorf("%w: item %d quantity: %v", internalErrors.ErrAmountMismatch, i, err)
		}
		price := amountOf(record.Field(it, "amount", nil))
		if price == nil {
			return fmt.Errorf("%w: item %d has no amount", internalErrors.ErrAmountMismatch, i)
		}
		if price.Currency != amount.Currency {
			return fmt.Errorf("%w: item %d currency %s, settlement %s", internalErrors.ErrAmountMismatch, i, price.Currency, amount.Currency)
		}
		p, err := price.Decimal()
		if err != nil {
			return fmt.Errorf("%w: item %d amount: %v", internalErrors.ErrAmountMismatch, i, err)
		}
		total = total.Add(qty.Mul(p))
	}

	if !total.Equal(want) {
		return fmt.Errorf("%w: items total %s, settlement %s", internalErrors.ErrAmountMismatch, total.StringFixed(2), want.StringFixed(2))
	}
	return nil
}
