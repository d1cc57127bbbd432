package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"receipt-resender/internal/entities"
	internalErrors "receipt-resender/internal/errors"
)

type PayloadBuilder struct {
	fetcher    *RecordFetcher
	reconciler ReconcilerInterface
	customers  CustomerResolverInterface
	logger     *slog.Logger
}

func NewPayloadBuilder(
	fetcher *RecordFetcher,
	reconciler ReconcilerInterface,
	customers CustomerResolverInterface,
	logger *slog.Logger,
) *PayloadBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayloadBuilder{
		fetcher:    fetcher,
		reconciler: reconciler,
		customers:  customers,
		logger:     logger,
	}
}

// Build turns a canceled receipt stub into a payload ready to be re-created.
// A stub that cannot be completed is skipped with a non-nil error.
func (pb *PayloadBuilder) Build(ctx context.Context, stub any) (*entities.ResubmissionPayload, error) {
	ref := resolveRefs(stub, pb.fetcher.FetchFullReceipt(ctx, stub))

	receiptType := entities.ReceiptTypePayment
	switch {
	case ref.isRefund():
		receiptType = entities.ReceiptTypeRefund
	case ref.Type != entities.ReceiptTypePayment:
		err := fmt.Errorf("%w: %q", internalErrors.ErrUnsupportedReceiptType, ref.Type)
		pb.skip(ref, err)
		return nil, err
	}

	fields, err := pb.reconciler.Reconcile(ctx, stub)
	if err != nil {
		pb.skip(ref, err)
		return nil, err
	}

	customer := pb.customers.Resolve(ctx, stub)

	payload, err := entities.NewResubmissionPayload(receiptType, *fields, customer, ref.PaymentID, ref.RefundID)
	if err != nil {
		pb.skip(ref, err)
		return nil, err
	}
	payload.ReceiptID = ref.ReceiptID
	return payload, nil
}

func (pb *PayloadBuilder) skip(ref refs, err error) {
	reason := "no usable settlements/items"
	switch {
	case errors.Is(err, internalErrors.ErrMissingIdentifier):
		reason = fmt.Sprintf("%s receipt without payment_id/refund_id", ref.Type)
	case errors.Is(err, internalErrors.ErrAmountMismatch):
		reason = "items total does not match settlement"
	case errors.Is(err, internalErrors.ErrUnsupportedReceiptType):
		reason = "unsupported receipt type"
	}
	pb.logger.Info("skipping receipt", "receipt_id", ref.ReceiptID, "reason", reason, "error", err)
}
