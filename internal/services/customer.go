package services

import (
	"context"
	"log/slog"
	"receipt-resender/internal/entities"
	"receipt-resender/internal/record"
)

type CustomerResolver struct {
	fetcher      *RecordFetcher
	defaultEmail string
	logger       *slog.Logger
}

func NewCustomerResolver(fetcher *RecordFetcher, defaultEmail string, logger *slog.Logger) *CustomerResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerResolver{
		fetcher:      fetcher,
		defaultEmail: defaultEmail,
		logger:       logger,
	}
}

// Resolve never fails: a receipt without any contact is still resubmitted.
func (cr *CustomerResolver) Resolve(ctx context.Context, stub any) entities.CustomerContact {
	if c := cr.fromPayment(ctx, record.String(stub, "payment_id")); !c.IsEmpty() {
		return c
	}
	if cr.defaultEmail != "" {
		return entities.CustomerContact{Email: cr.defaultEmail}
	}
	cr.logger.Warn("no customer email/phone and no default email configured, receipt will have no recipient",
		"receipt_id", record.String(stub, "id"))
	return entities.CustomerContact{}
}

func (cr *CustomerResolver) fromPayment(ctx context.Context, paymentID string) entities.CustomerContact {
	if paymentID == "" {
		return entities.CustomerContact{}
	}
	p, err := cr.fetcher.FetchPayment(ctx, paymentID)
	if err != nil {
		cr.logger.Warn("failed to get payment for customer contact", "payment_id", paymentID, "error", err)
		return entities.CustomerContact{}
	}

	customer := record.Field(record.Field(p, "receipt", nil), "customer", nil)
	c := entities.CustomerContact{
		Email: record.String(customer, "email"),
		Phone: record.String(customer, "phone"),
	}
	if c.IsEmpty() {
		c.Email = record.String(record.Field(p, "metadata", nil), "email")
	}
	return c
}
