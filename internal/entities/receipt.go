package entities

import (
	"fmt"
	internalErrors "receipt-resender/internal/errors"

	"github.com/shopspring/decimal"
)

const (
	ReceiptTypePayment = "payment"
	ReceiptTypeRefund  = "refund"

	SettlementCashless   = "cashless"
	SettlementPrepayment = "prepayment"
)

// LineItem is passed through to the provider untouched.
type LineItem = map[string]any

type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func (a *Amount) Usable() bool {
	return a != nil && a.Value != "" && a.Currency != ""
}

func (a Amount) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(a.Value)
}

func (a Amount) String() string {
	return a.Value + " " + a.Currency
}

type CustomerContact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (c CustomerContact) IsEmpty() bool {
	return c.Email == "" && c.Phone == ""
}

type Settlement struct {
	Type   string `json:"type"`
	Amount Amount `json:"amount"`
}

// Reconciled holds the fields a canceled receipt needs to be re-created.
type Reconciled struct {
	Items  []LineItem
	Amount Amount
}

type ResubmissionPayload struct {
	Type        string          `json:"type"`
	Send        bool            `json:"send"`
	Customer    CustomerContact `json:"customer"`
	Items       []LineItem      `json:"items"`
	Settlements []Settlement    `json:"settlements"`
	PaymentID   string          `json:"payment_id,omitempty"`
	RefundID    string          `json:"refund_id,omitempty"`

	// ReceiptID is the canceled receipt this payload replaces.
	ReceiptID string `json:"-"`
}

// NewResubmissionPayload assembles a payload, attaching it to refundID when
// set and paymentID otherwise. The settlement type follows the receipt type.
func NewResubmissionPayload(receiptType string, r Reconciled, customer CustomerContact, paymentID, refundID string) (*ResubmissionPayload, error) {
	if len(r.Items) == 0 || !r.Amount.Usable() {
		return nil, internalErrors.ErrIncompleteReceipt
	}

	p := &ResubmissionPayload{
		Type:     receiptType,
		Send:     true,
		Customer: customer,
		Items:    r.Items,
	}

	switch receiptType {
	case ReceiptTypeRefund:
		p.Settlements = []Settlement{{Type: SettlementPrepayment, Amount: r.Amount}}
		switch {
		case refundID != "":
			p.RefundID = refundID
		case paymentID != "":
			p.PaymentID = paymentID
		default:
			return nil, internalErrors.ErrMissingIdentifier
		}
	case ReceiptTypePayment:
		p.Settlements = []Settlement{{Type: SettlementCashless, Amount: r.Amount}}
		if paymentID == "" {
			return nil, internalErrors.ErrMissingIdentifier
		}
		p.PaymentID = paymentID
	default:
		return nil, fmt.Errorf("%w: %q", internalErrors.ErrUnsupportedReceiptType, receiptType)
	}

	return p, nil
}

// Reference is the identifier the payload is attached to.
func (p *ResubmissionPayload) Reference() string {
	switch {
	case p.RefundID != "":
		return p.RefundID
	case p.PaymentID != "":
		return p.PaymentID
	}
	return "n/a"
}

func (p *ResubmissionPayload) Amount() Amount {
	if len(p.Settlements) == 0 {
		return Amount{}
	}
	return p.Settlements[0].Amount
}
