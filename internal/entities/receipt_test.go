package entities

import (
	"errors"
	internalErrors "receipt-resender/internal/errors"
	"testing"
)

func TestNewResubmissionPayload(t *testing.T) {
	complete := Reconciled{
		Items:  []LineItem{{"description": "A"}},
		Amount: Amount{Value: "10.00", Currency: "RUB"},
	}

	tests := []struct {
		name           string
		receiptType    string
		fields         Reconciled
		paymentID      string
		refundID       string
		wantErr        error
		wantSettlement string
		wantPaymentID  string
		wantRefundID   string
	}{
		{"payment", ReceiptTypePayment, complete, "p1", "", nil, SettlementCashless, "p1", ""},
		{"payment ignores refund id", ReceiptTypePayment, complete, "p1", "rf1", nil, SettlementCashless, "p1", ""},
		{"payment without payment id", ReceiptTypePayment, complete, "", "rf1", internalErrors.ErrMissingIdentifier, "", "", ""},
		{"refund prefers refund id", ReceiptTypeRefund, complete, "p1", "rf1", nil, SettlementPrepayment, "", "rf1"},
		{"refund falls back to payment id", ReceiptTypeRefund, complete, "p1", "", nil, SettlementPrepayment, "p1", ""},
		{"refund without ids", ReceiptTypeRefund, complete, "", "", internalErrors.ErrMissingIdentifier, "", "", ""},
		{"no items", ReceiptTypePayment, Reconciled{Amount: complete.Amount}, "p1", "", internalErrors.ErrIncompleteReceipt, "", "", ""},
		{"no currency", ReceiptTypePayment, Reconciled{Items: complete.Items, Amount: Amount{Value: "1"}}, "p1", "", internalErrors.ErrIncompleteReceipt, "", "", ""},
		{"other type", "correction", complete, "p1", "", internalErrors.ErrUnsupportedReceiptType, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewResubmissionPayload(tt.receiptType, tt.fields, CustomerContact{}, tt.paymentID, tt.refundID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				if p != nil {
					t.Errorf("expected no payload on error")
				}
				return
			}
			if !p.Send {
				t.Errorf("send must be true")
			}
			if len(p.Settlements) != 1 || p.Settlements[0].Type != tt.wantSettlement {
				t.Errorf("settlements mismatch: %+v", p.Settlements)
			}
			if p.PaymentID != tt.wantPaymentID || p.RefundID != tt.wantRefundID {
				t.Errorf("identifiers mismatch: payment_id=%q refund_id=%q", p.PaymentID, p.RefundID)
			}
		})
	}
}

func TestReportCounts(t *testing.T) {
	r := &Report{
		State: StateReported,
		Plan:  []*ResubmissionPayload{{}, {}, {}},
		Outcomes: []Outcome{
			{ReceiptID: "a"},
			{Err: errors.New("boom")},
			{ReceiptID: "c"},
		},
	}
	if r.Succeeded() != 2 || r.Failed() != 1 {
		t.Errorf("counts mismatch: %d ok, %d failed", r.Succeeded(), r.Failed())
	}
	if r.NothingToDo() {
		t.Errorf("a run with a plan has something to do")
	}
}

func TestAmountDecimal(t *testing.T) {
	d, err := Amount{Value: "100.50", Currency: "RUB"}.Decimal()
	if err != nil || d.String() != "100.5" {
		t.Errorf("unexpected decimal %v, %v", d, err)
	}
	if _, err := (Amount{Value: "abc"}).Decimal(); err == nil {
		t.Errorf("expected parse error")
	}
}
