package dtos

import "time"

type ReceiptListFilter struct {
	Status       string
	CreatedAtGte time.Time
	Limit        int
}

type Settlement struct {
	Type   string `json:"type"`
	Amount struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
}

// ReceiptStub is a receipt as returned by the list endpoint; items and
// settlements are often missing for receipts the provider rejected.
type ReceiptStub struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Status      string           `json:"status,omitempty"`
	PaymentID   string           `json:"payment_id,omitempty"`
	RefundID    string           `json:"refund_id,omitempty"`
	Items       []map[string]any `json:"items,omitempty"`
	Settlements []Settlement     `json:"settlements,omitempty"`
	CreatedAt   string           `json:"created_at,omitempty"`
}

type ReceiptListResponse struct {
	Type       string        `json:"type"`
	Items      []ReceiptStub `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type CreateReceiptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
