package gateway

import (
	"context"
	"receipt-resender/internal/dtos"
	"receipt-resender/internal/entities"
)

type ProviderInterface interface {
	ListReceipts(ctx context.Context, filter dtos.ReceiptListFilter) ([]dtos.ReceiptStub, error)
	GetReceipt(ctx context.Context, id string) (map[string]any, error)
	GetPayment(ctx context.Context, id string) (map[string]any, error)
	GetRefund(ctx context.Context, id string) (map[string]any, error)
	CreateReceipt(ctx context.Context, payload *entities.ResubmissionPayload, idempotencyKey string) (*dtos.CreateReceiptResponse, error)
}
