package services

import (
	"context"
	"receipt-resender/internal/entities"
)

type ReconcilerInterface interface {
	Reconcile(ctx context.Context, stub any) (*entities.Reconciled, error)
}

type CustomerResolverInterface interface {
	Resolve(ctx context.Context, stub any) entities.CustomerContact
}

type PayloadBuilderInterface interface {
	Build(ctx context.Context, stub any) (*entities.ResubmissionPayload, error)
}

// Confirmer gates resubmission on an operator's explicit approval of the plan.
type Confirmer interface {
	Confirm(ctx context.Context, plan []*entities.ResubmissionPayload) (bool, error)
}
