package services

import (
	"context"
	"fmt"
	"log/slog"
	"receipt-resender/internal/config"
	"receipt-resender/internal/dtos"
	"receipt-resender/internal/entities"
	"receipt-resender/internal/gateway"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type DriverOptions struct {
	RunID         string
	LookbackDays  int
	ListLimit     int
	PlanWorkers   int
	SubmitWorkers int

	// DryRun stops after planning.
	DryRun bool

	Now    func() time.Time
	NewKey func() string
}

type ResubmissionDriver struct {
	provider  gateway.ProviderInterface
	builder   PayloadBuilderInterface
	confirmer Confirmer
	opts      DriverOptions
	logger    *slog.Logger
}

func NewResubmissionDriver(
	provider gateway.ProviderInterface,
	builder PayloadBuilderInterface,
	confirmer Confirmer,
	opts DriverOptions,
	logger *slog.Logger,
) *ResubmissionDriver {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = config.DefaultLookbackDays
	}
	opts.ListLimit = config.ClampListLimit(opts.ListLimit)
	if opts.PlanWorkers < 1 {
		opts.PlanWorkers = 1
	}
	if opts.SubmitWorkers < 1 {
		opts.SubmitWorkers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewKey == nil {
		opts.NewKey = uuid.NewString
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResubmissionDriver{
		provider:  provider,
		builder:   builder,
		confirmer: confirmer,
		opts:      opts,
		logger:    logger,
	}
}

// Run lists canceled receipts, plans their resubmission, waits for
// confirmation and re-creates each planned receipt. Only listing and
// confirmation failures are returned; per-receipt failures end up in the report.
func (d *ResubmissionDriver) Run(ctx context.Context) (*entities.Report, error) {
	report := &entities.Report{RunID: d.opts.RunID, State: entities.StateConfigured}

	from := d.opts.Now().UTC().AddDate(0, 0, -d.opts.LookbackDays)
	d.logger.Info("searching canceled receipts", "from", from.Format(time.DateOnly), "limit", d.opts.ListLimit)

	stubs, err := d.provider.ListReceipts(ctx, dtos.ReceiptListFilter{
		Status:       "canceled",
		CreatedAtGte: from,
		Limit:        d.opts.ListLimit,
	})
	if err != nil {
		return report, fmt.Errorf("listing canceled receipts: %w", err)
	}
	report.State = entities.StateListed
	report.Listed = len(stubs)
	d.logger.Info("canceled receipts found", "count", len(stubs))

	report.Plan = d.plan(ctx, stubs)
	report.Skipped = len(stubs) - len(report.Plan)
	report.State = entities.StatePlanned

	if len(report.Plan) == 0 {
		d.logger.Info("nothing to resubmit after filtering")
		report.State = entities.StateReported
		return report, nil
	}
	if d.opts.DryRun {
		return report, nil
	}

	confirmed, err := d.confirmer.Confirm(ctx, report.Plan)
	if err != nil {
		return report, fmt.Errorf("waiting for confirmation: %w", err)
	}
	if !confirmed {
		d.logger.Info("resubmission declined by operator", "planned", len(report.Plan))
		report.State = entities.StateAborted
		return report, nil
	}
	report.State = entities.StateConfirmed
	d.logger.Info("sending receipts", "count", len(report.Plan), "run_id", report.RunID)

	report.State = entities.StateExecuting
	report.Outcomes = d.execute(ctx, report.Plan)
	report.State = entities.StateReported

	d.logger.Info("resubmission finished", "succeeded", report.Succeeded(), "failed", report.Failed())
	return report, nil
}

func (d *ResubmissionDriver) plan(ctx context.Context, stubs []dtos.ReceiptStub) []*entities.ResubmissionPayload {
	slots := make([]*entities.ResubmissionPayload, len(stubs))

	var g errgroup.Group
	g.SetLimit(d.opts.PlanWorkers)
	for i, stub := range stubs {
		g.Go(func() error {
			p, err := d.builder.Build(ctx, stub)
			if err == nil {
				slots[i] = p
			}
			return nil
		})
	}
	_ = g.Wait()

	plan := make([]*entities.ResubmissionPayload, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			plan = append(plan, p)
		}
	}
	return plan
}

// execute gives every payload exactly one outcome slot; attempts never
// affect each other.
func (d *ResubmissionDriver) execute(ctx context.Context, plan []*entities.ResubmissionPayload) []entities.Outcome {
	outcomes := make([]entities.Outcome, len(plan))

	var g errgroup.Group
	g.SetLimit(d.opts.SubmitWorkers)
	for i, p := range plan {
		g.Go(func() error {
			outcomes[i] = d.submit(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (d *ResubmissionDriver) submit(ctx context.Context, p *entities.ResubmissionPayload) entities.Outcome {
	outcome := entities.Outcome{Payload: p, IdempotencyKey: d.opts.NewKey()}

	res, err := d.provider.CreateReceipt(ctx, p, outcome.IdempotencyKey)
	if err != nil {
		outcome.Err = err
		d.logger.Error("receipt resubmission failed", "reference", p.Reference(), "receipt_id", p.ReceiptID, "error", err)
		return outcome
	}

	outcome.ReceiptID = res.ID
	outcome.Status = res.Status
	d.logger.Info("receipt resubmitted", "reference", p.Reference(), "new_receipt_id", res.ID, "status", res.Status)
	return outcome
}
