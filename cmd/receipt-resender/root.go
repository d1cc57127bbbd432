package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"receipt-resender/internal/cache"
	"receipt-resender/internal/config"
	"receipt-resender/internal/entities"
	"receipt-resender/internal/gateway"
	"receipt-resender/internal/prompt"
	"receipt-resender/internal/report"
	"receipt-resender/internal/server"
	"receipt-resender/internal/services"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	configPath    string
	days          int
	limit         int
	yes           bool
	dryRun        bool
	approveAddr   string
	approveToken  string
	planWorkers   int
	submitWorkers int
	strictAmounts bool
	redisAddr     string
	runID         string
	verbose       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "receipt-resender",
		Short: "Resend canceled YooKassa receipts",
		Long: `receipt-resender finds receipts YooKassa canceled in a recent window,
rebuilds them from their payments and refunds, and creates them again
after an operator confirms the plan.

Credentials are read from YOOKASSA_SHOP_ID and YOOKASSA_API_KEY (a .env file
in the working directory is loaded first). DEFAULT_RECEIPT_EMAIL is used when
no customer contact can be found.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "optional YAML tuning file")
	f.IntVar(&opts.days, "days", config.DefaultLookbackDays, "how many days back to look for canceled receipts")
	f.IntVar(&opts.limit, "limit", config.MaxListLimit, "maximum number of receipts to consider (1-100)")
	f.BoolVarP(&opts.yes, "yes", "y", false, "send without asking for confirmation")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the plan and exit without sending")
	f.StringVar(&opts.approveAddr, "approve-addr", "", "wait for approval over HTTP on this address instead of the terminal")
	f.StringVar(&opts.approveToken, "approve-token", "", "X-Approval-Token required by the HTTP approval endpoint (generated when empty)")
	f.IntVar(&opts.planWorkers, "plan-workers", 1, "receipts reconciled concurrently")
	f.IntVar(&opts.submitWorkers, "submit-workers", 1, "receipts created concurrently")
	f.BoolVar(&opts.strictAmounts, "strict-amounts", false, "skip receipts whose items do not add up to the settlement amount")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "share provider lookups through Redis at this address")
	f.StringVar(&opts.runID, "run-id", "", "scope for shared lookups (a new one per run when empty)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}
	applyFlags(cmd, opts, &cfg)
	slog.Info("configuration loaded", "shop_id", cfg.ShopID, "base_url", cfg.BaseURL)

	client, err := gateway.NewClient(gateway.Options{
		BaseURL:           cfg.BaseURL,
		ShopID:            cfg.ShopID,
		SecretKey:         cfg.SecretKey,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.MaxRetries,
		Logger:            logger,
	})
	if err != nil {
		slog.Error("failed to create provider client", "error", err)
		return err
	}

	runID := opts.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	lookups, closeLookups := newLookupCache(ctx, cfg.RedisAddr, runID, logger)
	defer closeLookups()

	fetcher := services.NewRecordFetcher(client, lookups, logger)
	reconciler := services.NewFieldReconciler(fetcher, cfg.StrictAmounts, logger)
	customers := services.NewCustomerResolver(fetcher, cfg.DefaultEmail, logger)
	builder := services.NewPayloadBuilder(fetcher, reconciler, customers, logger)

	confirmer, err := newConfirmer(opts, logger)
	if err != nil {
		slog.Error("failed to set up confirmation", "error", err)
		return err
	}

	driver := services.NewResubmissionDriver(client, builder, confirmer, services.DriverOptions{
		RunID:         runID,
		LookbackDays:  cfg.LookbackDays,
		ListLimit:     cfg.ListLimit,
		PlanWorkers:   cfg.PlanWorkers,
		SubmitWorkers: cfg.SubmitWorkers,
		DryRun:        opts.dryRun,
	}, logger)

	rep, err := driver.Run(ctx)
	if err != nil {
		slog.Error("resubmission run failed", "state", rep.State, "error", err)
		return err
	}

	printer := report.NewPrinter(os.Stdout)
	if rep.State == entities.StatePlanned {
		printer.PrintPlan(rep.Plan)
	}
	printer.PrintReport(rep)
	return nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("days") {
		cfg.LookbackDays = opts.days
	}
	if f.Changed("limit") {
		cfg.ListLimit = config.ClampListLimit(opts.limit)
	}
	if f.Changed("plan-workers") {
		cfg.PlanWorkers = opts.planWorkers
	}
	if f.Changed("submit-workers") {
		cfg.SubmitWorkers = opts.submitWorkers
	}
	if f.Changed("strict-amounts") {
		cfg.StrictAmounts = opts.strictAmounts
	}
	if f.Changed("redis-addr") {
		cfg.RedisAddr = opts.redisAddr
	}
}

func newConfirmer(opts *options, logger *slog.Logger) (services.Confirmer, error) {
	switch {
	case opts.yes, opts.dryRun:
		return prompt.NewAuto(os.Stdout), nil
	case opts.approveAddr != "":
		token := opts.approveToken
		if token == "" {
			token = uuid.NewString()
		}
		srv := server.NewServer(opts.approveAddr, token, logger)
		addr, err := srv.Listen()
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stdout, "Approve at http://%s (header X-Approval-Token: %s)\n", addr, token)
		return srv, nil
	default:
		return prompt.NewTerminal(os.Stdin, os.Stdout), nil
	}
}

// newLookupCache falls back to an in-process cache when Redis is not
// configured or unreachable; the cache only saves remote calls.
func newLookupCache(ctx context.Context, addr, runID string, logger *slog.Logger) (cache.LookupCache, func()) {
	if addr == "" {
		return cache.NewMemoryLookupCache(), func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		IdleTimeout:  2 * time.Minute,
	})

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Warn("redis unavailable, using in-process lookup cache", "addr", addr, "error", err)
		_ = redisClient.Close()
		return cache.NewMemoryLookupCache(), func() {}
	}

	rlc := cache.NewRedisLookupCache(redisClient, runID, logger)
	return rlc, func() {
		if err := rlc.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
}
