package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/om-jewellers/stockledger/cmd/worker/cli"
	"github.com/om-jewellers/stockledger/internal/app"
	"github.com/om-jewellers/stockledger/internal/inventory"
	jobmetrics "github.com/om-jewellers/stockledger/internal/jobs"
	"github.com/om-jewellers/stockledger/jobs"
)

const usage = `usage: worker <command> [flags]

commands:
  run                       process jobs and schedule the nightly integrity scan (default)
  integrity [--date D]      audit one ledger day now; exits 10 when rows are unbalanced
  enqueue [--date D]        queue an integrity scan for the running worker
  stats                     print default queue counters as JSON
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	cmd, args := "run", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "run":
		err = run(ctx, cfg, logger)
	case "integrity":
		os.Exit(integrity(ctx, cfg, logger, args))
	case "enqueue":
		err = enqueue(ctx, cfg, args)
	case "stats":
		err = stats(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker "+cmd, slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}
	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	service := inventory.NewService(stores.Inventory, nil, inventory.ServiceConfig{Calendar: cal})
	integrityJob := jobs.NewLedgerIntegrityJob(service, cal, logger, jobmetrics.NewMetrics(nil))

	nightly, err := jobs.NewLedgerIntegrityTask("")
	if err != nil {
		return err
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    cal.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerIntegrity, Handler: integrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.IntegrityCron, Task: nightly, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		return err
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("worker started", slog.String("cron", cfg.IntegrityCron), slog.String("tz", cfg.LedgerTimezone))
	return worker.Run(ctx)
}

func integrity(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("integrity", flag.ContinueOnError)
	day := fs.String("date", "", "ledger day YYYY-MM-DD, default yesterday")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cal, err := cfg.Calendar()
	if err != nil {
		logger.Error("ledger calendar", slog.Any("error", err))
		return 1
	}
	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open storage", slog.Any("error", err))
		return 1
	}
	defer stores.Close()

	service := inventory.NewService(stores.Inventory, nil, inventory.ServiceConfig{Calendar: cal})
	return cli.NewIntegrityCLI(service, cal).IntegrityCommand(ctx, cli.IntegrityOptions{Day: *day, JSONOutput: *asJSON})
}

func enqueue(ctx context.Context, cfg *app.Config, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	day := fs.String("date", "", "ledger day YYYY-MM-DD, default yesterday when the job runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer jobsCLI.Close()
	info, err := jobsCLI.Trigger(ctx, jobs.TaskLedgerIntegrity, *day)
	if err != nil {
		return err
	}
	fmt.Printf("queued %s as %s on %s\n", info.Type, info.ID, info.Queue)
	return nil
}

func stats(ctx context.Context, cfg *app.Config) error {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer jobsCLI.Close()
	queue, err := jobsCLI.InspectQueue(ctx)
	if err != nil {
		return err
	}
	scheduled, err := jobsCLI.ListScheduled(ctx, 5)
	if err != nil {
		return err
	}
	next := make([]string, 0, len(scheduled))
	for _, t := range scheduled {
		next = append(next, fmt.Sprintf("%s at %s", t.Type, t.NextProcessAt.Format(time.RFC3339)))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"queue": queue, "scheduled": next})
}
