package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/config"
)

var (
	workerMode bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture charges approved for capture",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"capture",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.CaptureInterval },
			func(s *service.ChargeService, ctx context.Context) error {
				return s.RunCaptureBatch(ctx)
			},
		)
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Run expiration-related commands",
}

var expireChargesCmd = &cobra.Command{
	Use:   "charges",
	Short: "Expire abandoned charges and cancel stale authorisations",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"expire_charges",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ExpireInterval },
			func(s *service.ChargeService, ctx context.Context) error {
				return s.RunExpireBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(expireCmd)
	expireCmd.AddCommand(expireChargesCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.ChargeService, ctx context.Context) error,
) {
	app, cleanup := mustCreateApplication()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(app.cfg), app.charges, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(app.charges, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	chargeService *service.ChargeService,
	fn func(s *service.ChargeService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// a signal also cancels the batch in flight
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runJob(name, func() error { return fn(chargeService, ctx) })

	for {
		select {
		case <-ctx.Done():
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(chargeService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
