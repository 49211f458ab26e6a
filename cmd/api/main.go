package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/celikhakan41/loan-service/pkg/config"
	"github.com/celikhakan41/loan-service/pkg/ledger"
	"github.com/celikhakan41/loan-service/pkg/logging"
	"github.com/celikhakan41/loan-service/pkg/notify"
	"github.com/celikhakan41/loan-service/pkg/store"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// overdueDigest receives each sweep's findings; nil disables mailing.
type overdueDigest interface {
	SendOverdueDigest(asOf time.Time, items []ledger.OverdueInstallment) error
}

// startOverdueSweep schedules the overdue report. An empty schedule disables it.
func startOverdueSweep(ctx context.Context, schedule string, l *ledger.Ledger, digest overdueDigest, log *logrus.Logger) (*cron.Cron, error) {
	if schedule == "" {
		log.Info("Overdue sweep disabled")
		return nil, nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(log)),
	))
	_, err := c.AddFunc(schedule, func() {
		log.Info("Running overdue sweep...")
		items, err := l.SweepOverdue(ctx)
		if err != nil {
			log.WithError(err).Error("Overdue sweep failed")
			return
		}
		if digest != nil {
			if err := digest.SendOverdueDigest(l.Today(), items); err != nil {
				log.WithError(err).Warn("Overdue digest not delivered")
			}
		}
		log.Info("Overdue sweep complete.")
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.IsProd())
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize %s store: %v", cfg.StoreDriver, err)
	}
	defer storage.Close()

	server := NewServer(storage, logger)

	var digest overdueDigest
	if cfg.DigestEnabled() {
		digest = notify.NewSender(cfg, logger)
	}
	sweeper, err := startOverdueSweep(ctx, cfg.OverdueSweepSchedule, server.ledger, digest, logger)
	if err != nil {
		logger.Fatalf("Failed to schedule overdue sweep %q: %v", cfg.OverdueSweepSchedule, err)
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if sweeper != nil {
		<-sweeper.Stop().Done()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
