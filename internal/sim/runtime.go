// Package sim wires the ledger to its observers and drives it from the
// command line: a concurrent trader simulation and scripted scenarios.
package sim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/blockchain"
	"github.com/rovshanmuradov/sipzy/internal/config"
	"github.com/rovshanmuradov/sipzy/internal/events"
	"github.com/rovshanmuradov/sipzy/internal/ledger"
	"github.com/rovshanmuradov/sipzy/internal/metrics"
	"github.com/rovshanmuradov/sipzy/internal/monitor"
)

const busDrainTimeout = 10 * time.Second

// Options select optional runtime parts.
type Options struct {
	// Journal writes trades to <journal_dir>/journal.
	Journal bool
	// Clock overrides the ledger time source.
	Clock func() time.Time
}

// Runtime is a ledger with its event bus and subscribers attached.
type Runtime struct {
	Config  *config.Config
	Ledger  *ledger.Ledger
	Bus     *events.Bus
	Deriver *blockchain.Deriver
	Journal *monitor.Journal // nil unless Options.Journal
	Alerts  *monitor.AlertManager
	Metrics *metrics.Collector

	logger   *zap.Logger
	shutdown *ShutdownHandler
}

// NewRuntime builds the ledger and attaches the journal, alerts and metrics
// to its event bus. Close releases everything.
func NewRuntime(cfg *config.Config, logger *zap.Logger, opts Options) (*Runtime, error) {
	deriver, err := blockchain.NewDeriver(cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:   cfg,
		Deriver:  deriver,
		Alerts:   monitor.NewAlertManager(cfg.Alerts(), logger),
		Metrics:  metrics.NewCollector(),
		logger:   logger,
		shutdown: NewShutdownHandler(logger, 30*time.Second),
	}

	// The journal closes last so the bus can drain into it.
	if opts.Journal {
		journal, err := monitor.NewJournal(cfg.JournalDir, 0, cfg.JournalFlush, logger)
		if err != nil {
			return nil, err
		}
		rt.Journal = journal
		rt.shutdown.Add("journal", journal)
	}

	rt.Bus = events.NewBus(logger, cfg.EventBuffer)
	rt.shutdown.AddFunc("event_bus", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), busDrainTimeout)
		defer cancel()
		return rt.Bus.Shutdown(ctx)
	})

	if rt.Journal != nil {
		rt.Journal.Attach(rt.Bus)
	}
	rt.Alerts.Attach(rt.Bus)
	rt.Metrics.Attach(rt.Bus)

	ledgerOpts := []ledger.Option{
		ledger.WithPublisher(rt.Bus),
		ledger.WithAddressDeriver(deriver.CurveAddress),
	}
	if opts.Clock != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(opts.Clock))
	}
	rt.Ledger, err = ledger.New(cfg.Ledger(), logger, ledgerOpts...)
	if err != nil {
		_ = rt.shutdown.Shutdown(context.Background())
		return nil, err
	}

	return rt, nil
}

// ServeMetrics exposes the collector on addr under /metrics and returns the
// bound address. The server stops on Close.
func (rt *Runtime) ServeMetrics(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.Metrics.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	rt.shutdown.AddFunc("metrics_server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	bound := ln.Addr().String()
	rt.logger.Info("Serving metrics", zap.String("addr", bound))
	return bound, nil
}

// Close stops the metrics server, drains the bus and closes the journal.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.shutdown.Shutdown(ctx)
}
