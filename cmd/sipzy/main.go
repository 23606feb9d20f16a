// Command sipzy prices and settles creator and video token trades on the
// Sipzy bonding curves from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/config"
	"github.com/rovshanmuradov/sipzy/internal/logger"
	"github.com/rovshanmuradov/sipzy/internal/sim"
)

const closeTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "sipzy",
		Short:        "Bonding-curve pricing and trade settlement for creator and video tokens",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./sipzy.yaml when present)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-file", "", "rotated JSON log file")
	flags.String("journal-dir", "", "directory holding the trade journal")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		a.newSimulateCmd(),
		a.newRunCmd(),
		a.newQuoteCmd(),
		a.newTiersCmd(),
		a.newExportCmd(),
	)
	return root
}

// load reads the configuration with cmd's flags taking precedence.
func (a *app) load(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.Logger()), nil
}

// session is a runtime opened for one command.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	rt     *sim.Runtime
}

func (a *app) open(cmd *cobra.Command, journal bool) (*session, error) {
	cfg, log, err := a.load(cmd)
	if err != nil {
		return nil, err
	}

	rt, err := sim.NewRuntime(cfg, log, sim.Options{Journal: journal})
	if err != nil {
		_ = logger.Sync(log)
		return nil, err
	}
	s := &session{cfg: cfg, logger: log, rt: rt}

	if cfg.MetricsAddr != "" {
		if _, err := rt.ServeMetrics(cfg.MetricsAddr); err != nil {
			_ = s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := s.rt.Close(ctx)
	if s.rt.Journal != nil {
		s.logger.Info("Trade journal written", zap.String("path", s.rt.Journal.Path()))
	}
	_ = logger.Sync(s.logger)
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
