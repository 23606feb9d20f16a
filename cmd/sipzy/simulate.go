package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/ledger"
	"github.com/rovshanmuradov/sipzy/internal/sim"
)

// Subscriber counts of the simulated creators, one per tier.
var simSubscribers = []int64{5_000, 50_000, 500_000, 5_000_000}

func (a *app) newSimulateCmd() *cobra.Command {
	cfg := sim.DefaultSimConfig()
	var (
		creators  int
		videos    int
		noJournal bool
		hold      bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run concurrent random traders against fresh tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creators <= 0 {
				return fmt.Errorf("at least one creator token is required")
			}

			s, err := a.open(cmd, !noJournal)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signalContext(cmd)
			defer stop()

			tokenIDs, err := createSimTokens(s.rt.Ledger, creators, videos)
			if err != nil {
				return err
			}

			report, err := sim.Simulate(ctx, s.rt.Ledger, tokenIDs, cfg, s.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSimReport(report))
			fmt.Fprintln(out, renderMarket(s.rt.Ledger))
			if alerts := s.rt.Alerts.GetRecentAlerts(10); len(alerts) > 0 {
				fmt.Fprintln(out, renderAlerts(alerts))
			}

			if hold && s.cfg.MetricsAddr != "" && !report.Interrupted {
				s.logger.Info("Holding for metrics scrapes; interrupt to exit",
					zap.String("addr", s.cfg.MetricsAddr))
				<-ctx.Done()
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Traders, "traders", cfg.Traders, "number of simulated traders")
	f.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "orders per trader")
	f.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "traders running at once (0 = all)")
	f.Uint64Var(&cfg.MaxAmount, "max-amount", cfg.MaxAmount, "largest order in tokens")
	f.Float64Var(&cfg.SellRatio, "sell-ratio", cfg.SellRatio, "chance of selling a held token")
	f.Float64Var(&cfg.Funding, "funding", cfg.Funding, "SOL balance per trader")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.IntVar(&creators, "creators", 2, "creator tokens to create")
	f.IntVar(&videos, "videos", 2, "video tokens to create")
	f.BoolVar(&noJournal, "no-journal", false, "do not write the trade journal")
	f.BoolVar(&hold, "hold", false, "keep serving metrics after the run until interrupted")
	return cmd
}

// createSimTokens creates creator tokens across the subscriber tiers and
// video tokens spread over those creators.
func createSimTokens(l ledger.Service, creators, videos int) ([]string, error) {
	ids := make([]string, 0, creators+videos)
	for i := 0; i < creators; i++ {
		token, err := l.CreateToken(ledger.CreateTokenRequest{
			Type:            curve.Creator,
			CreatorID:       fmt.Sprintf("creator-%d", i+1),
			CreatorName:     fmt.Sprintf("Creator %d", i+1),
			SubscriberCount: simSubscribers[i%len(simSubscribers)],
			Name:            fmt.Sprintf("Creator %d Token", i+1),
			Symbol:          fmt.Sprintf("$CRT%d", i+1),
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, token.ID)
	}
	for i := 0; i < videos; i++ {
		token, err := l.CreateToken(ledger.CreateTokenRequest{
			Type:       curve.Video,
			CreatorID:  fmt.Sprintf("creator-%d", i%creators+1),
			Name:       fmt.Sprintf("Video %d", i+1),
			Symbol:     fmt.Sprintf("$VID%d", i+1),
			VideoID:    fmt.Sprintf("video-%d", i+1),
			VideoTitle: fmt.Sprintf("Video %d", i+1),
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, token.ID)
	}
	return ids, nil
}
