package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/sipzy/internal/ledger"
)

// SimConfig controls a random trading run.
type SimConfig struct {
	Traders     int     // simulated actors
	Rounds      int     // orders per trader
	Concurrency int     // traders running at once; 0 runs all
	MaxAmount   uint64  // largest order, in tokens
	SellRatio   float64 // chance an order is a sell when the trader holds the token
	Funding     float64 // SOL balance each trader starts with
	Seed        uint64
}

// DefaultSimConfig returns a small, fully funded run.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Traders:   8,
		Rounds:    50,
		MaxAmount: 20,
		SellRatio: 0.4,
		Funding:   1000,
		Seed:      1,
	}
}

func (c SimConfig) validate() error {
	switch {
	case c.Traders <= 0:
		return errors.New("traders must be positive")
	case c.Rounds <= 0:
		return errors.New("rounds must be positive")
	case c.MaxAmount == 0:
		return errors.New("max amount must be positive")
	case c.SellRatio < 0 || c.SellRatio > 1:
		return errors.New("sell ratio must be within [0, 1]")
	case c.Funding < 0:
		return errors.New("funding must not be negative")
	}
	return nil
}

// Report summarizes a simulation run.
type Report struct {
	Traders     int            `json:"traders"`
	Orders      int            `json:"orders"`
	Buys        int            `json:"buys"`
	Sells       int            `json:"sells"`
	Rejected    int            `json:"rejected"`
	Volume      float64        `json:"volume"`
	Rejections  map[string]int `json:"rejections"`
	Elapsed     time.Duration  `json:"elapsed"`
	Interrupted bool           `json:"interrupted"`
}

func (r *Report) merge(o Report) {
	r.Orders += o.Orders
	r.Buys += o.Buys
	r.Sells += o.Sells
	r.Rejected += o.Rejected
	r.Volume += o.Volume
	for reason, n := range o.Rejections {
		r.Rejections[reason] += n
	}
}

// RejectionReasons returns the rejection labels in a stable order.
func (r Report) RejectionReasons() []string {
	reasons := make([]string, 0, len(r.Rejections))
	for reason := range r.Rejections {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}

// TraderID names the i-th simulated trader.
func TraderID(i int) string {
	return fmt.Sprintf("trader-%02d", i+1)
}

// Simulate funds cfg.Traders actors and has each place cfg.Rounds random
// orders against tokenIDs. Business rejections are counted, not returned;
// any other ledger error aborts the run. Cancelling ctx stops the traders
// after their current order and returns the partial report.
func Simulate(ctx context.Context, l ledger.Service, tokenIDs []string, cfg SimConfig, logger *zap.Logger) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, fmt.Errorf("invalid simulation: %w", err)
	}
	if len(tokenIDs) == 0 {
		return Report{}, errors.New("no tokens to trade")
	}

	for i := 0; i < cfg.Traders; i++ {
		id := TraderID(i)
		l.GetOrCreateUser(id, "Trader "+id[len("trader-"):])
		if err := l.SetCurrencyBalance(id, cfg.Funding); err != nil {
			return Report{}, fmt.Errorf("fund %s: %w", id, err)
		}
	}

	logger = logger.Named("sim")
	logger.Info("Simulation started",
		zap.Int("traders", cfg.Traders),
		zap.Int("rounds", cfg.Rounds),
		zap.Int("tokens", len(tokenIDs)),
		zap.Uint64("seed", cfg.Seed))

	start := time.Now()
	report := Report{Traders: cfg.Traders, Rejections: make(map[string]int)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i := 0; i < cfg.Traders; i++ {
		t := &trader{
			id:       TraderID(i),
			ledger:   l,
			tokenIDs: tokenIDs,
			cfg:      cfg,
			rng:      rand.New(rand.NewPCG(cfg.Seed, uint64(i))),
			logger:   logger.With(zap.String("trader", TraderID(i))),
		}
		g.Go(func() error {
			tally, err := t.run(gctx)
			mu.Lock()
			report.merge(tally)
			mu.Unlock()
			return err
		})
	}

	err := g.Wait()
	report.Elapsed = time.Since(start)
	report.Interrupted = ctx.Err() != nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return report, err
	}

	logger.Info("Simulation finished",
		zap.Int("orders", report.Orders),
		zap.Int("rejected", report.Rejected),
		zap.Float64("volume", report.Volume),
		zap.Duration("elapsed", report.Elapsed),
		zap.Bool("interrupted", report.Interrupted))
	return report, nil
}

type trader struct {
	id       string
	ledger   ledger.Service
	tokenIDs []string
	cfg      SimConfig
	rng      *rand.Rand
	logger   *zap.Logger
}

func (t *trader) run(ctx context.Context) (Report, error) {
	tally := Report{Rejections: make(map[string]int)}
	for round := 0; round < t.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		tokenID := t.tokenIDs[t.rng.IntN(len(t.tokenIDs))]
		amount := 1 + t.rng.Uint64N(t.cfg.MaxAmount)
		held := t.ledger.GetUserTokenBalance(t.id, tokenID)
		sell := held > 0 && t.rng.Float64() < t.cfg.SellRatio

		var (
			volume float64
			err    error
		)
		if sell {
			var res ledger.SellResult
			res, err = t.ledger.Sell(tokenID, t.id, min(amount, held))
			volume = res.Trade.Volume
		} else {
			var res ledger.BuyResult
			res, err = t.ledger.Buy(tokenID, t.id, amount)
			volume = res.Trade.Volume
		}

		tally.Orders++
		if err != nil {
			reason := ledger.RejectReason(err)
			if reason == "internal" {
				return tally, fmt.Errorf("%s order on %s: %w", t.id, tokenID, err)
			}
			tally.Rejected++
			tally.Rejections[reason]++
			t.logger.Debug("Order rejected",
				zap.String("token", tokenID),
				zap.Uint64("amount", amount),
				zap.String("reason", reason))
			continue
		}

		if sell {
			tally.Sells++
		} else {
			tally.Buys++
		}
		tally.Volume += volume
	}
	return tally, nil
}
