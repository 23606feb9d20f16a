// Package metrics exposes ledger activity as Prometheus metrics. The collector
// follows the event bus and never calls into the ledger.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rovshanmuradov/sipzy/internal/events"
)

const namespace = "sipzy"

// Collector owns a private registry and the ledger metrics registered on it.
type Collector struct {
	registry *prometheus.Registry

	tokensCreated *prometheus.CounterVec
	trades        *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	volume        *prometheus.CounterVec
	fees          *prometheus.CounterVec
	tradeSize     *prometheus.HistogramVec
	spotPrice     *prometheus.GaugeVec
	supply        *prometheus.GaugeVec
}

// NewCollector creates the ledger metrics on a fresh registry.
func NewCollector() *Collector {
	tokensCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_created_total",
		Help:      "Tokens registered in the ledger.",
	}, []string{"token_type"})
	trades := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trades_total",
		Help:      "Executed market trades.",
	}, []string{"token_type", "side"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trades_rejected_total",
		Help:      "Trades rejected before any state change.",
	}, []string{"side", "reason"})
	volume := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trade_volume_sol_total",
		Help:      "Trade volume in SOL.",
	}, []string{"token_type", "side"})
	fees := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fees_sol_total",
		Help:      "Fees collected in SOL by recipient.",
	}, []string{"recipient"})
	tradeSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "trade_size_tokens",
		Help:      "Tokens moved per trade.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"side"})
	spotPrice := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "spot_price_sol",
		Help:      "Current spot price per token in SOL.",
	}, []string{"token"})
	supply := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "token_supply",
		Help:      "Current circulating supply per token.",
	}, []string{"token"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(tokensCreated, trades, rejected, volume, fees, tradeSize, spotPrice, supply)

	return &Collector{
		registry:      registry,
		tokensCreated: tokensCreated,
		trades:        trades,
		rejected:      rejected,
		volume:        volume,
		fees:          fees,
		tradeSize:     tradeSize,
		spotPrice:     spotPrice,
		supply:        supply,
	}
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Attach subscribes the collector to ledger events.
func (c *Collector) Attach(bus *events.Bus) []events.Subscription {
	types := []events.EventType{
		events.TokenCreated,
		events.AllocationMinted,
		events.TradeExecuted,
		events.TradeRejected,
		events.PriceUpdated,
	}
	subs := make([]events.Subscription, 0, len(types))
	for _, t := range types {
		subs = append(subs, bus.SubscribeFunc(t, c.handle))
	}
	return subs
}

func (c *Collector) handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.TokenCreatedEvent:
		c.tokensCreated.WithLabelValues(e.TokenType).Inc()
		c.spotPrice.WithLabelValues(e.TokenID).Set(e.BasePrice)
		c.supply.WithLabelValues(e.TokenID).Set(0)
	case *events.AllocationMintedEvent:
		c.supply.WithLabelValues(e.TokenID).Set(float64(e.Amount))
	case *events.TradeExecutedEvent:
		c.RecordTrade(e)
	case *events.TradeRejectedEvent:
		c.rejected.WithLabelValues(e.Side, e.Reason).Inc()
	case *events.PriceUpdatedEvent:
		c.spotPrice.WithLabelValues(e.TokenID).Set(e.CurrentPrice)
		c.supply.WithLabelValues(e.TokenID).Set(float64(e.Supply))
	}
	return nil
}

// RecordTrade records one executed trade.
func (c *Collector) RecordTrade(e *events.TradeExecutedEvent) {
	c.trades.WithLabelValues(e.TokenType, e.Side).Inc()
	c.volume.WithLabelValues(e.TokenType, e.Side).Add(e.Volume)
	c.fees.WithLabelValues("creator").Add(e.CreatorFee)
	c.fees.WithLabelValues("platform").Add(e.PlatformFee)
	c.tradeSize.WithLabelValues(e.Side).Observe(float64(e.Amount))
}

// Reset clears every metric (useful between simulation runs).
func (c *Collector) Reset() {
	c.tokensCreated.Reset()
	c.trades.Reset()
	c.rejected.Reset()
	c.volume.Reset()
	c.fees.Reset()
	c.tradeSize.Reset()
	c.spotPrice.Reset()
	c.supply.Reset()
}
