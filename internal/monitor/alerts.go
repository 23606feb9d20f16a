package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/events"
)

// AlertType represents different types of alerts
type AlertType string

const (
	AlertTypeLargeTrade AlertType = "large_trade"
	AlertTypePriceRise  AlertType = "price_rise"
	AlertTypePriceDrop  AlertType = "price_drop"
	AlertTypeRejection  AlertType = "rejection"
)

// Alert represents a triggered alert
type Alert struct {
	ID          string    `json:"id"`
	Type        AlertType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	TokenID     string    `json:"token_id"`
	TokenSymbol string    `json:"token_symbol"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"` // "info", "warning", "critical"

	CurrentPrice  float64 `json:"current_price,omitempty"`
	ChangePercent float64 `json:"change_percent,omitempty"`
	Threshold     float64 `json:"threshold,omitempty"`
}

// AlertConfig holds alert thresholds.
type AlertConfig struct {
	// Trade volume in SOL at or above which a trade is reported
	VolumeThreshold float64 `json:"volume_threshold" yaml:"volume_threshold"`

	// Absolute price move in percent, per trade
	PriceMovePercent float64 `json:"price_move_percent" yaml:"price_move_percent"`

	// Report rejected trades
	Rejections bool `json:"rejections" yaml:"rejections"`

	// Minimum time between alerts of one type for one token
	CooldownDuration time.Duration `json:"cooldown_duration" yaml:"cooldown_duration"`
}

// DefaultAlertConfig returns default alert configuration
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		VolumeThreshold:  10.0,
		PriceMovePercent: 5.0,
		Rejections:       false,
		CooldownDuration: time.Minute,
	}
}

// AlertHandler is called when an alert is triggered
type AlertHandler func(alert Alert)

// AlertManager turns ledger events into alerts.
type AlertManager struct {
	mu     sync.RWMutex
	config AlertConfig
	logger *zap.Logger
	now    func() time.Time

	alerts    []Alert
	maxAlerts int
	lastAlert map[string]time.Time // token/type -> last alert time

	handlers []AlertHandler
}

// NewAlertManager creates a new alert manager
func NewAlertManager(config AlertConfig, logger *zap.Logger) *AlertManager {
	return &AlertManager{
		config:    config,
		logger:    logger.Named("alerts"),
		now:       time.Now,
		alerts:    make([]Alert, 0, 100),
		maxAlerts: 1000,
		lastAlert: make(map[string]time.Time),
	}
}

// SetClock replaces the time source.
func (am *AlertManager) SetClock(now func() time.Time) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.now = now
}

// AddHandler adds an alert handler. Handlers run synchronously, in the
// order added, on the goroutine that checked the event.
func (am *AlertManager) AddHandler(handler AlertHandler) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.handlers = append(am.handlers, handler)
}

// Attach subscribes the manager to trade and price events.
func (am *AlertManager) Attach(bus *events.Bus) []events.Subscription {
	handle := func(_ context.Context, event events.Event) error {
		switch e := event.(type) {
		case *events.TradeExecutedEvent:
			am.CheckTrade(e)
		case *events.PriceUpdatedEvent:
			am.CheckPrice(e)
		case *events.TradeRejectedEvent:
			am.CheckRejection(e)
		}
		return nil
	}
	return []events.Subscription{
		bus.SubscribeFunc(events.TradeExecuted, handle),
		bus.SubscribeFunc(events.PriceUpdated, handle),
		bus.SubscribeFunc(events.TradeRejected, handle),
	}
}

// CheckTrade checks a trade for volume alerts
func (am *AlertManager) CheckTrade(trade *events.TradeExecutedEvent) []Alert {
	am.mu.Lock()
	var triggered []Alert
	if am.config.VolumeThreshold > 0 && trade.Volume >= am.config.VolumeThreshold {
		triggered = am.fire(Alert{
			Type:         AlertTypeLargeTrade,
			TokenID:      trade.TokenID,
			TokenSymbol:  trade.TokenSymbol,
			Message:      fmt.Sprintf("Large %s: %.4f SOL of %s by %s", trade.Side, trade.Volume, trade.TokenSymbol, trade.ActorID),
			Severity:     "info",
			CurrentPrice: trade.PricePerToken,
			Threshold:    am.config.VolumeThreshold,
		}, triggered)
	}
	handlers := am.handlers
	am.mu.Unlock()

	notify(handlers, triggered)
	return triggered
}

// CheckPrice checks a spot price move against PriceMovePercent.
func (am *AlertManager) CheckPrice(update *events.PriceUpdatedEvent) []Alert {
	am.mu.Lock()
	var triggered []Alert
	threshold := am.config.PriceMovePercent
	if threshold > 0 {
		switch {
		case update.PriceChange >= threshold:
			triggered = am.fire(Alert{
				Type:          AlertTypePriceRise,
				TokenID:       update.TokenID,
				Message:       fmt.Sprintf("Price up %.2f%% to %.9f SOL", update.PriceChange, update.CurrentPrice),
				Severity:      "info",
				CurrentPrice:  update.CurrentPrice,
				ChangePercent: update.PriceChange,
				Threshold:     threshold,
			}, triggered)
		case update.PriceChange <= -threshold:
			triggered = am.fire(Alert{
				Type:          AlertTypePriceDrop,
				TokenID:       update.TokenID,
				Message:       fmt.Sprintf("Price down %.2f%% to %.9f SOL", -update.PriceChange, update.CurrentPrice),
				Severity:      "warning",
				CurrentPrice:  update.CurrentPrice,
				ChangePercent: update.PriceChange,
				Threshold:     -threshold,
			}, triggered)
		}
	}
	handlers := am.handlers
	am.mu.Unlock()

	notify(handlers, triggered)
	return triggered
}

// CheckRejection reports a rejected trade when enabled.
func (am *AlertManager) CheckRejection(rejected *events.TradeRejectedEvent) []Alert {
	am.mu.Lock()
	var triggered []Alert
	if am.config.Rejections {
		triggered = am.fire(Alert{
			Type:     AlertTypeRejection,
			TokenID:  rejected.TokenID,
			Message:  fmt.Sprintf("%s of %d rejected for %s: %s", rejected.Side, rejected.Amount, rejected.ActorID, rejected.Reason),
			Severity: "warning",
		}, triggered)
	}
	handlers := am.handlers
	am.mu.Unlock()

	notify(handlers, triggered)
	return triggered
}

// fire records alert unless its token/type pair is cooling down. Caller holds am.mu.
func (am *AlertManager) fire(alert Alert, triggered []Alert) []Alert {
	now := am.now()
	key := alert.TokenID + "/" + string(alert.Type)
	if last, ok := am.lastAlert[key]; ok && now.Sub(last) < am.config.CooldownDuration {
		return triggered
	}
	am.lastAlert[key] = now

	alert.ID = "alert-" + uuid.NewString()[:8]
	alert.Timestamp = now

	if len(am.alerts) >= am.maxAlerts {
		am.alerts = am.alerts[1:]
	}
	am.alerts = append(am.alerts, alert)

	fields := []zap.Field{
		zap.String("type", string(alert.Type)),
		zap.String("token", alert.TokenID),
		zap.String("message", alert.Message),
	}
	switch alert.Severity {
	case "critical":
		am.logger.Error("Alert triggered", fields...)
	case "warning":
		am.logger.Warn("Alert triggered", fields...)
	default:
		am.logger.Info("Alert triggered", fields...)
	}

	return append(triggered, alert)
}

func notify(handlers []AlertHandler, alerts []Alert) {
	for _, alert := range alerts {
		for _, handler := range handlers {
			handler(alert)
		}
	}
}

// GetRecentAlerts returns recent alerts
func (am *AlertManager) GetRecentAlerts(limit int) []Alert {
	am.mu.RLock()
	defer am.mu.RUnlock()

	if limit <= 0 || limit > len(am.alerts) {
		limit = len(am.alerts)
	}

	result := make([]Alert, limit)
	copy(result, am.alerts[len(am.alerts)-limit:])

	return result
}

// GetAlertsByToken returns alerts for a specific token
func (am *AlertManager) GetAlertsByToken(tokenID string) []Alert {
	am.mu.RLock()
	defer am.mu.RUnlock()

	var result []Alert
	for _, alert := range am.alerts {
		if alert.TokenID == tokenID {
			result = append(result, alert)
		}
	}

	return result
}

// UpdateConfig updates the alert configuration
func (am *AlertManager) UpdateConfig(config AlertConfig) {
	am.mu.Lock()
	defer am.mu.Unlock()

	am.config = config
	am.logger.Info("Alert configuration updated",
		zap.Float64("volume_threshold", config.VolumeThreshold),
		zap.Float64("price_move_percent", config.PriceMovePercent),
		zap.Bool("rejections", config.Rejections),
		zap.Duration("cooldown", config.CooldownDuration))
}

// GetConfig returns the current alert configuration
func (am *AlertManager) GetConfig() AlertConfig {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return am.config
}

// ClearHistory clears the alert cooldown history
func (am *AlertManager) ClearHistory() {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.lastAlert = make(map[string]time.Time)
}
