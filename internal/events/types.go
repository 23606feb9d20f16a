// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Token lifecycle
	TokenCreated     EventType = "token.created"
	AllocationMinted EventType = "token.allocation_minted"

	// Trade events
	TradeExecuted EventType = "trade.executed"
	TradeRejected EventType = "trade.rejected"

	// Price events
	PriceUpdated EventType = "price.updated"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// TokenCreatedEvent is emitted once a token is registered in the ledger.
type TokenCreatedEvent struct {
	BaseEvent
	TokenID      string
	TokenType    string
	Symbol       string
	CreatorID    string
	BasePrice    float64
	CurveAddress string
}

// AllocationMintedEvent is emitted when the founder grant of a creator token is minted.
type AllocationMintedEvent struct {
	BaseEvent
	TokenID   string
	CreatorID string
	Amount    uint64
	Value     float64
}

// TradeExecutedEvent is emitted after a buy or sell has been applied.
type TradeExecutedEvent struct {
	BaseEvent
	TradeID       string
	TokenID       string
	TokenType     string
	TokenSymbol   string
	ActorID       string
	Side          string
	Amount        uint64
	PricePerToken float64
	TotalValue    float64
	Volume        float64
	CreatorFee    float64
	PlatformFee   float64
	SupplyAfter   uint64
}

// TradeRejectedEvent is emitted when a trade fails validation; nothing was mutated.
type TradeRejectedEvent struct {
	BaseEvent
	TokenID string
	ActorID string
	Side    string
	Amount  uint64
	Reason  string
	Error   error
}

// PriceUpdatedEvent is emitted when token spot price changes.
type PriceUpdatedEvent struct {
	BaseEvent
	TokenID       string
	TokenType     string
	PreviousPrice float64
	CurrentPrice  float64
	PriceChange   float64 // Percentage change
	Supply        uint64
}
