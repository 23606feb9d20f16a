// Package ledger holds the authoritative in-memory record of Sipzy tokens,
// balances, trades and price history, and applies trades atomically.
package ledger

import (
	"time"

	"github.com/rovshanmuradov/sipzy/internal/curve"
)

// Side is the direction of a market trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// KindAllocation tags founder grants in the allocation log.
const KindAllocation = "ALLOCATION"

// Token is one bonding-curve market.
type Token struct {
	ID              string          `json:"id"`
	Type            curve.TokenType `json:"type"`
	Name            string          `json:"name"`
	Symbol          string          `json:"symbol"`
	CreatorID       string          `json:"creatorId"`
	CreatorName     string          `json:"creatorName"`
	CreatorImage    string          `json:"creatorImage,omitempty"`
	VideoID         string          `json:"videoId,omitempty"`
	VideoTitle      string          `json:"videoTitle,omitempty"`
	VideoThumbnail  string          `json:"videoThumbnail,omitempty"`
	SubscriberCount int64           `json:"subscriberCount"`
	Params          curve.Params    `json:"params"`
	CurveAddress    string          `json:"curveAddress,omitempty"`

	Supply           uint64  `json:"supply"`
	ReserveSOL       float64 `json:"reserveSol"`
	CreatorEarnings  float64 `json:"creatorEarnings"`
	PlatformEarnings float64 `json:"platformEarnings"`
	Holders          int     `json:"holders"`
	TotalTrades      int     `json:"totalTrades"`

	// Volume24h is a running total that never decays; see TokenStats.RollingVolume24h.
	Volume24h   float64   `json:"volume24h"`
	VolumeAll   float64   `json:"volumeAll"`
	AllTimeHigh float64   `json:"allTimeHigh"`
	AllTimeLow  float64   `json:"allTimeLow"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserTokenBalance is one actor's holding of one token.
type UserTokenBalance struct {
	TokenID       string    `json:"tokenId"`
	UserID        string    `json:"userId"`
	Balance       uint64    `json:"balance"`
	AvgBuyPrice   float64   `json:"avgBuyPrice"`
	TotalInvested float64   `json:"totalInvested"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Trade is an immutable market trade record.
// TotalValue is the total cost for buys and the net refund for sells;
// Volume is what the trade added to token volume (total cost or gross refund).
type Trade struct {
	ID          string          `json:"id"`
	TokenID     string          `json:"tokenId"`
	TokenType   curve.TokenType `json:"tokenType"`
	TokenSymbol string          `json:"tokenSymbol"`
	UserID      string          `json:"userId"`
	Side        Side            `json:"type"`
	Amount      uint64          `json:"amount"`
	Price       float64         `json:"price"`
	TotalValue  float64         `json:"totalCost"`
	Volume      float64         `json:"volume"`
	CreatorFee  float64         `json:"creatorFee"`
	PlatformFee float64         `json:"platformFee"`
	SupplyAfter uint64          `json:"supplyAfter"`
	Timestamp   time.Time       `json:"timestamp"`

	seq uint64
}

// Allocation records a founder grant. It is not a market trade.
type Allocation struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	TokenID   string    `json:"tokenId"`
	CreatorID string    `json:"creatorId"`
	Amount    uint64    `json:"amount"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// PricePoint is one entry of a token's price history.
type PricePoint struct {
	TokenID   string    `json:"tokenId"`
	Price     float64   `json:"price"`
	Supply    uint64    `json:"supply"`
	Timestamp time.Time `json:"timestamp"`
}

// Chart is price data prepared for display. When Synthetic is set the points
// were interpolated for a sparse token and are not ledger history.
type Chart struct {
	TokenID   string       `json:"tokenId"`
	Points    []PricePoint `json:"points"`
	Synthetic bool         `json:"synthetic"`
}

// Actor is a trading user.
type Actor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	SOLBalance float64 `json:"solBalance"`
}

// CreateTokenRequest describes a new token. ID is optional and generated when empty.
type CreateTokenRequest struct {
	ID              string          `json:"id,omitempty" yaml:"id"`
	Type            curve.TokenType `json:"type" yaml:"type"`
	CreatorID       string          `json:"creatorId" yaml:"creator_id"`
	CreatorName     string          `json:"creatorName" yaml:"creator_name"`
	CreatorImage    string          `json:"creatorImage,omitempty" yaml:"creator_image"`
	SubscriberCount int64           `json:"subscriberCount" yaml:"subscriber_count"`
	Name            string          `json:"name" yaml:"name"`
	Symbol          string          `json:"symbol" yaml:"symbol"`
	VideoID         string          `json:"videoId,omitempty" yaml:"video_id"`
	VideoTitle      string          `json:"videoTitle,omitempty" yaml:"video_title"`
	VideoThumbnail  string          `json:"videoThumbnail,omitempty" yaml:"video_thumbnail"`
}

// BuyQuote is a read-only buy preview.
type BuyQuote struct {
	curve.TradeCost
	CurrentPrice float64 `json:"currentPrice"`
}

// SellQuote is a read-only sell preview.
type SellQuote struct {
	curve.TradeRefund
	CurrentPrice float64 `json:"currentPrice"`
}

// BuyResult is returned by a successful buy.
type BuyResult struct {
	Trade Trade           `json:"trade"`
	Cost  curve.TradeCost `json:"cost"`
}

// SellResult is returned by a successful sell.
type SellResult struct {
	Trade  Trade             `json:"trade"`
	Refund curve.TradeRefund `json:"refund"`
}
