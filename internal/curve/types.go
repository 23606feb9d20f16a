// Package curve prices trades against the two Sipzy bonding curves.
// Every function here is pure: results depend only on the explicit arguments.
package curve

import "errors"

// TokenType selects the curve family of a token.
type TokenType string

const (
	// Creator tokens use the linear curve.
	Creator TokenType = "CREATOR"
	// Video tokens use the exponential curve.
	Video TokenType = "VIDEO"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == Creator || t == Video
}

var (
	ErrInvalidAmount     = errors.New("amount must be a positive whole number of tokens")
	ErrSupplyUnderflow   = errors.New("cannot sell more than current supply")
	ErrSupplyCapExceeded = errors.New("trade would exceed max supply")
	ErrUnknownTokenType  = errors.New("unknown token type")
)

// Params are the curve parameters frozen into a token at creation.
type Params struct {
	TokenType          TokenType `json:"tokenType" yaml:"token_type"`
	BasePrice          float64   `json:"basePrice" yaml:"base_price"`
	Slope              float64   `json:"slope,omitempty" yaml:"slope"`
	GrowthRate         float64   `json:"growthRate,omitempty" yaml:"growth_rate"`
	CreatorFeePercent  float64   `json:"creatorFeePercent" yaml:"creator_fee_percent"`
	PlatformFeePercent float64   `json:"platformFeePercent" yaml:"platform_fee_percent"`
	MaxSupply          uint64    `json:"maxSupply" yaml:"max_supply"`
}

// TradeCost is the priced breakdown of a buy. Fees are added on top of TokenCost.
type TradeCost struct {
	TokenCost     float64 `json:"tokenCost"`
	CreatorFee    float64 `json:"creatorFee"`
	PlatformFee   float64 `json:"platformFee"`
	TotalCost     float64 `json:"totalCost"`
	PricePerToken float64 `json:"pricePerToken"`
	NewPrice      float64 `json:"newPrice"`
}

// TradeRefund is the priced breakdown of a sell. Fees are taken out of GrossRefund.
type TradeRefund struct {
	GrossRefund   float64 `json:"grossRefund"`
	CreatorFee    float64 `json:"creatorFee"`
	PlatformFee   float64 `json:"platformFee"`
	NetRefund     float64 `json:"netRefund"`
	PricePerToken float64 `json:"pricePerToken"`
	NewPrice      float64 `json:"newPrice"`
}
