package curve

import (
	"fmt"
	"math"
)

// SubscriberTier scales creator curve parameters by channel size.
type SubscriberTier struct {
	Name                string  `json:"name"`
	MinSubscribers      int64   `json:"minSubscribers"`
	MaxSubscribers      int64   `json:"maxSubscribers"` // exclusive, 0 means unbounded
	BasePriceMultiplier float64 `json:"basePriceMultiplier"`
	SlopeMultiplier     float64 `json:"slopeMultiplier"`
}

// SubscriberTiers is ordered by MinSubscribers.
var SubscriberTiers = []SubscriberTier{
	{Name: "Emerging", MinSubscribers: 0, MaxSubscribers: 10_000, BasePriceMultiplier: 1.0, SlopeMultiplier: 0.5},
	{Name: "Growing", MinSubscribers: 10_000, MaxSubscribers: 100_000, BasePriceMultiplier: 1.5, SlopeMultiplier: 1.0},
	{Name: "Established", MinSubscribers: 100_000, MaxSubscribers: 1_000_000, BasePriceMultiplier: 2.0, SlopeMultiplier: 1.5},
	{Name: "Major", MinSubscribers: 1_000_000, MaxSubscribers: 0, BasePriceMultiplier: 3.0, SlopeMultiplier: 2.0},
}

func (t SubscriberTier) contains(subscribers int64) bool {
	if subscribers < t.MinSubscribers {
		return false
	}
	return t.MaxSubscribers == 0 || subscribers < t.MaxSubscribers
}

// TierFor returns the tier a subscriber count falls into.
// Counts outside every tier (negative) fall back to the last tier.
func TierFor(subscribers int64) SubscriberTier {
	for _, tier := range SubscriberTiers {
		if tier.contains(subscribers) {
			return tier
		}
	}
	return SubscriberTiers[len(SubscriberTiers)-1]
}

// LogFactor smooths slope growth across a tier: 1 + log10(max(subs, 1000) / 1000).
func LogFactor(subscribers int64) float64 {
	return 1 + math.Log10(math.Max(float64(subscribers), 1000)/1000)
}

// Economics holds the platform-wide constants parameters are derived from.
type Economics struct {
	CreatorBasePrice float64
	VideoBasePrice   float64
	BaseSlope        float64
	VideoGrowthRate  float64
	CreatorTokenFee  float64
	VideoTokenFee    float64
	PlatformFee      float64
	MaxCreatorSupply uint64
	MaxVideoSupply   uint64
}

// DefaultEconomics returns the production constants.
func DefaultEconomics() Economics {
	return Economics{
		CreatorBasePrice: 0.001,
		VideoBasePrice:   0.0001,
		BaseSlope:        0.0001,
		VideoGrowthRate:  0.005,
		CreatorTokenFee:  0.10,
		VideoTokenFee:    0.20,
		PlatformFee:      0.01,
		MaxCreatorSupply: 1_000_000,
		MaxVideoSupply:   100_000,
	}
}

// Validate checks the constants can produce a sane curve.
func (e Economics) Validate() error {
	if e.CreatorBasePrice <= 0 || e.VideoBasePrice <= 0 {
		return fmt.Errorf("base prices must be positive")
	}
	if e.BaseSlope < 0 || e.VideoGrowthRate < 0 {
		return fmt.Errorf("slope and growth rate must not be negative")
	}
	if e.CreatorTokenFee < 0 || e.VideoTokenFee < 0 || e.PlatformFee < 0 {
		return fmt.Errorf("fees must not be negative")
	}
	if e.CreatorTokenFee+e.PlatformFee >= 1 || e.VideoTokenFee+e.PlatformFee >= 1 {
		return fmt.Errorf("combined fees must be below 100%%")
	}
	if e.MaxCreatorSupply == 0 || e.MaxVideoSupply == 0 {
		return fmt.Errorf("max supply must be positive")
	}
	return nil
}

// AdjustedBasePrice is the creator base price scaled by the subscriber tier.
func (e Economics) AdjustedBasePrice(subscribers int64) float64 {
	return e.CreatorBasePrice * TierFor(subscribers).BasePriceMultiplier
}

// AdjustedSlope is the creator slope scaled by the tier and the log factor.
func (e Economics) AdjustedSlope(subscribers int64) float64 {
	return e.BaseSlope * TierFor(subscribers).SlopeMultiplier * LogFactor(subscribers)
}

// ParamsFor derives the frozen curve parameters for a new token.
// Video parameters do not depend on the subscriber count.
func (e Economics) ParamsFor(tokenType TokenType, subscribers int64) (Params, error) {
	switch tokenType {
	case Creator:
		return Params{
			TokenType:          Creator,
			BasePrice:          e.AdjustedBasePrice(subscribers),
			Slope:              e.AdjustedSlope(subscribers),
			CreatorFeePercent:  e.CreatorTokenFee,
			PlatformFeePercent: e.PlatformFee,
			MaxSupply:          e.MaxCreatorSupply,
		}, nil
	case Video:
		return Params{
			TokenType:          Video,
			BasePrice:          e.VideoBasePrice,
			GrowthRate:         e.VideoGrowthRate,
			CreatorFeePercent:  e.VideoTokenFee,
			PlatformFeePercent: e.PlatformFee,
			MaxSupply:          e.MaxVideoSupply,
		}, nil
	default:
		return Params{}, fmt.Errorf("%w: %q", ErrUnknownTokenType, tokenType)
	}
}
