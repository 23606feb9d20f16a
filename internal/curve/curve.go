package curve

import (
	"fmt"
	"math"
)

// LinearPrice = basePrice + supply*slope.
func LinearPrice(supply uint64, basePrice, slope float64) float64 {
	return basePrice + float64(supply)*slope
}

// LinearBuyCost is the closed-form sum of LinearPrice(supply+i) for i in [0, amount):
// basePrice*amount + slope*(amount*supply + amount*(amount-1)/2).
func LinearBuyCost(supply, amount uint64, basePrice, slope float64) float64 {
	n := float64(amount)
	baseCost := basePrice * n
	slopeCost := slope * (n*float64(supply) + (n*(n-1))/2)
	return baseCost + slopeCost
}

// LinearSellRefund equals the cost of buying the range [supply-amount, supply).
func LinearSellRefund(supply, amount uint64, basePrice, slope float64) (float64, error) {
	if amount > supply {
		return 0, ErrSupplyUnderflow
	}
	return LinearBuyCost(supply-amount, amount, basePrice, slope), nil
}

// ExponentialPrice = basePrice * (1+growthRate)^supply.
func ExponentialPrice(supply uint64, basePrice, growthRate float64) float64 {
	return basePrice * math.Pow(1+growthRate, float64(supply))
}

// ExponentialBuyCost sums ExponentialPrice step by step in ascending supply order.
// The explicit summation is kept over the geometric closed form so results match
// previously recorded trades bit for bit.
func ExponentialBuyCost(supply, amount uint64, basePrice, growthRate float64) float64 {
	total := 0.0
	for i := uint64(0); i < amount; i++ {
		total += ExponentialPrice(supply+i, basePrice, growthRate)
	}
	return total
}

// ExponentialSellRefund sums ExponentialPrice from supply-1 downwards.
func ExponentialSellRefund(supply, amount uint64, basePrice, growthRate float64) (float64, error) {
	if amount > supply {
		return 0, ErrSupplyUnderflow
	}
	total := 0.0
	for i := uint64(0); i < amount; i++ {
		total += ExponentialPrice(supply-i-1, basePrice, growthRate)
	}
	return total, nil
}

// SpotPrice is the price of the next single token at supply.
func SpotPrice(p Params, supply uint64) float64 {
	if p.TokenType == Video {
		return ExponentialPrice(supply, p.BasePrice, p.GrowthRate)
	}
	return LinearPrice(supply, p.BasePrice, p.Slope)
}

// SplitFees applies the fee fractions to a pre-fee amount.
func SplitFees(p Params, raw float64) (creatorFee, platformFee float64) {
	return raw * p.CreatorFeePercent, raw * p.PlatformFeePercent
}

// BuyCost prices buying amount tokens at the current supply.
func BuyCost(p Params, supply, amount uint64) (TradeCost, error) {
	if amount == 0 {
		return TradeCost{}, ErrInvalidAmount
	}
	if p.MaxSupply > 0 && (supply+amount > p.MaxSupply || supply+amount < supply) {
		return TradeCost{}, fmt.Errorf("%w: %d + %d > %d", ErrSupplyCapExceeded, supply, amount, p.MaxSupply)
	}

	var tokenCost float64
	switch p.TokenType {
	case Creator:
		tokenCost = LinearBuyCost(supply, amount, p.BasePrice, p.Slope)
	case Video:
		tokenCost = ExponentialBuyCost(supply, amount, p.BasePrice, p.GrowthRate)
	default:
		return TradeCost{}, fmt.Errorf("%w: %q", ErrUnknownTokenType, p.TokenType)
	}

	creatorFee, platformFee := SplitFees(p, tokenCost)
	totalCost := tokenCost + creatorFee + platformFee

	return TradeCost{
		TokenCost:     tokenCost,
		CreatorFee:    creatorFee,
		PlatformFee:   platformFee,
		TotalCost:     totalCost,
		PricePerToken: totalCost / float64(amount),
		NewPrice:      SpotPrice(p, supply+amount),
	}, nil
}

// SellRefund prices selling amount tokens back to the curve at the current supply.
func SellRefund(p Params, supply, amount uint64) (TradeRefund, error) {
	if amount == 0 {
		return TradeRefund{}, ErrInvalidAmount
	}

	var (
		grossRefund float64
		err         error
	)
	switch p.TokenType {
	case Creator:
		grossRefund, err = LinearSellRefund(supply, amount, p.BasePrice, p.Slope)
	case Video:
		grossRefund, err = ExponentialSellRefund(supply, amount, p.BasePrice, p.GrowthRate)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownTokenType, p.TokenType)
	}
	if err != nil {
		return TradeRefund{}, err
	}

	creatorFee, platformFee := SplitFees(p, grossRefund)
	netRefund := grossRefund - creatorFee - platformFee

	newSupply := supply - amount
	newPrice := p.BasePrice
	if newSupply > 0 {
		newPrice = SpotPrice(p, newSupply)
	}

	return TradeRefund{
		GrossRefund:   grossRefund,
		CreatorFee:    creatorFee,
		PlatformFee:   platformFee,
		NetRefund:     netRefund,
		PricePerToken: netRefund / float64(amount),
		NewPrice:      newPrice,
	}, nil
}

// MintValue is the curve value of the first amount tokens, used to back
// a founder allocation in the reserve.
func MintValue(p Params, amount uint64) float64 {
	total := 0.0
	for i := uint64(0); i < amount; i++ {
		total += SpotPrice(p, i)
	}
	return total
}

// MarketCap = supply * price.
func MarketCap(supply uint64, price float64) float64 {
	return float64(supply) * price
}
