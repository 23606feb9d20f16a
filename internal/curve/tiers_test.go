package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		subscribers int64
		want        string
	}{
		{0, "Emerging"},
		{9_999, "Emerging"},
		{10_000, "Growing"},
		{99_999, "Growing"},
		{125_000, "Established"},
		{1_000_000, "Major"},
		{50_000_000, "Major"},
		{-5, "Major"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.subscribers).Name, "subscribers=%d", tt.subscribers)
	}
}

func TestLogFactor(t *testing.T) {
	assert.Equal(t, 1.0, LogFactor(0))
	assert.Equal(t, 1.0, LogFactor(1000))
	assert.InDelta(t, 2.0, LogFactor(10_000), 1e-12)
	assert.InDelta(t, 1+math.Log10(125), LogFactor(125_000), 1e-12)
}

func TestParamsForCreator(t *testing.T) {
	econ := DefaultEconomics()

	p, err := econ.ParamsFor(Creator, 125_000)
	require.NoError(t, err)

	assert.Equal(t, Creator, p.TokenType)
	assert.InDelta(t, 0.002, p.BasePrice, 1e-15)
	assert.InDelta(t, 0.0001*1.5*(1+math.Log10(125)), p.Slope, 1e-15)
	assert.Equal(t, 0.10, p.CreatorFeePercent)
	assert.Equal(t, 0.01, p.PlatformFeePercent)
	assert.Equal(t, uint64(1_000_000), p.MaxSupply)
	assert.Zero(t, p.GrowthRate)
}

func TestParamsForVideoIgnoresSubscribers(t *testing.T) {
	econ := DefaultEconomics()

	small, err := econ.ParamsFor(Video, 10)
	require.NoError(t, err)
	large, err := econ.ParamsFor(Video, 10_000_000)
	require.NoError(t, err)

	assert.Equal(t, small, large)
	assert.Equal(t, 0.0001, small.BasePrice)
	assert.Equal(t, 0.005, small.GrowthRate)
	assert.Equal(t, 0.20, small.CreatorFeePercent)
}

func TestParamsForUnknownType(t *testing.T) {
	_, err := DefaultEconomics().ParamsFor("SONG", 0)
	assert.ErrorIs(t, err, ErrUnknownTokenType)
}

func TestEconomicsValidate(t *testing.T) {
	require.NoError(t, DefaultEconomics().Validate())

	bad := DefaultEconomics()
	bad.PlatformFee = 0.95
	assert.Error(t, bad.Validate())

	bad = DefaultEconomics()
	bad.VideoBasePrice = 0
	assert.Error(t, bad.Validate())

	bad = DefaultEconomics()
	bad.MaxVideoSupply = 0
	assert.Error(t, bad.Validate())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1.500000", FormatSol(1.5, 6))
	assert.Equal(t, "10.00%", FormatPercent(0.1, 2))
	assert.Equal(t, 50.0, PercentChange(2, 3))
	assert.Equal(t, 0.0, PercentChange(0, 3))
}
