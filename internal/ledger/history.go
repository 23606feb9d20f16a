package ledger

import (
	"math"
	"time"

	"github.com/rovshanmuradov/sipzy/internal/curve"
)

const chartWindow = 24 * time.Hour

// GetPriceHistory returns the recorded price points of a token, oldest first.
func (l *Ledger) GetPriceHistory(tokenID string) ([]PricePoint, error) {
	st, err := l.lookup(tokenID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]PricePoint(nil), st.history...), nil
}

// ChartData returns points for display. Tokens with fewer than MinChartPoints
// recorded points get a synthesized series spread over the last 24 hours,
// moving from the first recorded supply to the current one. The synthesized
// series is never stored.
func (l *Ledger) ChartData(tokenID string) (Chart, error) {
	st, err := l.lookup(tokenID)
	if err != nil {
		return Chart{}, err
	}

	st.mu.Lock()
	history := append([]PricePoint(nil), st.history...)
	token := st.token
	st.mu.Unlock()

	if len(history) >= l.cfg.MinChartPoints {
		return Chart{TokenID: tokenID, Points: history}, nil
	}

	return Chart{
		TokenID:   tokenID,
		Points:    backfill(token, history[0].Supply, l.cfg.ChartPoints, l.clock()),
		Synthetic: true,
	}, nil
}

// backfill interpolates supply linearly from startSupply to the current supply
// over n intervals ending at now, and prices each step on the token's curve.
func backfill(t Token, startSupply uint64, n int, now time.Time) []PricePoint {
	interval := chartWindow / time.Duration(n)
	from, to := float64(startSupply), float64(t.Supply)

	points := make([]PricePoint, 0, n+1)
	for i := n; i >= 0; i-- {
		progress := 1 - float64(i)/float64(n)
		supply := uint64(math.Round(from + (to-from)*progress))
		points = append(points, PricePoint{
			TokenID:   t.ID,
			Price:     curve.SpotPrice(t.Params, supply),
			Supply:    supply,
			Timestamp: now.Add(-time.Duration(i) * interval),
		})
	}

	// The last point is exactly the current state.
	points[n].Supply = t.Supply
	points[n].Price = curve.SpotPrice(t.Params, t.Supply)
	return points
}
