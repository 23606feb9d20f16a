package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rovshanmuradov/sipzy/internal/curve"
)

// TokenStats is a token snapshot enriched with derived market figures.
type TokenStats struct {
	Token
	CurrentPrice     float64 `json:"currentPrice"`
	MarketCap        float64 `json:"marketCap"`
	PriceChange24h   float64 `json:"priceChange24h"`
	RollingVolume24h float64 `json:"rollingVolume24h"`
	Trades24h        int     `json:"trades24h"`
}

// GlobalStats aggregates every token in the ledger.
type GlobalStats struct {
	TotalTokens      int     `json:"totalTokens"`
	CreatorTokens    int     `json:"creatorTokens"`
	VideoTokens      int     `json:"videoTokens"`
	TotalVolume      float64 `json:"totalVolume"`
	TotalMarketCap   float64 `json:"totalMarketCap"`
	TotalTrades      int     `json:"totalTrades"`
	TotalAllocations int     `json:"totalAllocations"`
}

// Sort keys accepted by ListTokens.
const (
	SortVolume    = "volume"
	SortPrice     = "price"
	SortMarketCap = "marketCap"
	SortNewest    = "newest"
	SortHolders   = "holders"
)

// ListFilter selects and orders tokens. Page is 1-based.
type ListFilter struct {
	Type      curve.TokenType
	CreatorID string
	SortBy    string
	Page      int
	Limit     int
}

// TokenPage is one page of ListTokens results.
type TokenPage struct {
	Tokens []TokenStats `json:"tokens"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
	Total  int          `json:"total"`
	Pages  int          `json:"pages"`
}

// Holding is a balance valued at the current spot price.
type Holding struct {
	UserTokenBalance
	TokenName         string          `json:"tokenName"`
	TokenSymbol       string          `json:"tokenSymbol"`
	TokenType         curve.TokenType `json:"tokenType"`
	CreatorName       string          `json:"creatorName"`
	VideoTitle        string          `json:"videoTitle,omitempty"`
	CurrentPrice      float64         `json:"currentPrice"`
	CurrentValue      float64         `json:"currentValue"`
	ProfitLoss        float64         `json:"profitLoss"`
	ProfitLossPercent float64         `json:"profitLossPercent"`
}

// Portfolio values everything an actor holds.
type Portfolio struct {
	Actor                  Actor     `json:"user"`
	Holdings               []Holding `json:"holdings"`
	TotalInvested          float64   `json:"totalInvested"`
	TotalValue             float64   `json:"totalValue"`
	TotalProfitLoss        float64   `json:"totalProfitLoss"`
	TotalProfitLossPercent float64   `json:"totalProfitLossPercent"`
}

// TokenStats derives price, market cap and 24h figures for one token.
// The 24h change compares against the newest recorded point at least 24h
// old, or the oldest recorded point when the history is younger.
func (l *Ledger) TokenStats(tokenID string) (TokenStats, error) {
	st, err := l.lookup(tokenID)
	if err != nil {
		return TokenStats{}, err
	}

	st.mu.Lock()
	token := st.token
	reference := st.history[0]
	cutoff := l.clock().Add(-chartWindow)
	for _, p := range st.history {
		if p.Timestamp.After(cutoff) {
			break
		}
		reference = p
	}
	st.mu.Unlock()

	price := curve.SpotPrice(token.Params, token.Supply)
	stats := TokenStats{
		Token:          token,
		CurrentPrice:   price,
		MarketCap:      curve.MarketCap(token.Supply, price),
		PriceChange24h: curve.PercentChange(reference.Price, price),
	}

	l.logMu.RLock()
	for i := range l.trades {
		tr := &l.trades[i]
		if tr.TokenID == tokenID && tr.Timestamp.After(cutoff) {
			stats.RollingVolume24h += tr.Volume
			stats.Trades24h++
		}
	}
	l.logMu.RUnlock()

	return stats, nil
}

// GlobalStats sums volume, market cap and trade counts over all tokens.
func (l *Ledger) GlobalStats() GlobalStats {
	var gs GlobalStats
	for _, t := range l.GetAllTokens() {
		gs.TotalTokens++
		switch t.Type {
		case curve.Creator:
			gs.CreatorTokens++
		case curve.Video:
			gs.VideoTokens++
		}
		gs.TotalVolume += t.VolumeAll
		gs.TotalMarketCap += curve.MarketCap(t.Supply, curve.SpotPrice(t.Params, t.Supply))
		gs.TotalTrades += t.TotalTrades
	}

	l.logMu.RLock()
	gs.TotalAllocations = len(l.allocations)
	l.logMu.RUnlock()

	return gs
}

// ListTokens filters, sorts (descending) and paginates tokens.
// Unknown sort keys fall back to volume.
func (l *Ledger) ListTokens(f ListFilter) (TokenPage, error) {
	if f.Type != "" && !f.Type.Valid() {
		return TokenPage{}, fmt.Errorf("%w: %q", ErrInvalidTokenType, f.Type)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}

	var all []TokenStats
	for _, t := range l.GetAllTokens() {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.CreatorID != "" && t.CreatorID != f.CreatorID {
			continue
		}
		stats, err := l.TokenStats(t.ID)
		if err != nil {
			// Removed by a concurrent Reset.
			continue
		}
		all = append(all, stats)
	}

	sort.SliceStable(all, lessFor(f.SortBy, all))

	page := TokenPage{
		Page:  f.Page,
		Limit: f.Limit,
		Total: len(all),
		Pages: (len(all) + f.Limit - 1) / f.Limit,
	}
	start := (f.Page - 1) * f.Limit
	if start < len(all) {
		end := min(start+f.Limit, len(all))
		page.Tokens = all[start:end]
	}
	return page, nil
}

func lessFor(sortBy string, s []TokenStats) func(i, j int) bool {
	switch strings.ToLower(sortBy) {
	case SortPrice:
		return func(i, j int) bool { return s[i].CurrentPrice > s[j].CurrentPrice }
	case strings.ToLower(SortMarketCap):
		return func(i, j int) bool { return s[i].MarketCap > s[j].MarketCap }
	case SortNewest:
		return func(i, j int) bool { return s[i].CreatedAt.After(s[j].CreatedAt) }
	case SortHolders:
		return func(i, j int) bool { return s[i].Holders > s[j].Holders }
	default:
		return func(i, j int) bool { return s[i].Volume24h > s[j].Volume24h }
	}
}

// Portfolio values the actor's holdings at current spot prices.
func (l *Ledger) Portfolio(actorID string) (Portfolio, error) {
	actor, err := l.GetUser(actorID)
	if err != nil {
		return Portfolio{}, err
	}

	p := Portfolio{Actor: actor}
	for _, bal := range l.GetUserHoldings(actorID) {
		t, err := l.GetToken(bal.TokenID)
		if err != nil {
			continue
		}
		price := curve.SpotPrice(t.Params, t.Supply)
		h := Holding{
			UserTokenBalance: bal,
			TokenName:        t.Name,
			TokenSymbol:      t.Symbol,
			TokenType:        t.Type,
			CreatorName:      t.CreatorName,
			VideoTitle:       t.VideoTitle,
			CurrentPrice:     price,
			CurrentValue:     float64(bal.Balance) * price,
		}
		h.ProfitLoss = h.CurrentValue - bal.TotalInvested
		if bal.TotalInvested > 0 {
			h.ProfitLossPercent = h.ProfitLoss / bal.TotalInvested * 100
		}

		p.Holdings = append(p.Holdings, h)
		p.TotalInvested += bal.TotalInvested
		p.TotalValue += h.CurrentValue
	}

	p.TotalProfitLoss = p.TotalValue - p.TotalInvested
	if p.TotalInvested > 0 {
		p.TotalProfitLossPercent = p.TotalProfitLoss / p.TotalInvested * 100
	}
	return p, nil
}
