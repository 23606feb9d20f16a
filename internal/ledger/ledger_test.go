package ledger

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/events"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *fakeClock) {
	t.Helper()
	return newTestLedgerWithConfig(t, DefaultConfig(), opts...)
}

func newTestLedgerWithConfig(t *testing.T, cfg Config, opts ...Option) (*Ledger, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	l, err := New(cfg, zap.NewNop(), append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return l, clock
}

func createCreatorToken(t *testing.T, l *Ledger, creatorID string, subscribers int64) Token {
	t.Helper()
	tok, err := l.CreateToken(CreateTokenRequest{
		Type:            curve.Creator,
		CreatorID:       creatorID,
		CreatorName:     "Creator " + creatorID,
		SubscriberCount: subscribers,
		Name:            "Token " + creatorID,
		Symbol:          "$TKN",
	})
	require.NoError(t, err)
	return tok
}

func createVideoToken(t *testing.T, l *Ledger, videoID string) Token {
	t.Helper()
	tok, err := l.CreateToken(CreateTokenRequest{
		Type:       curve.Video,
		CreatorID:  "creator-1",
		Name:       "Video " + videoID,
		Symbol:     "$VID",
		VideoID:    videoID,
		VideoTitle: "Title " + videoID,
	})
	require.NoError(t, err)
	return tok
}

func sumBalances(l *Ledger, tokenID string) uint64 {
	st, _ := l.lookup(tokenID)
	st.mu.Lock()
	defer st.mu.Unlock()
	var total uint64
	for _, b := range st.balances {
		total += b.Balance
	}
	return total
}

func TestCreateCreatorTokenMintsAllocation(t *testing.T) {
	l, _ := newTestLedger(t)

	tok := createCreatorToken(t, l, "alice", 125_000)

	assert.Equal(t, uint64(100), tok.Supply)
	assert.Equal(t, 1, tok.Holders)
	assert.Equal(t, 0, tok.TotalTrades)
	assert.Zero(t, tok.CreatorEarnings)
	assert.Zero(t, tok.PlatformEarnings)
	assert.InDelta(t, curve.MintValue(tok.Params, 100), tok.ReserveSOL, 1e-12)
	assert.InDelta(t, curve.SpotPrice(tok.Params, 100), tok.AllTimeHigh, 1e-15)
	assert.Equal(t, tok.Params.BasePrice, tok.AllTimeLow)
	assert.InDelta(t, 0.002, tok.Params.BasePrice, 1e-15)

	assert.Empty(t, l.GetTokenTrades(tok.ID, 0), "allocation must not appear as a trade")
	assert.Equal(t, uint64(100), l.GetUserTokenBalance("alice", tok.ID))

	holdings := l.GetUserHoldings("alice")
	require.Len(t, holdings, 1)
	assert.Zero(t, holdings[0].AvgBuyPrice)
	assert.Zero(t, holdings[0].TotalInvested)

	allocs := l.Allocations()
	require.Len(t, allocs, 1)
	assert.Equal(t, KindAllocation, allocs[0].Kind)
	assert.Equal(t, uint64(100), allocs[0].Amount)

	history, err := l.GetPriceHistory(tok.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, uint64(0), history[0].Supply)
	assert.Equal(t, uint64(100), history[1].Supply)

	// The creator is registered so the allocation can be sold.
	_, err = l.GetUser("alice")
	assert.NoError(t, err)
}

func TestCreateVideoToken(t *testing.T) {
	l, _ := newTestLedger(t)

	tok := createVideoToken(t, l, "abc123")

	assert.Equal(t, curve.Video, tok.Type)
	assert.Zero(t, tok.Supply)
	assert.Zero(t, tok.Holders)
	assert.Equal(t, "abc123", tok.VideoID)
	assert.Equal(t, 0.0001, tok.Params.BasePrice)
	assert.Equal(t, 0.005, tok.Params.GrowthRate)
	assert.Empty(t, l.Allocations())
}

func TestCreateTokenValidation(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.CreateToken(CreateTokenRequest{Type: "SONG", CreatorID: "x"})
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	_, err = l.CreateToken(CreateTokenRequest{Type: curve.Creator})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req := CreateTokenRequest{ID: "fixed", Type: curve.Video, CreatorID: "x"}
	_, err = l.CreateToken(req)
	require.NoError(t, err)
	_, err = l.CreateToken(req)
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

func TestCreateTokenDerivesCurveAddress(t *testing.T) {
	l, _ := newTestLedger(t, WithAddressDeriver(func(id string) (string, error) {
		return "addr-" + id, nil
	}))
	tok := createVideoToken(t, l, "v1")
	assert.Equal(t, "addr-"+tok.ID, tok.CurveAddress)

	failing, _ := newTestLedger(t, WithAddressDeriver(func(string) (string, error) {
		return "", errors.New("bad program id")
	}))
	_, err := failing.CreateToken(CreateTokenRequest{Type: curve.Video, CreatorID: "x"})
	assert.Error(t, err)
	assert.Empty(t, failing.GetAllTokens())
}

func TestBuyAppliesTrade(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createCreatorToken(t, l, "alice", 0)
	l.GetOrCreateUser("bob", "Bob")

	preview, err := l.PreviewBuy(tok.ID, 10)
	require.NoError(t, err)

	res, err := l.Buy(tok.ID, "bob", 10)
	require.NoError(t, err)
	assert.Equal(t, preview.TradeCost, res.Cost)
	assert.InDelta(t, 0.06225, res.Cost.TokenCost, 1e-12)

	after, err := l.GetToken(tok.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(110), after.Supply)
	assert.Equal(t, tok.ReserveSOL+res.Cost.TokenCost, after.ReserveSOL)
	assert.Equal(t, res.Cost.CreatorFee, after.CreatorEarnings)
	assert.Equal(t, res.Cost.PlatformFee, after.PlatformEarnings)
	assert.Equal(t, 2, after.Holders)
	assert.Equal(t, 1, after.TotalTrades)
	assert.Equal(t, res.Cost.TotalCost, after.Volume24h)
	assert.Equal(t, res.Cost.TotalCost, after.VolumeAll)
	assert.Equal(t, res.Cost.NewPrice, after.AllTimeHigh)

	assert.InDelta(t, 10-res.Cost.TotalCost, l.CurrencyBalance("bob"), 1e-12)
	assert.Equal(t, uint64(10), l.GetUserTokenBalance("bob", tok.ID))

	trade := res.Trade
	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, SideBuy, trade.Side)
	assert.Equal(t, res.Cost.TotalCost, trade.TotalValue)
	assert.Equal(t, res.Cost.PricePerToken, trade.Price)
	assert.Equal(t, uint64(110), trade.SupplyAfter)

	holdings := l.GetUserHoldings("bob")
	require.Len(t, holdings, 1)
	assert.Equal(t, res.Cost.PricePerToken, holdings[0].AvgBuyPrice)
	assert.Equal(t, res.Cost.TotalCost, holdings[0].TotalInvested)

	// A second buy recomputes the average from total invested.
	res2, err := l.Buy(tok.ID, "bob", 5)
	require.NoError(t, err)
	holdings = l.GetUserHoldings("bob")
	invested := res.Cost.TotalCost + res2.Cost.TotalCost
	assert.Equal(t, invested, holdings[0].TotalInvested)
	assert.Equal(t, invested/15, holdings[0].AvgBuyPrice)
}

func TestBuyInsufficientFundsLeavesStateUntouched(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createCreatorToken(t, l, "alice", 0)
	l.GetOrCreateUser("bob", "")
	require.NoError(t, l.SetCurrencyBalance("bob", 0.01))

	before, _ := l.GetToken(tok.ID)
	historyBefore, _ := l.GetPriceHistory(tok.ID)

	_, err := l.Buy(tok.ID, "bob", 10)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	after, _ := l.GetToken(tok.ID)
	historyAfter, _ := l.GetPriceHistory(tok.ID)
	assert.Equal(t, before, after)
	assert.Equal(t, historyBefore, historyAfter)
	assert.Equal(t, 0.01, l.CurrencyBalance("bob"))
	assert.Zero(t, l.GetUserTokenBalance("bob", tok.ID))
	assert.Empty(t, l.RecentTrades(0))
}

func TestTradeErrors(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")

	_, err := l.Buy("missing", "bob", 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = l.Buy(tok.ID, "ghost", 1)
	assert.ErrorIs(t, err, ErrActorNotFound)

	_, err = l.Buy(tok.ID, "bob", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.ErrorIs(t, err, curve.ErrInvalidAmount)

	_, err = l.Sell(tok.ID, "bob", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = l.Sell(tok.ID, "bob", 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = l.PreviewBuy("missing", 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = l.PreviewSell(tok.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = l.PreviewSell(tok.ID, 1)
	assert.ErrorIs(t, err, ErrSupplyUnderflow)
}

func TestSupplyCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Economics.MaxVideoSupply = 10
	l, _ := newTestLedgerWithConfig(t, cfg)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")

	_, err := l.PreviewBuy(tok.ID, 11)
	assert.ErrorIs(t, err, ErrSupplyCapExceeded)

	_, err = l.Buy(tok.ID, "bob", 11)
	assert.ErrorIs(t, err, ErrSupplyCapExceeded)
	assert.ErrorIs(t, err, curve.ErrSupplyCapExceeded)

	_, err = l.Buy(tok.ID, "bob", 10)
	assert.NoError(t, err)
}

func TestSellToZero(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")

	buy, err := l.Buy(tok.ID, "bob", 5)
	require.NoError(t, err)

	preview, err := l.PreviewSell(tok.ID, 5)
	require.NoError(t, err)

	sell, err := l.Sell(tok.ID, "bob", 5)
	require.NoError(t, err)
	assert.Equal(t, preview.TradeRefund, sell.Refund)
	assert.Equal(t, SideSell, sell.Trade.Side)
	assert.Equal(t, sell.Refund.NetRefund, sell.Trade.TotalValue)
	assert.Equal(t, sell.Refund.GrossRefund, sell.Trade.Volume)

	after, _ := l.GetToken(tok.ID)
	assert.Zero(t, after.Supply)
	assert.Zero(t, after.Holders)
	assert.Equal(t, tok.Params.BasePrice, after.AllTimeLow)
	assert.InDelta(t, 0, after.ReserveSOL, 1e-15)
	assert.Equal(t, buy.Cost.TotalCost+sell.Refund.GrossRefund, after.VolumeAll)

	price, err := l.CurrentPrice(tok.ID)
	require.NoError(t, err)
	assert.Equal(t, tok.Params.BasePrice, price)

	assert.Empty(t, l.GetUserHoldings("bob"))
	assert.Zero(t, l.GetUserTokenBalance("bob", tok.ID))
	assert.InDelta(t, 10-buy.Cost.TotalCost+sell.Refund.NetRefund, l.CurrencyBalance("bob"), 1e-12)

	// Buying back in counts the actor as a holder again.
	_, err = l.Buy(tok.ID, "bob", 1)
	require.NoError(t, err)
	after, _ = l.GetToken(tok.ID)
	assert.Equal(t, 1, after.Holders)
}

func TestCreatorCanSellAllocation(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createCreatorToken(t, l, "alice", 5_000)

	res, err := l.Sell(tok.ID, "alice", 100)
	require.NoError(t, err)
	assert.Greater(t, res.Refund.NetRefund, 0.0)

	after, _ := l.GetToken(tok.ID)
	assert.Zero(t, after.Supply)
	assert.Zero(t, after.Holders)
	assert.InDelta(t, 0, after.ReserveSOL, 1e-12)
}

func TestPreviewIsIdempotentAndMonotonic(t *testing.T) {
	l, _ := newTestLedger(t)
	creator := createCreatorToken(t, l, "alice", 50_000)
	video := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")

	for _, id := range []string{creator.ID, video.ID} {
		first, err := l.PreviewBuy(id, 7)
		require.NoError(t, err)
		second, err := l.PreviewBuy(id, 7)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		_, err = l.Buy(id, "bob", 7)
		require.NoError(t, err)

		third, err := l.PreviewBuy(id, 7)
		require.NoError(t, err)
		assert.Greater(t, third.TotalCost, first.TotalCost)
		assert.Equal(t, first.NewPrice, third.CurrentPrice)
	}
}

func TestBalancesSumToSupply(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createCreatorToken(t, l, "alice", 20_000)

	actors := []string{"a1", "a2", "a3"}
	for _, a := range actors {
		l.GetOrCreateUser(a, "")
		require.NoError(t, l.SetCurrencyBalance(a, 1000))
	}

	steps := []struct {
		actor  string
		buy    bool
		amount uint64
	}{
		{"a1", true, 40}, {"a2", true, 15}, {"a1", false, 10}, {"a3", true, 7},
		{"a2", false, 15}, {"alice", false, 30}, {"a3", true, 1}, {"a1", false, 30},
	}
	for _, s := range steps {
		var err error
		if s.buy {
			_, err = l.Buy(tok.ID, s.actor, s.amount)
		} else {
			_, err = l.Sell(tok.ID, s.actor, s.amount)
		}
		require.NoError(t, err)

		cur, _ := l.GetToken(tok.ID)
		assert.Equal(t, cur.Supply, sumBalances(l, tok.ID))
	}

	final, _ := l.GetToken(tok.ID)
	assert.Equal(t, uint64(78), final.Supply)
	assert.Equal(t, 2, final.Holders) // alice 70, a3 8
	assert.Len(t, l.GetTokenTrades(tok.ID, 0), len(steps))
}

func TestTradesNewestFirst(t *testing.T) {
	l, clock := newTestLedger(t)
	a := createVideoToken(t, l, "a")
	b := createVideoToken(t, l, "b")
	l.GetOrCreateUser("bob", "")
	l.GetOrCreateUser("carol", "")

	first, err := l.Buy(a.ID, "bob", 1)
	require.NoError(t, err)
	second, err := l.Buy(b.ID, "carol", 2)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	third, err := l.Buy(a.ID, "carol", 3)
	require.NoError(t, err)

	recent := l.RecentTrades(0)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{third.Trade.ID, second.Trade.ID, first.Trade.ID},
		[]string{recent[0].ID, recent[1].ID, recent[2].ID})

	assert.Len(t, l.RecentTrades(2), 2)

	tokenTrades := l.GetTokenTrades(a.ID, 0)
	require.Len(t, tokenTrades, 2)
	assert.Equal(t, third.Trade.ID, tokenTrades[0].ID)

	userTrades := l.GetUserTrades("carol", 1)
	require.Len(t, userTrades, 1)
	assert.Equal(t, third.Trade.ID, userTrades[0].ID)
}

func TestPriceHistoryIsCapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryLimit = 5
	l, _ := newTestLedgerWithConfig(t, cfg)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")

	for i := 0; i < 10; i++ {
		_, err := l.Buy(tok.ID, "bob", 1)
		require.NoError(t, err)
	}

	history, err := l.GetPriceHistory(tok.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, uint64(6), history[0].Supply)
	assert.Equal(t, uint64(10), history[4].Supply)
}

func TestChartDataBackfillsSparseTokens(t *testing.T) {
	l, clock := newTestLedger(t)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")
	_, err := l.Buy(tok.ID, "bob", 40)
	require.NoError(t, err)

	chart, err := l.ChartData(tok.ID)
	require.NoError(t, err)
	assert.True(t, chart.Synthetic)
	require.Len(t, chart.Points, 101)

	firstPoint, lastPoint := chart.Points[0], chart.Points[100]
	assert.Equal(t, uint64(0), firstPoint.Supply)
	assert.Equal(t, uint64(40), lastPoint.Supply)
	assert.Equal(t, curve.SpotPrice(tok.Params, 40), lastPoint.Price)
	assert.Equal(t, clock.Now(), lastPoint.Timestamp)
	assert.Equal(t, clock.Now().Add(-24*time.Hour), firstPoint.Timestamp)
	for i := 1; i < len(chart.Points); i++ {
		assert.GreaterOrEqual(t, chart.Points[i].Price, chart.Points[i-1].Price)
	}

	// The backfill is never written into real history.
	history, _ := l.GetPriceHistory(tok.ID)
	assert.Len(t, history, 2)

	for i := 0; i < 8; i++ {
		_, err := l.Buy(tok.ID, "bob", 1)
		require.NoError(t, err)
	}
	chart, err = l.ChartData(tok.ID)
	require.NoError(t, err)
	assert.False(t, chart.Synthetic)
	assert.Len(t, chart.Points, 10)
}

func TestTokenStats(t *testing.T) {
	l, clock := newTestLedger(t)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")

	first, err := l.Buy(tok.ID, "bob", 10)
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	second, err := l.Buy(tok.ID, "bob", 10)
	require.NoError(t, err)

	stats, err := l.TokenStats(tok.ID)
	require.NoError(t, err)

	assert.Equal(t, curve.SpotPrice(tok.Params, 20), stats.CurrentPrice)
	assert.Equal(t, curve.MarketCap(20, stats.CurrentPrice), stats.MarketCap)
	assert.Equal(t, curve.PercentChange(first.Cost.NewPrice, second.Cost.NewPrice), stats.PriceChange24h)
	assert.Equal(t, second.Cost.TotalCost, stats.RollingVolume24h)
	assert.Equal(t, 1, stats.Trades24h)
	assert.Equal(t, first.Cost.TotalCost+second.Cost.TotalCost, stats.Volume24h)

	_, err = l.TokenStats("missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenStatsYoungHistoryUsesFirstPoint(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")
	_, err := l.Buy(tok.ID, "bob", 10)
	require.NoError(t, err)

	stats, err := l.TokenStats(tok.ID)
	require.NoError(t, err)
	assert.Equal(t, curve.PercentChange(tok.Params.BasePrice, stats.CurrentPrice), stats.PriceChange24h)
}

func TestListTokens(t *testing.T) {
	l, clock := newTestLedger(t)
	c1 := createCreatorToken(t, l, "alice", 500)
	clock.Advance(time.Second)
	c2 := createCreatorToken(t, l, "dave", 2_000_000)
	clock.Advance(time.Second)
	v1 := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "")
	require.NoError(t, l.SetCurrencyBalance("bob", 1000))

	_, err := l.Buy(v1.ID, "bob", 50)
	require.NoError(t, err)
	_, err = l.Buy(c1.ID, "bob", 20)
	require.NoError(t, err)

	page, err := l.ListTokens(ListFilter{SortBy: SortPrice, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Tokens, 2)
	assert.Equal(t, c2.ID, page.Tokens[0].ID)

	page, err = l.ListTokens(ListFilter{SortBy: SortPrice, Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Tokens, 1)
	assert.Equal(t, v1.ID, page.Tokens[0].ID)

	page, err = l.ListTokens(ListFilter{SortBy: SortPrice, Limit: 2, Page: 3})
	require.NoError(t, err)
	assert.Empty(t, page.Tokens)

	page, err = l.ListTokens(ListFilter{SortBy: SortNewest})
	require.NoError(t, err)
	assert.Equal(t, v1.ID, page.Tokens[0].ID)

	page, err = l.ListTokens(ListFilter{Type: curve.Creator, SortBy: SortVolume})
	require.NoError(t, err)
	require.Len(t, page.Tokens, 2)
	assert.Equal(t, c1.ID, page.Tokens[0].ID)

	page, err = l.ListTokens(ListFilter{CreatorID: "dave"})
	require.NoError(t, err)
	require.Len(t, page.Tokens, 1)
	assert.Equal(t, c2.ID, page.Tokens[0].ID)

	_, err = l.ListTokens(ListFilter{Type: "NFT"})
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	assert.Len(t, l.GetTokensByType(curve.Video), 1)
	assert.Len(t, l.GetTokensByCreator("alice"), 1)
	assert.Len(t, l.GetAllTokens(), 3)
}

func TestPortfolio(t *testing.T) {
	l, _ := newTestLedger(t)
	tok := createVideoToken(t, l, "v1")
	l.GetOrCreateUser("bob", "Bob")

	res, err := l.Buy(tok.ID, "bob", 10)
	require.NoError(t, err)

	p, err := l.Portfolio("bob")
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)

	h := p.Holdings[0]
	price := curve.SpotPrice(tok.Params, 10)
	assert.Equal(t, "Bob", p.Actor.Name)
	assert.Equal(t, price, h.CurrentPrice)
	assert.Equal(t, 10*price, h.CurrentValue)
	assert.Equal(t, h.CurrentValue-res.Cost.TotalCost, h.ProfitLoss)
	assert.Less(t, h.ProfitLoss, 0.0) // fees are not recovered at spot
	assert.Equal(t, res.Cost.TotalCost, p.TotalInvested)
	assert.Equal(t, p.TotalValue-p.TotalInvested, p.TotalProfitLoss)

	_, err = l.Portfolio("ghost")
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestGlobalStatsSeedAndReset(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.SeedDemo())

	gs := l.GlobalStats()
	assert.Equal(t, 2, gs.TotalTokens)
	assert.Equal(t, 1, gs.CreatorTokens)
	assert.Equal(t, 1, gs.VideoTokens)
	assert.Equal(t, 4, gs.TotalTrades)
	assert.Equal(t, 1, gs.TotalAllocations)
	assert.Greater(t, gs.TotalVolume, 0.0)
	assert.Greater(t, gs.TotalMarketCap, 0.0)

	creatorTokens := l.GetTokensByType(curve.Creator)
	require.Len(t, creatorTokens, 1)
	assert.Equal(t, uint64(180), creatorTokens[0].Supply)
	assert.Equal(t, 2, creatorTokens[0].Holders)

	videoTokens := l.GetTokensByType(curve.Video)
	require.Len(t, videoTokens, 1)
	assert.Equal(t, uint64(150), videoTokens[0].Supply)
	assert.Less(t, l.CurrencyBalance(DemoInvestorID), 50.0)
	assert.Equal(t, 100.0, l.CurrencyBalance(DemoCreatorID))

	l.Reset()
	assert.Empty(t, l.GetAllTokens())
	assert.Empty(t, l.RecentTrades(0))
	assert.Empty(t, l.Allocations())
	assert.Equal(t, 50.0, l.CurrencyBalance(DemoInvestorID))
	assert.Equal(t, GlobalStats{}, l.GlobalStats())
}

func TestCurrencyBalance(t *testing.T) {
	l, _ := newTestLedger(t)

	a := l.GetOrCreateUser("new-user", "")
	assert.Equal(t, "User", a.Name)
	assert.Equal(t, 10.0, a.SOLBalance)

	// Existing actors are returned unchanged.
	a = l.GetOrCreateUser("new-user", "Renamed")
	assert.Equal(t, "User", a.Name)

	assert.ErrorIs(t, l.SetCurrencyBalance("new-user", -1), ErrNegativeSOLBalance)
	assert.ErrorIs(t, l.SetCurrencyBalance("ghost", 1), ErrActorNotFound)
	require.NoError(t, l.SetCurrencyBalance("new-user", 3.5))
	assert.Equal(t, 3.5, l.CurrencyBalance("new-user"))
	assert.Zero(t, l.CurrencyBalance("ghost"))
}

func TestEventsPublished(t *testing.T) {
	rec := &recorder{}
	l, _ := newTestLedger(t, WithPublisher(rec))

	tok := createCreatorToken(t, l, "alice", 0)
	l.GetOrCreateUser("bob", "")
	_, err := l.Buy(tok.ID, "bob", 3)
	require.NoError(t, err)
	_, err = l.Sell(tok.ID, "bob", 5)
	require.Error(t, err)

	assert.Equal(t, []events.EventType{
		events.TokenCreated,
		events.AllocationMinted,
		events.TradeExecuted,
		events.PriceUpdated,
		events.TradeRejected,
	}, rec.types())

	rejected, ok := rec.events[4].(*events.TradeRejectedEvent)
	require.True(t, ok)
	assert.Equal(t, "insufficient_balance", rejected.Reason)
	assert.ErrorIs(t, rejected.Error, ErrInsufficientBalance)

	executed, ok := rec.events[2].(*events.TradeExecutedEvent)
	require.True(t, ok)
	assert.Equal(t, "BUY", executed.Side)
	assert.Equal(t, uint64(103), executed.SupplyAfter)
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryLimit = 0
	_, err := New(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Economics.CreatorTokenFee = 0.995
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.InitialAllocation = 100
	cfg.Economics.MaxCreatorSupply = 50
	_, err = New(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "initial allocation")
}

// gatedClock blocks the first call made after arm until release is closed.
type gatedClock struct {
	base    *fakeClock
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (c *gatedClock) Now() time.Time {
	if c.armed.CompareAndSwap(true, false) {
		close(c.entered)
		<-c.release
	}
	return c.base.Now()
}

func TestResetWaitsForInFlightTrade(t *testing.T) {
	clock := &gatedClock{
		base:    newFakeClock(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	l, _ := newTestLedger(t, WithClock(clock.Now))
	tok := createVideoToken(t, l, "vid-reset")

	clock.armed.Store(true)
	buyErr := make(chan error, 1)
	go func() {
		_, err := l.Buy(tok.ID, DemoInvestorID, 10)
		buyErr <- err
	}()
	<-clock.entered

	resetDone := make(chan struct{})
	go func() {
		l.Reset()
		close(resetDone)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-resetDone:
		t.Fatal("reset finished while a trade was in flight")
	default:
	}
	_, err := l.GetToken(tok.ID)
	require.NoError(t, err)

	close(clock.release)
	require.NoError(t, <-buyErr)
	select {
	case <-resetDone:
	case <-time.After(5 * time.Second):
		t.Fatal("reset did not finish")
	}

	assert.Empty(t, l.RecentTrades(0))
	assert.Empty(t, l.GetAllTokens())
	assert.Equal(t, GlobalStats{}, l.GlobalStats())
	assert.Equal(t, 50.0, l.CurrencyBalance(DemoInvestorID))

	_, err = l.Buy(tok.ID, DemoInvestorID, 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
