package ledger

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/events"
)

// PreviewBuy prices a buy at the current supply without mutating anything.
func (l *Ledger) PreviewBuy(tokenID string, amount uint64) (BuyQuote, error) {
	st, err := l.lookup(tokenID)
	if err != nil {
		return BuyQuote{}, err
	}
	t := st.snapshot()

	cost, err := curve.BuyCost(t.Params, t.Supply, amount)
	if err != nil {
		return BuyQuote{}, translate(err)
	}
	return BuyQuote{TradeCost: cost, CurrentPrice: curve.SpotPrice(t.Params, t.Supply)}, nil
}

// PreviewSell prices a sell at the current supply without mutating anything.
func (l *Ledger) PreviewSell(tokenID string, amount uint64) (SellQuote, error) {
	st, err := l.lookup(tokenID)
	if err != nil {
		return SellQuote{}, err
	}
	t := st.snapshot()

	refund, err := curve.SellRefund(t.Params, t.Supply, amount)
	if err != nil {
		return SellQuote{}, translate(err)
	}
	return SellQuote{TradeRefund: refund, CurrentPrice: curve.SpotPrice(t.Params, t.Supply)}, nil
}

// Buy debits the actor's SOL by the total cost and credits amount tokens.
// On any error nothing is mutated.
func (l *Ledger) Buy(tokenID, actorID string, amount uint64) (BuyResult, error) {
	if amount == 0 {
		return BuyResult{}, l.reject(SideBuy, tokenID, actorID, amount, ErrInvalidAmount)
	}

	l.resetMu.RLock()
	defer l.resetMu.RUnlock()

	st, err := l.lookup(tokenID)
	if err != nil {
		return BuyResult{}, l.reject(SideBuy, tokenID, actorID, amount, err)
	}
	actor, err := l.lookupActor(actorID)
	if err != nil {
		return BuyResult{}, l.reject(SideBuy, tokenID, actorID, amount, err)
	}

	st.mu.Lock()
	t := &st.token

	cost, err := curve.BuyCost(t.Params, t.Supply, amount)
	if err != nil {
		st.mu.Unlock()
		return BuyResult{}, l.reject(SideBuy, tokenID, actorID, amount, translate(err))
	}

	actor.mu.Lock()
	if actor.actor.SOLBalance < cost.TotalCost {
		available := actor.actor.SOLBalance
		actor.mu.Unlock()
		st.mu.Unlock()
		return BuyResult{}, l.reject(SideBuy, tokenID, actorID, amount,
			fmt.Errorf("%w: need %.9f SOL, have %.9f", ErrInsufficientFunds, cost.TotalCost, available))
	}
	actor.actor.SOLBalance -= cost.TotalCost
	actor.mu.Unlock()

	now := l.clock()
	previousPrice := curve.SpotPrice(t.Params, t.Supply)

	t.Supply += amount
	t.ReserveSOL += cost.TokenCost
	t.CreatorEarnings += cost.CreatorFee
	t.PlatformEarnings += cost.PlatformFee
	t.TotalTrades++
	t.Volume24h += cost.TotalCost
	t.VolumeAll += cost.TotalCost
	t.UpdatedAt = now

	newPrice := curve.SpotPrice(t.Params, t.Supply)
	t.AllTimeHigh = max(t.AllTimeHigh, newPrice)
	t.AllTimeLow = min(t.AllTimeLow, newPrice)

	bal, ok := st.balances[actorID]
	if !ok {
		bal = &UserTokenBalance{
			TokenID:       tokenID,
			UserID:        actorID,
			Balance:       amount,
			AvgBuyPrice:   cost.PricePerToken,
			TotalInvested: cost.TotalCost,
		}
		st.balances[actorID] = bal
		t.Holders++
	} else {
		if bal.Balance == 0 {
			t.Holders++
		}
		bal.Balance += amount
		bal.TotalInvested += cost.TotalCost
		bal.AvgBuyPrice = bal.TotalInvested / float64(bal.Balance)
	}
	bal.UpdatedAt = now

	trade := Trade{
		TokenID:     tokenID,
		TokenType:   t.Type,
		TokenSymbol: t.Symbol,
		UserID:      actorID,
		Side:        SideBuy,
		Amount:      amount,
		Price:       cost.PricePerToken,
		TotalValue:  cost.TotalCost,
		Volume:      cost.TotalCost,
		CreatorFee:  cost.CreatorFee,
		PlatformFee: cost.PlatformFee,
		SupplyAfter: t.Supply,
		Timestamp:   now,
	}
	l.appendTrade(&trade)
	l.appendPricePoint(st, newPrice, now)
	st.mu.Unlock()

	l.logger.Info("Buy executed",
		zap.String("trade_id", trade.ID),
		zap.String("token_id", tokenID),
		zap.String("actor_id", actorID),
		zap.Uint64("amount", amount),
		zap.Float64("total_cost", cost.TotalCost),
		zap.Float64("price_per_token", cost.PricePerToken),
		zap.Float64("new_price", newPrice))

	l.publishTrade(trade, previousPrice, newPrice)

	return BuyResult{Trade: trade, Cost: cost}, nil
}

// Sell credits the actor's SOL with the net refund and burns amount tokens.
// On any error nothing is mutated.
func (l *Ledger) Sell(tokenID, actorID string, amount uint64) (SellResult, error) {
	if amount == 0 {
		return SellResult{}, l.reject(SideSell, tokenID, actorID, amount, ErrInvalidAmount)
	}

	l.resetMu.RLock()
	defer l.resetMu.RUnlock()

	st, err := l.lookup(tokenID)
	if err != nil {
		return SellResult{}, l.reject(SideSell, tokenID, actorID, amount, err)
	}
	actor, err := l.lookupActor(actorID)
	if err != nil {
		return SellResult{}, l.reject(SideSell, tokenID, actorID, amount, err)
	}

	st.mu.Lock()
	t := &st.token

	bal, ok := st.balances[actorID]
	if !ok || bal.Balance < amount {
		var held uint64
		if ok {
			held = bal.Balance
		}
		st.mu.Unlock()
		return SellResult{}, l.reject(SideSell, tokenID, actorID, amount,
			fmt.Errorf("%w: have %d, selling %d", ErrInsufficientBalance, held, amount))
	}

	refund, err := curve.SellRefund(t.Params, t.Supply, amount)
	if err != nil {
		st.mu.Unlock()
		return SellResult{}, l.reject(SideSell, tokenID, actorID, amount, translate(err))
	}

	actor.mu.Lock()
	actor.actor.SOLBalance += refund.NetRefund
	actor.mu.Unlock()

	now := l.clock()
	previousPrice := curve.SpotPrice(t.Params, t.Supply)

	t.Supply -= amount
	t.ReserveSOL -= refund.GrossRefund
	t.CreatorEarnings += refund.CreatorFee
	t.PlatformEarnings += refund.PlatformFee
	t.TotalTrades++
	t.Volume24h += refund.GrossRefund
	t.VolumeAll += refund.GrossRefund
	t.UpdatedAt = now

	newPrice := refund.NewPrice
	t.AllTimeLow = min(t.AllTimeLow, newPrice)

	bal.Balance -= amount
	bal.UpdatedAt = now
	if bal.Balance == 0 {
		t.Holders--
	}

	trade := Trade{
		TokenID:     tokenID,
		TokenType:   t.Type,
		TokenSymbol: t.Symbol,
		UserID:      actorID,
		Side:        SideSell,
		Amount:      amount,
		Price:       refund.PricePerToken,
		TotalValue:  refund.NetRefund,
		Volume:      refund.GrossRefund,
		CreatorFee:  refund.CreatorFee,
		PlatformFee: refund.PlatformFee,
		SupplyAfter: t.Supply,
		Timestamp:   now,
	}
	l.appendTrade(&trade)
	l.appendPricePoint(st, newPrice, now)
	st.mu.Unlock()

	l.logger.Info("Sell executed",
		zap.String("trade_id", trade.ID),
		zap.String("token_id", tokenID),
		zap.String("actor_id", actorID),
		zap.Uint64("amount", amount),
		zap.Float64("net_refund", refund.NetRefund),
		zap.Float64("price_per_token", refund.PricePerToken),
		zap.Float64("new_price", newPrice))

	l.publishTrade(trade, previousPrice, newPrice)

	return SellResult{Trade: trade, Refund: refund}, nil
}

// reject logs and publishes a failed trade and returns err unchanged.
func (l *Ledger) reject(side Side, tokenID, actorID string, amount uint64, err error) error {
	reason := RejectReason(err)
	l.logger.Warn("Trade rejected",
		zap.String("side", string(side)),
		zap.String("token_id", tokenID),
		zap.String("actor_id", actorID),
		zap.Uint64("amount", amount),
		zap.String("reason", reason),
		zap.Error(err))

	l.publish(&events.TradeRejectedEvent{
		BaseEvent: events.BaseEvent{EventType: events.TradeRejected, EventTime: l.clock()},
		TokenID:   tokenID,
		ActorID:   actorID,
		Side:      string(side),
		Amount:    amount,
		Reason:    reason,
		Error:     err,
	})
	return err
}

func (l *Ledger) publishTrade(trade Trade, previousPrice, newPrice float64) {
	l.publish(&events.TradeExecutedEvent{
		BaseEvent:     events.BaseEvent{EventType: events.TradeExecuted, EventTime: trade.Timestamp},
		TradeID:       trade.ID,
		TokenID:       trade.TokenID,
		TokenType:     string(trade.TokenType),
		TokenSymbol:   trade.TokenSymbol,
		ActorID:       trade.UserID,
		Side:          string(trade.Side),
		Amount:        trade.Amount,
		PricePerToken: trade.Price,
		TotalValue:    trade.TotalValue,
		Volume:        trade.Volume,
		CreatorFee:    trade.CreatorFee,
		PlatformFee:   trade.PlatformFee,
		SupplyAfter:   trade.SupplyAfter,
	})
	l.publish(&events.PriceUpdatedEvent{
		BaseEvent:     events.BaseEvent{EventType: events.PriceUpdated, EventTime: trade.Timestamp},
		TokenID:       trade.TokenID,
		TokenType:     string(trade.TokenType),
		PreviousPrice: previousPrice,
		CurrentPrice:  newPrice,
		PriceChange:   curve.PercentChange(previousPrice, newPrice),
		Supply:        trade.SupplyAfter,
	})
}

// appendPricePoint records a price and drops the oldest points past the limit.
// Caller holds st.mu.
func (l *Ledger) appendPricePoint(st *tokenState, price float64, at time.Time) {
	st.history = append(st.history, PricePoint{
		TokenID:   st.token.ID,
		Price:     price,
		Supply:    st.token.Supply,
		Timestamp: at,
	})
	if over := len(st.history) - l.cfg.HistoryLimit; over > 0 {
		st.history = append([]PricePoint(nil), st.history[over:]...)
	}
}
