package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/events"
)

// Config holds ledger tunables.
type Config struct {
	Economics         curve.Economics
	InitialAllocation uint64  // tokens minted to the creator of a CREATOR token
	StartingBalance   float64 // SOL given to lazily created actors
	HistoryLimit      int     // price points kept per token
	MinChartPoints    int     // below this ChartData synthesizes a backfill
	ChartPoints       int     // size of a synthesized backfill
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Economics:         curve.DefaultEconomics(),
		InitialAllocation: 100,
		StartingBalance:   10,
		HistoryLimit:      1000,
		MinChartPoints:    10,
		ChartPoints:       100,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Economics.Validate(); err != nil {
		return fmt.Errorf("economics: %w", err)
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("starting balance must not be negative")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive")
	}
	if c.ChartPoints <= 0 {
		return fmt.Errorf("chart points must be positive")
	}
	if c.InitialAllocation > c.Economics.MaxCreatorSupply {
		return fmt.Errorf("initial allocation %d exceeds max creator supply %d",
			c.InitialAllocation, c.Economics.MaxCreatorSupply)
	}
	return nil
}

// Publisher receives ledger events. Implementations must not block.
type Publisher interface {
	Publish(event events.Event) error
}

// AddressDeriver maps a token id to its on-chain curve address.
type AddressDeriver func(tokenID string) (string, error)

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithPublisher sends ledger events to p.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) {
		l.publisher = p
	}
}

// WithAddressDeriver sets how curve addresses are attached to new tokens.
func WithAddressDeriver(d AddressDeriver) Option {
	return func(l *Ledger) {
		l.deriveAddress = d
	}
}

type tokenState struct {
	mu       sync.Mutex
	token    Token
	balances map[string]*UserTokenBalance // by actor id
	history  []PricePoint
}

type actorState struct {
	mu    sync.Mutex
	actor Actor
}

// Ledger owns all mutable market state.
//
// Lock order: resetMu comes first. A token's mutex is taken before l.mu,
// an actor's mutex and the log mutex. l.mu is never held while waiting for
// a token mutex, and no code path holds two token mutexes at once.
//
// Operations that mutate tokens hold resetMu for reading so Reset, which
// holds it for writing, never swaps state under an in-flight trade.
type Ledger struct {
	cfg           Config
	logger        *zap.Logger
	clock         func() time.Time
	publisher     Publisher
	deriveAddress AddressDeriver

	resetMu sync.RWMutex

	mu     sync.RWMutex
	tokens map[string]*tokenState
	order  []string // token ids in creation order
	actors map[string]*actorState

	logMu       sync.RWMutex
	trades      []Trade
	allocations []Allocation
	seq         uint64
}

// New creates an empty ledger with the demo users registered.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}
	if cfg.MinChartPoints < 0 {
		cfg.MinChartPoints = 0
	}

	l := &Ledger{
		cfg:    cfg,
		logger: logger.Named("ledger"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetState()

	return l, nil
}

// Config returns the configuration the ledger was built with.
func (l *Ledger) Config() Config {
	return l.cfg
}

// CreateToken registers a new token with frozen curve parameters. CREATOR
// tokens immediately mint the initial allocation to their creator.
func (l *Ledger) CreateToken(req CreateTokenRequest) (Token, error) {
	if !req.Type.Valid() {
		return Token{}, fmt.Errorf("%w: %q", ErrInvalidTokenType, req.Type)
	}
	if req.CreatorID == "" {
		return Token{}, fmt.Errorf("%w: creator id is required", ErrInvalidRequest)
	}

	l.resetMu.RLock()
	defer l.resetMu.RUnlock()

	params, err := l.cfg.Economics.ParamsFor(req.Type, req.SubscriberCount)
	if err != nil {
		return Token{}, translate(err)
	}

	id := req.ID
	if id == "" {
		id = newTokenID(req)
	}

	var address string
	if l.deriveAddress != nil {
		address, err = l.deriveAddress(id)
		if err != nil {
			return Token{}, fmt.Errorf("derive curve address: %w", err)
		}
	}

	now := l.clock()
	token := Token{
		ID:              id,
		Type:            req.Type,
		Name:            req.Name,
		Symbol:          req.Symbol,
		CreatorID:       req.CreatorID,
		CreatorName:     req.CreatorName,
		CreatorImage:    req.CreatorImage,
		SubscriberCount: req.SubscriberCount,
		Params:          params,
		CurveAddress:    address,
		AllTimeHigh:     params.BasePrice,
		AllTimeLow:      params.BasePrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Type == curve.Video {
		token.VideoID = req.VideoID
		token.VideoTitle = req.VideoTitle
		token.VideoThumbnail = req.VideoThumbnail
	}

	seed := PricePoint{TokenID: id, Price: params.BasePrice, Supply: 0, Timestamp: now}
	st := &tokenState{
		token:    token,
		balances: make(map[string]*UserTokenBalance),
		history:  []PricePoint{seed},
	}

	// Hold the token lock across registration so nobody observes the
	// token before its allocation is minted.
	st.mu.Lock()
	l.mu.Lock()
	if _, exists := l.tokens[id]; exists {
		l.mu.Unlock()
		st.mu.Unlock()
		return Token{}, fmt.Errorf("%w: %s", ErrDuplicateToken, id)
	}
	l.tokens[id] = st
	l.order = append(l.order, id)
	l.mu.Unlock()

	var minted *Allocation
	if req.Type == curve.Creator && l.cfg.InitialAllocation > 0 {
		alloc := l.mintAllocation(st, req.CreatorID, l.cfg.InitialAllocation)
		minted = &alloc
	}
	snapshot := st.token
	st.mu.Unlock()

	// The creator receives holdings, so make sure they can trade them.
	l.GetOrCreateUser(req.CreatorID, req.CreatorName)

	l.logger.Info("Token created",
		zap.String("token_id", id),
		zap.String("type", string(req.Type)),
		zap.String("symbol", req.Symbol),
		zap.String("creator_id", req.CreatorID),
		zap.Float64("base_price", params.BasePrice),
		zap.Float64("slope", params.Slope),
		zap.Float64("growth_rate", params.GrowthRate))

	l.publish(&events.TokenCreatedEvent{
		BaseEvent:    events.BaseEvent{EventType: events.TokenCreated, EventTime: now},
		TokenID:      id,
		TokenType:    string(req.Type),
		Symbol:       req.Symbol,
		CreatorID:    req.CreatorID,
		BasePrice:    params.BasePrice,
		CurveAddress: address,
	})
	if minted != nil {
		l.publish(&events.AllocationMintedEvent{
			BaseEvent: events.BaseEvent{EventType: events.AllocationMinted, EventTime: minted.Timestamp},
			TokenID:   id,
			CreatorID: req.CreatorID,
			Amount:    minted.Amount,
			Value:     minted.Value,
		})
	}

	return snapshot, nil
}

// mintAllocation grants amount tokens to the creator at zero recorded cost.
// The reserve receives the curve value of the minted range. Caller holds st.mu.
func (l *Ledger) mintAllocation(st *tokenState, creatorID string, amount uint64) Allocation {
	now := l.clock()
	t := &st.token

	value := curve.MintValue(t.Params, amount)
	t.Supply += amount
	t.ReserveSOL += value
	t.UpdatedAt = now

	newPrice := curve.SpotPrice(t.Params, t.Supply)
	t.AllTimeHigh = max(t.AllTimeHigh, newPrice)

	bal, ok := st.balances[creatorID]
	if !ok {
		bal = &UserTokenBalance{TokenID: t.ID, UserID: creatorID}
		st.balances[creatorID] = bal
	}
	if bal.Balance == 0 {
		t.Holders++
	}
	bal.Balance += amount
	bal.UpdatedAt = now

	l.appendPricePoint(st, newPrice, now)

	alloc := Allocation{
		ID:        uuid.NewString(),
		Kind:      KindAllocation,
		TokenID:   t.ID,
		CreatorID: creatorID,
		Amount:    amount,
		Value:     value,
		Timestamp: now,
	}
	l.logMu.Lock()
	l.allocations = append(l.allocations, alloc)
	l.logMu.Unlock()

	return alloc
}

func newTokenID(req CreateTokenRequest) string {
	suffix := uuid.NewString()[:8]
	if req.Type == curve.Video && req.VideoID != "" {
		return fmt.Sprintf("video-%s-%s", req.VideoID, suffix)
	}
	return fmt.Sprintf("%s-%s-%s", lowerType(req.Type), req.CreatorID, suffix)
}

func lowerType(t curve.TokenType) string {
	if t == curve.Video {
		return "video"
	}
	return "creator"
}

func (l *Ledger) lookup(tokenID string) (*tokenState, error) {
	l.mu.RLock()
	st, ok := l.tokens[tokenID]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenID)
	}
	return st, nil
}

// states returns token states in creation order.
func (l *Ledger) states() []*tokenState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*tokenState, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.tokens[id])
	}
	return out
}

func (st *tokenState) snapshot() Token {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.token
}

// GetToken returns a snapshot of one token.
func (l *Ledger) GetToken(tokenID string) (Token, error) {
	st, err := l.lookup(tokenID)
	if err != nil {
		return Token{}, err
	}
	return st.snapshot(), nil
}

// GetAllTokens returns every token in creation order.
func (l *Ledger) GetAllTokens() []Token {
	return l.filterTokens(func(Token) bool { return true })
}

// GetTokensByType returns tokens of one curve family.
func (l *Ledger) GetTokensByType(tokenType curve.TokenType) []Token {
	return l.filterTokens(func(t Token) bool { return t.Type == tokenType })
}

// GetTokensByCreator returns tokens owned by one creator.
func (l *Ledger) GetTokensByCreator(creatorID string) []Token {
	return l.filterTokens(func(t Token) bool { return t.CreatorID == creatorID })
}

func (l *Ledger) filterTokens(keep func(Token) bool) []Token {
	var out []Token
	for _, st := range l.states() {
		if t := st.snapshot(); keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// CurrentPrice is the spot price at the token's current supply.
func (l *Ledger) CurrentPrice(tokenID string) (float64, error) {
	t, err := l.GetToken(tokenID)
	if err != nil {
		return 0, err
	}
	return curve.SpotPrice(t.Params, t.Supply), nil
}

// Allocations returns the founder grants, oldest first.
func (l *Ledger) Allocations() []Allocation {
	l.logMu.RLock()
	defer l.logMu.RUnlock()
	return append([]Allocation(nil), l.allocations...)
}

// GetUserHoldings returns the actor's non-zero balances ordered by token creation.
func (l *Ledger) GetUserHoldings(actorID string) []UserTokenBalance {
	var out []UserTokenBalance
	for _, st := range l.states() {
		st.mu.Lock()
		if bal, ok := st.balances[actorID]; ok && bal.Balance > 0 {
			out = append(out, *bal)
		}
		st.mu.Unlock()
	}
	return out
}

// GetUserTokenBalance returns how many tokens the actor holds, 0 when unknown.
func (l *Ledger) GetUserTokenBalance(actorID, tokenID string) uint64 {
	st, err := l.lookup(tokenID)
	if err != nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if bal, ok := st.balances[actorID]; ok {
		return bal.Balance
	}
	return 0
}

// GetTokenTrades returns up to limit trades of a token, newest first.
// A non-positive limit returns all of them.
func (l *Ledger) GetTokenTrades(tokenID string, limit int) []Trade {
	return l.queryTrades(func(t *Trade) bool { return t.TokenID == tokenID }, limit)
}

// GetUserTrades returns up to limit trades of an actor, newest first.
func (l *Ledger) GetUserTrades(actorID string, limit int) []Trade {
	return l.queryTrades(func(t *Trade) bool { return t.UserID == actorID }, limit)
}

// RecentTrades returns up to limit trades across all tokens, newest first.
func (l *Ledger) RecentTrades(limit int) []Trade {
	return l.queryTrades(func(*Trade) bool { return true }, limit)
}

func (l *Ledger) queryTrades(keep func(*Trade) bool, limit int) []Trade {
	l.logMu.RLock()
	var out []Trade
	for i := range l.trades {
		if keep(&l.trades[i]) {
			out = append(out, l.trades[i])
		}
	}
	l.logMu.RUnlock()

	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortNewestFirst orders by timestamp, then by append order for equal timestamps.
func sortNewestFirst(trades []Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].Timestamp.Equal(trades[j].Timestamp) {
			return trades[i].Timestamp.After(trades[j].Timestamp)
		}
		return trades[i].seq > trades[j].seq
	})
}

// appendTrade assigns the id and sequence number and stores the trade.
func (l *Ledger) appendTrade(trade *Trade) {
	l.logMu.Lock()
	l.seq++
	trade.seq = l.seq
	trade.ID = fmt.Sprintf("trade-%d-%s", trade.Timestamp.UnixMilli(), uuid.NewString()[:8])
	l.trades = append(l.trades, *trade)
	l.logMu.Unlock()
}

func (l *Ledger) publish(event events.Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(event); err != nil {
		l.logger.Debug("Event not published",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}
