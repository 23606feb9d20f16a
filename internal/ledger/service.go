package ledger

import "github.com/rovshanmuradov/sipzy/internal/curve"

// Service is the engine boundary. Transports (CLI, HTTP, on-chain settlement)
// depend on it rather than on the in-memory implementation.
type Service interface {
	CreateToken(req CreateTokenRequest) (Token, error)
	GetToken(tokenID string) (Token, error)
	GetAllTokens() []Token
	GetTokensByType(tokenType curve.TokenType) []Token
	GetTokensByCreator(creatorID string) []Token
	ListTokens(f ListFilter) (TokenPage, error)

	PreviewBuy(tokenID string, amount uint64) (BuyQuote, error)
	PreviewSell(tokenID string, amount uint64) (SellQuote, error)
	Buy(tokenID, actorID string, amount uint64) (BuyResult, error)
	Sell(tokenID, actorID string, amount uint64) (SellResult, error)

	GetOrCreateUser(actorID, name string) Actor
	GetUser(actorID string) (Actor, error)
	CurrencyBalance(actorID string) float64
	SetCurrencyBalance(actorID string, balance float64) error
	GetUserHoldings(actorID string) []UserTokenBalance
	GetUserTokenBalance(actorID, tokenID string) uint64
	Portfolio(actorID string) (Portfolio, error)

	GetTokenTrades(tokenID string, limit int) []Trade
	GetUserTrades(actorID string, limit int) []Trade
	RecentTrades(limit int) []Trade
	Allocations() []Allocation

	CurrentPrice(tokenID string) (float64, error)
	GetPriceHistory(tokenID string) ([]PricePoint, error)
	ChartData(tokenID string) (Chart, error)
	TokenStats(tokenID string) (TokenStats, error)
	GlobalStats() GlobalStats
}

var _ Service = (*Ledger)(nil)
