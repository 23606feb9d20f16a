package monitor

import (
	"strconv"
	"time"

	"github.com/rovshanmuradov/sipzy/internal/events"
)

// Entry kinds. BUY and SELL mirror ledger sides; allocations are founder grants.
const (
	KindBuy        = "BUY"
	KindSell       = "SELL"
	KindAllocation = "ALLOCATION"
)

// Entry is one line of the trade journal.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Kind          string    `json:"kind"`
	TokenID       string    `json:"token_id"`
	TokenSymbol   string    `json:"token_symbol"`
	TokenType     string    `json:"token_type"`
	ActorID       string    `json:"actor_id"`
	Amount        uint64    `json:"amount"`
	PricePerToken float64   `json:"price_per_token"`
	TotalValue    float64   `json:"total_value"`
	Volume        float64   `json:"volume"`
	CreatorFee    float64   `json:"creator_fee"`
	PlatformFee   float64   `json:"platform_fee"`
	SupplyAfter   uint64    `json:"supply_after"`
}

// EntryFromTrade converts an executed trade event.
func EntryFromTrade(e *events.TradeExecutedEvent) Entry {
	return Entry{
		ID:            e.TradeID,
		Timestamp:     e.Timestamp(),
		Kind:          e.Side,
		TokenID:       e.TokenID,
		TokenSymbol:   e.TokenSymbol,
		TokenType:     e.TokenType,
		ActorID:       e.ActorID,
		Amount:        e.Amount,
		PricePerToken: e.PricePerToken,
		TotalValue:    e.TotalValue,
		Volume:        e.Volume,
		CreatorFee:    e.CreatorFee,
		PlatformFee:   e.PlatformFee,
		SupplyAfter:   e.SupplyAfter,
	}
}

// EntryFromAllocation converts a minted founder allocation. Value is the
// curve value backing the grant; nothing was paid for it.
func EntryFromAllocation(e *events.AllocationMintedEvent) Entry {
	return Entry{
		ID:          "alloc-" + e.TokenID,
		Timestamp:   e.Timestamp(),
		Kind:        KindAllocation,
		TokenID:     e.TokenID,
		TokenType:   "CREATOR",
		ActorID:     e.CreatorID,
		Amount:      e.Amount,
		TotalValue:  e.Value,
		SupplyAfter: e.Amount,
	}
}

// ToCSV converts the entry to a CSV record matching CSVHeaders.
func (e *Entry) ToCSV() []string {
	return []string{
		e.ID,
		e.Timestamp.Format(time.RFC3339Nano),
		e.Kind,
		e.TokenID,
		e.TokenSymbol,
		e.TokenType,
		e.ActorID,
		strconv.FormatUint(e.Amount, 10),
		formatFloat(e.PricePerToken),
		formatFloat(e.TotalValue),
		formatFloat(e.Volume),
		formatFloat(e.CreatorFee),
		formatFloat(e.PlatformFee),
		strconv.FormatUint(e.SupplyAfter, 10),
	}
}

// CSVHeaders returns the header row for journal files.
func CSVHeaders() []string {
	return []string{
		"id",
		"timestamp",
		"kind",
		"token_id",
		"token_symbol",
		"token_type",
		"actor_id",
		"amount",
		"price_per_token",
		"total_value",
		"volume",
		"creator_fee",
		"platform_fee",
		"supply_after",
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 9, 64)
}
