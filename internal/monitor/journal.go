// Package monitor keeps an analytics-side record of ledger activity: a CSV
// trade journal and threshold alerts. Nothing here is read back by the ledger.
package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/events"
	"github.com/rovshanmuradov/sipzy/internal/logger"
)

const flushRetryWindow = 5 * time.Second

// Journal appends trade and allocation events to a CSV audit file and keeps
// the most recent entries in memory.
type Journal struct {
	mu         sync.RWMutex
	csvWriter  *logger.CSVWriter
	entries    []Entry
	maxEntries int
	logger     *zap.Logger

	stats JournalStats
}

// JournalStats holds aggregate journal statistics.
type JournalStats struct {
	TotalEntries     int     `json:"total_entries"`
	BuyCount         int     `json:"buy_count"`
	SellCount        int     `json:"sell_count"`
	AllocationCount  int     `json:"allocation_count"`
	TotalVolume      float64 `json:"total_volume"`
	TotalCreatorFees float64 `json:"total_creator_fees"`
	TotalPlatformFee float64 `json:"total_platform_fees"`
	WriteErrors      int     `json:"write_errors"`
}

// NewJournal opens (or appends to) the day's journal file under dir.
func NewJournal(dir string, maxEntries int, flushInterval time.Duration, zapLogger *zap.Logger) (*Journal, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	filename := fmt.Sprintf("trades_%s.csv", time.Now().Format("20060102"))
	csvPath := filepath.Join(dir, "journal", filename)

	csvWriter, err := logger.NewCSVWriter(csvPath, CSVHeaders(), flushInterval, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal writer: %w", err)
	}

	j := &Journal{
		csvWriter:  csvWriter,
		entries:    make([]Entry, 0, min(maxEntries, 256)),
		maxEntries: maxEntries,
		logger:     zapLogger.Named("journal"),
	}

	j.logger.Info("Trade journal initialized",
		zap.String("csv_file", csvPath),
		zap.Int("max_memory_entries", maxEntries))

	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.csvWriter.Path()
}

// Attach subscribes the journal to trade and allocation events.
func (j *Journal) Attach(bus *events.Bus) []events.Subscription {
	return []events.Subscription{
		bus.SubscribeFunc(events.TradeExecuted, j.handleEvent),
		bus.SubscribeFunc(events.AllocationMinted, j.handleEvent),
	}
}

func (j *Journal) handleEvent(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.TradeExecutedEvent:
		return j.Record(EntryFromTrade(e))
	case *events.AllocationMintedEvent:
		return j.Record(EntryFromAllocation(e))
	default:
		return nil
	}
}

// Record appends one entry.
func (j *Journal) Record(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.csvWriter.WriteRecord(entry.ToCSV()); err != nil {
		j.stats.WriteErrors++
		j.logger.Error("Failed to write journal entry",
			zap.String("id", entry.ID),
			zap.Error(err))
		return fmt.Errorf("failed to write entry: %w", err)
	}

	if len(j.entries) >= j.maxEntries {
		j.entries = j.entries[1:]
	}
	j.entries = append(j.entries, entry)

	j.stats.TotalEntries++
	switch entry.Kind {
	case KindBuy:
		j.stats.BuyCount++
	case KindSell:
		j.stats.SellCount++
	case KindAllocation:
		j.stats.AllocationCount++
	}
	j.stats.TotalVolume += entry.Volume
	j.stats.TotalCreatorFees += entry.CreatorFee
	j.stats.TotalPlatformFee += entry.PlatformFee

	j.logger.Debug("Journal entry recorded",
		zap.String("id", entry.ID),
		zap.String("kind", entry.Kind),
		zap.String("token", entry.TokenSymbol),
		zap.Uint64("amount", entry.Amount))

	return nil
}

// Recent returns up to limit entries, oldest first. A non-positive limit returns all.
func (j *Journal) Recent(limit int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 || limit > len(j.entries) {
		limit = len(j.entries)
	}
	result := make([]Entry, limit)
	copy(result, j.entries[len(j.entries)-limit:])
	return result
}

// ByToken returns the in-memory entries of one token.
func (j *Journal) ByToken(tokenID string) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []Entry
	for _, e := range j.entries {
		if e.TokenID == tokenID {
			result = append(result, e)
		}
	}
	return result
}

// Stats returns journal statistics.
func (j *Journal) Stats() JournalStats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

// Flush writes buffered entries, retrying transient failures.
func (j *Journal) Flush(ctx context.Context) error {
	return j.csvWriter.FlushWithRetry(ctx, flushRetryWindow)
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	stats := j.Stats()
	j.logger.Info("Closing trade journal",
		zap.Int("total_entries", stats.TotalEntries),
		zap.Int("buys", stats.BuyCount),
		zap.Int("sells", stats.SellCount),
		zap.Int("allocations", stats.AllocationCount),
		zap.Float64("total_volume", stats.TotalVolume))

	return j.csvWriter.Close()
}
