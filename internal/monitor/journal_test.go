package monitor

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/events"
)

func executed(id, side string, amount uint64, volume float64) *events.TradeExecutedEvent {
	return &events.TradeExecutedEvent{
		BaseEvent:     events.BaseEvent{EventType: events.TradeExecuted, EventTime: time.Now()},
		TradeID:       id,
		TokenID:       "creator-c1-abcd1234",
		TokenType:     "CREATOR",
		TokenSymbol:   "$TECH",
		ActorID:       "investor",
		Side:          side,
		Amount:        amount,
		PricePerToken: volume / float64(amount),
		TotalValue:    volume,
		Volume:        volume,
		CreatorFee:    volume * 0.05,
		PlatformFee:   volume * 0.01,
		SupplyAfter:   100 + amount,
	}
}

func TestJournalRecordsAndPersists(t *testing.T) {
	j, err := NewJournal(t.TempDir(), 2, time.Hour, zap.NewNop())
	require.NoError(t, err)

	alloc := &events.AllocationMintedEvent{
		BaseEvent: events.BaseEvent{EventType: events.AllocationMinted, EventTime: time.Now()},
		TokenID:   "creator-c1-abcd1234",
		CreatorID: "c1",
		Amount:    100,
		Value:     0.0595,
	}
	require.NoError(t, j.Record(EntryFromAllocation(alloc)))
	require.NoError(t, j.Record(EntryFromTrade(executed("t1", KindBuy, 10, 0.06))))
	require.NoError(t, j.Record(EntryFromTrade(executed("t2", KindSell, 5, 0.03))))

	stats := j.Stats()
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 1, stats.BuyCount)
	assert.Equal(t, 1, stats.SellCount)
	assert.Equal(t, 1, stats.AllocationCount)
	assert.InDelta(t, 0.09, stats.TotalVolume, 1e-12)

	// Memory keeps only the newest two
	recent := j.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "t1", recent[0].ID)
	assert.Equal(t, "t2", recent[1].ID)
	assert.Len(t, j.Recent(1), 1)
	assert.Len(t, j.ByToken("creator-c1-abcd1234"), 2)

	require.NoError(t, j.Flush(context.Background()))
	path := j.Path()
	require.NoError(t, j.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, CSVHeaders(), records[0])
	assert.Equal(t, "alloc-creator-c1-abcd1234", records[1][0])
	assert.Equal(t, KindAllocation, records[1][2])
	assert.Equal(t, "10", records[2][7])
	assert.Equal(t, "110", records[2][13])
}

func TestJournalAttachFollowsBus(t *testing.T) {
	j, err := NewJournal(t.TempDir(), 10, time.Hour, zap.NewNop())
	require.NoError(t, err)
	defer j.Close()

	bus := events.NewBus(zap.NewNop(), 16)
	j.Attach(bus)

	require.NoError(t, bus.Publish(executed("t1", KindBuy, 10, 0.06)))
	require.NoError(t, bus.Publish(&events.PriceUpdatedEvent{
		BaseEvent: events.BaseEvent{EventType: events.PriceUpdated, EventTime: time.Now()},
		TokenID:   "creator-c1-abcd1234",
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))

	recent := j.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "t1", recent[0].ID)
	assert.Equal(t, "$TECH", recent[0].TokenSymbol)
}
