package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/ledger"
	"github.com/rovshanmuradov/sipzy/internal/monitor"
)

// ErrNoRecords is returned when the filters leave nothing to export.
var ErrNoRecords = errors.New("no trades match the export criteria")

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format             ExportFormat
	StartTime          time.Time
	EndTime            time.Time
	TokenFilter        string      // Filter by token id
	SideFilter         ledger.Side // Filter by side (BUY/SELL)
	UserFilter         string      // Filter by actor id
	IncludeAllocations bool        // Export founder grants as well
	OutputDir          string
}

// TradeExporter handles trade export functionality
type TradeExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewTradeExporter creates a new trade exporter
func NewTradeExporter(logger *zap.Logger) *TradeExporter {
	return &TradeExporter{
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// ExportTrades writes the trades (and, when requested, allocations) that pass
// the filters to a new file under options.OutputDir and returns its path.
func (te *TradeExporter) ExportTrades(trades []ledger.Trade, allocations []ledger.Allocation, options ExportOptions) (string, error) {
	filtered := te.filterTrades(trades, options)
	var grants []ledger.Allocation
	if options.IncludeAllocations {
		grants = te.filterAllocations(allocations, options)
	}

	if len(filtered) == 0 && len(grants) == 0 {
		return "", ErrNoRecords
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})
	sort.SliceStable(grants, func(i, j int) bool {
		return grants[i].Timestamp.Before(grants[j].Timestamp)
	})

	filename := te.generateFilename(options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = te.exportToCSV(filtered, grants, outputPath)
	case FormatJSON:
		err = te.exportToJSON(filtered, grants, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("trades", len(filtered)),
		zap.Int("allocations", len(grants)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func inWindow(ts time.Time, options ExportOptions) bool {
	if !options.StartTime.IsZero() && ts.Before(options.StartTime) {
		return false
	}
	if !options.EndTime.IsZero() && !ts.Before(options.EndTime) {
		return false
	}
	return true
}

// filterTrades applies filters to the trade list
func (te *TradeExporter) filterTrades(trades []ledger.Trade, options ExportOptions) []ledger.Trade {
	var filtered []ledger.Trade

	for _, trade := range trades {
		if !inWindow(trade.Timestamp, options) {
			continue
		}
		if options.TokenFilter != "" && trade.TokenID != options.TokenFilter {
			continue
		}
		if options.SideFilter != "" && trade.Side != options.SideFilter {
			continue
		}
		if options.UserFilter != "" && trade.UserID != options.UserFilter {
			continue
		}

		filtered = append(filtered, trade)
	}

	return filtered
}

// filterAllocations applies the filters that make sense for founder grants.
// A side filter excludes them, since grants are neither buys nor sells.
func (te *TradeExporter) filterAllocations(allocations []ledger.Allocation, options ExportOptions) []ledger.Allocation {
	if options.SideFilter != "" {
		return nil
	}

	var filtered []ledger.Allocation
	for _, a := range allocations {
		if !inWindow(a.Timestamp, options) {
			continue
		}
		if options.TokenFilter != "" && a.TokenID != options.TokenFilter {
			continue
		}
		if options.UserFilter != "" && a.CreatorID != options.UserFilter {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

// generateFilename creates a filename based on export options
func (te *TradeExporter) generateFilename(options ExportOptions) string {
	timestamp := te.now().Format("20060102_150405.000")

	prefix := "trades_all"
	if options.SideFilter != "" {
		prefix = fmt.Sprintf("trades_%s", options.SideFilter)
	}

	if options.TokenFilter != "" {
		prefix += "_" + filenameFragment(options.TokenFilter, 16)
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// filenameFragment keeps ASCII letters, digits, '-' and '_' of s, replaces
// everything else with '_' and truncates the result to n bytes.
func filenameFragment(s string, n int) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	return safe[:min(len(safe), n)]
}

func tradeEntry(t ledger.Trade) monitor.Entry {
	return monitor.Entry{
		ID:            t.ID,
		Timestamp:     t.Timestamp,
		Kind:          string(t.Side),
		TokenID:       t.TokenID,
		TokenSymbol:   t.TokenSymbol,
		TokenType:     string(t.TokenType),
		ActorID:       t.UserID,
		Amount:        t.Amount,
		PricePerToken: t.Price,
		TotalValue:    t.TotalValue,
		Volume:        t.Volume,
		CreatorFee:    t.CreatorFee,
		PlatformFee:   t.PlatformFee,
		SupplyAfter:   t.SupplyAfter,
	}
}

func allocationEntry(a ledger.Allocation) monitor.Entry {
	return monitor.Entry{
		ID:          a.ID,
		Timestamp:   a.Timestamp,
		Kind:        monitor.KindAllocation,
		TokenID:     a.TokenID,
		TokenType:   "CREATOR",
		ActorID:     a.CreatorID,
		Amount:      a.Amount,
		TotalValue:  a.Value,
		SupplyAfter: a.Amount,
	}
}

// exportToCSV writes one row per record in the journal's column layout.
// Allocation rows follow the trades and carry the ALLOCATION kind.
func (te *TradeExporter) exportToCSV(trades []ledger.Trade, allocations []ledger.Allocation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(monitor.CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, trade := range trades {
		entry := tradeEntry(trade)
		if err := writer.Write(entry.ToCSV()); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	for _, a := range allocations {
		entry := allocationEntry(a)
		if err := writer.Write(entry.ToCSV()); err != nil {
			return fmt.Errorf("failed to write allocation: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// exportToJSON exports trades to JSON format
func (te *TradeExporter) exportToJSON(trades []ledger.Trade, allocations []ledger.Allocation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime  time.Time           `json:"export_time"`
		TradeCount  int                 `json:"trade_count"`
		Trades      []ledger.Trade      `json:"trades"`
		Allocations []ledger.Allocation `json:"allocations,omitempty"`
		Summary     ExportSummary       `json:"summary"`
	}{
		ExportTime:  te.now(),
		TradeCount:  len(trades),
		Trades:      trades,
		Allocations: allocations,
		Summary:     CalculateSummary(trades, allocations),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// ExportSummary contains summary statistics for exported records. Trade
// counters cover market trades only; founder grants are counted apart.
type ExportSummary struct {
	TotalTrades       int       `json:"total_trades"`
	BuyCount          int       `json:"buy_count"`
	SellCount         int       `json:"sell_count"`
	AllocationCount   int       `json:"allocation_count"`
	AllocatedTokens   uint64    `json:"allocated_tokens"`
	UniqueTokens      int       `json:"unique_tokens"`
	UniqueTraders     int       `json:"unique_traders"`
	TokensBought      uint64    `json:"tokens_bought"`
	TokensSold        uint64    `json:"tokens_sold"`
	TotalVolume       float64   `json:"total_volume"`
	TotalBuyVolume    float64   `json:"total_buy_volume"`
	TotalSellVolume   float64   `json:"total_sell_volume"`
	TotalCreatorFees  float64   `json:"total_creator_fees"`
	TotalPlatformFees float64   `json:"total_platform_fees"`
	AvgTradeVolume    float64   `json:"avg_trade_volume"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
}

// CalculateSummary aggregates trades, expected in timestamp order, and allocations.
func CalculateSummary(trades []ledger.Trade, allocations []ledger.Allocation) ExportSummary {
	summary := ExportSummary{
		TotalTrades:     len(trades),
		AllocationCount: len(allocations),
	}

	tokenSet := make(map[string]struct{})
	traderSet := make(map[string]struct{})

	for _, a := range allocations {
		summary.AllocatedTokens += a.Amount
		tokenSet[a.TokenID] = struct{}{}
	}

	for _, trade := range trades {
		tokenSet[trade.TokenID] = struct{}{}
		traderSet[trade.UserID] = struct{}{}

		switch trade.Side {
		case ledger.SideBuy:
			summary.BuyCount++
			summary.TokensBought += trade.Amount
			summary.TotalBuyVolume += trade.Volume
		case ledger.SideSell:
			summary.SellCount++
			summary.TokensSold += trade.Amount
			summary.TotalSellVolume += trade.Volume
		}
		summary.TotalCreatorFees += trade.CreatorFee
		summary.TotalPlatformFees += trade.PlatformFee
	}

	summary.UniqueTokens = len(tokenSet)
	summary.UniqueTraders = len(traderSet)
	summary.TotalVolume = summary.TotalBuyVolume + summary.TotalSellVolume

	if len(trades) > 0 {
		summary.StartDate = trades[0].Timestamp
		summary.EndDate = trades[len(trades)-1].Timestamp
		summary.AvgTradeVolume = summary.TotalVolume / float64(len(trades))
	}

	return summary
}

// ExportDailyReport exports a daily summary report. It returns an empty path
// when the day has no trades.
func (te *TradeExporter) ExportDailyReport(trades []ledger.Trade, allocations []ledger.Allocation, date time.Time, outputDir string) (string, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	options := ExportOptions{
		Format:    FormatJSON,
		StartTime: startOfDay,
		EndTime:   endOfDay,
		OutputDir: outputDir,
	}

	filename := fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102"))
	outputPath := filepath.Join(outputDir, filename)

	filtered := te.filterTrades(trades, options)
	grants := te.filterAllocations(allocations, options)

	if len(filtered) == 0 {
		te.logger.Info("No trades for daily report",
			zap.Time("date", startOfDay))
		return "", nil
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	report := DailyReport{
		Date:            startOfDay,
		TradeCount:      len(filtered),
		Trades:          filtered,
		Allocations:     grants,
		Summary:         CalculateSummary(filtered, grants),
		HourlyBreakdown: calculateHourlyBreakdown(filtered),
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	te.logger.Info("Daily report exported",
		zap.String("file", outputPath),
		zap.Time("date", startOfDay),
		zap.Int("trades", len(filtered)))

	return outputPath, nil
}

// DailyReport represents a daily trading report
type DailyReport struct {
	Date            time.Time           `json:"date"`
	TradeCount      int                 `json:"trade_count"`
	Summary         ExportSummary       `json:"summary"`
	HourlyBreakdown []HourlyStats       `json:"hourly_breakdown"`
	Trades          []ledger.Trade      `json:"trades"`
	Allocations     []ledger.Allocation `json:"allocations,omitempty"`
}

// HourlyStats represents trading statistics for an hour
type HourlyStats struct {
	Hour       int     `json:"hour"`
	TradeCount int     `json:"trade_count"`
	BuyCount   int     `json:"buy_count"`
	SellCount  int     `json:"sell_count"`
	Volume     float64 `json:"volume"`
	Fees       float64 `json:"fees"`
}

func calculateHourlyBreakdown(trades []ledger.Trade) []HourlyStats {
	hourlyMap := make(map[int]*HourlyStats)

	for _, trade := range trades {
		hour := trade.Timestamp.Hour()

		stats, exists := hourlyMap[hour]
		if !exists {
			stats = &HourlyStats{Hour: hour}
			hourlyMap[hour] = stats
		}

		stats.TradeCount++
		stats.Volume += trade.Volume
		stats.Fees += trade.CreatorFee + trade.PlatformFee

		switch trade.Side {
		case ledger.SideBuy:
			stats.BuyCount++
		case ledger.SideSell:
			stats.SellCount++
		}
	}

	var breakdown []HourlyStats
	for hour := 0; hour < 24; hour++ {
		if stats, exists := hourlyMap[hour]; exists {
			breakdown = append(breakdown, *stats)
		}
	}

	return breakdown
}
