package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/ledger"
	"github.com/rovshanmuradov/sipzy/internal/monitor"
	"github.com/rovshanmuradov/sipzy/internal/sim"
	"github.com/rovshanmuradov/sipzy/internal/ui/component"
	"github.com/rovshanmuradov/sipzy/internal/ui/style"
)

const chartWidth = 16

// renderMarket lists every token by volume with a price sparkline.
func renderMarket(l ledger.Service) string {
	st := style.Default
	page, err := l.ListTokens(ledger.ListFilter{SortBy: ledger.SortVolume, Limit: 100})
	if err != nil {
		return st.Warning.Render(err.Error())
	}

	table := component.NewTable().
		AddColumn("Symbol", 0, lipgloss.Left).
		AddColumn("Type", 0, lipgloss.Left).
		AddColumn("Supply", 0, lipgloss.Right).
		AddColumn("Price", 0, lipgloss.Right).
		AddColumn("Mkt cap", 0, lipgloss.Right).
		AddColumn("Holders", 0, lipgloss.Right).
		AddColumn("Trades", 0, lipgloss.Right).
		AddColumn("Volume", 0, lipgloss.Right).
		AddColumn("Change", 0, lipgloss.Right).
		AddColumn("Chart", chartWidth, lipgloss.Left).
		SetZebra(true)

	palette := style.DefaultPalette()
	for _, t := range page.Tokens {
		spark := component.NewSparkline(chartWidth).SetColor(palette.Token(t.Type))
		if chart, err := l.ChartData(t.ID); err == nil {
			prices := make([]float64, len(chart.Points))
			for i, p := range chart.Points {
				prices[i] = p.Price
			}
			spark.SetData(prices)
		}

		table.AddRow(
			t.Symbol,
			st.TokenType(t.Type),
			fmt.Sprintf("%d", t.Supply),
			curve.FormatSol(t.CurrentPrice, 6),
			curve.FormatSol(t.MarketCap, 4),
			fmt.Sprintf("%d", t.Holders),
			fmt.Sprintf("%d", t.TotalTrades),
			curve.FormatSol(t.Volume24h, 4),
			st.Change(t.PriceChange24h, curve.FormatPercent(t.PriceChange24h/100, 2)),
			spark.View(),
		)
	}

	gs := l.GlobalStats()
	footer := st.Muted.Render(fmt.Sprintf("%d tokens, %d trades, %s SOL volume, %s SOL market cap",
		gs.TotalTokens, gs.TotalTrades, curve.FormatSol(gs.TotalVolume, 4), curve.FormatSol(gs.TotalMarketCap, 4)))
	return lipgloss.JoinVertical(lipgloss.Left, st.Subtitle.Render("Market"), table.View(), footer)
}

func renderSimReport(r sim.Report) string {
	st := style.Default
	pairs := [][2]string{
		{"Traders", fmt.Sprintf("%d", r.Traders)},
		{"Orders", fmt.Sprintf("%d", r.Orders)},
		{"Buys", st.Buy.Render(fmt.Sprintf("%d", r.Buys))},
		{"Sells", st.Sell.Render(fmt.Sprintf("%d", r.Sells))},
		{"Rejected", fmt.Sprintf("%d", r.Rejected)},
		{"Volume", curve.FormatSol(r.Volume, 4) + " SOL"},
		{"Elapsed", r.Elapsed.Round(time.Millisecond).String()},
	}
	for _, reason := range r.RejectionReasons() {
		pairs = append(pairs, [2]string{"  " + reason, fmt.Sprintf("%d", r.Rejections[reason])})
	}

	title := "Simulation"
	if r.Interrupted {
		title += st.Warning.Render(" (interrupted)")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render(title),
		st.Panel.Render(st.KeyValue(pairs...)))
}

func renderSteps(r sim.ScenarioResult) string {
	st := style.Default
	table := component.NewTable().
		AddColumn("#", 0, lipgloss.Right).
		AddColumn("Actor", 0, lipgloss.Left).
		AddColumn("Token", 0, lipgloss.Left).
		AddColumn("Side", 0, lipgloss.Left).
		AddColumn("Amount", 0, lipgloss.Right).
		AddColumn("Avg price", 0, lipgloss.Right).
		AddColumn("Volume", 0, lipgloss.Right).
		AddColumn("Result", 0, lipgloss.Left)

	for _, step := range r.Steps {
		price, volume, result := "-", "-", "ok"
		if step.Trade != nil {
			price = curve.FormatSol(step.Trade.Price, 6)
			volume = curve.FormatSol(step.Trade.Volume, 6)
		} else {
			result = step.Reason
		}
		if step.Matched {
			result = st.Profit.Render(result)
		} else {
			result = st.Loss.Render(fmt.Sprintf("%s (want %s)", result, orOK(step.Step.Expect)))
		}

		table.AddRow(
			fmt.Sprintf("%d", step.Index),
			step.Step.Actor,
			step.Step.Token,
			st.Side(strings.ToUpper(step.Step.Side)),
			fmt.Sprintf("%d", step.Step.Amount),
			price,
			volume,
			result,
		)
	}

	title := r.Name
	if title == "" {
		title = "Scenario"
	}
	summary := st.Profit.Render("all steps matched")
	if r.Failed > 0 {
		summary = st.Loss.Render(fmt.Sprintf("%d of %d steps did not match", r.Failed, len(r.Steps)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, st.Title.Render(title), table.View(), summary)
}

func orOK(reason string) string {
	if reason == "" {
		return "ok"
	}
	return reason
}

func renderAlerts(alerts []monitor.Alert) string {
	st := style.Default
	lines := make([]string, 0, len(alerts)+1)
	lines = append(lines, st.Subtitle.Render("Alerts"))
	for _, a := range alerts {
		msg := a.Timestamp.Format("15:04:05") + "  " + a.Message
		if a.Severity == "warning" || a.Severity == "critical" {
			msg = st.Warning.Render(msg)
		}
		lines = append(lines, msg)
	}
	return strings.Join(lines, "\n")
}
