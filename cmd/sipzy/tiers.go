package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/ui/component"
	"github.com/rovshanmuradov/sipzy/internal/ui/style"
)

func (a *app) newTiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Show how subscriber tiers scale creator curves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.load(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			econ := cfg.Economics()
			table := component.NewTable().
				AddColumn("Tier", 0, lipgloss.Left).
				AddColumn("Subscribers", 0, lipgloss.Left).
				AddColumn("Base ×", 0, lipgloss.Right).
				AddColumn("Slope ×", 0, lipgloss.Right).
				AddColumn("Base price", 0, lipgloss.Right).
				AddColumn("Slope", 0, lipgloss.Right)

			for _, tier := range curve.SubscriberTiers {
				subs := fmt.Sprintf("%d+", tier.MinSubscribers)
				if tier.MaxSubscribers > 0 {
					subs = fmt.Sprintf("%d-%d", tier.MinSubscribers, tier.MaxSubscribers-1)
				}
				table.AddRow(
					tier.Name,
					subs,
					fmt.Sprintf("%.1f", tier.BasePriceMultiplier),
					fmt.Sprintf("%.1f", tier.SlopeMultiplier),
					curve.FormatSol(econ.AdjustedBasePrice(tier.MinSubscribers), 6),
					curve.FormatSol(econ.AdjustedSlope(tier.MinSubscribers), 8),
				)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, style.Default.Title.Render("Creator subscriber tiers"))
			fmt.Fprintln(out, table.View())
			fmt.Fprintln(out, style.Default.Muted.Render(fmt.Sprintf(
				"Video tokens: base %s SOL, growth %.4f per token",
				curve.FormatSol(econ.VideoBasePrice, 6), econ.VideoGrowthRate)))
			return nil
		},
	}
}
