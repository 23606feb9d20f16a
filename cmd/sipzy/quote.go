package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/sipzy/internal/curve"
	"github.com/rovshanmuradov/sipzy/internal/ui/style"
)

func (a *app) newQuoteCmd() *cobra.Command {
	var (
		tokenType   string
		side        string
		subscribers int64
		supply      uint64
		amount      uint64
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a buy or sell on a curve without touching any ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.load(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			params, err := cfg.Economics().ParamsFor(curve.TokenType(strings.ToUpper(tokenType)), subscribers)
			if err != nil {
				return err
			}

			var rows [][2]string
			switch strings.ToUpper(side) {
			case "BUY":
				cost, err := curve.BuyCost(params, supply, amount)
				if err != nil {
					return err
				}
				rows = [][2]string{
					{"Token cost", curve.FormatSol(cost.TokenCost, 9) + " SOL"},
					{"Creator fee", curve.FormatSol(cost.CreatorFee, 9) + " SOL"},
					{"Platform fee", curve.FormatSol(cost.PlatformFee, 9) + " SOL"},
					{"Total cost", curve.FormatSol(cost.TotalCost, 9) + " SOL"},
					{"Avg price", curve.FormatSol(cost.PricePerToken, 9) + " SOL"},
					{"Price after", curve.FormatSol(cost.NewPrice, 9) + " SOL"},
				}
			case "SELL":
				refund, err := curve.SellRefund(params, supply, amount)
				if err != nil {
					return err
				}
				rows = [][2]string{
					{"Gross refund", curve.FormatSol(refund.GrossRefund, 9) + " SOL"},
					{"Creator fee", curve.FormatSol(refund.CreatorFee, 9) + " SOL"},
					{"Platform fee", curve.FormatSol(refund.PlatformFee, 9) + " SOL"},
					{"Net refund", curve.FormatSol(refund.NetRefund, 9) + " SOL"},
					{"Avg price", curve.FormatSol(refund.PricePerToken, 9) + " SOL"},
					{"Price after", curve.FormatSol(refund.NewPrice, 9) + " SOL"},
				}
			default:
				return fmt.Errorf("unknown side %q", side)
			}

			header := [][2]string{
				{"Curve", string(params.TokenType)},
				{"Spot price", curve.FormatSol(curve.SpotPrice(params, supply), 9) + " SOL"},
				{"Supply", fmt.Sprintf("%d", supply)},
				{"Amount", fmt.Sprintf("%d", amount)},
			}

			st := style.Default
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, st.Title.Render(fmt.Sprintf("%s quote", strings.ToUpper(side))))
			fmt.Fprintln(out, st.Panel.Render(st.KeyValue(append(header, rows...)...)))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&tokenType, "type", string(curve.Creator), "curve: CREATOR or VIDEO")
	f.StringVar(&side, "side", "buy", "buy or sell")
	f.Int64Var(&subscribers, "subscribers", 0, "creator subscriber count")
	f.Uint64Var(&supply, "supply", 0, "circulating supply before the trade")
	f.Uint64Var(&amount, "amount", 1, "tokens to trade")
	return cmd
}
