package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/sipzy/internal/sim"
)

func (a *app) newRunCmd() *cobra.Command {
	var noJournal bool

	cmd := &cobra.Command{
		Use:   "run SCENARIO.yaml",
		Short: "Play a scripted trade scenario and check its expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := sim.LoadScenario(args[0])
			if err != nil {
				return err
			}

			s, err := a.open(cmd, !noJournal)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signalContext(cmd)
			defer stop()

			result, runErr := sim.RunScenario(ctx, s.rt.Ledger, sc, s.logger)

			out := cmd.OutOrStdout()
			if len(result.Steps) > 0 {
				fmt.Fprintln(out, renderSteps(result))
				fmt.Fprintln(out, renderMarket(s.rt.Ledger))
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not write the trade journal")
	return cmd
}
