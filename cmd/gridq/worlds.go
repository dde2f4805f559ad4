package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gridq/internal/config"
	"gridq/internal/experiment"
	"gridq/internal/report"
)

func newWorldsCommand(s *config.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "worlds",
		Short: "Print the standard worlds and their averaged world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := experiment.NewRunner(experiment.ParamsFromSettings(*s))
			if err != nil {
				return err
			}
			printer := report.NewPrinter(cmd.OutOrStdout(), !s.NoColor)
			for i := 0; i < runner.Individual(); i++ {
				printer.World(fmt.Sprintf("maze %d", i), runner.World(i))
			}
			printer.World(experiment.AveragedSource, runner.AveragedWorld())
			return nil
		},
	}
}
