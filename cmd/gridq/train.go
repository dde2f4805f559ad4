package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gridq/internal/config"
	"gridq/internal/experiment"
	"gridq/internal/report"
)

func newTrainCommand(s *config.Settings) *cobra.Command {
	var world int
	var averaged bool
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train on a single world and print the learned policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(s.LogLevel)
			if err != nil {
				return err
			}
			runner, err := experiment.NewRunner(experiment.ParamsFromSettings(*s), experiment.WithLogger(log))
			if err != nil {
				return err
			}
			var res experiment.Result
			if averaged {
				res, err = runner.TrainAveraged(cmd.Context())
			} else {
				res, err = runner.TrainIndividual(cmd.Context(), world)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printer := report.NewPrinter(out, !s.NoColor)
			trained := runner.World(res.TrainedOn)
			printer.World(fmt.Sprintf("world (%s)", res.Source), trained)
			fmt.Fprintln(out, "greedy policy:")
			printer.Policy(trained, res.Q)
			fmt.Fprintln(out, "state values:")
			printer.Values(res.Q)
			fmt.Fprintf(out, "last training episode reward=%.2f\n", res.TrainReward)
			printer.Result(res)
			return nil
		},
	}
	cmd.Flags().IntVar(&world, "world", 0, "index of the standard world to train on")
	cmd.Flags().BoolVar(&averaged, "averaged", false, "train on the averaged world instead")
	return cmd
}
