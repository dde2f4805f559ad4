package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gridq/internal/config"
	"gridq/internal/experiment"
	"gridq/internal/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gridq: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCommand(&settings).ExecuteContext(ctx)
}

func newRootCommand(s *config.Settings) *cobra.Command {
	root := &cobra.Command{
		Use:           "gridq",
		Short:         "Compare Q-learning policies trained per grid world against one trained on their average",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd, *s)
		},
	}
	flags := root.PersistentFlags()
	flags.IntVar(&s.Episodes, "episodes", s.Episodes, "training episodes per source world")
	flags.IntVar(&s.EvalRuns, "eval-runs", s.EvalRuns, "repetitions of the evaluation on every world")
	flags.IntVar(&s.MaxSteps, "max-steps", s.MaxSteps, "step ceiling per episode")
	flags.Float64Var(&s.Alpha, "alpha", s.Alpha, "learning rate (0-1)")
	flags.Float64Var(&s.Epsilon, "epsilon", s.Epsilon, "probability of the greedy action while training (0-1)")
	flags.Float64Var(&s.StepDiscount, "gamma", s.StepDiscount, "discount for non-terminal steps (0-1)")
	flags.Int64Var(&s.Seed, "seed", s.Seed, "deterministic seed (0 for default)")
	flags.BoolVar(&s.NoColor, "no-color", s.NoColor, "disable colored output")
	flags.StringVar(&s.LogLevel, "log-level", s.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&s.ChartPath, "chart", s.ChartPath, "write an HTML chart of the results to this path")

	root.AddCommand(newTrainCommand(s), newWorldsCommand(s))
	return root
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	return log, nil
}

func runExperiment(cmd *cobra.Command, s config.Settings) error {
	log, err := newLogger(s.LogLevel)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printer := report.NewPrinter(out, !s.NoColor)
	params := experiment.ParamsFromSettings(s)
	fmt.Fprintf(out, "experiment config => episodes=%d eval_runs=%d max_steps=%d alpha=%.2f epsilon=%.2f gamma=%.2f seed=%d\n",
		params.Episodes, params.EvalRuns, params.Engine.MaxSteps, params.Engine.Alpha, params.Engine.Epsilon, params.Engine.StepDiscount, params.Engine.Seed)

	runner, err := experiment.NewRunner(params,
		experiment.WithLogger(log),
		experiment.WithResultHandler(printer.Result),
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Running q-learning on all %d mazes.\n", runner.Individual())
	r, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	printer.Summary(r)

	if s.ChartPath == "" {
		return nil
	}
	f, err := os.Create(s.ChartPath)
	if err != nil {
		return err
	}
	if err := report.RenderChart(f, r); err != nil {
		f.Close()
		return fmt.Errorf("rendering chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithField("path", s.ChartPath).Info("chart written")
	return nil
}
