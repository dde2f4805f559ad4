// Package experiment compares policies trained on individual grid worlds with
// a policy trained on their averaged world.
//
// Every policy is evaluated greedily on each individual world and the rewards
// are averaged, so the sources can be ranked on a common scale.
package experiment

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"gridq/internal/config"
	"gridq/internal/engine"
)

// trainBatch bounds how many episodes run between cancellation checks.
const trainBatch = 50

const AveragedSource = "averaged"

type Params struct {
	Engine     engine.Config
	Episodes   int
	EvalRuns   int
	GoalReward float64
}

func ParamsFromSettings(s config.Settings) Params {
	cfg := engine.DefaultConfig()
	cfg.MaxSteps = s.MaxSteps
	cfg.StepReward = s.StepReward
	cfg.StepDiscount = s.StepDiscount
	cfg.Alpha = s.Alpha
	cfg.Epsilon = s.Epsilon
	cfg.Seed = s.Seed
	return Params{
		Engine:     cfg,
		Episodes:   s.Episodes,
		EvalRuns:   s.EvalRuns,
		GoalReward: s.GoalReward,
	}
}

func (p Params) Validate() error {
	if p.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive (got %d)", p.Episodes)
	}
	if p.EvalRuns <= 0 {
		return fmt.Errorf("eval runs must be positive (got %d)", p.EvalRuns)
	}
	if p.GoalReward <= 0 {
		return fmt.Errorf("goal reward must be positive (got %.2f)", p.GoalReward)
	}
	return p.Engine.Validate()
}

// Result is the evaluation of one trained policy.
type Result struct {
	Source        string
	TrainedOn     int
	TrainReward   float64
	WorldRewards  []float64
	AverageReward float64
	Q             *engine.QTable
}

type Report struct {
	ID         uuid.UUID
	StartedAt  time.Time
	Duration   time.Duration
	Params     Params
	Individual []Result
	Averaged   Result
}

func (r *Report) Results() []Result {
	out := make([]Result, 0, len(r.Individual)+1)
	out = append(out, r.Individual...)
	return append(out, r.Averaged)
}

// Best returns the result with the highest average reward; ties keep the earlier source.
func (r *Report) Best() Result {
	results := r.Results()
	best := results[0]
	for _, res := range results[1:] {
		if res.AverageReward > best.AverageReward {
			best = res
		}
	}
	return best
}

type Option func(*Runner)

func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithResultHandler registers fn to receive each result as soon as it is evaluated.
func WithResultHandler(fn func(Result)) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// Runner owns one learner over the standard worlds plus their averaged world,
// which sits at the last index.
type Runner struct {
	params   Params
	worlds   []*engine.GridWorld
	learner  *engine.Learner
	log      logrus.FieldLogger
	onResult func(Result)
}

func NewRunner(p Params, opts ...Option) (*Runner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	worlds, err := StandardWorlds(p.GoalReward)
	if err != nil {
		return nil, err
	}
	averaged, err := engine.AverageWorlds(p.Engine.StepReward, worlds...)
	if err != nil {
		return nil, fmt.Errorf("averaging worlds: %w", err)
	}
	r := &Runner{
		params: p,
		worlds: append(worlds, averaged),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		r.log = discard
	}
	r.learner, err = engine.NewLearner(p.Engine, r.worlds, engine.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Individual returns the number of standard worlds.
func (r *Runner) Individual() int {
	return len(r.worlds) - 1
}

func (r *Runner) World(i int) *engine.GridWorld {
	return r.worlds[i]
}

func (r *Runner) AveragedWorld() *engine.GridWorld {
	return r.worlds[len(r.worlds)-1]
}

// Run trains a policy per standard world, then one on the averaged world, and
// evaluates each on all standard worlds.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Params:    r.params,
	}
	log := r.log.WithField("run_id", report.ID)
	log.WithField("worlds", r.Individual()).Info("training on individual worlds")
	for i := 0; i < r.Individual(); i++ {
		res, err := r.TrainIndividual(ctx, i)
		if err != nil {
			return nil, err
		}
		report.Individual = append(report.Individual, res)
	}
	log.Info("training on averaged world")
	res, err := r.TrainAveraged(ctx)
	if err != nil {
		return nil, err
	}
	report.Averaged = res
	report.Duration = time.Since(report.StartedAt)
	log.WithField("duration", report.Duration).Info("experiment complete")
	return report, nil
}

// TrainIndividual trains a fresh table on world i and evaluates it.
func (r *Runner) TrainIndividual(ctx context.Context, i int) (Result, error) {
	if i < 0 || i >= r.Individual() {
		return Result{}, fmt.Errorf("%w: %d not in [0,%d)", engine.ErrWorldIndex, i, r.Individual())
	}
	if err := r.learner.SetConfig(r.params.Engine); err != nil {
		return Result{}, err
	}
	q := engine.NewQTableFor(r.worlds[i])
	if err := r.learner.SetQTable(q); err != nil {
		return Result{}, err
	}
	r.learner.SetCurrentMaxReward(0)
	if err := r.train(ctx, i); err != nil {
		return Result{}, err
	}
	return r.evaluate(ctx, fmt.Sprintf("maze %d", i), i, q)
}

// TrainAveraged trains a fresh table on the averaged world and evaluates it
// with the base configuration restored.
func (r *Runner) TrainAveraged(ctx context.Context) (Result, error) {
	q, err := r.trainAveraged(ctx)
	if err != nil {
		return Result{}, err
	}
	r.learner.SetTerminateAtGoal(r.params.Engine.TerminateAtGoal)
	r.learner.SetGoalDiscount(r.params.Engine.GoalDiscount)
	return r.evaluate(ctx, AveragedSource, r.Individual(), q)
}

// averagedConfig disables goal termination and scales the goal discount by
// the chance that an episode in a real world would carry on past a given goal
// cell.
func (r *Runner) averagedConfig() engine.Config {
	n := float64(r.Individual())
	cfg := r.params.Engine
	cfg.TerminateAtGoal = false
	cfg.GoalDiscount = cfg.StepDiscount * (n - 1) / n
	return cfg
}

func (r *Runner) trainAveraged(ctx context.Context) (*engine.QTable, error) {
	if err := r.learner.SetConfig(r.averagedConfig()); err != nil {
		return nil, err
	}
	avg := r.Individual()
	q := engine.NewQTableFor(r.worlds[avg])
	if err := r.learner.SetQTable(q); err != nil {
		return nil, err
	}
	r.learner.SetCurrentMaxReward(0)
	if err := r.train(ctx, avg); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *Runner) train(ctx context.Context, world int) error {
	for done := 0; done < r.params.Episodes; done += trainBatch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.learner.RunEpisodes(min(trainBatch, r.params.Episodes-done), world, false); err != nil {
			return fmt.Errorf("training on world %d: %w", world, err)
		}
	}
	return nil
}

// evaluate runs q greedily on every standard world EvalRuns times.
func (r *Runner) evaluate(ctx context.Context, source string, trainedOn int, q *engine.QTable) (Result, error) {
	res := Result{
		Source:      source,
		TrainedOn:   trainedOn,
		TrainReward: r.learner.CurrentMaxReward(),
		Q:           q.Clone(),
	}
	perWorld := make([][]float64, r.Individual())
	runAverages := make([]float64, 0, r.params.EvalRuns)
	for run := 0; run < r.params.EvalRuns; run++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rewards := make([]float64, r.Individual())
		for i := range rewards {
			if err := r.learner.SetQTable(res.Q); err != nil {
				return Result{}, err
			}
			r.learner.SetCurrentMaxReward(0)
			if err := r.learner.RunEpisodes(1, i, true); err != nil {
				return Result{}, fmt.Errorf("evaluating on world %d: %w", i, err)
			}
			rewards[i] = r.learner.CurrentMaxReward()
			perWorld[i] = append(perWorld[i], rewards[i])
		}
		runAverages = append(runAverages, stat.Mean(rewards, nil))
	}
	res.WorldRewards = make([]float64, len(perWorld))
	for i, rewards := range perWorld {
		res.WorldRewards[i] = stat.Mean(rewards, nil)
	}
	res.AverageReward = stat.Mean(runAverages, nil)
	r.log.WithFields(logrus.Fields{
		"source":  source,
		"average": res.AverageReward,
	}).Info("policy evaluated")
	if r.onResult != nil {
		r.onResult(res)
	}
	return res, nil
}
