package engine

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Config holds the learner's mutable settings. Epsilon is the probability of
// taking the greedy action while training; evaluation is always greedy.
type Config struct {
	TerminateAtGoal bool
	MaxSteps        int
	StepReward      float64
	StepDiscount    float64
	GoalDiscount    float64
	Alpha           float64
	Epsilon         float64
	Seed            int64
}

// DefaultConfig holds the reference hyperparameters of the averaged-world experiment.
func DefaultConfig() Config {
	return Config{
		TerminateAtGoal: true,
		MaxSteps:        10000,
		StepReward:      -1,
		StepDiscount:    0.99,
		GoalDiscount:    0,
		Alpha:           0.1,
		Epsilon:         0.95,
		Seed:            1,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxSteps <= 0:
		return fmt.Errorf("%w: max steps must be positive (got %d)", ErrInvalidConfig, c.MaxSteps)
	case c.Alpha < 0 || c.Alpha > 1:
		return fmt.Errorf("%w: alpha must be between 0 and 1 (got %.2f)", ErrInvalidConfig, c.Alpha)
	case c.Epsilon < 0 || c.Epsilon > 1:
		return fmt.Errorf("%w: epsilon must be between 0 and 1 (got %.2f)", ErrInvalidConfig, c.Epsilon)
	case c.StepDiscount < 0 || c.StepDiscount > 1:
		return fmt.Errorf("%w: step discount must be between 0 and 1 (got %.2f)", ErrInvalidConfig, c.StepDiscount)
	case c.GoalDiscount < 0 || c.GoalDiscount > 1:
		return fmt.Errorf("%w: goal discount must be between 0 and 1 (got %.2f)", ErrInvalidConfig, c.GoalDiscount)
	}
	return nil
}

// EpisodeResult describes the final agent state of the most recent episode.
// ReachedGoal reports whether any terminal cell was entered.
type EpisodeResult struct {
	Steps       int
	Reward      float64
	Position    Position
	ReachedGoal bool
}

// Learner runs tabular Q-learning over a fixed set of equally sized worlds.
// It is not safe for concurrent use; the Q-table it holds is mutated in place.
type Learner struct {
	cfg              Config
	worlds           []*GridWorld
	size             int
	rng              *rand.Rand
	qvalues          *QTable
	log              logrus.FieldLogger
	currentMaxReward float64
	last             EpisodeResult
}

type Option func(*Learner)

func WithRand(rng *rand.Rand) Option {
	return func(l *Learner) {
		l.rng = rng
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Learner) {
		l.log = log
	}
}

func NewLearner(cfg Config, worlds []*GridWorld, opts ...Option) (*Learner, error) {
	if len(worlds) == 0 {
		return nil, ErrNoWorlds
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, w := range worlds {
		if w == nil {
			return nil, fmt.Errorf("%w: world %d is nil", ErrMalformedWorld, i)
		}
	}
	size := worlds[0].Size()
	for i, w := range worlds {
		if w.Size() != size {
			return nil, fmt.Errorf("%w: world %d is %dx%d, world 0 is %dx%d", ErrWorldShape, i, w.Size(), w.Size(), size, size)
		}
	}
	l := &Learner{
		cfg:     cfg,
		worlds:  worlds,
		size:    size,
		qvalues: NewQTable(size, size, NumActions),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		l.rng = rand.New(rand.NewSource(seed))
	}
	if l.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		l.log = discard
	}
	return l, nil
}

func (l *Learner) Worlds() int {
	return len(l.worlds)
}

func (l *Learner) World(i int) (*GridWorld, error) {
	if i < 0 || i >= len(l.worlds) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrWorldIndex, i, len(l.worlds))
	}
	return l.worlds[i], nil
}

// SetQTable hands q to the learner, which mutates it during training.
func (l *Learner) SetQTable(q *QTable) error {
	if q == nil {
		return fmt.Errorf("%w: nil table", ErrTableShape)
	}
	rows, cols, actions := q.Shape()
	if rows != l.size || cols != l.size || actions != NumActions {
		return fmt.Errorf("%w: got (%d,%d,%d), want (%d,%d,%d)", ErrTableShape, rows, cols, actions, l.size, l.size, NumActions)
	}
	l.qvalues = q
	return nil
}

func (l *Learner) QTable() *QTable {
	return l.qvalues
}

func (l *Learner) SetCurrentMaxReward(v float64) {
	l.currentMaxReward = v
}

// CurrentMaxReward is the cumulative reward of the last episode run.
func (l *Learner) CurrentMaxReward() float64 {
	return l.currentMaxReward
}

func (l *Learner) LastEpisode() EpisodeResult {
	return l.last
}

func (l *Learner) Config() Config {
	return l.cfg
}

func (l *Learner) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.cfg = cfg
	return nil
}

func (l *Learner) SetTerminateAtGoal(v bool) {
	l.cfg.TerminateAtGoal = v
}

func (l *Learner) SetGoalDiscount(v float64) {
	l.cfg.GoalDiscount = v
}

func (l *Learner) SetStepDiscount(v float64) {
	l.cfg.StepDiscount = v
}

func (l *Learner) SetAlpha(v float64) {
	l.cfg.Alpha = v
}

func (l *Learner) SetEpsilon(v float64) {
	l.cfg.Epsilon = v
}

func (l *Learner) SetMaxSteps(v int) {
	l.cfg.MaxSteps = v
}

func (l *Learner) Greedy(row, col int) Action {
	return Action(l.qvalues.ArgMax(row, col))
}

// RunEpisodes runs count episodes on the selected world. Training episodes
// update the Q-table; evaluation episodes follow the greedy policy and leave
// it untouched. Only the last episode's reward is kept.
func (l *Learner) RunEpisodes(count, worldIndex int, evaluationOnly bool) error {
	if count <= 0 {
		return fmt.Errorf("%w: episode count must be positive (got %d)", ErrInvalidConfig, count)
	}
	world, err := l.World(worldIndex)
	if err != nil {
		return err
	}
	if err := l.cfg.Validate(); err != nil {
		return err
	}
	if l.qvalues == nil {
		return fmt.Errorf("%w: no table set", ErrTableShape)
	}
	agent := newEpsilonGreedyAgent(l.rng, l.qvalues, l.cfg.Epsilon)
	for episode := 1; episode <= count; episode++ {
		l.last = l.runEpisode(world, agent, evaluationOnly)
		l.currentMaxReward = l.last.Reward
	}
	l.log.WithFields(logrus.Fields{
		"world":      worldIndex,
		"episodes":   count,
		"evaluation": evaluationOnly,
		"steps":      l.last.Steps,
		"reward":     l.last.Reward,
		"goal":       l.last.ReachedGoal,
	}).Debug("episodes complete")
	return nil
}

func (l *Learner) runEpisode(world *GridWorld, agent *epsilonGreedyAgent, evaluationOnly bool) EpisodeResult {
	state := world.Start()
	steps := 0
	episodeReward := 0.0
	reached := false
	for steps < l.cfg.MaxSteps {
		if l.cfg.TerminateAtGoal && world.IsTerminal(state.Row, state.Col) {
			break
		}
		var action Action
		if evaluationOnly {
			action = agent.greedy(state)
		} else {
			action = agent.act(state)
		}
		next := world.Move(state, action)
		terminal := world.IsTerminal(next.Row, next.Col)
		reward := l.cfg.StepReward
		if terminal {
			reward = world.RewardAt(next.Row, next.Col)
		}
		episodeReward += reward
		reached = reached || terminal
		if !evaluationOnly {
			l.updateQLearning(state, action, reward, next, terminal)
		}
		state = next
		steps++
	}
	return EpisodeResult{
		Steps:       steps,
		Reward:      episodeReward,
		Position:    state,
		ReachedGoal: reached,
	}
}

func (l *Learner) updateQLearning(state Position, action Action, reward float64, next Position, terminal bool) {
	discount := l.cfg.StepDiscount
	if terminal {
		discount = l.cfg.GoalDiscount
	}
	current := l.qvalues.Get(state.Row, state.Col, int(action))
	target := reward + discount*l.qvalues.MaxValue(next.Row, next.Col)
	updated := current + l.cfg.Alpha*(target-current)
	l.qvalues.Set(state.Row, state.Col, int(action), updated)
}
