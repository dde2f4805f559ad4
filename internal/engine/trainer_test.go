package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyWorld is a 2x2 world with start (0,0) and a single goal at (0,1).
func toyWorld(t *testing.T) *GridWorld {
	t.Helper()
	w, err := NewGridWorld([][]float64{
		{0, 100},
		{-1, -1},
	}, Position{})
	require.NoError(t, err)
	return w
}

func newToyLearner(t *testing.T, cfg Config) *Learner {
	t.Helper()
	l, err := NewLearner(cfg, []*GridWorld{toyWorld(t)}, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	return l
}

func TestSingleUpdateIntoGoal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 1
	cfg.Epsilon = 1
	cfg.Alpha = 0.1
	cfg.GoalDiscount = 0.5
	l := newToyLearner(t, cfg)

	q := NewQTable(2, 2, NumActions)
	q.Set(0, 0, int(Right), 5)
	q.Set(0, 1, int(Up), 2)
	q.Set(0, 1, int(Right), 7)
	q.Set(0, 1, int(Down), 1)
	q.Set(0, 1, int(Left), 3)
	require.NoError(t, l.SetQTable(q))

	require.NoError(t, l.RunEpisodes(1, 0, false))

	// 5 + 0.1*(100 + 0.5*7 - 5)
	assert.InDelta(t, 14.85, q.Get(0, 0, int(Right)), 1e-9)
	assert.Equal(t, 100.0, l.CurrentMaxReward())
	assert.Equal(t, Position{Row: 0, Col: 1}, l.LastEpisode().Position)
	assert.True(t, l.LastEpisode().ReachedGoal)
}

func TestSingleUpdateOnStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 1
	cfg.Epsilon = 1
	cfg.Alpha = 0.1
	cfg.StepDiscount = 0.9
	l := newToyLearner(t, cfg)

	q := NewQTable(2, 2, NumActions)
	q.Set(0, 0, int(Down), 6)
	q.Set(1, 0, int(Left), 4)
	require.NoError(t, l.SetQTable(q))

	require.NoError(t, l.RunEpisodes(1, 0, false))

	// 6 + 0.1*(-1 + 0.9*4 - 6)
	assert.InDelta(t, 5.66, q.Get(0, 0, int(Down)), 1e-9)
	assert.Equal(t, -1.0, l.CurrentMaxReward())
}

func TestClampedMoveChargesPenalty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 1
	l := newToyLearner(t, cfg)

	q := NewQTable(2, 2, NumActions)
	q.Set(0, 0, int(Up), 1)
	require.NoError(t, l.SetQTable(q))

	require.NoError(t, l.RunEpisodes(1, 0, true))

	last := l.LastEpisode()
	assert.Equal(t, Position{}, last.Position)
	assert.Equal(t, 1, last.Steps)
	assert.Equal(t, -1.0, last.Reward)
}

func TestLearnsPathToGoal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepDiscount = 0.99
	cfg.GoalDiscount = 0.99
	cfg.MaxSteps = 100
	l := newToyLearner(t, cfg)
	require.NoError(t, l.SetQTable(NewQTable(2, 2, NumActions)))

	require.NoError(t, l.RunEpisodes(500, 0, false))
	assert.Equal(t, Right, l.Greedy(0, 0))

	require.NoError(t, l.RunEpisodes(1, 0, true))
	last := l.LastEpisode()
	assert.Equal(t, 1, last.Steps)
	assert.Equal(t, Position{Row: 0, Col: 1}, last.Position)
	assert.Equal(t, 100.0, l.CurrentMaxReward())
}

func TestTerminateAtGoalStopsOnGoal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 50
	l := newToyLearner(t, cfg)
	require.NoError(t, l.RunEpisodes(200, 0, false))

	for i := 0; i < 20; i++ {
		require.NoError(t, l.RunEpisodes(1, 0, false))
		last := l.LastEpisode()
		require.True(t, last.ReachedGoal)
		assert.Less(t, last.Steps, cfg.MaxSteps)
		assert.Equal(t, Position{Row: 0, Col: 1}, last.Position)
	}
}

func TestRunsToStepLimitWithoutTermination(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 37
	cfg.TerminateAtGoal = false
	l := newToyLearner(t, cfg)

	require.NoError(t, l.RunEpisodes(25, 0, false))
	assert.Equal(t, 37, l.LastEpisode().Steps)

	// Evaluation ignores goals as well once termination is off.
	require.NoError(t, l.RunEpisodes(1, 0, true))
	assert.Equal(t, 37, l.LastEpisode().Steps)
}

func TestEvaluationLeavesTableUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 20
	l := newToyLearner(t, cfg)
	require.NoError(t, l.RunEpisodes(50, 0, false))

	before := l.QTable().Clone()
	require.NoError(t, l.RunEpisodes(3, 0, true))
	assert.True(t, before.Equal(l.QTable()))
}

func TestEvaluationIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 20
	trained := newToyLearner(t, cfg)
	require.NoError(t, trained.RunEpisodes(100, 0, false))
	q := trained.QTable()

	var results []EpisodeResult
	for seed := int64(1); seed <= 3; seed++ {
		l, err := NewLearner(cfg, []*GridWorld{toyWorld(t)}, WithRand(rand.New(rand.NewSource(seed))))
		require.NoError(t, err)
		require.NoError(t, l.SetQTable(q.Clone()))
		require.NoError(t, l.RunEpisodes(1, 0, true))
		results = append(results, l.LastEpisode())
	}
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[1], results[2])
}

func TestOnlyLastEpisodeRewardKept(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 10
	l := newToyLearner(t, cfg)
	l.SetCurrentMaxReward(12345)

	require.NoError(t, l.RunEpisodes(5, 0, false))
	assert.Equal(t, l.LastEpisode().Reward, l.CurrentMaxReward())
	assert.NotEqual(t, 12345.0, l.CurrentMaxReward())
}

func TestSetters(t *testing.T) {
	l := newToyLearner(t, DefaultConfig())
	l.SetTerminateAtGoal(false)
	l.SetGoalDiscount(0.7425)
	l.SetStepDiscount(0.5)
	l.SetAlpha(0.2)
	l.SetEpsilon(0.8)
	l.SetMaxSteps(42)

	cfg := l.Config()
	assert.False(t, cfg.TerminateAtGoal)
	assert.Equal(t, 0.7425, cfg.GoalDiscount)
	assert.Equal(t, 0.5, cfg.StepDiscount)
	assert.Equal(t, 0.2, cfg.Alpha)
	assert.Equal(t, 0.8, cfg.Epsilon)
	assert.Equal(t, 42, cfg.MaxSteps)
}

func TestLearnerErrors(t *testing.T) {
	w := toyWorld(t)

	t.Run("no worlds", func(t *testing.T) {
		_, err := NewLearner(DefaultConfig(), nil)
		assert.ErrorIs(t, err, ErrNoWorlds)
	})

	t.Run("nil world", func(t *testing.T) {
		_, err := NewLearner(DefaultConfig(), []*GridWorld{nil})
		assert.ErrorIs(t, err, ErrMalformedWorld)
		_, err = NewLearner(DefaultConfig(), []*GridWorld{w, nil})
		assert.ErrorIs(t, err, ErrMalformedWorld)
	})

	t.Run("mixed sizes", func(t *testing.T) {
		big, err := NewGridWorld([][]float64{
			{0, -1, -1},
			{-1, -1, -1},
			{-1, -1, 100},
		}, Position{})
		require.NoError(t, err)
		_, err = NewLearner(DefaultConfig(), []*GridWorld{w, big})
		assert.ErrorIs(t, err, ErrWorldShape)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Alpha = 2
		_, err := NewLearner(cfg, []*GridWorld{w})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	l := newToyLearner(t, DefaultConfig())

	t.Run("world index", func(t *testing.T) {
		assert.ErrorIs(t, l.RunEpisodes(1, 1, false), ErrWorldIndex)
		assert.ErrorIs(t, l.RunEpisodes(1, -1, true), ErrWorldIndex)
	})

	t.Run("episode count", func(t *testing.T) {
		assert.ErrorIs(t, l.RunEpisodes(0, 0, false), ErrInvalidConfig)
	})

	t.Run("table shape", func(t *testing.T) {
		assert.ErrorIs(t, l.SetQTable(NewQTable(3, 3, NumActions)), ErrTableShape)
		assert.ErrorIs(t, l.SetQTable(NewQTable(2, 2, 3)), ErrTableShape)
		assert.ErrorIs(t, l.SetQTable(nil), ErrTableShape)
	})

	t.Run("config mutated into invalid state", func(t *testing.T) {
		l.SetMaxSteps(0)
		assert.ErrorIs(t, l.RunEpisodes(1, 0, false), ErrInvalidConfig)
		l.SetMaxSteps(10)
		assert.ErrorIs(t, l.SetConfig(Config{}), ErrInvalidConfig)
	})
}
