package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveByFive(goal Position, reward float64) [][]float64 {
	cells := make([][]float64, 5)
	for r := range cells {
		cells[r] = []float64{-1, -1, -1, -1, -1}
	}
	cells[0][0] = 0
	cells[goal.Row][goal.Col] = reward
	return cells
}

func TestGridWorldLookups(t *testing.T) {
	w, err := NewGridWorld(fiveByFive(Position{Row: 2, Col: 3}, 100), Position{})
	require.NoError(t, err)

	assert.Equal(t, 5, w.Size())
	assert.Equal(t, Position{}, w.Start())
	assert.Equal(t, 100.0, w.RewardAt(2, 3))
	assert.Equal(t, EmptyCell, w.RewardAt(4, 4))
	assert.True(t, w.IsTerminal(2, 3))
	assert.False(t, w.IsTerminal(0, 0))
	assert.False(t, w.IsTerminal(1, 1))
	assert.Equal(t, []Position{{Row: 2, Col: 3}}, w.Goals())
	assert.Panics(t, func() { w.RewardAt(5, 0) })
}

func TestGridWorldIsImmutable(t *testing.T) {
	cells := fiveByFive(Position{Row: 1, Col: 1}, 100)
	w, err := NewGridWorld(cells, Position{})
	require.NoError(t, err)

	cells[1][1] = -1
	assert.Equal(t, 100.0, w.RewardAt(1, 1))

	out := w.Cells()
	out[1][1] = 7
	assert.Equal(t, 100.0, w.RewardAt(1, 1))
}

func TestGridWorldValidation(t *testing.T) {
	tests := []struct {
		name  string
		cells [][]float64
		start Position
		opts  []WorldOption
	}{
		{name: "empty", cells: nil},
		{name: "ragged", cells: [][]float64{{0, -1}, {-1}}},
		{name: "not square", cells: [][]float64{{0, -1, -1}, {-1, -1, 100}}},
		{name: "start outside", cells: [][]float64{{0, -1}, {-1, 100}}, start: Position{Row: 2}},
		{name: "start not zero", cells: [][]float64{{-1, -1}, {-1, 100}}},
		{name: "stray zero", cells: [][]float64{{0, 0}, {-1, 100}}},
		{name: "below threshold", cells: [][]float64{{0, 5}, {-1, 100}}, opts: []WorldOption{WithGoalThreshold(10)}},
		{name: "negative threshold", cells: [][]float64{{0, -1}, {-1, 100}}, opts: []WorldOption{WithGoalThreshold(-2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGridWorld(tt.cells, tt.start, tt.opts...)
			assert.ErrorIs(t, err, ErrMalformedWorld)
		})
	}
}

func TestMoveClampsToGrid(t *testing.T) {
	w, err := NewGridWorld(fiveByFive(Position{Row: 4, Col: 4}, 100), Position{})
	require.NoError(t, err)

	tests := []struct {
		from   Position
		action Action
		want   Position
	}{
		{Position{}, Up, Position{}},
		{Position{}, Left, Position{}},
		{Position{}, Right, Position{Col: 1}},
		{Position{}, Down, Position{Row: 1}},
		{Position{Row: 4, Col: 4}, Down, Position{Row: 4, Col: 4}},
		{Position{Row: 4, Col: 4}, Right, Position{Row: 4, Col: 4}},
		{Position{Row: 2, Col: 2}, Up, Position{Row: 1, Col: 2}},
		{Position{Row: 2, Col: 2}, Left, Position{Row: 2, Col: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.action.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, w.Move(tt.from, tt.action))
		})
	}
}

func TestAverageWorlds(t *testing.T) {
	goals := []Position{{Row: 1, Col: 1}, {Row: 2, Col: 3}, {Row: 3, Col: 0}, {Row: 4, Col: 2}}
	var worlds []*GridWorld
	for _, g := range goals {
		w, err := NewGridWorld(fiveByFive(g, 100), Position{})
		require.NoError(t, err)
		worlds = append(worlds, w)
	}

	avg, err := AverageWorlds(-1, worlds...)
	require.NoError(t, err)

	assert.Equal(t, goals, avg.Goals())
	for _, g := range goals {
		assert.InDelta(t, 24.25, avg.RewardAt(g.Row, g.Col), 1e-12)
	}
	assert.Equal(t, 0.0, avg.RewardAt(0, 0))
	assert.Equal(t, EmptyCell, avg.RewardAt(4, 4))

	t.Run("mismatched worlds", func(t *testing.T) {
		small, err := NewGridWorld([][]float64{{0, 100}, {-1, -1}}, Position{})
		require.NoError(t, err)
		_, err = AverageWorlds(-1, worlds[0], small)
		assert.ErrorIs(t, err, ErrMalformedWorld)
	})

	t.Run("nil world", func(t *testing.T) {
		_, err := AverageWorlds(-1, nil, worlds[0])
		assert.ErrorIs(t, err, ErrMalformedWorld)
	})

	t.Run("no worlds", func(t *testing.T) {
		_, err := AverageWorlds(-1)
		assert.ErrorIs(t, err, ErrNoWorlds)
	})
}
