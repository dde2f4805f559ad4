package engine

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// EmptyCell marks a traversable cell that pays no reward of its own.
const EmptyCell = -1.0

type Position struct {
	Row int
	Col int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// GridWorld is an immutable square reward matrix with a fixed start cell.
// Cells whose reward exceeds the goal threshold are terminal.
type GridWorld struct {
	size      int
	start     Position
	threshold float64
	cells     []float64
}

type WorldOption func(*GridWorld)

// WithGoalThreshold sets the reward a cell must exceed to count as a goal.
func WithGoalThreshold(v float64) WorldOption {
	return func(g *GridWorld) {
		g.threshold = v
	}
}

func NewGridWorld(cells [][]float64, start Position, opts ...WorldOption) (*GridWorld, error) {
	size := len(cells)
	if size == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrMalformedWorld)
	}
	g := &GridWorld{
		size:  size,
		start: start,
		cells: make([]float64, 0, size*size),
	}
	for _, opt := range opts {
		opt(g)
	}
	for r, row := range cells {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedWorld, r, len(row), size)
		}
		g.cells = append(g.cells, row...)
	}
	if !g.Contains(start) {
		return nil, fmt.Errorf("%w: start (%d,%d) outside %dx%d grid", ErrMalformedWorld, start.Row, start.Col, size, size)
	}
	if v := g.RewardAt(start.Row, start.Col); v != 0 {
		return nil, fmt.Errorf("%w: start cell holds %v, want 0", ErrMalformedWorld, v)
	}
	if g.threshold < 0 {
		return nil, fmt.Errorf("%w: goal threshold %v below zero", ErrMalformedWorld, g.threshold)
	}
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if r == start.Row && c == start.Col {
				continue
			}
			v := g.RewardAt(r, c)
			if v != EmptyCell && v <= g.threshold {
				return nil, fmt.Errorf("%w: cell (%d,%d) holds %v, neither empty nor a goal", ErrMalformedWorld, r, c, v)
			}
		}
	}
	return g, nil
}

func (g *GridWorld) Size() int {
	return g.size
}

func (g *GridWorld) Start() Position {
	return g.start
}

func (g *GridWorld) GoalThreshold() float64 {
	return g.threshold
}

func (g *GridWorld) Contains(p Position) bool {
	return p.Row >= 0 && p.Row < g.size && p.Col >= 0 && p.Col < g.size
}

// RewardAt panics on out-of-range cells; callers clamp moves first.
func (g *GridWorld) RewardAt(row, col int) float64 {
	if row < 0 || row >= g.size || col < 0 || col >= g.size {
		panic(fmt.Sprintf("engine: cell (%d,%d) outside %dx%d grid", row, col, g.size, g.size))
	}
	return g.cells[row*g.size+col]
}

func (g *GridWorld) IsTerminal(row, col int) bool {
	return g.RewardAt(row, col) > g.threshold
}

// Goals lists terminal cells in row-major order.
func (g *GridWorld) Goals() []Position {
	var goals []Position
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			if g.IsTerminal(r, c) {
				goals = append(goals, Position{Row: r, Col: c})
			}
		}
	}
	return goals
}

// Cells returns a copy of the reward matrix.
func (g *GridWorld) Cells() [][]float64 {
	out := make([][]float64, g.size)
	for r := range out {
		out[r] = make([]float64, g.size)
		copy(out[r], g.cells[r*g.size:(r+1)*g.size])
	}
	return out
}

// Move applies the action's displacement and clamps the result to the grid.
func (g *GridWorld) Move(p Position, action Action) Position {
	d := action.delta()
	row, col := p.Row+d.Row, p.Col+d.Col
	if row < 0 {
		row = 0
	}
	if row >= g.size {
		row = g.size - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= g.size {
		col = g.size - 1
	}
	return Position{Row: row, Col: col}
}

// AverageWorlds builds the composite world used to train a single policy for
// every input world. Each goal cell of the result holds the mean reward an
// agent collects entering it across the inputs: the goal reward in worlds where
// the cell is a goal, stepReward everywhere else.
func AverageWorlds(stepReward float64, worlds ...*GridWorld) (*GridWorld, error) {
	if len(worlds) == 0 {
		return nil, ErrNoWorlds
	}
	for i, w := range worlds {
		if w == nil {
			return nil, fmt.Errorf("%w: world %d is nil", ErrMalformedWorld, i)
		}
	}
	size, start := worlds[0].size, worlds[0].start
	for i, w := range worlds[1:] {
		if w.size != size || w.start != start {
			return nil, fmt.Errorf("%w: world %d does not share size and start with world 0", ErrMalformedWorld, i+1)
		}
	}
	cells := make([][]float64, size)
	samples := make([]float64, len(worlds))
	for r := 0; r < size; r++ {
		cells[r] = make([]float64, size)
		for c := 0; c < size; c++ {
			if r == start.Row && c == start.Col {
				continue
			}
			anyGoal := false
			for i, w := range worlds {
				if w.IsTerminal(r, c) {
					samples[i] = w.RewardAt(r, c)
					anyGoal = true
				} else {
					samples[i] = stepReward
				}
			}
			if !anyGoal {
				cells[r][c] = EmptyCell
				continue
			}
			cells[r][c] = stat.Mean(samples, nil)
		}
	}
	return NewGridWorld(cells, start, WithGoalThreshold(worlds[0].threshold))
}
