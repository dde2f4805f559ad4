package engine

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// QTable is a dense (row, col, action) table of return estimates.
// A Learner mutates the table it holds in place; use Clone to snapshot.
type QTable struct {
	rows    int
	cols    int
	actions int
	data    []float64
}

func NewQTable(rows, cols, actions int) *QTable {
	if rows < 0 || cols < 0 || actions < 0 {
		panic(fmt.Sprintf("engine: negative q-table shape (%d,%d,%d)", rows, cols, actions))
	}
	return &QTable{rows: rows, cols: cols, actions: actions, data: make([]float64, rows*cols*actions)}
}

// NewQTableFor returns a zeroed table shaped for the world.
func NewQTableFor(w *GridWorld) *QTable {
	return NewQTable(w.Size(), w.Size(), NumActions)
}

func (q *QTable) Shape() (rows, cols, actions int) {
	return q.rows, q.cols, q.actions
}

func (q *QTable) index(row, col, action int) int {
	if row < 0 || row >= q.rows || col < 0 || col >= q.cols || action < 0 || action >= q.actions {
		panic(fmt.Sprintf("engine: q-table index (%d,%d,%d) outside shape (%d,%d,%d)",
			row, col, action, q.rows, q.cols, q.actions))
	}
	return (row*q.cols+col)*q.actions + action
}

func (q *QTable) Get(row, col, action int) float64 {
	return q.data[q.index(row, col, action)]
}

func (q *QTable) Set(row, col, action int, value float64) {
	q.data[q.index(row, col, action)] = value
}

// Values returns the action values of one cell. The slice aliases the table.
func (q *QTable) Values(row, col int) []float64 {
	i := q.index(row, col, 0)
	return q.data[i : i+q.actions : i+q.actions]
}

func (q *QTable) MaxValue(row, col int) float64 {
	return floats.Max(q.Values(row, col))
}

// ArgMax returns the best action index of a cell; ties go to the lowest index.
func (q *QTable) ArgMax(row, col int) int {
	return floats.MaxIdx(q.Values(row, col))
}

func (q *QTable) Clone() *QTable {
	c := &QTable{rows: q.rows, cols: q.cols, actions: q.actions, data: make([]float64, len(q.data))}
	copy(c.data, q.data)
	return c
}

func (q *QTable) Equal(o *QTable) bool {
	if o == nil || q.rows != o.rows || q.cols != o.cols || q.actions != o.actions {
		return false
	}
	return floats.Equal(q.data, o.data)
}

func (q *QTable) StateValues() [][]float64 {
	values := make([][]float64, q.rows)
	for r := 0; r < q.rows; r++ {
		values[r] = make([]float64, q.cols)
		for c := 0; c < q.cols; c++ {
			values[r][c] = q.MaxValue(r, c)
		}
	}
	return values
}

// Policy returns the greedy action per cell.
func (q *QTable) Policy() [][]Action {
	policy := make([][]Action, q.rows)
	for r := 0; r < q.rows; r++ {
		policy[r] = make([]Action, q.cols)
		for c := 0; c < q.cols; c++ {
			policy[r][c] = Action(q.ArgMax(r, c))
		}
	}
	return policy
}
