package engine

import "math/rand"

type Action int

// Action order doubles as the greedy tie-break order.
const (
	Up Action = iota
	Right
	Down
	Left
)

const NumActions = 4

var actionNames = [NumActions]string{"up", "right", "down", "left"}

func (a Action) String() string {
	if a < 0 || int(a) >= NumActions {
		return "unknown"
	}
	return actionNames[a]
}

func (a Action) delta() Position {
	switch a {
	case Up:
		return Position{Row: -1}
	case Right:
		return Position{Col: 1}
	case Down:
		return Position{Row: 1}
	case Left:
		return Position{Col: -1}
	}
	return Position{}
}

type epsilonGreedyAgent struct {
	rng     *rand.Rand
	qvalues *QTable
	epsilon float64
}

func newEpsilonGreedyAgent(rng *rand.Rand, qvalues *QTable, epsilon float64) *epsilonGreedyAgent {
	return &epsilonGreedyAgent{rng: rng, qvalues: qvalues, epsilon: epsilon}
}

// act exploits with probability epsilon and otherwise picks uniformly.
func (a *epsilonGreedyAgent) act(p Position) Action {
	if a.rng.Float64() < a.epsilon {
		return a.greedy(p)
	}
	return Action(a.rng.Intn(NumActions))
}

func (a *epsilonGreedyAgent) greedy(p Position) Action {
	return Action(a.qvalues.ArgMax(p.Row, p.Col))
}
