package experiment

import (
	"fmt"

	"gridq/internal/engine"
)

const StandardSize = 5

// StandardGoals are the goal cells of the four standard worlds, in world order.
var StandardGoals = []engine.Position{
	{Row: 1, Col: 1},
	{Row: 2, Col: 3},
	{Row: 3, Col: 0},
	{Row: 4, Col: 2},
}

// StandardWorlds builds one 5x5 world per standard goal, all starting at (0,0).
func StandardWorlds(goalReward float64) ([]*engine.GridWorld, error) {
	worlds := make([]*engine.GridWorld, 0, len(StandardGoals))
	for i, goal := range StandardGoals {
		cells := make([][]float64, StandardSize)
		for r := range cells {
			cells[r] = make([]float64, StandardSize)
			for c := range cells[r] {
				cells[r][c] = engine.EmptyCell
			}
		}
		cells[0][0] = 0
		cells[goal.Row][goal.Col] = goalReward
		w, err := engine.NewGridWorld(cells, engine.Position{})
		if err != nil {
			return nil, fmt.Errorf("building world %d: %w", i, err)
		}
		worlds = append(worlds, w)
	}
	return worlds, nil
}
