package report

import (
	"fmt"
	"io"
	"time"

	"github.com/logrusorgru/aurora"

	"gridq/internal/engine"
	"gridq/internal/experiment"
)

var arrows = map[engine.Action]string{
	engine.Up:    "^",
	engine.Right: ">",
	engine.Down:  "v",
	engine.Left:  "<",
}

// Printer writes human-readable grids and results.
type Printer struct {
	w  io.Writer
	au aurora.Aurora
}

func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, au: aurora.NewAurora(color)}
}

func (p *Printer) World(title string, w *engine.GridWorld) {
	fmt.Fprintln(p.w, p.au.Bold(title))
	start := w.Start()
	for r := 0; r < w.Size(); r++ {
		for c := 0; c < w.Size(); c++ {
			cell := fmt.Sprintf("%7.2f ", w.RewardAt(r, c))
			switch {
			case r == start.Row && c == start.Col:
				fmt.Fprint(p.w, p.au.Cyan(cell))
			case w.IsTerminal(r, c):
				fmt.Fprint(p.w, p.au.Green(cell))
			default:
				fmt.Fprint(p.w, p.au.Blue(cell))
			}
			fmt.Fprint(p.w, p.au.White("|"))
		}
		fmt.Fprintln(p.w)
	}
}

// Policy draws the greedy action per cell and highlights the path the policy
// walks from the start of w.
func (p *Printer) Policy(w *engine.GridWorld, q *engine.QTable) {
	policy := q.Policy()
	path := greedyPath(w, policy)
	start := w.Start()
	for r := 0; r < w.Size(); r++ {
		for c := 0; c < w.Size(); c++ {
			pos := engine.Position{Row: r, Col: c}
			switch {
			case w.IsTerminal(r, c):
				fmt.Fprint(p.w, p.au.Green(" G "))
			case pos == start:
				fmt.Fprint(p.w, p.au.Cyan(" S"+arrows[policy[r][c]]))
			case path[pos]:
				fmt.Fprint(p.w, p.au.Yellow(" "+arrows[policy[r][c]]+" "))
			default:
				fmt.Fprint(p.w, p.au.Blue(" "+arrows[policy[r][c]]+" "))
			}
		}
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) Values(q *engine.QTable) {
	for _, row := range q.StateValues() {
		for _, v := range row {
			cell := fmt.Sprintf("%8.2f ", v)
			if v < 0 {
				fmt.Fprint(p.w, p.au.Red(cell))
			} else {
				fmt.Fprint(p.w, p.au.Blue(cell))
			}
			fmt.Fprint(p.w, p.au.White("|"))
		}
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) Result(res experiment.Result) {
	source := "policy generated from " + res.Source
	if res.Source == experiment.AveragedSource {
		source = "policy generated from average of mazes"
	}
	fmt.Fprintf(p.w, "Averaged reward across %d mazes, %s: %s\n",
		len(res.WorldRewards), source, p.au.Bold(fmt.Sprintf("%.2f", res.AverageReward)))
}

func (p *Printer) Summary(r *experiment.Report) {
	fmt.Fprintf(p.w, "run %s finished in %s\n", r.ID, r.Duration.Round(time.Millisecond))
	best := r.Best()
	for _, res := range r.Results() {
		line := fmt.Sprintf("%-10s avg=%9.2f worlds=%v", res.Source, res.AverageReward, formatRewards(res.WorldRewards))
		if res.Source == best.Source {
			fmt.Fprintln(p.w, p.au.Green(line))
		} else {
			fmt.Fprintln(p.w, line)
		}
	}
}

func formatRewards(rewards []float64) string {
	out := "["
	for i, v := range rewards {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.1f", v)
	}
	return out + "]"
}

// greedyPath follows policy from the start until it reaches a goal or revisits a cell.
func greedyPath(w *engine.GridWorld, policy [][]engine.Action) map[engine.Position]bool {
	path := make(map[engine.Position]bool)
	pos := w.Start()
	for !path[pos] && !w.IsTerminal(pos.Row, pos.Col) {
		path[pos] = true
		pos = w.Move(pos, policy[pos.Row][pos.Col])
	}
	return path
}
