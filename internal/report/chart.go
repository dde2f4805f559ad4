package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"gridq/internal/experiment"
)

// RenderChart writes an HTML page with one bar group per policy source: the
// averaged evaluation reward followed by the reward on each individual world.
func RenderChart(w io.Writer, r *experiment.Report) error {
	results := r.Results()
	if len(results) == 0 {
		return fmt.Errorf("report %s has no results", r.ID)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Evaluation reward per policy source",
			Subtitle: fmt.Sprintf("run %s, %d episodes, %d eval runs", r.ID, r.Params.Episodes, r.Params.EvalRuns),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	sources := make([]string, 0, len(results))
	average := make([]opts.BarData, 0, len(results))
	for _, res := range results {
		sources = append(sources, res.Source)
		average = append(average, opts.BarData{Value: res.AverageReward})
	}
	bar.SetXAxis(sources).AddSeries("average", average)

	for i := range results[0].WorldRewards {
		items := make([]opts.BarData, 0, len(results))
		for _, res := range results {
			items = append(items, opts.BarData{Value: res.WorldRewards[i]})
		}
		bar.AddSeries(fmt.Sprintf("world %d", i), items)
	}

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
