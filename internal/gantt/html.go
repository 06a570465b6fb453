package gantt

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes a self-contained HTML page with the chart drawn as
// stacked horizontal bars: an invisible offset, the completed part in the
// progress colour and the remaining part in the risk colour.
func RenderHTML(w io.Writer, tasks []Task, o Options) error {
	title := o.Title
	if title == "" {
		title = "Project schedule"
	}
	unit := o.Unit
	if unit == "" {
		unit = "days"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1100px", Height: fmt.Sprintf("%dpx", 120+40*len(tasks))}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s %s, critical activities marked *", num(span(tasks)), unit)}),
		charts.WithXAxisOpts(opts.XAxis{Name: unit}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	// Categories run bottom-up once the axes are swapped, so feed them in
	// reverse to keep the first activity on top.
	labels := make([]string, len(tasks))
	offset := make([]opts.BarData, len(tasks))
	done := make([]opts.BarData, len(tasks))
	remaining := make([]opts.BarData, len(tasks))
	for i, t := range tasks {
		k := len(tasks) - 1 - i
		labels[k] = t.ID
		if t.IsCritical {
			labels[k] += " *"
		}
		completed := t.Duration() * t.Progress / 100
		offset[k] = opts.BarData{Value: t.Start, ItemStyle: &opts.ItemStyle{Color: "transparent"}}
		done[k] = opts.BarData{Name: t.Name, Value: completed, ItemStyle: &opts.ItemStyle{Color: RiskColor(t.Risk, true)}}
		remaining[k] = opts.BarData{Name: t.Name, Value: t.Duration() - completed, ItemStyle: &opts.ItemStyle{Color: RiskColor(t.Risk, false)}}
	}

	stack := charts.WithBarChartOpts(opts.BarChart{Stack: "gantt"})
	bar.SetXAxis(labels).
		AddSeries("start", offset, stack).
		AddSeries("done", done, stack).
		AddSeries("remaining", remaining, stack)
	bar.XYReversal()

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render gantt chart: %w", err)
	}
	return nil
}
