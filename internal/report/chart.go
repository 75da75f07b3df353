package report

import (
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/measure"
)

// ChartSink collects results and renders one HTML page with a fundamental
// diagram per Edie area and a velocity bar chart per variant comparison.
type ChartSink struct {
	FS   fsutil.FileSystem
	Path string

	results []measure.Result
}

// Write queues r for rendering.
func (s *ChartSink) Write(r measure.Result) error {
	if r.OK() {
		s.results = append(s.results, r)
	}
	return nil
}

// Flush renders the page. Nothing is written when no result succeeded.
func (s *ChartSink) Flush() error {
	if len(s.results) == 0 {
		return nil
	}
	page := components.NewPage()
	page.PageTitle = "Pedestrian fundamental diagrams"
	for _, r := range s.results {
		if r.Comparisons != nil {
			page.AddCharts(comparisonChart(r))
			continue
		}
		page.AddCharts(diagramChart(r), seriesChart(r))
	}

	if err := s.FS.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	f, err := s.FS.Create(s.Path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Path, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render error: %w", err)
	}
	return f.Close()
}

func diagramChart(r measure.Result) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(r.Windows))
	for _, w := range r.Windows {
		if !w.HasData {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{w.Density, w.Velocity}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Area %d: density and velocity", r.AreaID),
			Subtitle: fmt.Sprintf("method=%s policy=%s windows=%d", r.Method, r.Policy, len(r.Windows)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "density (1 / m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "velocity (m / s)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("windows", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

func seriesChart(r measure.Result) *charts.Line {
	x := make([]string, len(r.Windows))
	density := make([]opts.LineData, len(r.Windows))
	flow := make([]opts.LineData, len(r.Windows))
	for i, w := range r.Windows {
		x[i] = fmt.Sprintf("%.1f", float64(w.StartFrame)/r.FPS)
		density[i] = opts.LineData{Value: w.Density}
		flow[i] = opts.LineData{Value: w.Flow}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Area %d: density and flow over time", r.AreaID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)"}),
	)
	line.SetXAxis(x).
		AddSeries("density (1 / m)", density).
		AddSeries("flow (1 / s)", flow)
	return line
}

func comparisonChart(r measure.Result) *charts.Bar {
	x := make([]string, 0, len(r.Comparisons))
	y := make([]opts.BarData, 0, len(r.Comparisons))
	for _, c := range r.Comparisons {
		x = append(x, c.Policy)
		y = append(y, opts.BarData{Value: c.MeanVelocity})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Area %d: mean crossing velocity by policy", r.AreaID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("mean velocity (m / s)", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}
