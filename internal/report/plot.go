package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/measure"
)

// PlotSink renders the density, flow and velocity time series of each Edie
// result as a PNG.
type PlotSink struct {
	FS   fsutil.FileSystem
	Dir  string
	Name string
}

// Path returns the image a result is rendered to.
func (s *PlotSink) Path(r measure.Result) string {
	return filepath.Join(s.Dir, "plots", fmt.Sprintf("%s_%s_id_%d.png", r.Method, s.Name, r.AreaID))
}

// Write renders r. Failed results and comparisons are ignored.
func (s *PlotSink) Write(r measure.Result) error {
	if !r.OK() || len(r.Windows) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s area %d (%s)", r.Method, r.AreaID, r.Policy)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Value"

	density := make(plotter.XYs, 0, len(r.Windows))
	flow := make(plotter.XYs, 0, len(r.Windows))
	velocity := make(plotter.XYs, 0, len(r.Windows))
	for _, w := range r.Windows {
		t := float64(w.StartFrame) / r.FPS
		density = append(density, plotter.XY{X: t, Y: w.Density})
		flow = append(flow, plotter.XY{X: t, Y: w.Flow})
		if w.HasData {
			velocity = append(velocity, plotter.XY{X: t, Y: w.Velocity})
		}
	}

	series := []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{"density (1 / m)", density, color.RGBA{R: 31, G: 119, B: 180, A: 255}},
		{"flow (1 / s)", flow, color.RGBA{R: 255, G: 127, B: 14, A: 255}},
		{"velocity (m / s)", velocity, color.RGBA{R: 44, G: 160, B: 44, A: 255}},
	}
	for _, sr := range series {
		if len(sr.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(sr.pts)
		if err != nil {
			return fmt.Errorf("create %s line: %w", sr.label, err)
		}
		line.Width = vg.Points(1)
		line.Color = sr.color
		p.Add(line)
		p.Legend.Add(sr.label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	path := s.Path(r)
	if err := s.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	f, err := s.FS.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("save plot: %w", err)
	}
	return f.Close()
}
