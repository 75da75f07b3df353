// Package report writes measurement results as text tables, plots and
// interactive charts.
package report

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/measure"
	"github.com/banshee-data/pedflow/internal/units"
)

// NA is written for values that do not exist, such as the velocity of a
// window nobody occupied.
const NA = "NA"

// TextSink writes one tab separated .dat file per method and area.
type TextSink struct {
	FS  fsutil.FileSystem
	Dir string
	// Name identifies the trajectory in file names.
	Name string
	// Units selects the velocity unit; see package units.
	Units string
	// DeltaT is echoed in the Edie header, keyed by area id.
	DeltaT map[int]int
}

// Path returns the file a result is written to.
func (s *TextSink) Path(r measure.Result) string {
	return filepath.Join(s.Dir, r.Method, fmt.Sprintf("%s_id_%d.dat", s.Name, r.AreaID))
}

// Write stores r. Failed results produce no file.
func (s *TextSink) Write(r measure.Result) error {
	if !r.OK() {
		return nil
	}
	path := s.Path(r)
	if err := s.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := s.FS.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if r.Comparisons != nil {
		s.writeComparisons(w, r)
	} else {
		s.writeWindows(w, r)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (s *TextSink) writeWindows(w io.Writer, r measure.Result) {
	fmt.Fprintf(w, "#framerate:\t%g\n", r.FPS)
	fmt.Fprintf(w, "#policy:\t%s\n", r.Policy)
	if dt, ok := s.DeltaT[r.AreaID]; ok {
		fmt.Fprintf(w, "#frame interval:\t%d\n", dt)
	}
	fmt.Fprintf(w, "#window\tstart frame\tend frame\tmean flow (1 / s)\tmean density (1 / m)\tmean velocity (%s)\n",
		units.SpeedLabel(s.Units))
	for _, win := range r.Windows {
		v := NA
		if win.HasData {
			v = fmt.Sprintf("%.5f", units.ConvertSpeed(win.Velocity, s.Units))
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%.5f\t%.5f\t%s\n",
			win.Index, win.StartFrame, win.EndFrame, win.Flow, win.Density, v)
	}
}

func (s *TextSink) writeComparisons(w io.Writer, r measure.Result) {
	fmt.Fprintf(w, "#framerate:\t%g\n", r.FPS)
	if len(r.Comparisons) > 0 && r.Comparisons[0].HasReal {
		fmt.Fprintf(w, "#real velocity (%s):\t%.5f\n",
			units.SpeedLabel(s.Units), units.ConvertSpeed(r.Comparisons[0].RealVelocity, s.Units))
	}
	fmt.Fprintf(w, "#variant\tcrossings\taverage velocity\tstd velocity\tdeviation\n")
	for _, c := range r.Comparisons {
		mean, std, dev := NA, NA, NA
		if c.HasData {
			mean = fmt.Sprintf("%.5f", units.ConvertSpeed(c.MeanVelocity, s.Units))
			std = fmt.Sprintf("%.5f", units.ConvertSpeed(c.StdVelocity, s.Units))
			if c.HasReal {
				dev = fmt.Sprintf("%.5f", units.ConvertSpeed(c.Deviation, s.Units))
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", c.Policy, len(c.Velocities), mean, std, dev)
	}
}
