package report

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pedflow/internal/measure"
	"github.com/banshee-data/pedflow/internal/monitoring"
)

// Summary condenses the windows of one result.
type Summary struct {
	Windows      int
	WithData     int
	MeanDensity  float64
	MeanFlow     float64
	MeanVelocity float64
	MaxDensity   float64
}

// Summarize averages density and flow over all windows and velocity over the
// windows with data.
func Summarize(r measure.Result) Summary {
	s := Summary{Windows: len(r.Windows)}
	if len(r.Windows) == 0 {
		return s
	}
	density := make([]float64, len(r.Windows))
	flow := make([]float64, len(r.Windows))
	var velocity []float64
	for i, w := range r.Windows {
		density[i] = w.Density
		flow[i] = w.Flow
		if w.HasData {
			velocity = append(velocity, w.Velocity)
		}
	}
	s.WithData = len(velocity)
	s.MeanDensity = stat.Mean(density, nil)
	s.MeanFlow = stat.Mean(flow, nil)
	s.MaxDensity = floats.Max(density)
	if len(velocity) > 0 {
		s.MeanVelocity = stat.Mean(velocity, nil)
	}
	return s
}

// LogSink logs a one line summary per result.
type LogSink struct{}

// Write logs r.
func (LogSink) Write(r measure.Result) error {
	switch {
	case !r.OK():
		monitoring.Errorf("%s area %d: %v", r.Method, r.AreaID, r.Err)
	case r.Comparisons != nil:
		for _, c := range r.Comparisons {
			monitoring.Infof("%s area %d %s: %d crossings, mean velocity %.3f m/s",
				r.Method, r.AreaID, c.Policy, len(c.Velocities), c.MeanVelocity)
		}
	default:
		s := Summarize(r)
		monitoring.Infof("%s area %d: %s", r.Method, r.AreaID, s)
	}
	return nil
}

func (s Summary) String() string {
	return fmt.Sprintf("%d windows (%d with data), mean density %.3f 1/m, mean flow %.3f 1/s, mean velocity %.3f m/s",
		s.Windows, s.WithData, s.MeanDensity, s.MeanFlow, s.MeanVelocity)
}
