// Package variants compares boundary detection policies by the crossing
// velocities they produce for the same area.
package variants

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pedflow/internal/crossing"
	"github.com/banshee-data/pedflow/internal/edie"
	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/measure"
	"github.com/banshee-data/pedflow/internal/trajectory"
)

// Method runs every policy on an area and reports the mean crossing velocity
// per policy. The task's own policy and window are ignored.
type Method struct {
	// RealVelocity is the known walking speed in m/s. NaN or non-positive
	// disables the deviation column.
	RealVelocity float64
	// Policies defaults to crossing.Named().
	Policies []crossing.Policy
}

// Name returns "variants".
func (Method) Name() string { return "variants" }

// Run computes one Comparison per policy.
func (m Method) Run(snap *trajectory.Snapshot, task measure.Task) (measure.Result, error) {
	length, ok := task.Area.MovementLength()
	if !ok {
		return measure.Result{}, fmt.Errorf("area %d: %w", task.Area.ID(), edie.ErrLengthNotSet)
	}
	policies := m.Policies
	if len(policies) == 0 {
		policies = crossing.Named()
	}

	out := make([]measure.Comparison, 0, len(policies))
	for _, p := range policies {
		out = append(out, m.compare(snap, task, p, length))
	}
	return measure.Result{Comparisons: out}, nil
}

func (m Method) compare(snap *trajectory.Snapshot, task measure.Task, p crossing.Policy, length float64) measure.Comparison {
	c := measure.Comparison{Policy: p.Name}
	var vs []float64
	for _, ped := range snap.Pedestrians() {
		v, ok := CrossingVelocity(snap.Path(ped), task.Area, p, length, snap.FPS())
		if !ok {
			continue
		}
		c.Velocities = append(c.Velocities, measure.PedVelocity{Ped: ped, Velocity: v})
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return c
	}
	c.HasData = true
	c.MeanVelocity = stat.Mean(vs, nil)
	if len(vs) > 1 {
		c.StdVelocity = stat.StdDev(vs, nil)
	}
	if m.RealVelocity > 0 {
		c.RealVelocity = m.RealVelocity
		c.Deviation = math.Abs(c.MeanVelocity - m.RealVelocity)
		c.HasReal = true
	}
	return c
}

// CrossingVelocity returns length divided by the time between the first
// entrance and its exit. ok is false when the pedestrian never completed a
// crossing or crossed within a single frame.
func CrossingVelocity(path []trajectory.Sample, area geometry.Area, p crossing.Policy, length, fps float64) (v float64, ok bool) {
	iv, entered := crossing.DetectFirst(path, area, p)
	if !entered || iv.Open() || iv.Exit <= iv.Entrance {
		return 0, false
	}
	return length / (float64(iv.Exit-iv.Entrance) / fps), true
}
