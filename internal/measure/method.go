// Package measure runs measurement methods over their configured areas and
// hands the per-area results to output sinks.
package measure

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/pedflow/internal/crossing"
	"github.com/banshee-data/pedflow/internal/edie"
	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/trajectory"
)

// ErrNoRegions is returned when an enabled method has no measurement area.
var ErrNoRegions = errors.New("method has no measurement areas")

// Task is one (method, area) unit of work.
type Task struct {
	Area   geometry.Area
	Policy crossing.Policy
	// DeltaT is the window length in frames.
	DeltaT int
}

// PedVelocity is the crossing velocity of one pedestrian.
type PedVelocity struct {
	Ped      int
	Velocity float64
}

// Comparison summarises one detection policy of a variant comparison.
type Comparison struct {
	Policy string
	// Velocities holds one entry per pedestrian with both an entrance and
	// an exit, in pedestrian order.
	Velocities   []PedVelocity
	MeanVelocity float64
	StdVelocity  float64
	// Deviation is |MeanVelocity-RealVelocity|, set when HasReal.
	RealVelocity float64
	Deviation    float64
	HasReal      bool
	HasData      bool
}

// Result is the outcome of one task. Exactly one of Windows and
// Comparisons is filled, depending on the method, unless Err is set.
type Result struct {
	Method      string
	AreaID      int
	Policy      string
	FPS         float64
	Windows     []edie.Window
	Comparisons []Comparison
	Elapsed     time.Duration
	Err         error
}

// OK reports whether the task produced output.
func (r Result) OK() bool { return r.Err == nil }

// Method is a measurement method that runs on one area at a time.
type Method interface {
	Name() string
	Run(snap *trajectory.Snapshot, task Task) (Result, error)
}

// EdieMethod detects occupancy with the task's policy and aggregates it into
// density, flow and velocity windows.
type EdieMethod struct{}

// Name returns "edie".
func (EdieMethod) Name() string { return "edie" }

// Run detects every pedestrian's intervals in the area and aggregates them.
func (EdieMethod) Run(snap *trajectory.Snapshot, task Task) (Result, error) {
	length, ok := task.Area.MovementLength()
	if !ok {
		return Result{}, fmt.Errorf("area %d: %w", task.Area.ID(), edie.ErrLengthNotSet)
	}
	intervals := crossing.DetectAll(snap, task.Area, task.Policy)
	windows, err := edie.Aggregate(snap, intervals, edie.Params{DeltaT: task.DeltaT, Length: length})
	if err != nil {
		return Result{}, fmt.Errorf("area %d: %w", task.Area.ID(), err)
	}
	return Result{Windows: windows}, nil
}

// MethodPlan is an enabled method with the tasks it runs.
type MethodPlan struct {
	Method Method
	Tasks  []Task
}
