// Package edie turns occupancy intervals into density, flow and velocity
// time series using Edie's space-time definitions over fixed windows.
package edie

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/pedflow/internal/crossing"
	"github.com/banshee-data/pedflow/internal/trajectory"
)

var (
	// ErrLengthNotSet is returned when the area has no positive length in
	// the movement direction.
	ErrLengthNotSet = errors.New("length in movement direction not set")
	// ErrNoOccupancy is returned when no pedestrian ever entered the area.
	ErrNoOccupancy = errors.New("no pedestrian entered the measurement area")
	// ErrWindowTooLarge is returned when the window is longer than the
	// trajectory.
	ErrWindowTooLarge = errors.New("time window longer than trajectory")
	// ErrInvalidWindow is returned for a non-positive window.
	ErrInvalidWindow = errors.New("time window must be positive")
)

// Params configure one aggregation.
type Params struct {
	// DeltaT is the window length in frames.
	DeltaT int
	// Length is the area length in the movement direction, in metres.
	Length float64
}

// Window is the result for frames [StartFrame, EndFrame). Velocity is only
// meaningful when HasData is set.
type Window struct {
	Index      int
	StartFrame int
	EndFrame   int
	Flow       float64 // 1/s
	Density    float64 // 1/m
	Velocity   float64 // m/s
	HasData    bool
}

// Validate checks the parameters against a trajectory of numFrames frames.
func (p Params) Validate(numFrames int) error {
	if p.Length <= 0 {
		return fmt.Errorf("length %v: %w", p.Length, ErrLengthNotSet)
	}
	if p.DeltaT <= 0 {
		return fmt.Errorf("delta t %d: %w", p.DeltaT, ErrInvalidWindow)
	}
	if p.DeltaT > numFrames {
		return fmt.Errorf("delta t %d > %d frames: %w", p.DeltaT, numFrames, ErrWindowTooLarge)
	}
	return nil
}

// Aggregate computes one Window per block of DeltaT frames, for windows
// 0 .. NumFrames/DeltaT-1. Each interval is clipped to the window; an open
// interval lasts until after the last frame.
func Aggregate(snap *trajectory.Snapshot, intervals map[int][]crossing.Interval, p Params) ([]Window, error) {
	numFrames := snap.NumFrames()
	if err := p.Validate(numFrames); err != nil {
		return nil, err
	}
	if len(intervals) == 0 {
		return nil, ErrNoOccupancy
	}

	fps := snap.FPS()
	peds := sortedKeys(intervals)
	area := p.Length * (float64(p.DeltaT) / fps)

	n := numFrames / p.DeltaT
	out := make([]Window, 0, n)
	for k := 0; k < n; k++ {
		ws := k * p.DeltaT
		we := ws + p.DeltaT

		var sumTime, sumDist float64
		for _, ped := range peds {
			for _, iv := range intervals[ped] {
				exit := iv.Exit
				if exit == crossing.Unset {
					exit = numFrames
				}
				from := max(iv.Entrance, ws)
				to := min(exit, we)
				if to <= from {
					continue
				}
				sumTime += float64(to-from) / fps
				sumDist += PathLength(snap, ped, from, to)
			}
		}

		w := Window{
			Index:      k,
			StartFrame: ws,
			EndFrame:   we,
			Flow:       sumDist / area,
			Density:    sumTime / area,
		}
		if sumTime > 0 {
			w.Velocity = sumDist / sumTime
			w.HasData = true
		}
		out = append(out, w)
	}
	return out, nil
}

// PathLength returns the distance walked by ped from frame from to frame to,
// summing straight segments between consecutive valid samples. Frames beyond
// the trajectory are clamped.
func PathLength(snap *trajectory.Snapshot, ped, from, to int) float64 {
	from = max(from, 0)
	to = min(to, snap.NumFrames()-1)

	var (
		total float64
		prev  trajectory.Sample
		have  bool
	)
	for f := from; f <= to; f++ {
		s := snap.Sample(ped, f)
		if !s.Valid {
			continue
		}
		if have {
			total += planar.Distance(prev.Point(), s.Point())
		}
		prev, have = s, true
	}
	return total
}

func sortedKeys(m map[int][]crossing.Interval) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
