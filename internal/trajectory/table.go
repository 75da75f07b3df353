// Package trajectory holds discretized pedestrian trajectories and the
// one-shot conversion from the stored centimetre positions to metres.
package trajectory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

var (
	// ErrFrameOutOfRange is returned when a sample is placed outside the
	// table's frame range.
	ErrFrameOutOfRange = errors.New("frame out of range")
	// ErrInvalidFrameRate is returned for a non-positive frame rate.
	ErrInvalidFrameRate = errors.New("invalid frame rate")
)

// Sample is one observed position. Valid is false when the pedestrian was
// not observed in that frame; the coordinates are meaningless then.
type Sample struct {
	X     float64
	Y     float64
	Z     float64
	Valid bool
}

// Point returns the planar position of the sample.
func (s Sample) Point() orb.Point {
	return orb.Point{s.X, s.Y}
}

// frames is the storage shared by Table and Snapshot. Frame numbers are
// re-based so that the first frame is 0.
type frames struct {
	fps       float64
	minFrame  int
	numFrames int
	ids       []int
	rows      map[int][]Sample
}

// FPS returns the frame rate in frames per second.
func (f *frames) FPS() float64 { return f.fps }

// NumFrames returns the number of contiguous frames.
func (f *frames) NumFrames() int { return f.numFrames }

// MinFrame returns the frame number the file started at before re-basing.
func (f *frames) MinFrame() int { return f.minFrame }

// Pedestrians returns the pedestrian ids in ascending order.
func (f *frames) Pedestrians() []int {
	out := make([]int, len(f.ids))
	copy(out, f.ids)
	return out
}

// Sample returns the sample of ped at frame. Unknown pedestrians and frames
// outside the range yield an invalid sample.
func (f *frames) Sample(ped, frame int) Sample {
	row, ok := f.rows[ped]
	if !ok || frame < 0 || frame >= f.numFrames {
		return Sample{}
	}
	return row[frame]
}

// PedsInFrame returns the ids of the pedestrians observed in frame.
func (f *frames) PedsInFrame(frame int) []int {
	var out []int
	for _, id := range f.ids {
		if f.Sample(id, frame).Valid {
			out = append(out, id)
		}
	}
	return out
}

// Path returns a copy of all samples of ped indexed by frame.
func (f *frames) Path(ped int) []Sample {
	row, ok := f.rows[ped]
	if !ok {
		return nil
	}
	out := make([]Sample, len(row))
	copy(out, row)
	return out
}

// Table is the mutable trajectory store. Positions are held in centimetres
// until a Converter turns the table into a Snapshot.
type Table struct {
	*frames
}

// NewTable creates an empty table covering numFrames frames starting at
// minFrame.
func NewTable(fps float64, minFrame, numFrames int) (*Table, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps %v: %w", fps, ErrInvalidFrameRate)
	}
	if numFrames < 0 {
		return nil, fmt.Errorf("negative frame count %d: %w", numFrames, ErrFrameOutOfRange)
	}
	return &Table{frames: &frames{
		fps:       fps,
		minFrame:  minFrame,
		numFrames: numFrames,
		rows:      make(map[int][]Sample),
	}}, nil
}

// Set stores a valid sample for ped at the re-based frame.
func (t *Table) Set(ped, frame int, x, y, z float64) error {
	if frame < 0 || frame >= t.numFrames {
		return fmt.Errorf("ped %d frame %d not in [0,%d): %w", ped, frame, t.numFrames, ErrFrameOutOfRange)
	}
	row, ok := t.rows[ped]
	if !ok {
		row = make([]Sample, t.numFrames)
		t.rows[ped] = row
		i := sort.SearchInts(t.ids, ped)
		t.ids = append(t.ids, 0)
		copy(t.ids[i+1:], t.ids[i:])
		t.ids[i] = ped
	}
	row[frame] = Sample{X: x, Y: y, Z: z, Valid: true}
	return nil
}

// ScaleInPlace multiplies every valid coordinate by factor. It is not
// idempotent: calling it twice scales twice. Use a Converter to apply the
// run's unit conversion exactly once.
func (t *Table) ScaleInPlace(factor float64) {
	for _, row := range t.rows {
		for i := range row {
			if !row[i].Valid {
				continue
			}
			row[i].X *= factor
			row[i].Y *= factor
			row[i].Z *= factor
		}
	}
}
