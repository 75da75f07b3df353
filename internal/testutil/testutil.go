// Package testutil provides shared test utilities and trajectory fixtures.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/banshee-data/pedflow/internal/trajectory"
	"github.com/banshee-data/pedflow/internal/units"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Walk is a straight walk of one pedestrian at constant speed. Positions are
// in metres. The pedestrian is observed in frames First..Last inclusive.
type Walk struct {
	Ped   int
	First int
	Last  int
	Start orb.Point
	// Step is the displacement per frame.
	Step orb.Point
	Z    float64
}

// At returns the position of the walk at frame f.
func (w Walk) At(f int) orb.Point {
	n := float64(f - w.First)
	return orb.Point{w.Start[0] + n*w.Step[0], w.Start[1] + n*w.Step[1]}
}

// BuildTable stores the walks in a centimetre table of numFrames frames.
func BuildTable(t testing.TB, fps float64, numFrames int, walks ...Walk) *trajectory.Table {
	t.Helper()
	tbl, err := trajectory.NewTable(fps, 0, numFrames)
	AssertNoError(t, err)
	for _, w := range walks {
		for f := w.First; f <= w.Last; f++ {
			p := w.At(f)
			err := tbl.Set(w.Ped, f,
				units.MetersToCentimeters(p[0]),
				units.MetersToCentimeters(p[1]),
				units.MetersToCentimeters(w.Z))
			AssertNoError(t, err)
		}
	}
	return tbl
}

// BuildSnapshot builds a table from the walks and converts it to metres.
func BuildSnapshot(t testing.TB, fps float64, numFrames int, walks ...Walk) *trajectory.Snapshot {
	t.Helper()
	return trajectory.NewConverter(BuildTable(t, fps, numFrames, walks...)).Snapshot()
}

// TrajectoryText renders the walks in the plain text trajectory format.
func TrajectoryText(fps float64, walks ...Walk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# generated fixture\n#framerate: %g\n# ID FR X Y Z\n", fps)
	for _, w := range walks {
		for f := w.First; f <= w.Last; f++ {
			p := w.At(f)
			fmt.Fprintf(&b, "%d\t%d\t%.4f\t%.4f\t%.4f\n", w.Ped, f, p[0], p[1], w.Z)
		}
	}
	return b.String()
}
