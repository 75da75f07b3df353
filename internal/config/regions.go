package config

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/monitoring"
)

// Regions is the outcome of building the configured measurement areas.
type Regions struct {
	Registry *geometry.Registry
	// Skipped maps the ids of degenerate polygons to the reason they were
	// left out. Methods referencing them skip the area with a warning.
	Skipped map[int]error
}

// BuildRegions turns the configured areas into geometry regions. Polygons
// with fewer than three vertices are skipped with a warning; a line with
// coincident endpoints is a fatal error.
func (c *AnalysisConfig) BuildRegions() (*Regions, error) {
	out := &Regions{Registry: geometry.NewRegistry(), Skipped: make(map[int]error)}

	for _, a := range c.MeasurementAreas {
		r, err := a.build()
		switch {
		case errors.Is(err, geometry.ErrDegenerate) && a.Type != geometry.TypeLine:
			monitoring.Warnf("skipping measurement area %d: %v", a.ID, err)
			out.Skipped[a.ID] = err
			continue
		case err != nil:
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if err := out.Registry.Add(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toPoints(vs [][2]float64) []orb.Point {
	pts := make([]orb.Point, len(vs))
	for i, v := range vs {
		pts[i] = orb.Point{v[0], v[1]}
	}
	return pts
}

func (a AreaConfig) lengths() geometry.Lengths {
	var l geometry.Lengths
	if a.LengthInMovementDirection != nil {
		l.Movement = *a.LengthInMovementDirection
	}
	if a.LengthOrthogonalToMovementDirection != nil {
		l.Orthogonal = *a.LengthOrthogonalToMovementDirection
	}
	return l
}

func (a AreaConfig) build() (geometry.Region, error) {
	if a.Type == geometry.TypeLine {
		line := geometry.NewLineArea(a.ID, orb.Point(*a.Start), orb.Point(*a.End))
		if a.ZPos != nil {
			line.WithZ(*a.ZPos)
		}
		return line, line.Validate()
	}

	var area *geometry.PolygonArea
	if a.Type == geometry.TypeBoundingBox && len(a.Vertices) == 2 {
		b := orb.Bound{Min: orb.Point(a.Vertices[0]), Max: orb.Point(a.Vertices[0])}
		b = b.Extend(orb.Point(a.Vertices[1]))
		area = geometry.NewBoxArea(a.ID, b)
	} else {
		holes := make([][]orb.Point, len(a.Holes))
		for i, h := range a.Holes {
			holes[i] = toPoints(h)
		}
		area = geometry.NewPolygonArea(a.ID, a.Type, toPoints(a.Vertices), holes...)
	}
	area.WithLengths(a.lengths())
	if a.ZPos != nil {
		area.WithZ(*a.ZPos)
	}
	return area, area.Validate()
}
