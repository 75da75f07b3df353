package geometry

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownRegion is returned when a configured id has no region.
	ErrUnknownRegion = errors.New("unknown measurement region")
	// ErrDuplicateRegion is returned when two regions share an id.
	ErrDuplicateRegion = errors.New("duplicate measurement region")
	// ErrWrongRegionType is returned when a region lacks the capability a
	// caller needs (an interior, or a segment).
	ErrWrongRegionType = errors.New("wrong measurement region type")
)

// Registry maps measurement region ids to regions.
type Registry struct {
	regions map[int]Region
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{regions: make(map[int]Region)}
}

// Add registers r. Ids must be unique.
func (reg *Registry) Add(r Region) error {
	if _, exists := reg.regions[r.ID()]; exists {
		return fmt.Errorf("region id %d: %w", r.ID(), ErrDuplicateRegion)
	}
	reg.regions[r.ID()] = r
	return nil
}

// Lookup returns the region with the given id.
func (reg *Registry) Lookup(id int) (Region, error) {
	r, ok := reg.regions[id]
	if !ok {
		return nil, fmt.Errorf("region id %d: %w", id, ErrUnknownRegion)
	}
	return r, nil
}

// Area returns the region with the given id if it has an interior.
func (reg *Registry) Area(id int) (Area, error) {
	r, err := reg.Lookup(id)
	if err != nil {
		return nil, err
	}
	a, ok := r.(Area)
	if !ok {
		return nil, fmt.Errorf("region id %d has type %s, want an area: %w", id, r.Type(), ErrWrongRegionType)
	}
	return a, nil
}

// Line returns the region with the given id if it is a line.
func (reg *Registry) Line(id int) (Line, error) {
	r, err := reg.Lookup(id)
	if err != nil {
		return nil, err
	}
	l, ok := r.(Line)
	if !ok {
		return nil, fmt.Errorf("region id %d has type %s, want a line: %w", id, r.Type(), ErrWrongRegionType)
	}
	return l, nil
}

// IDs returns the registered ids in ascending order.
func (reg *Registry) IDs() []int {
	ids := make([]int, 0, len(reg.regions))
	for id := range reg.regions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of registered regions.
func (reg *Registry) Len() int {
	return len(reg.regions)
}
