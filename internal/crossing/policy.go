// Package crossing detects when pedestrians enter and leave a measurement
// area from discretely sampled positions.
package crossing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned by ByName for unrecognised policy names.
var ErrUnknownPolicy = errors.New("unknown boundary policy")

// SampleChoice selects which sample a boundary test is evaluated on.
type SampleChoice int

const (
	// Current tests the sample at frame f.
	Current SampleChoice = iota
	// Next tests the sample at frame f+1 and records the event at f.
	Next
)

// Boundary selects how boundary-coincident samples are classified.
type Boundary int

const (
	// Strict counts only the open interior as inside.
	Strict Boundary = iota
	// Inclusive counts the boundary as inside.
	Inclusive
)

// Interpolation selects sub-sample crossing assignment.
type Interpolation int

const (
	// NoInterpolation uses the per-sample rules of the policy.
	NoInterpolation Interpolation = iota
	// TiesLater assigns a crossing to the sample nearer the crossed edge and
	// equal distances to the later frame.
	TiesLater
	// TiesEarlier is TiesLater with equal distances going to the earlier frame.
	TiesEarlier
)

// Rule is one boundary test: which sample, and whether the boundary counts.
type Rule struct {
	Sample   SampleChoice
	Boundary Boundary
}

// Policy is an immutable choice of entrance and exit tests. When
// Interpolation is set the rules are ignored and crossings are assigned
// geometrically.
type Policy struct {
	Name          string
	Entrance      Rule
	Exit          Rule
	Interpolation Interpolation
}

func (p Policy) String() string { return p.Name }

// LooksAhead reports whether the policy reads the successor sample.
func (p Policy) LooksAhead() bool {
	return p.Interpolation != NoInterpolation ||
		p.Entrance.Sample == Next || p.Exit.Sample == Next
}

// Named boundary policies.
var (
	StrictCurrent = Policy{
		Name:     "strict-current",
		Entrance: Rule{Current, Strict},
		Exit:     Rule{Current, Strict},
	}
	InclusiveCurrent = Policy{
		Name:     "inclusive-current",
		Entrance: Rule{Current, Inclusive},
		Exit:     Rule{Current, Inclusive},
	}
	StrictEntryInclusiveExit = Policy{
		Name:     "strict-entry-inclusive-exit",
		Entrance: Rule{Current, Strict},
		Exit:     Rule{Current, Inclusive},
	}
	StrictLookAhead = Policy{
		Name:     "strict-lookahead",
		Entrance: Rule{Next, Strict},
		Exit:     Rule{Next, Strict},
	}
	InclusiveLookAhead = Policy{
		Name:     "inclusive-lookahead",
		Entrance: Rule{Next, Inclusive},
		Exit:     Rule{Next, Inclusive},
	}
	CurrentEntryLookAheadExit = Policy{
		Name:     "current-entry-lookahead-exit",
		Entrance: Rule{Current, Strict},
		Exit:     Rule{Next, Strict},
	}
	CurrentEntryLookAheadExitInclusive = Policy{
		Name:     "current-entry-lookahead-exit-inclusive",
		Entrance: Rule{Current, Inclusive},
		Exit:     Rule{Next, Inclusive},
	}
	LookAheadInclusiveEntryStrictExit = Policy{
		Name:     "lookahead-inclusive-entry-strict-exit",
		Entrance: Rule{Next, Inclusive},
		Exit:     Rule{Next, Strict},
	}
	LookAheadStrictEntryInclusiveExit = Policy{
		Name:     "lookahead-strict-entry-inclusive-exit",
		Entrance: Rule{Next, Strict},
		Exit:     Rule{Next, Inclusive},
	}

	// EdieDefault enters on the closed area and leaves the open interior, both
	// on the current sample.
	EdieDefault = Policy{
		Name:     "edie",
		Entrance: Rule{Current, Inclusive},
		Exit:     Rule{Current, Strict},
	}

	NearestLater = Policy{
		Name:          "nearest-later",
		Entrance:      Rule{Current, Inclusive},
		Exit:          Rule{Current, Inclusive},
		Interpolation: TiesLater,
	}
	NearestEarlier = Policy{
		Name:          "nearest-earlier",
		Entrance:      Rule{Current, Inclusive},
		Exit:          Rule{Current, Inclusive},
		Interpolation: TiesEarlier,
	}
)

// Named returns the detection variants compared by the variants method, in
// a stable order.
func Named() []Policy {
	return []Policy{
		LookAheadInclusiveEntryStrictExit,
		LookAheadStrictEntryInclusiveExit,
		StrictCurrent,
		InclusiveCurrent,
		StrictEntryInclusiveExit,
		EdieDefault,
		StrictLookAhead,
		InclusiveLookAhead,
		CurrentEntryLookAheadExit,
		CurrentEntryLookAheadExitInclusive,
		NearestLater,
		NearestEarlier,
	}
}

// ByName resolves a policy name as used in configuration files. Matching
// ignores case.
func ByName(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Named() {
		if p.Name == name {
			return p, nil
		}
	}
	return Policy{}, fmt.Errorf("%q: %w", name, ErrUnknownPolicy)
}

// Names returns every name ByName accepts.
func Names() []string {
	var names []string
	for _, p := range Named() {
		names = append(names, p.Name)
	}
	return names
}
