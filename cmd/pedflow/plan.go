package main

import (
	"fmt"

	"github.com/banshee-data/pedflow/internal/config"
	"github.com/banshee-data/pedflow/internal/crossing"
	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/measure"
	"github.com/banshee-data/pedflow/internal/monitoring"
	"github.com/banshee-data/pedflow/internal/variants"
)

// planSet is everything the enabled methods need from the configuration.
type planSet struct {
	plans []measure.MethodPlan
	// deltaT holds the Edie window length per area id.
	deltaT map[int]int
	// areas are the distinct areas referenced by any method, in plan order.
	areas []geometry.Area
}

// buildPlans resolves the area references of every enabled method. Unknown
// ids and lines used where an area is needed are configuration errors.
// Areas skipped as degenerate are left out with a warning, which may leave
// a method with no tasks.
func buildPlans(cfg *config.AnalysisConfig, regions *config.Regions) (planSet, error) {
	ps := planSet{deltaT: make(map[int]int)}
	seen := make(map[int]bool)
	resolve := func(method string, id int) (geometry.Area, bool, error) {
		if err, ok := regions.Skipped[id]; ok {
			monitoring.Warnf("%s: skipping area %d: %v", method, id, err)
			return nil, false, nil
		}
		a, err := regions.Registry.Area(id)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s: %v", config.ErrInvalidConfig, method, err)
		}
		if !seen[id] {
			seen[id] = true
			ps.areas = append(ps.areas, a)
		}
		return a, true, nil
	}

	if e := cfg.MethodEdie; e.IsEnabled() {
		plan := measure.MethodPlan{Method: measure.EdieMethod{}}
		for _, ref := range e.Areas {
			a, ok, err := resolve("method_edie", ref.ID)
			if err != nil {
				return planSet{}, err
			}
			if !ok {
				continue
			}
			p, err := crossing.ByName(ref.GetPolicy())
			if err != nil {
				return planSet{}, fmt.Errorf("%w: method_edie area %d: %v", config.ErrInvalidConfig, ref.ID, err)
			}
			task := measure.Task{Area: a, Policy: p, DeltaT: ref.GetFrameInterval()}
			ps.deltaT[ref.ID] = task.DeltaT
			plan.Tasks = append(plan.Tasks, task)
		}
		ps.plans = append(ps.plans, plan)
	}

	if v := cfg.MethodVariants; v.IsEnabled() {
		plan := measure.MethodPlan{Method: variants.Method{RealVelocity: v.GetRealVelocity()}}
		for _, ref := range v.Areas {
			a, ok, err := resolve("method_variants", ref.ID)
			if err != nil {
				return planSet{}, err
			}
			if ok {
				plan.Tasks = append(plan.Tasks, measure.Task{Area: a})
			}
		}
		ps.plans = append(ps.plans, plan)
	}
	return ps, nil
}
