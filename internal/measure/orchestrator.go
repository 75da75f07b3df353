package measure

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/banshee-data/pedflow/internal/building"
	"github.com/banshee-data/pedflow/internal/monitoring"
	"github.com/banshee-data/pedflow/internal/timeutil"
	"github.com/banshee-data/pedflow/internal/trajectory"
)

// Sink consumes results in method and area order.
type Sink interface {
	Write(r Result) error
}

// Flusher is implemented by sinks that produce output once all results are
// written.
type Flusher interface {
	Flush() error
}

// Options configure an Orchestrator.
type Options struct {
	// Workers is the pool size; zero means runtime.NumCPU().
	Workers int
	Sinks   []Sink
	// Building, when set, is checked for samples outside every room before
	// measuring.
	Building *building.Building
	Clock    timeutil.Clock
}

// Orchestrator owns the method plans of one run.
type Orchestrator struct {
	workers  int
	sinks    []Sink
	building *building.Building
	clock    timeutil.Clock
	plans    []MethodPlan
	skipped  []error
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Orchestrator{
		workers:  workers,
		sinks:    opts.Sinks,
		building: opts.Building,
		clock:    clock,
	}
}

// Add registers a method plan. A plan without tasks is rejected with
// ErrNoRegions and recorded as skipped; the remaining plans still run.
func (o *Orchestrator) Add(plan MethodPlan) error {
	if len(plan.Tasks) == 0 {
		err := fmt.Errorf("method %s: %w", plan.Method.Name(), ErrNoRegions)
		o.skipped = append(o.skipped, err)
		return err
	}
	o.plans = append(o.plans, plan)
	return nil
}

// Report is the outcome of a run.
type Report struct {
	Results []Result
	// Skipped holds one error per method that could not run at all.
	Skipped    []error
	SinkErrors []error
}

// Failed reports whether any method was skipped, any area failed or any
// sink could not write.
func (r Report) Failed() bool {
	if len(r.Skipped) > 0 || len(r.SinkErrors) > 0 {
		return true
	}
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

type job struct {
	index int
	plan  *MethodPlan
	task  Task
}

// Run executes every task on a fixed pool of workers. Tasks are independent;
// an error or panic in one area is recorded in its result and does not stop
// the others. Cancelling ctx stops dispatching new tasks.
func (o *Orchestrator) Run(ctx context.Context, snap *trajectory.Snapshot) Report {
	o.checkBuilding(snap)

	var jobs []job
	for i := range o.plans {
		p := &o.plans[i]
		for _, t := range p.Tasks {
			jobs = append(jobs, job{index: len(jobs), plan: p, task: t})
		}
	}
	results := make([]Result, len(jobs))
	for _, j := range jobs {
		results[j.index] = Result{
			Method: j.plan.Method.Name(),
			AreaID: j.task.Area.ID(),
			Policy: j.task.Policy.Name,
			FPS:    snap.FPS(),
		}
	}

	queue := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < min(o.workers, max(len(jobs), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				o.runJob(snap, j, &results[j.index])
			}
		}()
	}

	dispatched := 0
dispatch:
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- j:
			dispatched++
		}
	}
	close(queue)
	wg.Wait()

	for _, j := range jobs[dispatched:] {
		results[j.index].Err = fmt.Errorf("not run: %w", ctx.Err())
	}

	report := Report{Results: results, Skipped: o.skipped}
	report.SinkErrors = o.emit(results)
	return report
}

func (o *Orchestrator) runJob(snap *trajectory.Snapshot, j job, out *Result) {
	start := o.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic: %v", r)
		}
		out.Elapsed = o.clock.Since(start)
		if out.Err != nil {
			monitoring.Errorf("method %s area %d failed: %v", out.Method, out.AreaID, out.Err)
			return
		}
		monitoring.Infof("method %s area %d done in %v", out.Method, out.AreaID, out.Elapsed)
	}()

	res, err := j.plan.Method.Run(snap, j.task)
	if err != nil {
		out.Err = err
		return
	}
	out.Windows = res.Windows
	out.Comparisons = res.Comparisons
}

func (o *Orchestrator) emit(results []Result) []error {
	var errs []error
	for _, res := range results {
		for _, s := range o.sinks {
			if err := s.Write(res); err != nil {
				monitoring.Errorf("writing method %s area %d: %v", res.Method, res.AreaID, err)
				errs = append(errs, err)
			}
		}
	}
	for _, s := range o.sinks {
		f, ok := s.(Flusher)
		if !ok {
			continue
		}
		if err := f.Flush(); err != nil {
			monitoring.Errorf("flushing output: %v", err)
			errs = append(errs, err)
		}
	}
	return errs
}

func (o *Orchestrator) checkBuilding(snap *trajectory.Snapshot) {
	if o.building == nil {
		return
	}
	for _, s := range o.building.Strays(snap) {
		monitoring.Warnf("pedestrian %d at frame %d (%.2f, %.2f) is outside the geometry",
			s.Ped, s.Frame+snap.MinFrame(), s.Point[0], s.Point[1])
	}
}
