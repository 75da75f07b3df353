package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/banshee-data/pedflow/internal/api"
	"github.com/banshee-data/pedflow/internal/building"
	"github.com/banshee-data/pedflow/internal/config"
	"github.com/banshee-data/pedflow/internal/db"
	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/measure"
	"github.com/banshee-data/pedflow/internal/monitoring"
	"github.com/banshee-data/pedflow/internal/report"
	"github.com/banshee-data/pedflow/internal/security"
	"github.com/banshee-data/pedflow/internal/timeutil"
	"github.com/banshee-data/pedflow/internal/trajectory"
	"github.com/banshee-data/pedflow/internal/version"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

// runOptions are the command line settings after parsing.
type runOptions struct {
	configPath   string
	trajPaths    []string
	geometryPath string
	// outDir and dbPath override the configuration when set.
	outDir  string
	dbPath  string
	plots   bool
	charts  bool
	workers int
}

// runner carries the seams a run needs.
type runner struct {
	fs    fsutil.FileSystem
	clock timeutil.Clock
	opts  runOptions
}

// analysis is the resolved configuration shared by every trajectory.
type analysis struct {
	cfg      *config.AnalysisConfig
	plans    planSet
	building *building.Building
	outDir   string
	store    *db.DB
}

// run measures every trajectory file and returns the process exit code.
func (r *runner) run(ctx context.Context) int {
	an, err := r.prepare()
	if err != nil {
		monitoring.Errorf("%v", err)
		return exitConfig
	}
	if an.store != nil {
		defer an.store.Close()
	}

	failed := false
	for _, path := range r.opts.trajPaths {
		if ctx.Err() != nil {
			monitoring.Warnf("interrupted before %s", path)
			failed = true
			break
		}
		if err := r.measure(ctx, an, path); err != nil {
			monitoring.Errorf("%s: %v", path, err)
			failed = true
		}
	}
	if failed {
		return exitFailed
	}
	return exitOK
}

func (r *runner) prepare() (*analysis, error) {
	if r.opts.configPath == "" {
		return nil, fmt.Errorf("%w: -config is required", config.ErrInvalidConfig)
	}
	if len(r.opts.trajPaths) == 0 {
		return nil, fmt.Errorf("%w: -traj is required", config.ErrInvalidConfig)
	}

	cfg, err := config.LoadAnalysisConfigFS(r.fs, r.opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	regions, err := cfg.BuildRegions()
	if err != nil {
		return nil, err
	}
	plans, err := buildPlans(cfg, regions)
	if err != nil {
		return nil, err
	}

	an := &analysis{cfg: cfg, plans: plans, outDir: cfg.GetOutputDir()}
	if r.opts.outDir != "" {
		an.outDir = r.opts.outDir
	}

	if r.opts.geometryPath != "" {
		b, err := building.LoadGeoJSON(r.fs, r.opts.geometryPath)
		if err != nil {
			return nil, err
		}
		an.building = b
		box := b.Bound(cfg.GetBoundingBoxMargin())
		monitoring.Infof("geometry bounding box (%.2f, %.2f)-(%.2f, %.2f)",
			box.Min[0], box.Min[1], box.Max[0], box.Max[1])
		if grid, err := b.GridBounds(plans.areas); err != nil {
			monitoring.Warnf("measurement areas: %v", err)
		} else {
			monitoring.Infof("measurement grid (%.2f, %.2f)-(%.2f, %.2f)",
				grid.Min[0], grid.Min[1], grid.Max[0], grid.Max[1])
		}
	}

	dbPath := cfg.GetResultsDB()
	if r.opts.dbPath != "" {
		dbPath = r.opts.dbPath
	}
	if dbPath != "" {
		if err := r.fs.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := db.NewDB(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open results database: %w", err)
		}
		an.store = store
	}
	return an, nil
}

// measure runs every plan on one trajectory file.
func (r *runner) measure(ctx context.Context, an *analysis, path string) error {
	start := r.clock.Now()
	table, err := trajectory.ReadFile(r.fs, path, trajectory.ReadOptions{FPS: an.cfg.GetFPSOverride()})
	if err != nil {
		return err
	}
	snap := trajectory.NewConverter(table).Snapshot()
	name := security.TrajectoryName(path)
	monitoring.Infof("%s: %d pedestrians, %d frames at %g fps",
		name, len(snap.Pedestrians()), snap.NumFrames(), snap.FPS())

	units := an.cfg.GetVelocityUnits()
	sinks := []measure.Sink{
		report.LogSink{},
		&report.TextSink{FS: r.fs, Dir: an.outDir, Name: name, Units: units, DeltaT: an.plans.deltaT},
	}
	if r.opts.plots {
		sinks = append(sinks, &report.PlotSink{FS: r.fs, Dir: an.outDir, Name: name})
	}
	if r.opts.charts {
		sinks = append(sinks, &report.ChartSink{FS: r.fs, Path: filepath.Join(an.outDir, name+"_charts.html")})
	}
	if an.store != nil {
		rs, err := db.NewResultStore(an.store, db.RunInfo{
			Version:       version.Version,
			Trajectory:    path,
			FPS:           snap.FPS(),
			VelocityUnits: units,
		}, r.clock)
		if err != nil {
			return err
		}
		monitoring.Infof("%s: recording run %s", name, rs.RunID())
		sinks = append(sinks, rs)
	}

	orch := measure.New(measure.Options{
		Workers:  r.workers(an.cfg),
		Sinks:    sinks,
		Building: an.building,
		Clock:    r.clock,
	})
	for _, p := range an.plans.plans {
		if err := orch.Add(p); err != nil {
			monitoring.Warnf("%v", err)
		}
	}

	rep := orch.Run(ctx, snap)
	monitoring.Infof("%s: finished in %v", name, r.clock.Since(start).Round(time.Millisecond))
	if rep.Failed() {
		return errors.New("one or more measurements failed")
	}
	return nil
}

func (r *runner) workers(cfg *config.AnalysisConfig) int {
	if r.opts.workers > 0 {
		return r.opts.workers
	}
	return cfg.GetWorkers()
}

// serveResults serves the results API and the database browser on addr
// until ctx is cancelled.
func serveResults(ctx context.Context, addr, dbPath, speedUnits string) error {
	store, err := db.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	mux := http.NewServeMux()
	api.NewServer(store, speedUnits).Attach(mux)
	if err := store.AttachAdminRoutes(mux); err != nil {
		return err
	}
	server := &http.Server{Addr: addr, Handler: api.LoggingMiddleware(mux)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			monitoring.Warnf("HTTP server shutdown error: %v", err)
			server.Close()
		}
	}()

	monitoring.Infof("browse results at http://%s/api/runs and http://%s/debug/tailsql/", addr, addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve results: %w", err)
	}
	return nil
}
