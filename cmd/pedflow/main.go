// Command pedflow measures density, flow and velocity of pedestrian
// trajectories in configured measurement areas.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/pedflow/internal/config"
	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/monitoring"
	"github.com/banshee-data/pedflow/internal/timeutil"
	"github.com/banshee-data/pedflow/internal/version"
)

var (
	configPath   = flag.String("config", config.DefaultConfigPath, "Analysis configuration (JSON)")
	trajFiles    = flag.String("traj", "", "Trajectory files, comma separated")
	geometryPath = flag.String("geometry", "", "Walkable geometry (GeoJSON), checked against the trajectories")
	outDir       = flag.String("out", "", "Output directory (overrides output_dir)")
	dbPath       = flag.String("db", "", "Results database (overrides results_db)")
	plots        = flag.Bool("plots", false, "Render PNG time series per Edie area")
	charts       = flag.Bool("charts", false, "Render an HTML page of fundamental diagrams per trajectory")
	workers      = flag.Int("workers", 0, "Worker pool size (overrides workers; 0 uses the configuration)")
	browse       = flag.String("browse", "", "After the run, serve the results database on this address")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// splitList splits a comma separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("pedflow %s\n", version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{
		fs:    fsutil.OSFileSystem{},
		clock: timeutil.RealClock{},
		opts: runOptions{
			configPath:   *configPath,
			trajPaths:    splitList(*trajFiles),
			geometryPath: *geometryPath,
			outDir:       *outDir,
			dbPath:       *dbPath,
			plots:        *plots,
			charts:       *charts,
			workers:      *workers,
		},
	}
	code := r.run(ctx)

	if *browse != "" && code != exitConfig {
		path, speedUnits := *dbPath, config.DefaultVelocityUnits
		if cfg, err := config.LoadAnalysisConfig(*configPath); err == nil {
			if path == "" {
				path = cfg.GetResultsDB()
			}
			speedUnits = cfg.GetVelocityUnits()
		}
		if path == "" {
			monitoring.Errorf("-browse needs a results database (-db or results_db)")
			os.Exit(exitConfig)
		}
		if err := serveResults(ctx, *browse, path, speedUnits); err != nil {
			monitoring.Errorf("%v", err)
			code = exitFailed
		}
	}
	stop()
	os.Exit(code)
}
