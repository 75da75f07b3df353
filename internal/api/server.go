// Package api serves stored measurement results as JSON.
package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/pedflow/internal/db"
	"github.com/banshee-data/pedflow/internal/httputil"
	"github.com/banshee-data/pedflow/internal/monitoring"
	"github.com/banshee-data/pedflow/internal/units"
)

type Server struct {
	db    *db.DB
	units string
}

// NewServer serves the results in db. Velocities are converted to the
// given units.
func NewServer(db *db.DB, units string) *Server {
	return &Server{db: db, units: units}
}

// RunAPI is the JSON form of a recorded run.
type RunAPI struct {
	ID          string     `json:"id"`
	Version     string     `json:"version"`
	Trajectory  string     `json:"trajectory"`
	FPS         float64    `json:"fps"`
	Started     time.Time  `json:"started"`
	Finished    *time.Time `json:"finished,omitempty"`
	Status      string     `json:"status"`
	FailedAreas int        `json:"failed_areas"`
}

// WindowAPI is the JSON form of one Edie window. Velocity is null for
// windows nobody occupied.
type WindowAPI struct {
	Index      int      `json:"index"`
	StartFrame int      `json:"start_frame"`
	EndFrame   int      `json:"end_frame"`
	Flow       float64  `json:"flow"`
	Density    float64  `json:"density"`
	Velocity   *float64 `json:"velocity"`
}

// ComparisonAPI is the JSON form of one variant comparison row.
type ComparisonAPI struct {
	Policy       string   `json:"policy"`
	Crossings    int      `json:"crossings"`
	MeanVelocity *float64 `json:"mean_velocity"`
	StdVelocity  *float64 `json:"std_velocity"`
	Deviation    *float64 `json:"deviation"`
}

// LoggingMiddleware logs method, path, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("[%d] %s %s %vms", lrw.statusCode, r.Method, r.RequestURI,
			float64(time.Since(start).Nanoseconds())/1e6)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Attach mounts the API handlers on mux.
func (s *Server) Attach(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/config", s.showConfig)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{run}/edie/{area}", s.listWindows)
	mux.HandleFunc("GET /api/runs/{run}/variants/{area}", s.listComparisons)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"units": s.units,
		"label": units.SpeedLabel(s.units),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.Runs()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve runs: %v", err))
		return
	}
	out := make([]RunAPI, len(runs))
	for i, run := range runs {
		out[i] = RunAPI{
			ID:          run.ID,
			Version:     run.Version,
			Trajectory:  run.Trajectory,
			FPS:         run.FPS,
			Started:     run.Started,
			Status:      run.Status,
			FailedAreas: run.FailedAreas,
		}
		if !run.Finished.IsZero() {
			finished := run.Finished
			out[i].Finished = &finished
		}
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) listWindows(w http.ResponseWriter, r *http.Request) {
	area, ok := areaParam(w, r)
	if !ok {
		return
	}
	windows, err := s.db.Windows(r.PathValue("run"), "edie", area)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve windows: %v", err))
		return
	}
	if len(windows) == 0 {
		httputil.NotFound(w, fmt.Sprintf("no windows for area %d", area))
		return
	}
	out := make([]WindowAPI, len(windows))
	for i, win := range windows {
		out[i] = WindowAPI{
			Index:      win.Index,
			StartFrame: win.StartFrame,
			EndFrame:   win.EndFrame,
			Flow:       win.Flow,
			Density:    win.Density,
		}
		if win.HasData {
			v := units.ConvertSpeed(win.Velocity, s.units)
			out[i].Velocity = &v
		}
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) listComparisons(w http.ResponseWriter, r *http.Request) {
	area, ok := areaParam(w, r)
	if !ok {
		return
	}
	rows, err := s.db.Comparisons(r.PathValue("run"), "variants", area)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve comparisons: %v", err))
		return
	}
	if len(rows) == 0 {
		httputil.NotFound(w, fmt.Sprintf("no comparisons for area %d", area))
		return
	}
	out := make([]ComparisonAPI, len(rows))
	for i, c := range rows {
		out[i] = ComparisonAPI{
			Policy:       c.Policy,
			Crossings:    c.Crossings,
			MeanVelocity: s.speed(c.MeanVelocity),
			StdVelocity:  s.speed(c.StdVelocity),
			Deviation:    s.speed(c.Deviation),
		}
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) speed(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	c := units.ConvertSpeed(v.Float64, s.units)
	return &c
}

func areaParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	area, err := strconv.Atoi(r.PathValue("area"))
	if err != nil {
		httputil.BadRequest(w, "area must be an integer")
		return 0, false
	}
	return area, true
}
