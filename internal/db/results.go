package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pedflow/internal/edie"
	"github.com/banshee-data/pedflow/internal/measure"
	"github.com/banshee-data/pedflow/internal/timeutil"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// ErrRunFinished is returned when writing to a store that was flushed.
var ErrRunFinished = errors.New("run already finished")

// RunInfo describes the run a ResultStore records.
type RunInfo struct {
	Version       string
	Trajectory    string
	FPS           float64
	VelocityUnits string
}

// Run is one row of the runs table.
type Run struct {
	ID            string
	Version       string
	Trajectory    string
	FPS           float64
	VelocityUnits string
	Started       time.Time
	Finished      time.Time
	Status        string
	FailedAreas   int
}

// ResultStore records the results of one run. It implements the measure
// sink interfaces; Flush closes the run.
type ResultStore struct {
	db       *DB
	clock    timeutil.Clock
	runID    string
	failed   int
	finished bool
}

// NewResultStore inserts a new run and returns a store writing to it. A nil
// clock means the wall clock.
func NewResultStore(db *DB, info RunInfo, clock timeutil.Clock) (*ResultStore, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	s := &ResultStore{db: db, clock: clock, runID: uuid.New().String()}
	_, err := db.Exec(`
		INSERT INTO runs (run_id, version, trajectory, fps, velocity_units, started_unix, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.runID, info.Version, info.Trajectory, info.FPS, info.VelocityUnits,
		unixSeconds(clock.Now()), StatusRunning)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return s, nil
}

// RunID returns the generated run identifier.
func (s *ResultStore) RunID() string { return s.runID }

// Write stores one area result in a single transaction.
func (s *ResultStore) Write(r measure.Result) (err error) {
	if s.finished {
		return ErrRunFinished
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	status, errText := StatusOK, sql.NullString{}
	if !r.OK() {
		s.failed++
		status = StatusFailed
		errText = sql.NullString{String: r.Err.Error(), Valid: true}
	}
	if _, err = tx.Exec(`
		INSERT INTO area_results (run_id, method, area_id, policy, status, error, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.runID, r.Method, r.AreaID, r.Policy, status, errText,
		float64(r.Elapsed)/float64(time.Millisecond)); err != nil {
		return fmt.Errorf("failed to insert area result: %w", err)
	}

	for _, w := range r.Windows {
		if _, err = tx.Exec(`
			INSERT INTO window_results
				(run_id, method, area_id, window_index, start_frame, end_frame, flow, density, velocity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, r.Method, r.AreaID, w.Index, w.StartFrame, w.EndFrame,
			w.Flow, w.Density, nullFloat(w.Velocity, w.HasData)); err != nil {
			return fmt.Errorf("failed to insert window %d: %w", w.Index, err)
		}
	}

	for _, c := range r.Comparisons {
		if _, err = tx.Exec(`
			INSERT INTO comparison_results
				(run_id, method, area_id, policy, crossings, mean_velocity, std_velocity, real_velocity, deviation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, r.Method, r.AreaID, c.Policy, len(c.Velocities),
			nullFloat(c.MeanVelocity, c.HasData), nullFloat(c.StdVelocity, len(c.Velocities) > 1),
			nullFloat(c.RealVelocity, c.HasReal), nullFloat(c.Deviation, c.HasReal && c.HasData)); err != nil {
			return fmt.Errorf("failed to insert comparison %s: %w", c.Policy, err)
		}
	}

	return tx.Commit()
}

// Flush marks the run finished. Further writes fail with ErrRunFinished.
func (s *ResultStore) Flush() error {
	if s.finished {
		return nil
	}
	status := StatusOK
	if s.failed > 0 {
		status = StatusFailed
	}
	if _, err := s.db.Exec(`
		UPDATE runs SET finished_unix = ?, status = ?, failed_areas = ? WHERE run_id = ?`,
		unixSeconds(s.clock.Now()), status, s.failed, s.runID); err != nil {
		return fmt.Errorf("failed to finish run %s: %w", s.runID, err)
	}
	s.finished = true
	return nil
}

// Runs lists the recorded runs, most recent first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`
		SELECT run_id, version, trajectory, fps, velocity_units, started_unix, finished_unix, status, failed_areas
		FROM runs ORDER BY started_unix DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  float64
			finished sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Version, &r.Trajectory, &r.FPS, &r.VelocityUnits,
			&started, &finished, &r.Status, &r.FailedAreas); err != nil {
			return nil, err
		}
		r.Started = fromUnixSeconds(started)
		if finished.Valid {
			r.Finished = fromUnixSeconds(finished.Float64)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Windows returns the stored windows of one area in index order.
func (db *DB) Windows(runID, method string, areaID int) ([]edie.Window, error) {
	rows, err := db.Query(`
		SELECT window_index, start_frame, end_frame, flow, density, velocity
		FROM window_results
		WHERE run_id = ? AND method = ? AND area_id = ?
		ORDER BY window_index`, runID, method, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []edie.Window
	for rows.Next() {
		var (
			w        edie.Window
			velocity sql.NullFloat64
		)
		if err := rows.Scan(&w.Index, &w.StartFrame, &w.EndFrame, &w.Flow, &w.Density, &velocity); err != nil {
			return nil, err
		}
		w.Velocity, w.HasData = velocity.Float64, velocity.Valid
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// StoredComparison is one row of comparison_results. Values that were not
// computed are stored as NULL.
type StoredComparison struct {
	Policy       string
	Crossings    int
	MeanVelocity sql.NullFloat64
	StdVelocity  sql.NullFloat64
	RealVelocity sql.NullFloat64
	Deviation    sql.NullFloat64
}

// Comparisons returns the stored comparison rows of one area by policy name.
func (db *DB) Comparisons(runID, method string, areaID int) ([]StoredComparison, error) {
	rows, err := db.Query(`
		SELECT policy, crossings, mean_velocity, std_velocity, real_velocity, deviation
		FROM comparison_results
		WHERE run_id = ? AND method = ? AND area_id = ?
		ORDER BY policy`, runID, method, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredComparison
	for rows.Next() {
		var c StoredComparison
		if err := rows.Scan(&c.Policy, &c.Crossings, &c.MeanVelocity, &c.StdVelocity,
			&c.RealVelocity, &c.Deviation); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AreaStatus returns the status and error text recorded for one area.
func (db *DB) AreaStatus(runID, method string, areaID int) (status, errText string, err error) {
	var e sql.NullString
	err = db.QueryRow(`
		SELECT status, error FROM area_results
		WHERE run_id = ? AND method = ? AND area_id = ?`, runID, method, areaID).Scan(&status, &e)
	return status, e.String, err
}

func nullFloat(v float64, ok bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	return time.Unix(0, int64(s*1e9)).UTC()
}
