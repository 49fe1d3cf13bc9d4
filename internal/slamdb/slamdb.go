// Package slamdb persists SLAM runs to sqlite: the estimated trajectory and
// the sampled landmark map at each timestep, for offline analysis and
// plotting. It never feeds back into the filter.
package slamdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/fastslam/internal/slam"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the sqlite handle for SLAM run storage.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) a run store at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{db}, nil
}

// CreateRun registers a new run and returns its identifier.
func (db *DB) CreateRun(label string) (string, error) {
	runID := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO slam_runs (run_id, label, started_at) VALUES (?, ?, ?)`,
		runID, label, time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// FinishRun stamps a run as complete.
func (db *DB) FinishRun(runID string) error {
	_, err := db.Exec(
		`UPDATE slam_runs SET finished_at = ? WHERE run_id = ?`,
		time.Now().UnixNano(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecordStep stores one timestep: the estimated pose, the ground-truth pose
// when known, and the sampled landmark snapshot. All rows go in one
// transaction so a step is never half-recorded.
func (db *DB) RecordStep(runID string, step int, est slam.Pose, truth *slam.Pose, landmarks []slam.Point) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var truthX, truthY, truthTheta any
	if truth != nil {
		truthX, truthY, truthTheta = truth.X, truth.Y, truth.Theta
	}
	_, err = tx.Exec(
		`INSERT INTO slam_poses (run_id, step, est_x, est_y, est_theta, truth_x, truth_y, truth_theta)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, step, est.X, est.Y, est.Theta, truthX, truthY, truthTheta,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pose for step %d: %w", step, err)
	}

	for i, lm := range landmarks {
		_, err = tx.Exec(
			`INSERT INTO slam_landmarks (run_id, step, idx, x, y) VALUES (?, ?, ?, ?, ?)`,
			runID, step, i, lm.X, lm.Y,
		)
		if err != nil {
			return fmt.Errorf("failed to insert landmark %d for step %d: %w", i, step, err)
		}
	}
	return tx.Commit()
}

// RunSummary describes one recorded run.
type RunSummary struct {
	RunID      string
	Label      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is still in progress
	Steps      int
}

// RunSummary returns the metadata and recorded step count of a run.
func (db *DB) RunSummary(runID string) (RunSummary, error) {
	s := RunSummary{RunID: runID}
	var started int64
	var finished sql.NullInt64
	err := db.QueryRow(
		`SELECT r.label, r.started_at, r.finished_at,
		        (SELECT COUNT(*) FROM slam_poses p WHERE p.run_id = r.run_id)
		 FROM slam_runs r WHERE r.run_id = ?`,
		runID,
	).Scan(&s.Label, &started, &finished, &s.Steps)
	if err != nil {
		return RunSummary{}, err
	}
	s.StartedAt = time.Unix(0, started)
	if finished.Valid {
		s.FinishedAt = time.Unix(0, finished.Int64)
	}
	return s, nil
}

// PoseRecord is one trajectory sample of a recorded run.
type PoseRecord struct {
	Step  int
	Est   slam.Pose
	Truth *slam.Pose
}

// LoadTrajectory returns the recorded trajectory of a run in step order.
func (db *DB) LoadTrajectory(runID string) ([]PoseRecord, error) {
	rows, err := db.Query(
		`SELECT step, est_x, est_y, est_theta, truth_x, truth_y, truth_theta
		 FROM slam_poses WHERE run_id = ? ORDER BY step`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PoseRecord
	for rows.Next() {
		var rec PoseRecord
		var tx, ty, tt sql.NullFloat64
		if err := rows.Scan(&rec.Step, &rec.Est.X, &rec.Est.Y, &rec.Est.Theta, &tx, &ty, &tt); err != nil {
			return nil, err
		}
		if tx.Valid {
			rec.Truth = &slam.Pose{X: tx.Float64, Y: ty.Float64, Theta: tt.Float64}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LoadLandmarks returns the landmark snapshot recorded at the given step, or
// at the last recorded step when step is negative.
func (db *DB) LoadLandmarks(runID string, step int) ([]slam.Point, error) {
	if step < 0 {
		err := db.QueryRow(
			`SELECT COALESCE(MAX(step), 0) FROM slam_landmarks WHERE run_id = ?`, runID,
		).Scan(&step)
		if err != nil {
			return nil, err
		}
	}

	rows, err := db.Query(
		`SELECT x, y FROM slam_landmarks WHERE run_id = ? AND step = ? ORDER BY idx`,
		runID, step,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []slam.Point
	for rows.Next() {
		var p slam.Point
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestRun returns the identifier of the most recently started run.
func (db *DB) LatestRun() (string, error) {
	var runID string
	err := db.QueryRow(
		`SELECT run_id FROM slam_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	).Scan(&runID)
	if err != nil {
		return "", err
	}
	return runID, nil
}
