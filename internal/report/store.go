package report

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS readings (
	run_id TEXT NOT NULL,
	frame  INTEGER NOT NULL,
	speed  REAL NOT NULL,
	time   REAL NOT NULL,
	PRIMARY KEY (run_id, frame)
)`

// Store persists readings in a SQLite database, grouped by run.
type Store struct {
	db    *sql.DB
	runID string
}

// OpenStore opens (creating if needed) the database at path. Records added
// through the returned Store belong to runID.
func OpenStore(path, runID string) (*Store, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, runID: runID}, nil
}

// OpenReadings opens an existing database for browsing its runs. The returned
// Store cannot add records.
func OpenReadings(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("readings db: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open readings db: %w", err)
	}
	// set busy timeout to avoid transient locks when another process reads the db
	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create readings table: %w", err)
	}
	return db, nil
}

// RunID returns the run this Store writes to.
func (s *Store) RunID() string {
	return s.runID
}

const insertReading = `INSERT INTO readings (run_id, frame, speed, time) VALUES (?, ?, ?, ?)`

var errNoRun = errors.New("store was opened without a run id")

// Add inserts rec for the current run.
func (s *Store) Add(rec Record) error {
	if s.runID == "" {
		return errNoRun
	}
	if _, err := s.db.Exec(insertReading, s.runID, rec.Frame, rec.Speed, rec.Time); err != nil {
		return fmt.Errorf("failed to store frame %d: %w", rec.Frame, err)
	}
	return nil
}

// AddAll inserts records for the current run in a single transaction. On error
// nothing is stored.
func (s *Store) AddAll(records []Record) error {
	if s.runID == "" {
		return errNoRun
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertReading)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(s.runID, rec.Frame, rec.Speed, rec.Time); err != nil {
			return fmt.Errorf("failed to store frame %d: %w", rec.Frame, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit readings: %w", err)
	}
	return nil
}

// Records returns the readings of runID in frame order.
func (s *Store) Records(runID string) ([]Record, error) {
	rows, err := s.db.Query(`SELECT frame, speed, time FROM readings WHERE run_id = ? ORDER BY frame`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Frame, &r.Speed, &r.Time); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists the run ids in the database.
func (s *Store) Runs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT run_id FROM readings ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
