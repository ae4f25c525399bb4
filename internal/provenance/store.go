// Package provenance persists the agent's experience trail — tick
// snapshots, accumulated experiences, and leap events — in SQLite. The
// core never depends on it; callers wire it in when a durable record is
// wanted.
package provenance

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS ticks (
	tick_id       TEXT PRIMARY KEY,
	tick          INTEGER NOT NULL,
	pressure      REAL NOT NULL,
	temperature   REAL NOT NULL,
	mean_inertia  REAL NOT NULL,
	heat_loss     REAL NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS experience_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	tick_id       TEXT NOT NULL,
	source        TEXT NOT NULL,
	pressure      REAL NOT NULL,
	total_e       REAL NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (tick_id) REFERENCES ticks(tick_id)
);

CREATE TABLE IF NOT EXISTS leap_events (
	event_id      TEXT PRIMARY KEY,
	tick_id       TEXT NOT NULL,
	leap_type     TEXT NOT NULL,
	magnitude     REAL NOT NULL,
	chaos_factor  REAL NOT NULL,
	predictability REAL NOT NULL,
	energy        REAL NOT NULL,
	layers        TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (tick_id) REFERENCES ticks(tick_id)
);
`
// #endregion schema

// #region store-struct
// Store persists the experience trail in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region record-tick
// RecordTick writes one tick snapshot and returns its generated id.
func (s *Store) RecordTick(rec TickRecord) (string, error) {
	id := uuid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO ticks (tick_id, tick, pressure, temperature, mean_inertia, heat_loss, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Tick, rec.Pressure, rec.Temperature, rec.MeanInertia, rec.HeatLoss,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert tick: %w", err)
	}
	return id, nil
}
// #endregion record-tick

// #region append-experience
// AppendExperience writes experience entries under a recorded tick.
func (s *Store) AppendExperience(tickID string, entries []ExperienceRecord) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, entry := range entries {
		_, err := tx.Exec(
			`INSERT INTO experience_log (tick_id, source, pressure, total_e, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			tickID, entry.Source, entry.Pressure, entry.TotalE, now,
		)
		if err != nil {
			return fmt.Errorf("insert experience: %w", err)
		}
	}

	return tx.Commit()
}
// #endregion append-experience

// #region record-leap
// RecordLeap writes one leap event under a recorded tick.
func (s *Store) RecordLeap(tickID string, rec LeapRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	layersJSON, err := json.Marshal(rec.Layers)
	if err != nil {
		return fmt.Errorf("marshal layers: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO leap_events (event_id, tick_id, leap_type, magnitude, chaos_factor, predictability, energy, layers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, tickID, rec.Type, rec.Magnitude, rec.ChaosFactor, rec.Predictability,
		rec.Energy, string(layersJSON), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert leap: %w", err)
	}
	return nil
}
// #endregion record-leap

// #region recent-leaps
// RecentLeaps returns the most recent leap events, newest first.
func (s *Store) RecentLeaps(limit int) ([]LeapRecord, error) {
	rows, err := s.db.Query(
		`SELECT event_id, tick_id, leap_type, magnitude, chaos_factor, predictability, energy, layers, created_at
		 FROM leap_events ORDER BY created_at DESC, event_id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list leaps: %w", err)
	}
	defer rows.Close()

	var records []LeapRecord
	for rows.Next() {
		var rec LeapRecord
		var layersJSON string
		var createdStr string

		if err := rows.Scan(&rec.ID, &rec.TickID, &rec.Type, &rec.Magnitude, &rec.ChaosFactor,
			&rec.Predictability, &rec.Energy, &layersJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(layersJSON), &rec.Layers); err != nil {
			return nil, fmt.Errorf("unmarshal layers: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion recent-leaps
