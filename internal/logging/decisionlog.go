// Package logging persists gate decisions to SQLite for inspection and
// replay fixture export.
package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	stream_id      TEXT NOT NULL,
	step_id        TEXT NOT NULL,
	candidate      TEXT,
	breakdown_json TEXT NOT NULL,
	norm_logit     REAL NOT NULL,
	entropy        REAL,
	resonance_min  REAL NOT NULL,
	norm_logit_max REAL NOT NULL,
	open           INTEGER NOT NULL,
	emit           INTEGER NOT NULL,
	reason         TEXT,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_stream ON decision_log(stream_id, id);
`

// #endregion schema

// #region store

// DecisionLog manages the decision_log table in SQLite.
type DecisionLog struct {
	db *sql.DB
}

// Open opens (or creates) a decision log database and runs migrations.
func Open(dbPath string) (*DecisionLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DecisionLog{db: db}, nil
}

// Close closes the underlying database connection.
func (l *DecisionLog) Close() error {
	return l.db.Close()
}

// DB exposes the underlying handle for commands that query directly.
func (l *DecisionLog) DB() *sql.DB {
	return l.db
}

// #endregion store

// #region log

// Log writes one decision entry.
func (l *DecisionLog) Log(entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	breakdownJSON, err := json.Marshal(entry.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	var entropy interface{}
	if entry.Entropy != nil {
		entropy = float64(*entry.Entropy)
	}

	_, err = l.db.Exec(
		`INSERT INTO decision_log
		 (stream_id, step_id, candidate, breakdown_json, norm_logit, entropy,
		  resonance_min, norm_logit_max, open, emit, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.StreamID,
		entry.StepID,
		nullIfEmpty(entry.Candidate),
		string(breakdownJSON),
		entry.NormLogit,
		entropy,
		entry.ResonanceMin,
		entry.NormLogitMax,
		boolToInt(entry.Open),
		boolToInt(entry.Emit),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log

// #region recent

// Recent returns the n most recent entries, newest first.
func (l *DecisionLog) Recent(n int) ([]DecisionEntry, error) {
	rows, err := l.db.Query(
		`SELECT stream_id, step_id, COALESCE(candidate, ''), breakdown_json,
		        norm_logit, entropy, resonance_min, norm_logit_max,
		        open, emit, COALESCE(reason, ''), created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var (
			e             DecisionEntry
			breakdownJSON string
			entropy       sql.NullFloat64
			open, emit    int
			createdAt     string
		)
		if err := rows.Scan(&e.StreamID, &e.StepID, &e.Candidate, &breakdownJSON,
			&e.NormLogit, &entropy, &e.ResonanceMin, &e.NormLogitMax,
			&open, &emit, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &e.Breakdown); err != nil {
			return nil, fmt.Errorf("parse breakdown: %w", err)
		}
		if entropy.Valid {
			v := float32(entropy.Float64)
			e.Entropy = &v
		}
		e.Open = open != 0
		e.Emit = emit != 0
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		e.CreatedAt = ts
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion recent

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
