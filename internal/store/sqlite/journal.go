// Package sqlite persists emitted signal events so signal history survives
// restarts. The in-memory state machine still starts flat on boot; the
// journal is an audit trail, not recovery state.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"signal-systemv1/internal/model"
)

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// JournalConfig configures the SQLite journal.
type JournalConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"
}

// Journal is a single-writer SQLite store for signal events.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens the journal database with WAL mode and creates the schema.
func New(cfg JournalConfig) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened signal journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signal_events (
			id          TEXT    PRIMARY KEY,
			target_key  TEXT    NOT NULL,
			exchange    TEXT    NOT NULL,
			symbol      TEXT    NOT NULL,
			timeframe   TEXT    NOT NULL,
			signal_type TEXT    NOT NULL,
			price       REAL    NOT NULL,
			bar_ts      INTEGER NOT NULL,
			emitted_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_signal_events_target
			ON signal_events (target_key, emitted_at);
	`)
	return err
}

// Insert journals one event. Replaying the same event ID is a no-op thanks
// to INSERT OR REPLACE.
func (j *Journal) Insert(e model.SignalEvent) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO signal_events
			(id, target_key, exchange, symbol, timeframe, signal_type, price, bar_ts, emitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.Target.Key(), e.Target.Exchange, e.Target.Symbol, e.Target.Timeframe,
		string(e.Type), e.Price, e.BarTime.UnixMilli(), e.EmittedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite insert signal: %w", err)
	}
	return nil
}

// RecentForTarget returns the latest events for a target key, newest first.
func (j *Journal) RecentForTarget(targetKey string, limit int) ([]model.SignalEvent, error) {
	rows, err := j.db.Query(`
		SELECT id, exchange, symbol, timeframe, signal_type, price, bar_ts, emitted_at
		FROM signal_events
		WHERE target_key = ?
		ORDER BY emitted_at DESC
		LIMIT ?
	`, targetKey, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query signals: %w", err)
	}
	defer rows.Close()

	var out []model.SignalEvent
	for rows.Next() {
		var (
			e             model.SignalEvent
			sigType       string
			barMs, emitMs int64
		)
		if err := rows.Scan(&e.ID, &e.Target.Exchange, &e.Target.Symbol, &e.Target.Timeframe,
			&sigType, &e.Price, &barMs, &emitMs); err != nil {
			return nil, fmt.Errorf("sqlite scan signal: %w", err)
		}
		e.Type = model.SignalType(sigType)
		e.BarTime = msToTime(barMs)
		e.EmittedAt = msToTime(emitMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
