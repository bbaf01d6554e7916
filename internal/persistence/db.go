// Package persistence provides the SQLite match journal: one row per match,
// a msgpack snapshot per turn, and the decisions and events of every turn.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/talgya/broadside/internal/decision"
	"github.com/talgya/broadside/internal/engine"
	"github.com/talgya/broadside/internal/protocol"
)

// Match sources.
const (
	SourceBot   = "bot"
	SourceArena = "arena"
)

// DB wraps a SQLite connection for the match journal.
type DB struct {
	conn *sqlx.DB
}

// MatchRecord is one row of the matches table.
type MatchRecord struct {
	ID        string `db:"id"`
	Source    string `db:"source"`
	Seed      int64  `db:"seed"`
	StartedAt int64  `db:"started_at"` // unix seconds
	Turns     int    `db:"turns"`
	Winner    *int   `db:"winner"` // nil until finished; engine.Draw for a draw
}

// Started returns StartedAt as a time.
func (m MatchRecord) Started() time.Time {
	return time.Unix(m.StartedAt, 0)
}

// DecisionRecord is one journaled unit decision.
type DecisionRecord struct {
	Turn      int    `db:"turn"`
	UnitID    int    `db:"unit_id"`
	TargetCol int    `db:"target_col"`
	TargetRow int    `db:"target_row"`
	Explore   bool   `db:"explore"`
	Gain      int    `db:"gain"`
	Steps     int    `db:"steps"`
	Expanded  int    `db:"expanded"`
	Command   string `db:"command"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		turns INTEGER NOT NULL DEFAULT 0,
		winner INTEGER
	);

	CREATE TABLE IF NOT EXISTS turns (
		match_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		snapshot BLOB NOT NULL,
		PRIMARY KEY (match_id, turn)
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		unit_id INTEGER NOT NULL,
		target_col INTEGER NOT NULL,
		target_row INTEGER NOT NULL,
		explore INTEGER NOT NULL,
		gain INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		expanded INTEGER NOT NULL,
		command TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		unit_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_match_turn ON decisions(match_id, turn);
	CREATE INDEX IF NOT EXISTS idx_events_match ON events(match_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginMatch records a new match and returns its id.
func (db *DB) BeginMatch(source string, seed int64) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.conn.Exec(
		"INSERT INTO matches (id, source, seed, started_at) VALUES (?, ?, ?, ?)",
		id.String(), source, seed, time.Now().Unix(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin match: %w", err)
	}
	slog.Info("journal match started", "match", id, "source", source, "seed", seed)
	return id, nil
}

// FinishMatch stores the final turn count and, when known, the winner.
func (db *DB) FinishMatch(matchID uuid.UUID, turns int, winner *int) error {
	var w any
	if winner != nil {
		w = *winner
	}
	res, err := db.conn.Exec(
		"UPDATE matches SET turns = ?, winner = ? WHERE id = ?",
		turns, w, matchID.String(),
	)
	if err != nil {
		return fmt.Errorf("finish match %s: %w", matchID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish match %s: no such match", matchID)
	}
	return nil
}

// SaveTurn stores the snapshot of one turn, replacing any earlier one.
func (db *DB) SaveTurn(matchID uuid.UUID, turn int, snapshot protocol.Turn) error {
	blob, err := msgpack.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("encode turn %d: %w", turn, err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO turns (match_id, turn, snapshot) VALUES (?, ?, ?)",
		matchID.String(), turn, blob,
	)
	if err != nil {
		return fmt.Errorf("save turn %d: %w", turn, err)
	}
	return nil
}

// LoadTurn returns a stored snapshot. A missing turn yields an error
// wrapping sql.ErrNoRows.
func (db *DB) LoadTurn(matchID uuid.UUID, turn int) (protocol.Turn, error) {
	var t protocol.Turn
	var blob []byte
	err := db.conn.Get(&blob, "SELECT snapshot FROM turns WHERE match_id = ? AND turn = ?", matchID.String(), turn)
	if err != nil {
		return t, fmt.Errorf("load turn %d: %w", turn, err)
	}
	if err := msgpack.Unmarshal(blob, &t); err != nil {
		return t, fmt.Errorf("decode turn %d: %w", turn, err)
	}
	return t, nil
}

// SaveDecisions appends the orders issued on one turn.
func (db *DB) SaveDecisions(matchID uuid.UUID, turn int, orders []decision.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO decisions
		(match_id, turn, unit_id, target_col, target_row, explore, gain, steps, expanded, command)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range orders {
		explore := 0
		if o.Explore {
			explore = 1
		}
		_, err := stmt.Exec(
			matchID.String(), turn, o.UnitID, o.Target.Col, o.Target.Row,
			explore, o.Plan.Gain, len(o.Plan.Actions), o.Plan.Expanded, o.Command.String(),
		)
		if err != nil {
			return fmt.Errorf("insert decision for unit %d: %w", o.UnitID, err)
		}
	}

	return tx.Commit()
}

// Decisions returns the orders journaled for one turn, in insertion order.
func (db *DB) Decisions(matchID uuid.UUID, turn int) ([]DecisionRecord, error) {
	var out []DecisionRecord
	err := db.conn.Select(&out, `SELECT turn, unit_id, target_col, target_row, explore, gain, steps, expanded, command
		FROM decisions WHERE match_id = ? AND turn = ? ORDER BY id`,
		matchID.String(), turn,
	)
	return out, err
}

// SaveEvents appends match events.
func (db *DB) SaveEvents(matchID uuid.UUID, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (match_id, turn, unit_id, description, category) VALUES (?, ?, ?, ?, ?)",
			matchID.String(), e.Turn, e.UnitID, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events of a match, newest first.
func (db *DB) RecentEvents(matchID uuid.UUID, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT turn, unit_id, description, category FROM events WHERE match_id = ? ORDER BY id DESC LIMIT ?",
		matchID.String(), limit,
	)
	return events, err
}

// RecentMatches returns the most recent N matches, newest first.
func (db *DB) RecentMatches(limit int) ([]MatchRecord, error) {
	var matches []MatchRecord
	err := db.conn.Select(&matches,
		"SELECT id, source, seed, started_at, turns, winner FROM matches ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return matches, err
}
