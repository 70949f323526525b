package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// LeaderboardRow is a client's best recorded round score.
type LeaderboardRow struct {
	ClientID uint64 `json:"client_id"`
	Best     int64  `json:"best"`
	Rounds   int    `json:"rounds"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		client_id INTEGER,
		round_id TEXT,
		value INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		winner INTEGER,
		winner_score INTEGER NOT NULL DEFAULT 0,
		ended_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS round_scores (
		round_id TEXT NOT NULL REFERENCES rounds(id),
		client_id INTEGER NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (round_id, client_id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	CREATE INDEX IF NOT EXISTS idx_round_scores_client ON round_scores(client_id);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		Log.Errorw("db migration", "err", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// insertEvent writes one journal row inside tx.
func insertEvent(tx *sql.Tx, evt JournalEvent) error {
	cid := sql.NullInt64{Int64: int64(evt.ClientID), Valid: evt.Type != EvtGameStart}
	rid := sql.NullString{String: evt.RoundID, Valid: evt.RoundID != ""}
	_, err := tx.Exec(
		"INSERT INTO events (event_type, client_id, round_id, value, created_at) VALUES (?, ?, ?, ?, ?)",
		evt.Type, cid, rid, evt.Value, evt.Timestamp.Format(time.RFC3339Nano),
	)
	return err
}

// insertRound records a finished round and every participant's score.
func insertRound(tx *sql.Tx, evt JournalEvent) error {
	winner := sql.NullInt64{Int64: int64(evt.ClientID), Valid: len(evt.Scores) > 0}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO rounds (id, winner, winner_score, ended_at) VALUES (?, ?, ?, ?)",
		evt.RoundID, winner, evt.Value, evt.Timestamp.Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	for id, score := range evt.Scores {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO round_scores (round_id, client_id, score) VALUES (?, ?, ?)",
			evt.RoundID, int64(id), score,
		); err != nil {
			return err
		}
	}
	return nil
}

// Leaderboard returns the best scores seen per client, counting finished
// rounds and players who left mid-round.
func (db *DB) Leaderboard(limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := db.conn.Query(`
		SELECT client_id, MAX(score) AS best, COUNT(*) AS rounds FROM (
			SELECT client_id, score FROM round_scores
			UNION ALL
			SELECT client_id, value FROM events
			WHERE event_type = ? AND round_id IS NOT NULL
		)
		GROUP BY client_id
		ORDER BY best DESC, client_id ASC
		LIMIT ?`, EvtDisconnect, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		var cid int64
		if err := rows.Scan(&cid, &r.Best, &r.Rounds); err != nil {
			return nil, err
		}
		r.ClientID = uint64(cid)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountEvents returns how many events of the given type were journaled.
func (db *DB) CountEvents(eventType string) (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM events WHERE event_type = ?", eventType).Scan(&n)
	return n, err
}
