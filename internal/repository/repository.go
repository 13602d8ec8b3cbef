// Package repository stores finished match results in Postgres.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/match"
)

const schema = `CREATE TABLE IF NOT EXISTS match_results (
    room_id     TEXT PRIMARY KEY,
    white_id    TEXT NOT NULL,
    black_id    TEXT NOT NULL,
    winner      TEXT NOT NULL,
    result      TEXT NOT NULL,
    reason      TEXT NOT NULL,
    turns       INTEGER NOT NULL,
    moves       JSONB NOT NULL,
    notation    TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL
)`

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the results table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveResult upserts the final result of a match.
func (r *Repository) SaveResult(ctx context.Context, rec match.Record) error {
	if r == nil || r.db == nil {
		return nil
	}
	moves, err := json.Marshal(rec.Moves)
	if err != nil {
		return fmt.Errorf("encode moves: %w", err)
	}
	duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO match_results (
        room_id, white_id, black_id, winner, result, reason, turns,
        moves, notation, started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
      ) ON CONFLICT (room_id) DO UPDATE SET
        winner=EXCLUDED.winner,
        result=EXCLUDED.result,
        reason=EXCLUDED.reason,
        turns=EXCLUDED.turns,
        moves=EXCLUDED.moves,
        notation=EXCLUDED.notation,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		rec.RoomID, rec.White, rec.Black,
		rec.Winner.String(), ResultToken(rec.Winner), string(rec.Reason), rec.Turns,
		string(moves), Transcript(rec.Moves),
		rec.StartedAt, rec.EndedAt, duration,
	)
	return err
}

// ResultToken is the PGN-style score for a win by winner.
func ResultToken(winner board.Color) string {
	if winner == board.Black {
		return "0-1"
	}
	return "1-0"
}
