package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/cheese-solo/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS solo_games (
	game_id       TEXT PRIMARY KEY,
	player_color  TEXT NOT NULL,
	result        TEXT NOT NULL,
	winner        TEXT NOT NULL DEFAULT '',
	result_method TEXT NOT NULL DEFAULT '',
	moves_uci     JSONB NOT NULL,
	moves_san     JSONB NOT NULL,
	pgn           TEXT NOT NULL,
	final_fen     TEXT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL
)`

const upsertSQL = `
INSERT INTO solo_games (
	game_id, player_color, result, winner, result_method,
	moves_uci, moves_san, pgn, final_fen,
	started_at, ended_at, duration_ms
) VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7::jsonb,$8,$9,$10,$11,$12)
ON CONFLICT (game_id) DO UPDATE SET
	player_color=EXCLUDED.player_color,
	result=EXCLUDED.result,
	winner=EXCLUDED.winner,
	result_method=EXCLUDED.result_method,
	moves_uci=EXCLUDED.moves_uci,
	moves_san=EXCLUDED.moves_san,
	pgn=EXCLUDED.pgn,
	final_fen=EXCLUDED.final_fen,
	started_at=EXCLUDED.started_at,
	ended_at=EXCLUDED.ended_at,
	duration_ms=EXCLUDED.duration_ms`

const recentSQL = `
SELECT game_id, player_color, result, winner, result_method,
	moves_uci, moves_san, pgn, final_fen, started_at, ended_at
FROM solo_games
ORDER BY ended_at DESC, game_id DESC
LIMIT $1`

type postgres struct {
	db *sql.DB
}

// NewPostgres opens databaseURL, pings it and creates the table if missing.
func NewPostgres(databaseURL string) (Sink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create solo_games: %w", err)
	}
	return &postgres{db: db}, nil
}

func (p *postgres) Save(ctx context.Context, rec domain.GameRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	args, err := upsertArgs(rec)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, upsertSQL, args...); err != nil {
		return fmt.Errorf("upsert game %s: %w", rec.ID, err)
	}
	return nil
}

func upsertArgs(rec domain.GameRecord) ([]any, error) {
	movesUCI, err := json.Marshal(nonNil(rec.MovesUCI))
	if err != nil {
		return nil, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(rec.MovesSAN))
	if err != nil {
		return nil, fmt.Errorf("marshal moves_san: %w", err)
	}
	return []any{
		rec.ID, string(rec.PlayerColor), rec.Result, string(rec.Winner), strings.TrimSpace(rec.Method),
		string(movesUCI), string(movesSAN), rec.PGN, rec.FEN,
		rec.StartedAt, rec.EndedAt, rec.Duration().Milliseconds(),
	}, nil
}

func (p *postgres) Recent(ctx context.Context, limit int) ([]domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent games: %w", err)
	}
	defer rows.Close()

	var out []domain.GameRecord
	for rows.Next() {
		var (
			rec                domain.GameRecord
			color, winner      string
			movesUCI, movesSAN []byte
		)
		if err := rows.Scan(&rec.ID, &color, &rec.Result, &winner, &rec.Method,
			&movesUCI, &movesSAN, &rec.PGN, &rec.FEN, &rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.PlayerColor = domain.Color(color)
		rec.Winner = domain.Color(winner)
		if err := json.Unmarshal(movesUCI, &rec.MovesUCI); err != nil {
			return nil, fmt.Errorf("decode moves_uci: %w", err)
		}
		if err := json.Unmarshal(movesSAN, &rec.MovesSAN); err != nil {
			return nil, fmt.Errorf("decode moves_san: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
