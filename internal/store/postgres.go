package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/robalobadob/sealhunt/assets"
	"github.com/robalobadob/sealhunt/internal/leaderboard"
	"github.com/robalobadob/sealhunt/internal/player"
	"github.com/robalobadob/sealhunt/internal/season"
)

// Postgres is the Backend for multi-instance deployments.
type Postgres struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// OpenPostgres connects to url and applies the embedded migrations.
func OpenPostgres(ctx context.Context, url string, queryTimeout time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	pg, err := NewPostgres(ctx, pool, queryTimeout)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return pg, nil
}

// NewPostgres wraps an existing pool, migrating it first.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, queryTimeout time.Duration) (*Postgres, error) {
	fsys, err := assets.Migrations("postgres")
	if err != nil {
		return nil, err
	}
	if err := migratePostgres(ctx, pool, fsys); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &Postgres{pool: pool, queryTimeout: queryTimeout}, nil
}

// Pool exposes the pool for metrics collection.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

/* ------------------------------- seasons -------------------------------- */

const pgSeasonCols = `id, name, start_date, end_date, is_active, created_at`

func scanPgSeason(row pgx.Row) (season.Season, error) {
	var s season.Season
	if err := row.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.IsActive, &s.CreatedAt); err != nil {
		return season.Season{}, err
	}
	s.StartDate, s.EndDate, s.CreatedAt = s.StartDate.UTC(), s.EndDate.UTC(), s.CreatedAt.UTC()
	return s, nil
}

func (p *Postgres) Seasons(ctx context.Context) ([]season.Season, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, `SELECT `+pgSeasonCols+` FROM seasons`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	out := []season.Season{}
	for rows.Next() {
		s, err := scanPgSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Season(ctx context.Context, id string) (season.Season, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	return p.querySeason(ctx, `SELECT `+pgSeasonCols+` FROM seasons WHERE id = $1`, id)
}

func (p *Postgres) ActiveSeason(ctx context.Context) (season.Season, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	return p.querySeason(ctx, `SELECT `+pgSeasonCols+` FROM seasons WHERE is_active LIMIT 1`)
}

func (p *Postgres) querySeason(ctx context.Context, query string, args ...any) (season.Season, error) {
	s, err := scanPgSeason(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return season.Season{}, season.ErrNotFound
		}
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	return s, nil
}

func (p *Postgres) CreateSeason(ctx context.Context, s season.Season) error {
	return p.writeSeason(ctx, s, `
		INSERT INTO seasons (id, name, start_date, end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
}

func (p *Postgres) PutSeason(ctx context.Context, s season.Season) error {
	return p.writeSeason(ctx, s, `
		INSERT INTO seasons (id, name, start_date, end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			is_active = EXCLUDED.is_active
	`)
}

// writeSeason deactivates the other seasons before writing an active one.
// The partial unique index is checked per statement, so the order matters.
func (p *Postgres) writeSeason(ctx context.Context, s season.Season, insert string) error {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if s.IsActive {
			if _, err := tx.Exec(ctx, `UPDATE seasons SET is_active = FALSE WHERE is_active AND id <> $1`, s.ID); err != nil {
				return fmt.Errorf("deactivate seasons: %w", err)
			}
		}
		_, err := tx.Exec(ctx, insert, s.ID, s.Name, s.StartDate, s.EndDate, s.IsActive, s.CreatedAt)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return season.ErrConflict
		}
		return fmt.Errorf("write season %s: %w", s.ID, err)
	}
	return nil
}

/* ----------------------------- leaderboards ----------------------------- */

const pgUpsertScore = `
		INSERT INTO leaderboard (season_id, player_id, score, updated_at)
		VALUES ($1, $2, $3, clock_timestamp())
		ON CONFLICT (season_id, player_id) DO UPDATE SET
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at
`

func (p *Postgres) RecordScore(ctx context.Context, seasonID, playerID string, score int) error {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	if _, err := p.pool.Exec(ctx, pgUpsertScore, seasonID, playerID, score); err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

// RecordBest is a single upsert whose update only fires for a higher score.
func (p *Postgres) RecordBest(ctx context.Context, seasonID, playerID string, score int) (bool, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	tag, err := p.pool.Exec(ctx, pgUpsertScore+`		WHERE EXCLUDED.score > leaderboard.score`, seasonID, playerID, score)
	if err != nil {
		return false, fmt.Errorf("record best: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) BestScore(ctx context.Context, seasonID, playerID string) (int, bool, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	var score int
	err := p.pool.QueryRow(ctx,
		`SELECT score FROM leaderboard WHERE season_id = $1 AND player_id = $2`, seasonID, playerID,
	).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("best score: %w", err)
	}
	return score, true, nil
}

func (p *Postgres) Top(ctx context.Context, seasonID string, offset, limit int) ([]leaderboard.Ranked, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	rows, err := p.pool.Query(ctx, `
		SELECT player_id, score
		FROM leaderboard
		WHERE season_id = $1
		ORDER BY score DESC, updated_at ASC, player_id ASC
		LIMIT $2 OFFSET $3
	`, seasonID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("top: %w", err)
	}
	defer rows.Close()

	out := make([]leaderboard.Ranked, 0, limit)
	for rows.Next() {
		var r leaderboard.Ranked
		if err := rows.Scan(&r.PlayerID, &r.Score); err != nil {
			return nil, fmt.Errorf("scan top: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Count(ctx context.Context, seasonID string) (int, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leaderboard WHERE season_id = $1`, seasonID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

/* ------------------------------ identities ------------------------------ */

func (p *Postgres) Identity(ctx context.Context, playerID string) (player.Identity, bool, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	id := player.Identity{ID: playerID}
	err := p.pool.QueryRow(ctx,
		`SELECT username, first_name, last_name, photo_url FROM players WHERE id = $1`, playerID,
	).Scan(&id.Username, &id.FirstName, &id.LastName, &id.PhotoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return player.Identity{}, false, nil
		}
		return player.Identity{}, false, fmt.Errorf("identity: %w", err)
	}
	return id, true, nil
}

func (p *Postgres) SetIdentityIfAbsent(ctx context.Context, id player.Identity) (bool, error) {
	ctx, cancel := withTimeout(ctx, p.queryTimeout)
	defer cancel()
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO players (id, username, first_name, last_name, photo_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, id.ID, id.Username, id.FirstName, id.LastName, id.PhotoURL)
	if err != nil {
		return false, fmt.Errorf("set identity: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
