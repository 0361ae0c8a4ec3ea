// internal/store/sqlite.go
//
// SQLite backend: a single-file deployment without external services.
// Seasons store dates as RFC3339 UTC text; leaderboard.updated_at is Unix
// nanoseconds so ties rank by the moment a score was reached.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/robalobadob/sealhunt/assets"
	"github.com/robalobadob/sealhunt/internal/leaderboard"
	"github.com/robalobadob/sealhunt/internal/player"
	"github.com/robalobadob/sealhunt/internal/season"
)

type SQLite struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenSQLite opens the database at path and applies the embedded migrations.
func OpenSQLite(ctx context.Context, path string, queryTimeout time.Duration) (*SQLite, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	fsys, err := assets.Migrations("sqlite")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrateSQLite(ctx, db, fsys); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db, timeout: queryTimeout}, nil
}

// DB exposes the handle for pool statistics.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error { return s.db.Close() }

/* ------------------------------- seasons -------------------------------- */

const sqliteSeasonCols = `id, name, start_date, end_date, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSeason(row rowScanner) (season.Season, error) {
	var (
		s                   season.Season
		start, end, created string
	)
	if err := row.Scan(&s.ID, &s.Name, &start, &end, &s.IsActive, &created); err != nil {
		return season.Season{}, err
	}
	var err error
	if s.StartDate, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return season.Season{}, fmt.Errorf("season %s start_date: %w", s.ID, err)
	}
	if s.EndDate, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return season.Season{}, fmt.Errorf("season %s end_date: %w", s.ID, err)
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return season.Season{}, fmt.Errorf("season %s created_at: %w", s.ID, err)
	}
	return s, nil
}

func sqliteTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func (s *SQLite) Seasons(ctx context.Context) ([]season.Season, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteSeasonCols+` FROM seasons`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	out := []season.Season{}
	for rows.Next() {
		se, err := scanSQLiteSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, se)
	}
	return out, rows.Err()
}

func (s *SQLite) Season(ctx context.Context, id string) (season.Season, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.querySeason(ctx, `SELECT `+sqliteSeasonCols+` FROM seasons WHERE id=?`, id)
}

func (s *SQLite) ActiveSeason(ctx context.Context) (season.Season, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.querySeason(ctx, `SELECT `+sqliteSeasonCols+` FROM seasons WHERE is_active=1 LIMIT 1`)
}

func (s *SQLite) querySeason(ctx context.Context, query string, args ...any) (season.Season, error) {
	se, err := scanSQLiteSeason(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return season.Season{}, season.ErrNotFound
	}
	if err != nil {
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	return se, nil
}

func (s *SQLite) CreateSeason(ctx context.Context, se season.Season) error {
	return s.writeSeason(ctx, se, `
        INSERT INTO seasons (id, name, start_date, end_date, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`)
}

func (s *SQLite) PutSeason(ctx context.Context, se season.Season) error {
	return s.writeSeason(ctx, se, `
        INSERT INTO seasons (id, name, start_date, end_date, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name=excluded.name,
            start_date=excluded.start_date,
            end_date=excluded.end_date,
            is_active=excluded.is_active`)
}

// writeSeason runs an insert, first deactivating the other seasons when se
// is active. Both statements share one transaction.
func (s *SQLite) writeSeason(ctx context.Context, se season.Season, insert string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if se.IsActive {
		if _, err := tx.ExecContext(ctx, `UPDATE seasons SET is_active=0 WHERE is_active=1 AND id<>?`, se.ID); err != nil {
			return fmt.Errorf("deactivate seasons: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, insert,
		se.ID, se.Name, sqliteTime(se.StartDate), sqliteTime(se.EndDate), se.IsActive, sqliteTime(se.CreatedAt))
	if err != nil {
		if isSQLiteConflict(err) {
			return season.ErrConflict
		}
		return fmt.Errorf("write season %s: %w", se.ID, err)
	}
	return tx.Commit()
}

func isSQLiteConflict(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

/* ----------------------------- leaderboards ----------------------------- */

const sqliteUpsertScore = `
        INSERT INTO leaderboard (season_id, player_id, score, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(season_id, player_id) DO UPDATE SET
            score=excluded.score,
            updated_at=excluded.updated_at`

func (s *SQLite) RecordScore(ctx context.Context, seasonID, playerID string, score int) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, sqliteUpsertScore, seasonID, playerID, score, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

// RecordBest is a single upsert whose update only fires for a higher score.
func (s *SQLite) RecordBest(ctx context.Context, seasonID, playerID string, score int) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.db.ExecContext(ctx, sqliteUpsertScore+`
        WHERE excluded.score > leaderboard.score`,
		seasonID, playerID, score, time.Now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("record best: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record best: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) BestScore(ctx context.Context, seasonID, playerID string) (int, bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM leaderboard WHERE season_id=? AND player_id=?`, seasonID, playerID,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("best score: %w", err)
	}
	return score, true, nil
}

func (s *SQLite) Top(ctx context.Context, seasonID string, offset, limit int) ([]leaderboard.Ranked, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
        SELECT player_id, score
        FROM leaderboard
        WHERE season_id=?
        ORDER BY score DESC, updated_at ASC, player_id ASC
        LIMIT ? OFFSET ?`, seasonID, limit, offset,
	)
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

func (s *SQLite) Count(ctx context.Context, seasonID string) (int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM leaderboard WHERE season_id=?`, seasonID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

/* ------------------------------ identities ------------------------------ */

func (s *SQLite) Identity(ctx context.Context, playerID string) (player.Identity, bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	id := player.Identity{ID: playerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT username, first_name, last_name, photo_url FROM players WHERE id=?`, playerID,
	).Scan(&id.Username, &id.FirstName, &id.LastName, &id.PhotoURL)
	if errors.Is(err, sql.ErrNoRows) {
		return player.Identity{}, false, nil
	}
	if err != nil {
		return player.Identity{}, false, fmt.Errorf("identity: %w", err)
	}
	return id, true, nil
}

// SetIdentityIfAbsent relies on INSERT OR IGNORE: an existing row wins.
func (s *SQLite) SetIdentityIfAbsent(ctx context.Context, id player.Identity) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO players (id, username, first_name, last_name, photo_url, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		id.ID, id.Username, id.FirstName, id.LastName, id.PhotoURL, sqliteTime(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("set identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set identity: %w", err)
	}
	return n > 0, nil
}
