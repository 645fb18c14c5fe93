package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresRepository{db: db}, nil
}

// IsPostgresURL reports whether dsn is a postgres connection URL.
func IsPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func migrate(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id UUID PRIMARY KEY,
		code VARCHAR(8) NOT NULL UNIQUE,
		target_url TEXT NOT NULL,
		clicks BIGINT NOT NULL DEFAULT 0 CHECK (clicks >= 0),
		last_clicked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at DESC);
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *PostgresRepository) Insert(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (id, code, target_url, clicks, last_clicked_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	truncateTimes(link)
	var lastClicked sql.NullTime
	if link.LastClickedAt != nil {
		lastClicked = sql.NullTime{Time: *link.LastClickedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.Code, link.TargetURL, link.Clicks, lastClicked, link.CreatedAt, link.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "links_code_key" {
		return domain.ErrCodeConflict
	}
	return err
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT id, code, target_url, clicks, last_clicked_at, created_at, updated_at
			  FROM links WHERE code = $1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return link, err
}

func (r *PostgresRepository) List(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT id, code, target_url, clicks, last_clicked_at, created_at, updated_at
			  FROM links ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE code = $1`, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordHit increments the counter server-side under the row lock taken by UPDATE.
func (r *PostgresRepository) RecordHit(ctx context.Context, code string, at time.Time) (string, error) {
	at = at.Truncate(time.Microsecond)
	query := `UPDATE links SET clicks = clicks + 1, last_clicked_at = $1, updated_at = $1
			  WHERE code = $2 RETURNING target_url`

	var target string
	err := r.db.QueryRowContext(ctx, query, at, code).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return target, err
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Truncate removes every link. Used by tests sharing one database.
func (r *PostgresRepository) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE links`)
	return err
}

// truncateTimes drops what TIMESTAMPTZ cannot hold, so the caller's link matches what is stored.
// Postgres would otherwise round to the nearest microsecond.
func truncateTimes(link *domain.Link) {
	link.CreatedAt = link.CreatedAt.Truncate(time.Microsecond)
	link.UpdatedAt = link.UpdatedAt.Truncate(time.Microsecond)
	if link.LastClickedAt != nil {
		t := link.LastClickedAt.Truncate(time.Microsecond)
		link.LastClickedAt = &t
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (*domain.Link, error) {
	var (
		l           domain.Link
		lastClicked sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.Code, &l.TargetURL, &l.Clicks, &lastClicked, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	if lastClicked.Valid {
		t := lastClicked.Time.UTC()
		l.LastClickedAt = &t
	}
	return &l, nil
}

var _ ports.LinkRepository = (*PostgresRepository)(nil)
