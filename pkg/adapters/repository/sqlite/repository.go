package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"modernc.org/sqlite"                                  // Local SQLite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens a local SQLite database, or a remote libsql one for
// libsql:// and wss:// URLs, and migrates the schema.
func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if IsRemoteURL(dbURL) {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	// A single local connection serialises writers instead of surfacing SQLITE_BUSY
	// under concurrent hits, and keeps in-memory databases alive.
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

// IsRemoteURL reports whether dbURL points at a libsql server.
func IsRemoteURL(dbURL string) bool {
	return strings.HasPrefix(dbURL, "libsql://") || strings.HasPrefix(dbURL, "wss://")
}

// Timestamps are stored as unix nanoseconds so ordering is exact.
func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		target_url TEXT NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0,
		last_clicked_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Insert(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (id, code, target_url, clicks, last_clicked_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.Code, link.TargetURL, link.Clicks,
		toNullNanos(link.LastClickedAt), link.CreatedAt.UnixNano(), link.UpdatedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
		return domain.ErrCodeConflict
	}
	return err
}

func (r *SQLiteRepository) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT id, code, target_url, clicks, last_clicked_at, created_at, updated_at
			  FROM links WHERE code = ?`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT id, code, target_url, clicks, last_clicked_at, created_at, updated_at
			  FROM links ORDER BY created_at DESC, rowid DESC`

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

func (r *SQLiteRepository) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE code = ?`, code)
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

// RecordHit increments the counter in a single statement; the row is never read into Go first.
func (r *SQLiteRepository) RecordHit(ctx context.Context, code string, at time.Time) (string, error) {
	query := `UPDATE links SET clicks = clicks + 1, last_clicked_at = ?, updated_at = ?
			  WHERE code = ? RETURNING target_url`

	var target string
	err := r.db.QueryRowContext(ctx, query, at.UnixNano(), at.UnixNano(), code).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (*domain.Link, error) {
	var (
		l                    domain.Link
		lastClicked          sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&l.ID, &l.Code, &l.TargetURL, &l.Clicks, &lastClicked, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	l.CreatedAt = fromNanos(createdAt)
	l.UpdatedAt = fromNanos(updatedAt)
	if lastClicked.Valid {
		t := fromNanos(lastClicked.Int64)
		l.LastClickedAt = &t
	}
	return &l, nil
}

func toNullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || serr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	// libsql reports constraint errors as text only
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
