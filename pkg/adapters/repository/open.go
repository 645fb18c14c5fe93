// Package repository selects a link store from a database URL.
package repository

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/repository/postgres"
	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/repository/redis"
	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

// Open connects to the store addressed by dbURL:
// postgres:// and postgresql:// use Postgres, redis:// and rediss:// use Redis,
// libsql:// and wss:// use a remote libsql server, anything else is a SQLite DSN.
func Open(ctx context.Context, dbURL string) (ports.LinkRepository, error) {
	switch {
	case postgres.IsPostgresURL(dbURL):
		repo, err := postgres.NewPostgresRepository(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return repo, nil
	case redis.IsRedisURL(dbURL):
		repo, err := redis.NewRedisRepository(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		return repo, nil
	default:
		repo, err := sqlite.NewSQLiteRepository(dbURL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return repo, nil
	}
}

// Backend names the store Open would pick, for logging.
func Backend(dbURL string) string {
	switch {
	case postgres.IsPostgresURL(dbURL):
		return "postgres"
	case redis.IsRedisURL(dbURL):
		return "redis"
	case sqlite.IsRemoteURL(dbURL):
		return "libsql"
	default:
		return "sqlite"
	}
}
