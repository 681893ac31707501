// Package backend selects a storage implementation from DATABASE_URL.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hongminglow/task-tracker/internal/storage"
	"github.com/hongminglow/task-tracker/internal/storage/memory"
	"github.com/hongminglow/task-tracker/internal/storage/postgres"
	"github.com/hongminglow/task-tracker/internal/storage/sqlite"
)

// Open returns the store named by databaseURL:
//
//	postgres://... or postgresql://...  Postgres via pgx
//	sqlite://path/to/file.db            SQLite file
//	memory://                           process memory, lost on exit
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (storage.Store, error) {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return nil, fmt.Errorf("database url %q has no scheme", redact(databaseURL))
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		store, err := postgres.NewStore(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite", "sqlite3":
		store, err := sqlite.Open(ctx, rest, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// redact drops userinfo and query parameters, the parts that can hold credentials.
func redact(url string) string {
	if i := strings.LastIndex(url, "@"); i >= 0 {
		url = "..." + url[i:]
	}
	if i := strings.Index(url, "?"); i >= 0 {
		url = url[:i] + "?..."
	}
	return url
}
