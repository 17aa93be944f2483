// Package cmd wires shared infrastructure for the flowline binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/meridianhq/flowline/pkg/persistence"
	"github.com/meridianhq/flowline/pkg/persistence/file"
	"github.com/meridianhq/flowline/pkg/persistence/postgresql"
	"github.com/meridianhq/flowline/pkg/persistence/redis"
)

// NewPersistence selects the storage backend from the database URL scheme:
// postgres://, redis://, anything else is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return redis.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL)
	}
}
