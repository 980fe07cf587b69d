// Package migration creates the catalog schema on first start.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docvault/internal/logger"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            BIGSERIAL   PRIMARY KEY,
  username      TEXT        NOT NULL,
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id          BIGSERIAL   PRIMARY KEY,
  owner_id    BIGINT      NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  file_name   TEXT        NOT NULL,
  file_type   TEXT        NOT NULL,
  category    TEXT        NOT NULL,
  file_size   BIGINT      NOT NULL CHECK (file_size >= 0),
  storage_key TEXT        NOT NULL UNIQUE,
  tags        JSONB       NOT NULL DEFAULT '[]'::jsonb,
  upload_date TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner_upload_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_upload_date ON documents (owner_id, upload_date DESC);`,
	},
	{
		Name: "create_index_documents_owner_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_category ON documents (owner_id, lower(category));`,
	},
}

// EnsureMigrated runs every step unless the documents table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	log = logger.OrNop(log).Named("migration").With(zap.String("db_host", dbHost))
	start := time.Now()

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass('public.documents') IS NOT NULL").Scan(&exists)
	if err != nil {
		log.Error("db migration failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration", zap.Duration("duration", time.Since(start)))
		return nil
	}

	log.Info("db migration start", zap.Int("steps", len(steps)))
	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db migration failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Debug("db migration step",
			zap.String("migration_step", step.Name),
			zap.Duration("step_duration", time.Since(stepStart)),
		)
	}

	log.Info("db migration success", zap.Duration("duration", time.Since(start)))
	return nil
}
