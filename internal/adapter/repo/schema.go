package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
	id            uuid PRIMARY KEY,
	kind          text NOT NULL,
	status        text NOT NULL,
	input_json    jsonb NOT NULL DEFAULT '{}'::jsonb,
	result_json   jsonb,
	error_message text NOT NULL DEFAULT '',
	created_at    timestamptz NOT NULL DEFAULT now(),
	updated_at    timestamptz NOT NULL DEFAULT now()
);`,
	`CREATE INDEX IF NOT EXISTS jobs_status_created_idx ON jobs (status, created_at);`,
	`CREATE TABLE IF NOT EXISTS media_assets (
	id           uuid PRIMARY KEY,
	job_id       uuid NOT NULL REFERENCES jobs(id),
	kind         text NOT NULL,
	storage_key  text NOT NULL,
	mime         text NOT NULL,
	width        int NOT NULL DEFAULT 0,
	height       int NOT NULL DEFAULT 0,
	duration_sec int NOT NULL DEFAULT 0,
	bytes        bigint NOT NULL DEFAULT 0,
	created_at   timestamptz NOT NULL DEFAULT now()
);`,
	`CREATE TABLE IF NOT EXISTS oauth_tokens (
	ig_user_id   text PRIMARY KEY,
	access_token text NOT NULL,
	expires_at   timestamptz,
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now()
);`,
	`CREATE TABLE IF NOT EXISTS schedules (
	id         uuid PRIMARY KEY,
	job_id     uuid NOT NULL REFERENCES jobs(id),
	fire_at    timestamptz NOT NULL,
	status     text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);`,
	`CREATE INDEX IF NOT EXISTS schedules_due_idx ON schedules (status, fire_at);`,
}

// EnsureSchema creates the tables this service owns. Schema is an internal
// detail with no external compatibility requirement, so idempotent DDL at
// startup replaces a migration tool.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
