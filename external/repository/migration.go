package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE shift_status AS ENUM ('active', 'paused', 'ended'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN CREATE TYPE loa_status AS ENUM ('pending', 'approved', 'denied'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		guild_id TEXT NOT NULL,
		start_ts BIGINT NOT NULL,
		pause_ts BIGINT NOT NULL DEFAULT 0,
		resume_ts BIGINT NOT NULL DEFAULT 0,
		end_ts BIGINT NOT NULL DEFAULT 0,
		total_seconds BIGINT NOT NULL DEFAULT 0,
		type TEXT NOT NULL DEFAULT 'normal',
		status shift_status NOT NULL DEFAULT 'active'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_open ON shifts (guild_id, user_id) WHERE status IN ('active', 'paused')`,
	`CREATE TABLE IF NOT EXISTS loa (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		guild_id TEXT NOT NULL,
		start_ts BIGINT NOT NULL,
		end_ts BIGINT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status loa_status NOT NULL DEFAULT 'pending',
		actor_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loa_user ON loa (guild_id, user_id, id DESC)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		guild_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		data TEXT NOT NULL DEFAULT '',
		ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_user ON logs (guild_id, user_id, ts DESC)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
