package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS membership_version (
		cluster_id TEXT PRIMARY KEY,
		version    BIGINT NOT NULL,
		etag       BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS membership_silos (
		cluster_id      TEXT NOT NULL,
		address         TEXT NOT NULL,
		status          TEXT NOT NULL,
		i_am_alive_time TIMESTAMPTZ NOT NULL,
		entry           JSONB NOT NULL,
		etag            BIGINT NOT NULL,
		PRIMARY KEY (cluster_id, address)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_membership_silos_status
		ON membership_silos (cluster_id, status, i_am_alive_time)`,
}

func (t *Table) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := t.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
