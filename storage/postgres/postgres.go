package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxpoletaev/siloring/membership"
	"github.com/maxpoletaev/siloring/storage"
)

// Table stores the membership table in PostgreSQL. The table version lives in
// its own row and every conditional write updates it in the same transaction
// as the silo row, so concurrent writers serialize on the version row.
type Table struct {
	pool      *pgxpool.Pool
	clusterID string
}

// Connect opens a connection pool and verifies that the database is reachable.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return pool, nil
}

func New(pool *pgxpool.Pool, clusterID string) *Table {
	return &Table{
		pool:      pool,
		clusterID: clusterID,
	}
}

func formatETag(etag int64) string {
	return strconv.FormatInt(etag, 10)
}

func parseETag(etag string) (int64, bool) {
	v, err := strconv.ParseInt(etag, 10, 64)
	return v, err == nil
}

func (t *Table) InitializeMembershipTable(ctx context.Context, tryInitVersion bool) error {
	if err := t.migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !tryInitVersion {
		return nil
	}

	query := `
		INSERT INTO membership_version (cluster_id, version, etag)
		VALUES ($1, 0, 0)
		ON CONFLICT (cluster_id) DO NOTHING
	`

	if _, err := t.pool.Exec(ctx, query, t.clusterID); err != nil {
		return fmt.Errorf("failed to initialize table version: %w", err)
	}

	return nil
}

func (t *Table) read(ctx context.Context, addr *membership.SiloAddress) (*membership.TableData, error) {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck

	var (
		version int64
		etag    int64
	)

	err = tx.QueryRow(ctx,
		`SELECT version, etag FROM membership_version WHERE cluster_id = $1`,
		t.clusterID,
	).Scan(&version, &etag)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table version: %w", err)
	}

	query := `SELECT entry, etag FROM membership_silos WHERE cluster_id = $1`
	args := []any{t.clusterID}

	if addr != nil {
		query += ` AND address = $2`
		args = append(args, addr.String())
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read silo rows: %w", err)
	}

	defer rows.Close()

	data := &membership.TableData{
		Version: membership.TableVersion{Version: version, ETag: formatETag(etag)},
	}

	for rows.Next() {
		var (
			raw     []byte
			rowETag int64
		)

		if err := rows.Scan(&raw, &rowETag); err != nil {
			return nil, fmt.Errorf("failed to scan silo row: %w", err)
		}

		entry, err := storage.DecodeEntry(raw)
		if err != nil {
			return nil, err
		}

		data.Rows = append(data.Rows, membership.Row{Entry: entry, ETag: formatETag(rowETag)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read silo rows: %w", err)
	}

	return data, nil
}

func (t *Table) ReadAll(ctx context.Context) (*membership.TableData, error) {
	return t.read(ctx, nil)
}

func (t *Table) ReadRow(ctx context.Context, addr membership.SiloAddress) (*membership.TableData, error) {
	return t.read(ctx, &addr)
}

// conditionalWrite bumps the table version if the etag still matches and
// then runs write in the same transaction. Both must affect a row for the
// transaction to commit.
func (t *Table) conditionalWrite(ctx context.Context, version membership.TableVersion, write func(pgx.Tx) (bool, error)) (bool, error) {
	tableETag, ok := parseETag(version.ETag)
	if !ok {
		return false, nil
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		UPDATE membership_version
		SET version = $3, etag = etag + 1
		WHERE cluster_id = $1 AND etag = $2 AND version < $3
	`, t.clusterID, tableETag, version.Version)
	if err != nil {
		return false, fmt.Errorf("failed to update table version: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if ok, err := write(tx); err != nil || !ok {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

func (t *Table) InsertRow(ctx context.Context, entry *membership.Entry, version membership.TableVersion) (bool, error) {
	raw, err := storage.EncodeEntry(entry)
	if err != nil {
		return false, err
	}

	return t.conditionalWrite(ctx, version, func(tx pgx.Tx) (bool, error) {
		tag, err := tx.Exec(ctx, `
			INSERT INTO membership_silos (cluster_id, address, status, i_am_alive_time, entry, etag)
			VALUES ($1, $2, $3, $4, $5, 0)
			ON CONFLICT (cluster_id, address) DO NOTHING
		`, t.clusterID, entry.Address.String(), entry.Status.String(), entry.EffectiveIAmAliveTime(), raw)
		if err != nil {
			return false, fmt.Errorf("failed to insert row %s: %w", entry.Address, err)
		}

		return tag.RowsAffected() == 1, nil
	})
}

func (t *Table) UpdateRow(ctx context.Context, entry *membership.Entry, etag string, version membership.TableVersion) (bool, error) {
	rowETag, ok := parseETag(etag)
	if !ok {
		return false, nil
	}

	raw, err := storage.EncodeEntry(entry)
	if err != nil {
		return false, err
	}

	return t.conditionalWrite(ctx, version, func(tx pgx.Tx) (bool, error) {
		tag, err := tx.Exec(ctx, `
			UPDATE membership_silos
			SET status = $3, i_am_alive_time = $4, entry = $5, etag = etag + 1
			WHERE cluster_id = $1 AND address = $2 AND etag = $6
		`, t.clusterID, entry.Address.String(), entry.Status.String(), entry.EffectiveIAmAliveTime(), raw, rowETag)
		if err != nil {
			return false, fmt.Errorf("failed to update row %s: %w", entry.Address, err)
		}

		return tag.RowsAffected() == 1, nil
	})
}

func (t *Table) UpdateIAmAlive(ctx context.Context, entry *membership.Entry) error {
	aliveAt, err := json.Marshal(entry.IAmAliveTime)
	if err != nil {
		return fmt.Errorf("failed to encode liveness timestamp: %w", err)
	}

	tag, err := t.pool.Exec(ctx, `
		UPDATE membership_silos
		SET i_am_alive_time = GREATEST(i_am_alive_time, $3),
			entry = jsonb_set(entry, '{i_am_alive_time}', $4::jsonb),
			etag = etag + 1
		WHERE cluster_id = $1 AND address = $2
	`, t.clusterID, entry.Address.String(), entry.IAmAliveTime, string(aliveAt))
	if err != nil {
		return fmt.Errorf("failed to update liveness of %s: %w", entry.Address, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, entry.Address)
	}

	return nil
}

func (t *Table) CleanupDefunctSiloEntries(ctx context.Context, beforeDate time.Time) error {
	_, err := t.pool.Exec(ctx, `
		DELETE FROM membership_silos
		WHERE cluster_id = $1 AND status = $2 AND i_am_alive_time < $3
	`, t.clusterID, membership.StatusDead.String(), beforeDate)
	if err != nil {
		return fmt.Errorf("failed to delete defunct entries: %w", err)
	}

	return nil
}

// DeleteMembershipTableEntries removes every row of the cluster and resets
// its version.
func (t *Table) DeleteMembershipTableEntries(ctx context.Context) error {
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM membership_silos WHERE cluster_id = $1`, t.clusterID); err != nil {
			return fmt.Errorf("failed to delete silo rows: %w", err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO membership_version (cluster_id, version, etag)
			VALUES ($1, 0, 0)
			ON CONFLICT (cluster_id) DO UPDATE SET version = 0, etag = membership_version.etag + 1
		`, t.clusterID)
		if err != nil {
			return fmt.Errorf("failed to reset table version: %w", err)
		}

		return nil
	})
}
