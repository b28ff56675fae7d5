package membership

import (
	"context"
	"time"
)

//go:generate mockgen -source=table.go -destination=table_mock.go -package=membership

// Table is the contract of the persistent membership store. Every write is
// conditional: the caller presents the etag it read and the version it wants
// to install, and a concurrent modification makes the write return false.
// Errors are reserved for failures to reach the store.
type Table interface {
	// InitializeMembershipTable prepares the store. When tryInitVersion is
	// set, the table version row is created if it is missing.
	InitializeMembershipTable(ctx context.Context, tryInitVersion bool) error

	ReadRow(ctx context.Context, addr SiloAddress) (*TableData, error)
	ReadAll(ctx context.Context) (*TableData, error)

	// InsertRow adds a new entry and moves the table to version, provided
	// that the current table etag equals version.ETag and no row exists for
	// the entry address.
	InsertRow(ctx context.Context, entry *Entry, version TableVersion) (bool, error)

	// UpdateRow replaces an existing entry, provided that the row etag
	// equals etag and the table etag equals version.ETag.
	UpdateRow(ctx context.Context, entry *Entry, etag string, version TableVersion) (bool, error)

	// UpdateIAmAlive writes only the liveness timestamp of the entry. It does
	// not change the table version.
	UpdateIAmAlive(ctx context.Context, entry *Entry) error

	// CleanupDefunctSiloEntries deletes dead entries whose liveness timestamp
	// is older than beforeDate.
	CleanupDefunctSiloEntries(ctx context.Context, beforeDate time.Time) error
}
