package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maxpoletaev/siloring/membership"
	"github.com/maxpoletaev/siloring/storage"
)

type row struct {
	entry *membership.Entry
	etag  string
}

// Table keeps the membership table in process memory. It is meant for
// single-process clusters and tests, where every silo shares one instance.
type Table struct {
	mu      sync.RWMutex
	rows    map[membership.SiloAddress]row
	version membership.TableVersion
	ready   bool
}

func New() *Table {
	return &Table{
		rows: make(map[membership.SiloAddress]row),
	}
}

func newETag() string {
	return uuid.NewString()
}

func (t *Table) InitializeMembershipTable(ctx context.Context, tryInitVersion bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready && tryInitVersion {
		t.version = membership.TableVersion{Version: 0, ETag: newETag()}
		t.ready = true
	}

	return nil
}

func (t *Table) snapshotLocked(filter func(membership.SiloAddress) bool) (*membership.TableData, error) {
	if !t.ready {
		return nil, storage.ErrNotInitialized
	}

	data := &membership.TableData{
		Version: t.version,
		Rows:    make([]membership.Row, 0, len(t.rows)),
	}

	for addr, r := range t.rows {
		if filter != nil && !filter(addr) {
			continue
		}

		data.Rows = append(data.Rows, membership.Row{
			Entry: r.entry.Copy(),
			ETag:  r.etag,
		})
	}

	return data, nil
}

func (t *Table) ReadRow(ctx context.Context, addr membership.SiloAddress) (*membership.TableData, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.snapshotLocked(func(a membership.SiloAddress) bool {
		return a == addr
	})
}

func (t *Table) ReadAll(ctx context.Context) (*membership.TableData, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.snapshotLocked(nil)
}

func (t *Table) InsertRow(ctx context.Context, entry *membership.Entry, version membership.TableVersion) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready {
		return false, storage.ErrNotInitialized
	}

	if _, exists := t.rows[entry.Address]; exists || !storage.IsNextVersion(t.version, version) {
		return false, nil
	}

	t.rows[entry.Address] = row{entry: entry.Copy(), etag: newETag()}
	t.version = membership.TableVersion{Version: version.Version, ETag: newETag()}

	return true, nil
}

func (t *Table) UpdateRow(ctx context.Context, entry *membership.Entry, etag string, version membership.TableVersion) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready {
		return false, storage.ErrNotInitialized
	}

	current, exists := t.rows[entry.Address]
	if !exists || current.etag != etag || !storage.IsNextVersion(t.version, version) {
		return false, nil
	}

	t.rows[entry.Address] = row{entry: entry.Copy(), etag: newETag()}
	t.version = membership.TableVersion{Version: version.Version, ETag: newETag()}

	return true, nil
}

func (t *Table) UpdateIAmAlive(ctx context.Context, entry *membership.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, exists := t.rows[entry.Address]
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, entry.Address)
	}

	updated := current.entry.Copy()
	updated.IAmAliveTime = entry.IAmAliveTime
	t.rows[entry.Address] = row{entry: updated, etag: newETag()}

	return nil
}

func (t *Table) CleanupDefunctSiloEntries(ctx context.Context, beforeDate time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for addr, r := range t.rows {
		if r.entry.Status == membership.StatusDead && r.entry.EffectiveIAmAliveTime().Before(beforeDate) {
			delete(t.rows, addr)
		}
	}

	return nil
}

// DeleteMembershipTableEntries drops every row and resets the version.
func (t *Table) DeleteMembershipTableEntries(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = make(map[membership.SiloAddress]row)
	t.version = membership.TableVersion{Version: 0, ETag: newETag()}

	return nil
}
