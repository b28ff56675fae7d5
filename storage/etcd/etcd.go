package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/maxpoletaev/siloring/membership"
	"github.com/maxpoletaev/siloring/storage"
)

const (
	versionKey      = "version"
	silosPrefix     = "silos/"
	maxAliveRetries = 3
)

type versionRecord struct {
	Version int64 `json:"version"`
}

// Table stores the membership table in etcd. Every row is a separate key
// under the cluster prefix, and the table version is stored in its own key.
// Etags are the mod revisions of the keys, so conditional writes map directly
// onto etcd transactions.
type Table struct {
	client *clientv3.Client
	prefix string
}

func NewClient(endpoints []string, dialTimeout time.Duration) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	return client, nil
}

// New creates a table for the cluster. Several clusters can share one etcd
// deployment as long as their ids differ.
func New(client *clientv3.Client, clusterID string) *Table {
	return &Table{
		client: client,
		prefix: "/siloring/" + clusterID + "/",
	}
}

func (t *Table) versionKey() string {
	return t.prefix + versionKey
}

func (t *Table) rowKey(addr membership.SiloAddress) string {
	return t.prefix + silosPrefix + addr.String()
}

func formatRevision(rev int64) string {
	return strconv.FormatInt(rev, 10)
}

func parseRevision(etag string) (int64, bool) {
	rev, err := strconv.ParseInt(etag, 10, 64)
	return rev, err == nil
}

func encodeVersion(version int64) (string, error) {
	data, err := json.Marshal(versionRecord{Version: version})
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func decodeVersion(kv *mvccpb.KeyValue) (membership.TableVersion, error) {
	var rec versionRecord

	if err := json.Unmarshal(kv.Value, &rec); err != nil {
		return membership.TableVersion{}, fmt.Errorf("failed to decode table version: %w", err)
	}

	return membership.TableVersion{
		Version: rec.Version,
		ETag:    formatRevision(kv.ModRevision),
	}, nil
}

func (t *Table) InitializeMembershipTable(ctx context.Context, tryInitVersion bool) error {
	if !tryInitVersion {
		return nil
	}

	value, err := encodeVersion(0)
	if err != nil {
		return err
	}

	_, err = t.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(t.versionKey()), "=", 0)).
		Then(clientv3.OpPut(t.versionKey(), value)).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to initialize table version: %w", err)
	}

	return nil
}

func (t *Table) decodeTable(kvs []*mvccpb.KeyValue) (*membership.TableData, error) {
	data := &membership.TableData{}
	found := false

	for _, kv := range kvs {
		key := string(kv.Key)

		if key == t.versionKey() {
			version, err := decodeVersion(kv)
			if err != nil {
				return nil, err
			}

			data.Version = version
			found = true

			continue
		}

		if !strings.HasPrefix(key, t.prefix+silosPrefix) {
			continue
		}

		entry, err := storage.DecodeEntry(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("bad row %s: %w", key, err)
		}

		data.Rows = append(data.Rows, membership.Row{
			Entry: entry,
			ETag:  formatRevision(kv.ModRevision),
		})
	}

	if !found {
		return nil, storage.ErrNotInitialized
	}

	return data, nil
}

func (t *Table) ReadAll(ctx context.Context) (*membership.TableData, error) {
	resp, err := t.client.Get(ctx, t.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to read membership table: %w", err)
	}

	return t.decodeTable(resp.Kvs)
}

func (t *Table) ReadRow(ctx context.Context, addr membership.SiloAddress) (*membership.TableData, error) {
	resp, err := t.client.Txn(ctx).
		Then(clientv3.OpGet(t.versionKey()), clientv3.OpGet(t.rowKey(addr))).
		Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to read row %s: %w", addr, err)
	}

	var kvs []*mvccpb.KeyValue
	for _, r := range resp.Responses {
		kvs = append(kvs, r.GetResponseRange().Kvs...)
	}

	return t.decodeTable(kvs)
}

// checkVersion verifies that the proposed version moves the table forward
// from the version identified by its etag.
func (t *Table) checkVersion(ctx context.Context, version membership.TableVersion) (int64, bool, error) {
	rev, ok := parseRevision(version.ETag)
	if !ok {
		return 0, false, nil
	}

	resp, err := t.client.Get(ctx, t.versionKey())
	if err != nil {
		return 0, false, fmt.Errorf("failed to read table version: %w", err)
	}

	if len(resp.Kvs) == 0 {
		return 0, false, storage.ErrNotInitialized
	}

	current, err := decodeVersion(resp.Kvs[0])
	if err != nil {
		return 0, false, err
	}

	return rev, storage.IsNextVersion(current, version), nil
}

func (t *Table) InsertRow(ctx context.Context, entry *membership.Entry, version membership.TableVersion) (bool, error) {
	tableRev, ok, err := t.checkVersion(ctx, version)
	if err != nil || !ok {
		return false, err
	}

	row, err := storage.EncodeEntry(entry)
	if err != nil {
		return false, err
	}

	value, err := encodeVersion(version.Version)
	if err != nil {
		return false, err
	}

	resp, err := t.client.Txn(ctx).
		If(
			clientv3.Compare(clientv3.ModRevision(t.versionKey()), "=", tableRev),
			clientv3.Compare(clientv3.CreateRevision(t.rowKey(entry.Address)), "=", 0),
		).
		Then(
			clientv3.OpPut(t.versionKey(), value),
			clientv3.OpPut(t.rowKey(entry.Address), string(row)),
		).
		Commit()
	if err != nil {
		return false, fmt.Errorf("failed to insert row %s: %w", entry.Address, err)
	}

	return resp.Succeeded, nil
}

func (t *Table) UpdateRow(ctx context.Context, entry *membership.Entry, etag string, version membership.TableVersion) (bool, error) {
	rowRev, ok := parseRevision(etag)
	if !ok {
		return false, nil
	}

	tableRev, ok, err := t.checkVersion(ctx, version)
	if err != nil || !ok {
		return false, err
	}

	row, err := storage.EncodeEntry(entry)
	if err != nil {
		return false, err
	}

	value, err := encodeVersion(version.Version)
	if err != nil {
		return false, err
	}

	resp, err := t.client.Txn(ctx).
		If(
			clientv3.Compare(clientv3.ModRevision(t.versionKey()), "=", tableRev),
			clientv3.Compare(clientv3.ModRevision(t.rowKey(entry.Address)), "=", rowRev),
		).
		Then(
			clientv3.OpPut(t.versionKey(), value),
			clientv3.OpPut(t.rowKey(entry.Address), string(row)),
		).
		Commit()
	if err != nil {
		return false, fmt.Errorf("failed to update row %s: %w", entry.Address, err)
	}

	return resp.Succeeded, nil
}

// UpdateIAmAlive rewrites the row with the new liveness timestamp. The row
// etag changes, so a concurrent UpdateRow based on the old etag fails and has
// to be retried by its caller.
func (t *Table) UpdateIAmAlive(ctx context.Context, entry *membership.Entry) error {
	key := t.rowKey(entry.Address)

	for attempt := 0; attempt < maxAliveRetries; attempt++ {
		resp, err := t.client.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to read row %s: %w", entry.Address, err)
		}

		if len(resp.Kvs) == 0 {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, entry.Address)
		}

		kv := resp.Kvs[0]

		current, err := storage.DecodeEntry(kv.Value)
		if err != nil {
			return err
		}

		current.IAmAliveTime = entry.IAmAliveTime

		row, err := storage.EncodeEntry(current)
		if err != nil {
			return err
		}

		txn, err := t.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(key), "=", kv.ModRevision)).
			Then(clientv3.OpPut(key, string(row))).
			Commit()
		if err != nil {
			return fmt.Errorf("failed to update liveness of %s: %w", entry.Address, err)
		}

		if txn.Succeeded {
			return nil
		}
	}

	return fmt.Errorf("failed to update liveness of %s: %w", entry.Address, membership.ErrTableContention)
}

func (t *Table) CleanupDefunctSiloEntries(ctx context.Context, beforeDate time.Time) error {
	resp, err := t.client.Get(ctx, t.prefix+silosPrefix, clientv3.WithPrefix())
	if err != nil {
		return fmt.Errorf("failed to read membership table: %w", err)
	}

	for _, kv := range resp.Kvs {
		entry, err := storage.DecodeEntry(kv.Value)
		if err != nil {
			return fmt.Errorf("bad row %s: %w", kv.Key, err)
		}

		if entry.Status != membership.StatusDead || !entry.EffectiveIAmAliveTime().Before(beforeDate) {
			continue
		}

		// A row modified since the read is left for the next sweep.
		_, err = t.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(string(kv.Key)), "=", kv.ModRevision)).
			Then(clientv3.OpDelete(string(kv.Key))).
			Commit()
		if err != nil {
			return fmt.Errorf("failed to delete row %s: %w", kv.Key, err)
		}
	}

	return nil
}

// DeleteMembershipTableEntries removes every row and resets the version.
func (t *Table) DeleteMembershipTableEntries(ctx context.Context) error {
	value, err := encodeVersion(0)
	if err != nil {
		return err
	}

	// etcd rejects a transaction that touches the same key twice, so the
	// rows are removed before the version is rewritten.
	if _, err := t.client.Delete(ctx, t.prefix+silosPrefix, clientv3.WithPrefix()); err != nil {
		return fmt.Errorf("failed to delete membership rows: %w", err)
	}

	if _, err := t.client.Put(ctx, t.versionKey(), value); err != nil {
		return fmt.Errorf("failed to reset table version: %w", err)
	}

	return nil
}
