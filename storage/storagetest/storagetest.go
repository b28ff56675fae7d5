// Package storagetest holds the behavior every membership table backend must
// share. Backends call Run from their own tests.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/siloring/membership"
)

// Table is a membership table that can be wiped between test cases.
type Table interface {
	membership.Table
	DeleteMembershipTableEntries(ctx context.Context) error
}

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newEntry(port uint16, status membership.SiloStatus) *membership.Entry {
	return &membership.Entry{
		Address:      membership.SiloAddress{Host: "127.0.0.1", Port: port, Generation: 1},
		Name:         fmt.Sprintf("silo-%d", port),
		HostName:     "localhost",
		Status:       status,
		StartTime:    baseTime,
		IAmAliveTime: baseTime,
	}
}

func Run(t *testing.T, newTable func(t *testing.T) Table) {
	setup := func(t *testing.T) (Table, context.Context) {
		ctx := context.Background()
		table := newTable(t)

		require.NoError(t, table.InitializeMembershipTable(ctx, true))
		require.NoError(t, table.DeleteMembershipTableEntries(ctx))

		return table, ctx
	}

	t.Run("InitializeTwice", func(t *testing.T) {
		table, ctx := setup(t)
		require.NoError(t, table.InitializeMembershipTable(ctx, true))

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, data.Rows)
		assert.Equal(t, int64(0), data.Version.Version)
	})

	t.Run("InsertRow", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		entry := newEntry(1, membership.StatusJoining)
		ok, err := table.InsertRow(ctx, entry, data.Version.Next())
		require.NoError(t, err)
		require.True(t, ok)

		got, err := table.ReadRow(ctx, entry.Address)
		require.NoError(t, err)
		require.Len(t, got.Rows, 1)
		assert.Equal(t, entry.Address, got.Rows[0].Entry.Address)
		assert.Equal(t, membership.StatusJoining, got.Rows[0].Entry.Status)
		assert.NotEmpty(t, got.Rows[0].ETag)
		assert.Equal(t, data.Version.Version+1, got.Version.Version)
		assert.NotEqual(t, data.Version.ETag, got.Version.ETag)
	})

	t.Run("InsertRow_Duplicate", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		entry := newEntry(1, membership.StatusJoining)
		ok, err := table.InsertRow(ctx, entry, data.Version.Next())
		require.NoError(t, err)
		require.True(t, ok)

		data, err = table.ReadAll(ctx)
		require.NoError(t, err)

		ok, err = table.InsertRow(ctx, entry, data.Version.Next())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("InsertRow_StaleVersion", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		ok, err := table.InsertRow(ctx, newEntry(1, membership.StatusJoining), data.Version.Next())
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = table.InsertRow(ctx, newEntry(2, membership.StatusJoining), data.Version.Next())
		require.NoError(t, err)
		assert.False(t, ok, "write based on an outdated table version must be rejected")
	})

	t.Run("ReadRow_Missing", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadRow(ctx, newEntry(9, membership.StatusActive).Address)
		require.NoError(t, err)
		assert.Empty(t, data.Rows)
	})

	t.Run("UpdateRow", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		entry := newEntry(1, membership.StatusJoining)
		ok, err := table.InsertRow(ctx, entry, data.Version.Next())
		require.NoError(t, err)
		require.True(t, ok)

		data, err = table.ReadRow(ctx, entry.Address)
		require.NoError(t, err)

		updated := data.Rows[0].Entry.Copy()
		updated.Status = membership.StatusActive
		updated.AddSuspector(newEntry(2, membership.StatusActive).Address, baseTime)

		ok, err = table.UpdateRow(ctx, updated, data.Rows[0].ETag, data.Version.Next())
		require.NoError(t, err)
		require.True(t, ok)

		got, err := table.ReadRow(ctx, entry.Address)
		require.NoError(t, err)
		assert.Equal(t, membership.StatusActive, got.Rows[0].Entry.Status)
		assert.Len(t, got.Rows[0].Entry.Suspicions, 1)
		assert.NotEqual(t, data.Rows[0].ETag, got.Rows[0].ETag)

		// The old row etag can not be used again.
		ok, err = table.UpdateRow(ctx, updated, data.Rows[0].ETag, got.Version.Next())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UpdateRow_Missing", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		ok, err := table.UpdateRow(ctx, newEntry(1, membership.StatusActive), "etag", data.Version.Next())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UpdateRow_Concurrent", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		entry := newEntry(1, membership.StatusActive)
		ok, err := table.InsertRow(ctx, entry, data.Version.Next())
		require.NoError(t, err)
		require.True(t, ok)

		data, err = table.ReadAll(ctx)
		require.NoError(t, err)

		var (
			wins int32
			wg   sync.WaitGroup
		)

		for i := 0; i < 10; i++ {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				e := data.Rows[0].Entry.Copy()
				e.AddSuspector(newEntry(uint16(100+i), membership.StatusActive).Address, baseTime)

				ok, err := table.UpdateRow(ctx, e, data.Rows[0].ETag, data.Version.Next())
				assert.NoError(t, err)

				if ok {
					atomic.AddInt32(&wins, 1)
				}
			}(i)
		}

		wg.Wait()
		assert.Equal(t, int32(1), wins, "exactly one concurrent writer must win")
	})

	t.Run("UpdateIAmAlive", func(t *testing.T) {
		table, ctx := setup(t)

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		entry := newEntry(1, membership.StatusActive)
		ok, err := table.InsertRow(ctx, entry, data.Version.Next())
		require.NoError(t, err)
		require.True(t, ok)

		before, err := table.ReadAll(ctx)
		require.NoError(t, err)

		aliveAt := baseTime.Add(time.Minute)
		err = table.UpdateIAmAlive(ctx, &membership.Entry{Address: entry.Address, IAmAliveTime: aliveAt})
		require.NoError(t, err)

		after, err := table.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, after.Rows, 1)
		assert.True(t, aliveAt.Equal(after.Rows[0].Entry.IAmAliveTime))
		assert.Equal(t, membership.StatusActive, after.Rows[0].Entry.Status)
		assert.Equal(t, before.Version, after.Version)
	})

	t.Run("CleanupDefunctSiloEntries", func(t *testing.T) {
		table, ctx := setup(t)

		entries := []*membership.Entry{
			newEntry(1, membership.StatusDead),
			newEntry(2, membership.StatusActive),
			newEntry(3, membership.StatusDead),
		}

		entries[2].IAmAliveTime = baseTime.Add(time.Hour)

		for _, entry := range entries {
			data, err := table.ReadAll(ctx)
			require.NoError(t, err)

			ok, err := table.InsertRow(ctx, entry, data.Version.Next())
			require.NoError(t, err)
			require.True(t, ok)
		}

		require.NoError(t, table.CleanupDefunctSiloEntries(ctx, baseTime.Add(time.Minute)))

		data, err := table.ReadAll(ctx)
		require.NoError(t, err)

		var ports []uint16
		for _, row := range data.Rows {
			ports = append(ports, row.Entry.Address.Port)
		}

		assert.ElementsMatch(t, []uint16{2, 3}, ports)
	})
}
