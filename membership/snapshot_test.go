package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableOf(version int64, entries ...*Entry) *TableData {
	data := &TableData{Version: TableVersion{Version: version, ETag: "etag"}}

	for _, e := range entries {
		data.Rows = append(data.Rows, Row{Entry: e, ETag: "row"})
	}

	return data
}

func TestNewSnapshot_LocalStatusOverride(t *testing.T) {
	self := &Entry{Address: silo(1), Status: StatusActive}
	other := &Entry{Address: silo(2), Status: StatusActive}
	table := tableOf(4, self, other)

	snap := NewSnapshot(table, silo(1), StatusShuttingDown)

	assert.Equal(t, int64(4), snap.Version)
	assert.Equal(t, StatusShuttingDown, snap.Status(silo(1)))
	assert.Equal(t, StatusActive, snap.Status(silo(2)))
	assert.Equal(t, StatusActive, self.Status, "table entry must not be modified")
	assert.Equal(t, StatusNone, snap.Status(silo(3)))
}

func TestNewSnapshot_LocalSiloMissing(t *testing.T) {
	snap := NewSnapshot(tableOf(1, &Entry{Address: silo(2), Status: StatusActive}), silo(1), StatusActive)

	_, ok := snap.Entry(silo(1))
	assert.False(t, ok)
	assert.Equal(t, 1, snap.ActiveNodeCount())
}

func TestSnapshot_ActiveNonStaleCount(t *testing.T) {
	opts := DefaultOptions()
	now := t0.Add(10 * time.Minute)

	snap := NewSnapshot(tableOf(1,
		&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: now},
		&Entry{Address: silo(2), Status: StatusActive, IAmAliveTime: t0},
		&Entry{Address: silo(3), Status: StatusJoining, IAmAliveTime: now},
		&Entry{Address: silo(4), Status: StatusActive, IAmAliveTime: now.Add(-time.Minute)},
	), silo(1), StatusNone)

	assert.Equal(t, 3, snap.ActiveNodeCount())
	assert.Equal(t, 2, snap.ActiveNonStaleCount(opts, now))
}

func TestClusterSnapshot_CreateUpdate(t *testing.T) {
	prev := NewSnapshot(tableOf(1,
		&Entry{Address: silo(1), Status: StatusActive, Name: "a"},
		&Entry{Address: silo(2), Status: StatusJoining, Name: "b"},
		&Entry{Address: silo(3), Status: StatusActive, Name: "c"},
		&Entry{Address: silo(4), Status: StatusDead, Name: "d"},
	), silo(1), StatusNone).ClusterSnapshot()

	next := NewSnapshot(tableOf(2,
		&Entry{Address: silo(1), Status: StatusActive, Name: "a"},
		&Entry{Address: silo(2), Status: StatusActive, Name: "b"},
		&Entry{Address: silo(5), Status: StatusJoining, Name: "e"},
	), silo(1), StatusNone).ClusterSnapshot()

	update := next.CreateUpdate(prev)
	require.True(t, update.HasChanges())
	assert.Same(t, next, update.Snapshot)

	assert.ElementsMatch(t, []ClusterMember{
		{Address: silo(2), Status: StatusActive, Name: "b"},
		{Address: silo(5), Status: StatusJoining, Name: "e"},
		{Address: silo(3), Status: StatusDead, Name: "c"},
	}, update.Changes)
}

func TestClusterSnapshot_CreateUpdate_NoPrevious(t *testing.T) {
	snap := NewSnapshot(tableOf(1,
		&Entry{Address: silo(1), Status: StatusActive},
		&Entry{Address: silo(2), Status: StatusDead},
	), silo(1), StatusNone).ClusterSnapshot()

	update := snap.CreateUpdate(nil)
	assert.Len(t, update.Changes, 2)

	assert.False(t, snap.CreateUpdate(snap).HasChanges())
}

func TestSnapshot_IsSuccessorTo(t *testing.T) {
	later := t0.Add(time.Minute)

	current := NewSnapshot(tableOf(3,
		&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: t0},
		&Entry{Address: silo(2), Status: StatusActive, IAmAliveTime: t0},
	), silo(1), StatusNone)

	tests := map[string]struct {
		next *Snapshot
		want bool
	}{
		"higher version": {
			next: NewSnapshot(tableOf(4), silo(1), StatusNone),
			want: true,
		},
		"lower version": {
			next: NewSnapshot(tableOf(2,
				&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: later},
				&Entry{Address: silo(2), Status: StatusActive, IAmAliveTime: later},
			), silo(1), StatusNone),
		},
		"same version unchanged": {
			next: NewSnapshot(tableOf(3,
				&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: t0},
				&Entry{Address: silo(2), Status: StatusActive, IAmAliveTime: t0},
			), silo(1), StatusNone),
		},
		"same version newer liveness": {
			next: NewSnapshot(tableOf(3,
				&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: t0},
				&Entry{Address: silo(2), Status: StatusActive, IAmAliveTime: later},
			), silo(1), StatusNone),
			want: true,
		},
		"same version higher status": {
			next: NewSnapshot(tableOf(3,
				&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: t0},
				&Entry{Address: silo(2), Status: StatusShuttingDown, IAmAliveTime: t0},
			), silo(1), StatusNone),
			want: true,
		},
		"same version older liveness": {
			next: NewSnapshot(tableOf(3,
				&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: later},
				&Entry{Address: silo(2), Status: StatusActive, IAmAliveTime: t0.Add(-time.Second)},
			), silo(1), StatusNone),
		},
		"same version different silos": {
			next: NewSnapshot(tableOf(3,
				&Entry{Address: silo(1), Status: StatusActive, IAmAliveTime: later},
				&Entry{Address: silo(3), Status: StatusActive, IAmAliveTime: later},
			), silo(1), StatusNone),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.next.IsSuccessorTo(current))
		})
	}
}
