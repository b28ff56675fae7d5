package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/siloring/membership"
)

func silo(port int) membership.SiloAddress {
	return membership.SiloAddress{Host: "10.0.0.1", Port: uint16(port), Generation: 1}
}

func snapshot(version int64, statuses map[membership.SiloAddress]membership.SiloStatus) *membership.Snapshot {
	entries := make(map[membership.SiloAddress]*membership.Entry, len(statuses))

	for addr, status := range statuses {
		entries[addr] = &membership.Entry{Address: addr, Status: status}
	}

	return &membership.Snapshot{Version: version, Entries: entries}
}

type change struct {
	silo   membership.SiloAddress
	status membership.SiloStatus
}

func recorder() (ListenerFunc, chan change) {
	ch := make(chan change, 64)

	return func(s membership.SiloAddress, status membership.SiloStatus) {
		ch <- change{silo: s, status: status}
	}, ch
}

func receive(t *testing.T, ch chan change, n int) []change {
	t.Helper()

	var got []change

	for i := 0; i < n; i++ {
		select {
		case c := <-ch:
			got = append(got, c)
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d notifications", len(got), n)
		}
	}

	return got
}

func newMembership(ctrl *gomock.Controller, stream *membership.UpdateStream, localStatus membership.SiloStatus) *MockMembership {
	members := NewMockMembership(ctrl)
	members.EXPECT().LocalSilo().Return(silo(1)).AnyTimes()
	members.EXPECT().CurrentStatus().Return(localStatus).AnyTimes()
	members.EXPECT().Snapshot().DoAndReturn(stream.Current).AnyTimes()
	members.EXPECT().Subscribe().DoAndReturn(stream.Subscribe).AnyTimes()

	return members
}

func startOracle(t *testing.T, members Membership) *Oracle {
	o := New(members, log.NewNopLogger())
	o.Start()

	t.Cleanup(func() {
		require.NoError(t, o.Stop(context.Background()))
	})

	return o
}

func TestOracle_ApproximateSiloStatus(t *testing.T) {
	stream := membership.NewUpdateStream(snapshot(3, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusJoining,
		silo(2): membership.StatusActive,
		{Host: "10.0.0.1", Port: 4, Generation: 2}: membership.StatusActive,
	}))

	ctrl := gomock.NewController(t)
	o := New(newMembership(ctrl, stream, membership.StatusActive), log.NewNopLogger())

	tests := map[string]struct {
		silo membership.SiloAddress
		want membership.SiloStatus
	}{
		"local silo uses its own status": {
			silo: silo(1),
			want: membership.StatusActive,
		},
		"known silo": {
			silo: silo(2),
			want: membership.StatusActive,
		},
		"superseded generation": {
			silo: silo(4),
			want: membership.StatusDead,
		},
		"unknown silo": {
			silo: silo(5),
			want: membership.StatusNone,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, o.ApproximateSiloStatus(tt.silo))
		})
	}

	assert.True(t, o.IsDeadSilo(silo(4)))
	assert.True(t, o.IsFunctional(silo(2)))
	assert.False(t, o.IsFunctional(silo(5)))
}

func TestOracle_ApproximateSiloStatuses(t *testing.T) {
	stream := membership.NewUpdateStream(snapshot(3, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusJoining,
		silo(3): membership.StatusActive,
		silo(2): membership.StatusActive,
		silo(4): membership.StatusDead,
	}))

	ctrl := gomock.NewController(t)
	o := New(newMembership(ctrl, stream, membership.StatusActive), log.NewNopLogger())

	assert.Equal(t, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusActive,
		silo(2): membership.StatusActive,
		silo(3): membership.StatusActive,
		silo(4): membership.StatusDead,
	}, o.ApproximateSiloStatuses(false))

	assert.Len(t, o.ApproximateSiloStatuses(true), 3)
	assert.Equal(t, []membership.SiloAddress{silo(1), silo(2), silo(3)}, o.ActiveSilos())
}

func TestOracle_NotifiesListeners(t *testing.T) {
	stream := membership.NewUpdateStream(snapshot(1, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusActive,
	}))

	ctrl := gomock.NewController(t)
	o := New(newMembership(ctrl, stream, membership.StatusActive), log.NewNopLogger())

	listener, ch := recorder()
	o.Subscribe(listener)
	o.Start()

	t.Cleanup(func() {
		require.NoError(t, o.Stop(context.Background()))
	})

	assert.Equal(t, []change{{silo: silo(1), status: membership.StatusActive}}, receive(t, ch, 1))

	stream.TryPublish(snapshot(2, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusActive,
		silo(2): membership.StatusJoining,
	}))

	assert.Equal(t, []change{{silo: silo(2), status: membership.StatusJoining}}, receive(t, ch, 1))

	// A removed silo is reported as dead.
	stream.TryPublish(snapshot(3, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusActive,
		silo(3): membership.StatusJoining,
	}))

	assert.Equal(t, []change{
		{silo: silo(2), status: membership.StatusDead},
		{silo: silo(3), status: membership.StatusJoining},
	}, receive(t, ch, 2))

	assert.Equal(t, int64(3), o.Snapshot().Version)
}

func TestOracle_PanickingListener(t *testing.T) {
	stream := membership.NewUpdateStream(snapshot(1, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusActive,
	}))

	ctrl := gomock.NewController(t)
	o := New(newMembership(ctrl, stream, membership.StatusActive), log.NewNopLogger())

	o.Subscribe(ListenerFunc(func(membership.SiloAddress, membership.SiloStatus) {
		panic("boom")
	}))

	listener, ch := recorder()
	o.Subscribe(listener)
	o.Start()

	t.Cleanup(func() {
		require.NoError(t, o.Stop(context.Background()))
	})

	assert.Len(t, receive(t, ch, 1), 1)
}

func TestOracle_HandleClose(t *testing.T) {
	stream := membership.NewUpdateStream(snapshot(1, map[membership.SiloAddress]membership.SiloStatus{
		silo(1): membership.StatusActive,
	}))

	ctrl := gomock.NewController(t)
	members := newMembership(ctrl, stream, membership.StatusActive)

	// A mock listener fails the test on any unexpected call.
	closed := NewMockListener(ctrl)
	listener, ch := recorder()

	o := New(members, log.NewNopLogger())
	handle := o.Subscribe(closed)
	o.Subscribe(listener)

	assert.True(t, handle.Close())
	assert.False(t, handle.Close())

	o.Start()

	t.Cleanup(func() {
		require.NoError(t, o.Stop(context.Background()))
	})

	assert.Len(t, receive(t, ch, 1), 1)
}

func TestOracle_StopTimeout(t *testing.T) {
	stream := membership.NewUpdateStream(snapshot(1, nil))

	ctrl := gomock.NewController(t)
	o := startOracle(t, newMembership(ctrl, stream, membership.StatusActive))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The loop may or may not have exited yet, either way Stop must return.
	_ = o.Stop(ctx)
}
