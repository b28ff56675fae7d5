package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/siloring/membership"
)

var (
	now            = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	errUnreachable = errors.New("unreachable")
)

func silo(port int) membership.SiloAddress {
	return membership.SiloAddress{Host: "10.0.0.1", Port: uint16(port), Generation: 1}
}

func entry(port int, status membership.SiloStatus, aliveAt time.Time) *membership.Entry {
	return &membership.Entry{
		Address:      silo(port),
		Status:       status,
		StartTime:    aliveAt,
		IAmAliveTime: aliveAt,
	}
}

func clusterSnapshot() *membership.Snapshot {
	return &membership.Snapshot{
		Version: 3,
		Entries: map[membership.SiloAddress]*membership.Entry{
			silo(1): entry(1, membership.StatusJoining, now),
			silo(2): entry(2, membership.StatusActive, now),
			silo(3): entry(3, membership.StatusActive, now),
			silo(4): entry(4, membership.StatusActive, now.Add(-time.Hour)),
			silo(5): entry(5, membership.StatusJoining, now),
			silo(6): entry(6, membership.StatusDead, now),
		},
	}
}

func testConfig() Config {
	conf := DefaultConfig()
	conf.Now = func() time.Time { return now }
	conf.Options.ProbeTimeout = 100 * time.Millisecond
	conf.Options.IAmAliveTablePublishTimeout = 10 * time.Millisecond
	conf.Options.MaxJoinAttemptTime = 100 * time.Millisecond
	conf.ConnectivityRetryDelay = 10 * time.Millisecond

	return conf
}

type fatalRecorder struct {
	calls atomic.Int32
	err   atomic.Value
}

func (f *fatalRecorder) OnFatalError(_ string, err error) {
	f.calls.Add(1)
	f.err.Store(err)
}

func newMembership(ctrl *gomock.Controller) *MockMembership {
	members := NewMockMembership(ctrl)
	members.EXPECT().LocalSilo().Return(silo(1)).AnyTimes()
	members.EXPECT().Snapshot().Return(clusterSnapshot()).AnyTimes()

	return members
}

func TestAgent_Join(t *testing.T) {
	ctrl := gomock.NewController(t)
	members := newMembership(ctrl)
	fatal := &fatalRecorder{}

	members.EXPECT().CurrentStatus().Return(membership.StatusCreated)
	members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusJoining).Return(nil)

	a := New(testConfig(), members, nil, fatal)

	require.NoError(t, a.Join(context.Background()))
	assert.Equal(t, int32(0), fatal.calls.Load())
}

func TestAgent_JoinFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	members := newMembership(ctrl)
	fatal := &fatalRecorder{}

	members.EXPECT().CurrentStatus().Return(membership.StatusCreated)
	members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusJoining).Return(membership.ErrTableContention)

	a := New(testConfig(), members, nil, fatal)

	err := a.Join(context.Background())
	assert.ErrorIs(t, err, membership.ErrTableContention)
	assert.Equal(t, int32(1), fatal.calls.Load())
}

func TestAgent_InvalidTransitions(t *testing.T) {
	tests := map[string]struct {
		status membership.SiloStatus
		call   func(*Agent) error
	}{
		"join twice": {
			status: membership.StatusJoining,
			call: func(a *Agent) error {
				return a.Join(context.Background())
			},
		},
		"activate before joining": {
			status: membership.StatusCreated,
			call: func(a *Agent) error {
				return a.BecomeActive(context.Background())
			},
		},
		"activate twice": {
			status: membership.StatusActive,
			call: func(a *Agent) error {
				return a.BecomeActive(context.Background())
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			members := newMembership(ctrl)
			members.EXPECT().CurrentStatus().Return(tt.status)

			a := New(testConfig(), members, nil, &fatalRecorder{})

			assert.ErrorIs(t, tt.call(a), ErrInvalidTransition)
		})
	}
}

func TestAgent_Lifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	members := newMembership(ctrl)
	prober := NewMockProber(ctrl)
	fatal := &fatalRecorder{}

	var aliveUpdates atomic.Int32

	members.EXPECT().CurrentStatus().Return(membership.StatusJoining).Times(1)
	members.EXPECT().CurrentStatus().Return(membership.StatusActive).Times(1)

	// Only active silos that keep their liveness timestamp fresh are probed.
	prober.EXPECT().Probe(gomock.Any(), silo(2), -1).Return(nil)
	prober.EXPECT().Probe(gomock.Any(), silo(3), -1).Return(nil)

	gomock.InOrder(
		members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusActive).Return(nil),
		members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusShuttingDown).Return(nil),
		members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusDead).Return(nil),
	)

	members.EXPECT().UpdateIAmAlive(gomock.Any()).
		DoAndReturn(func(context.Context) error {
			aliveUpdates.Add(1)
			return nil
		}).
		AnyTimes()

	a := New(testConfig(), members, prober, fatal)

	require.NoError(t, a.BecomeActive(context.Background()))

	assert.Eventually(t, func() bool {
		return aliveUpdates.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, a.Leave(context.Background(), true))

	ok, _ := a.CheckHealth(time.Now())
	assert.True(t, ok)
	assert.Equal(t, int32(0), fatal.calls.Load())
}

func TestAgent_ConnectivityRecovers(t *testing.T) {
	ctrl := gomock.NewController(t)
	members := newMembership(ctrl)
	prober := NewMockProber(ctrl)

	conf := testConfig()
	conf.Options.MaxJoinAttemptTime = 5 * time.Second

	members.EXPECT().CurrentStatus().Return(membership.StatusJoining)
	members.EXPECT().Refresh(gomock.Any()).Return(nil)
	members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusActive).Return(nil)
	members.EXPECT().UpdateIAmAlive(gomock.Any()).Return(nil).AnyTimes()

	prober.EXPECT().Probe(gomock.Any(), silo(2), -1).Return(nil).Times(2)

	gomock.InOrder(
		prober.EXPECT().Probe(gomock.Any(), silo(3), -1).Return(errUnreachable),
		prober.EXPECT().Probe(gomock.Any(), silo(3), -1).Return(nil),
	)

	a := New(conf, members, prober, &fatalRecorder{})

	require.NoError(t, a.BecomeActive(context.Background()))
	a.stopIAmAliveLoop()
}

func TestAgent_ConnectivityValidationFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	members := newMembership(ctrl)
	prober := NewMockProber(ctrl)
	fatal := &fatalRecorder{}

	members.EXPECT().CurrentStatus().Return(membership.StatusJoining)
	members.EXPECT().Refresh(gomock.Any()).Return(nil).AnyTimes()

	prober.EXPECT().Probe(gomock.Any(), silo(2), -1).Return(nil).AnyTimes()
	prober.EXPECT().Probe(gomock.Any(), silo(3), -1).Return(errUnreachable).AnyTimes()

	a := New(testConfig(), members, prober, fatal)

	err := a.BecomeActive(context.Background())
	require.ErrorIs(t, err, ErrConnectivityValidationFailed)
	assert.Contains(t, err.Error(), silo(3).String())
	assert.Equal(t, int32(1), fatal.calls.Load())
}

func TestAgent_ConnectivityValidationDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	members := newMembership(ctrl)

	conf := testConfig()
	conf.ValidateInitialConnectivity = false

	members.EXPECT().CurrentStatus().Return(membership.StatusJoining)
	members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusActive).Return(nil)
	members.EXPECT().UpdateIAmAlive(gomock.Any()).Return(nil).AnyTimes()

	a := New(conf, members, NewMockProber(ctrl), &fatalRecorder{})

	require.NoError(t, a.BecomeActive(context.Background()))
	a.stopIAmAliveLoop()
}

func TestAgent_Leave(t *testing.T) {
	tests := map[string]struct {
		graceful bool
		status   membership.SiloStatus
		writes   []membership.SiloStatus
		failing  membership.SiloStatus
	}{
		"graceful": {
			graceful: true,
			status:   membership.StatusActive,
			writes:   []membership.SiloStatus{membership.StatusShuttingDown, membership.StatusDead},
		},
		"graceful falls back to stopping": {
			graceful: true,
			status:   membership.StatusActive,
			writes: []membership.SiloStatus{
				membership.StatusShuttingDown,
				membership.StatusStopping,
				membership.StatusDead,
			},
			failing: membership.StatusShuttingDown,
		},
		"ungraceful": {
			status: membership.StatusActive,
			writes: []membership.SiloStatus{membership.StatusStopping, membership.StatusDead},
		},
		"never activated": {
			graceful: true,
			status:   membership.StatusJoining,
			writes:   []membership.SiloStatus{membership.StatusDead},
		},
		"already dead": {
			graceful: true,
			status:   membership.StatusDead,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			members := newMembership(ctrl)
			members.EXPECT().CurrentStatus().Return(tt.status)

			calls := make([]*gomock.Call, 0, len(tt.writes))

			for _, status := range tt.writes {
				var err error
				if status == tt.failing {
					err = membership.ErrTableContention
				}

				calls = append(calls, members.EXPECT().UpdateStatus(gomock.Any(), status).Return(err))
			}

			if len(calls) > 0 {
				gomock.InOrder(calls...)
			}

			a := New(testConfig(), members, nil, &fatalRecorder{})

			require.NoError(t, a.Leave(context.Background(), tt.graceful))
		})
	}
}

func TestAgent_IAmAliveRetriesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	members := newMembership(ctrl)

	conf := testConfig()
	conf.ValidateInitialConnectivity = false
	conf.Options.IAmAliveTablePublishTimeout = 50 * time.Millisecond

	done := make(chan struct{})

	members.EXPECT().CurrentStatus().Return(membership.StatusJoining)
	members.EXPECT().UpdateStatus(gomock.Any(), membership.StatusActive).Return(nil)

	gomock.InOrder(
		members.EXPECT().UpdateIAmAlive(gomock.Any()).Return(errUnreachable),
		members.EXPECT().UpdateIAmAlive(gomock.Any()).DoAndReturn(func(context.Context) error {
			close(done)
			return nil
		}),
		members.EXPECT().UpdateIAmAlive(gomock.Any()).Return(nil).AnyTimes(),
	)

	a := New(conf, members, nil, &fatalRecorder{})
	require.NoError(t, a.BecomeActive(context.Background()))

	t.Cleanup(a.stopIAmAliveLoop)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("liveness update was not retried")
	}
}
