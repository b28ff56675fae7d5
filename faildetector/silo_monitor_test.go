package faildetector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/siloring/membership"
)

var errUnreachable = errors.New("unreachable")

func testConfig() Config {
	conf := DefaultConfig()
	conf.Silo = silo(1)
	conf.Options.ProbeTimeout = 20 * time.Millisecond
	conf.Options.NumMissedProbesLimit = 3
	conf.RecusalDelay = 5 * time.Millisecond

	return conf
}

func newTestSiloMonitor(conf Config, prober Prober, members Membership, scorer HealthScorer) *SiloMonitor {
	return NewSiloMonitor(conf, silo(2), prober, members, scorer, nil)
}

func TestSiloMonitor_DirectProbes(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockProber(ctrl)
	mon := newTestSiloMonitor(testConfig(), prober, nil, nil)

	gomock.InOrder(
		prober.EXPECT().Probe(gomock.Any(), silo(2), 1).Return(errUnreachable),
		prober.EXPECT().Probe(gomock.Any(), silo(2), 2).Return(errUnreachable),
		prober.EXPECT().Probe(gomock.Any(), silo(2), 3).Return(nil),
	)

	result, ok := mon.probe(nil)
	require.True(t, ok)
	assert.Equal(t, ProbeResult{Status: ProbeFailed, FailedProbeCount: 1, Direct: true}, result)

	result, ok = mon.probe(nil)
	require.True(t, ok)
	assert.Equal(t, ProbeResult{Status: ProbeFailed, FailedProbeCount: 2, Direct: true}, result)

	// Without intermediaries the monitor keeps probing directly.
	result, ok = mon.probe(nil)
	require.True(t, ok)
	assert.Equal(t, ProbeResult{Status: ProbeSucceeded, Direct: true}, result)
	assert.Equal(t, 0, mon.MissedProbes())
}

func TestSiloMonitor_IndirectProbes(t *testing.T) {
	tests := map[string]struct {
		resp       IndirectProbeResponse
		err        error
		wantStatus ProbeStatus
		wantFailed int
	}{
		"request failed": {
			err:        errUnreachable,
			wantStatus: ProbeUnknown,
			wantFailed: 2,
		},
		"target reachable": {
			resp:       IndirectProbeResponse{Succeeded: true},
			wantStatus: ProbeSucceeded,
			wantFailed: 0,
		},
		"degraded intermediary": {
			resp:       IndirectProbeResponse{IntermediaryHealthScore: 3},
			wantStatus: ProbeUnknown,
			wantFailed: 2,
		},
		"target unreachable": {
			resp:       IndirectProbeResponse{FailureMessage: "timeout"},
			wantStatus: ProbeFailed,
			wantFailed: 3,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			prober := NewMockProber(ctrl)
			conf := testConfig()
			conf.Options.ExtendProbeTimeoutDuringDegradation = false

			mon := newTestSiloMonitor(conf, prober, nil, nil)
			mon.failedProbes = 2

			prober.EXPECT().
				ProbeIndirectly(gomock.Any(), silo(3), silo(2), conf.Options.ProbeTimeout, 1).
				Return(tt.resp, tt.err)

			result, ok := mon.probe([]membership.SiloAddress{silo(3)})
			require.True(t, ok)

			assert.False(t, result.Direct)
			assert.Equal(t, silo(3), result.Intermediary)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantFailed, result.FailedProbeCount)
			assert.Equal(t, tt.wantFailed, mon.MissedProbes())
		})
	}
}

func TestSiloMonitor_IndirectProbesDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockProber(ctrl)
	conf := testConfig()
	conf.Options.EnableIndirectProbes = false

	mon := newTestSiloMonitor(conf, prober, nil, nil)
	mon.failedProbes = 5

	prober.EXPECT().Probe(gomock.Any(), silo(2), 1).Return(errUnreachable)

	result, ok := mon.probe([]membership.SiloAddress{silo(3)})
	require.True(t, ok)
	assert.True(t, result.Direct)
	assert.Equal(t, 6, result.FailedProbeCount)
}

func TestSiloMonitor_Timeout(t *testing.T) {
	tests := map[string]struct {
		extend bool
		score  int
		direct bool
		want   time.Duration
	}{
		"direct healthy": {
			extend: true,
			direct: true,
			want:   20 * time.Millisecond,
		},
		"direct degraded": {
			extend: true,
			score:  2,
			direct: true,
			want:   60 * time.Millisecond,
		},
		"indirect degraded": {
			extend: true,
			score:  2,
			want:   80 * time.Millisecond,
		},
		"extension capped": {
			extend: true,
			score:  20,
			direct: true,
			want:   180 * time.Millisecond,
		},
		"extension disabled": {
			score:  5,
			direct: true,
			want:   20 * time.Millisecond,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			scorer := NewMockHealthScorer(ctrl)
			scorer.EXPECT().Score(gomock.Any()).Return(tt.score).AnyTimes()

			conf := testConfig()
			conf.Options.ExtendProbeTimeoutDuringDegradation = tt.extend

			mon := newTestSiloMonitor(conf, nil, nil, scorer)

			assert.Equal(t, tt.want, mon.timeout(tt.direct))
		})
	}
}

func TestSiloMonitor_HealthyWhileWaitingForResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockProber(ctrl)
	members := NewMockMembership(ctrl)

	conf := testConfig()
	conf.Options.ProbeTimeout = time.Second
	conf.Options.EnableIndirectProbes = false

	waiting := make(chan struct{}, 1)

	members.EXPECT().Snapshot().Return(cluster(2)).AnyTimes()
	prober.EXPECT().Probe(gomock.Any(), silo(2), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ membership.SiloAddress, _ int) error {
			select {
			case waiting <- struct{}{}:
			default:
			}

			<-ctx.Done()

			return ctx.Err()
		},
	).AnyTimes()

	mon := newTestSiloMonitor(conf, prober, members, nil)
	mon.Start()

	defer func() {
		assert.NoError(t, mon.Stop(context.Background()))
	}()

	select {
	case <-waiting:
	case <-time.After(5 * time.Second):
		t.Fatal("probe was not sent")
	}

	// An unresponsive target keeps the probe running for the whole timeout,
	// which is longer than the tick grace period.
	ok, reason := mon.CheckHealth(time.Now().Add(4 * time.Second))
	assert.True(t, ok, reason)

	ok, _ = mon.CheckHealth(time.Now().Add(time.Minute))
	assert.False(t, ok)
}

func TestSiloMonitor_DiscardsOutOfOrderResults(t *testing.T) {
	mon := newTestSiloMonitor(testConfig(), nil, nil, nil)

	first, second := mon.startProbe(), mon.startProbe()

	assert.True(t, mon.complete(second, func() {}))
	assert.False(t, mon.complete(first, func() {
		t.Fatal("stale result applied")
	}))
}

func TestSiloMonitor_DiscardsResultsAfterStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockProber(ctrl)
	members := NewMockMembership(ctrl)

	members.EXPECT().Snapshot().Return(cluster(2)).AnyTimes()
	prober.EXPECT().Probe(gomock.Any(), silo(2), gomock.Any()).Return(nil).AnyTimes()

	mon := newTestSiloMonitor(testConfig(), prober, members, nil)
	mon.Start()
	require.NoError(t, mon.Stop(context.Background()))

	_, ok := mon.probe(nil)
	assert.False(t, ok)
}

func TestSiloMonitor_LastResponseStartsAtCreation(t *testing.T) {
	mon := newTestSiloMonitor(testConfig(), nil, nil, nil)

	assert.Less(t, mon.ElapsedSinceLastResponse(), time.Second)
}

func TestSiloMonitor_ReportsResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockProber(ctrl)
	members := NewMockMembership(ctrl)

	members.EXPECT().Snapshot().Return(cluster(2)).AnyTimes()
	prober.EXPECT().Probe(gomock.Any(), silo(2), gomock.Any()).Return(nil).AnyTimes()

	results := make(chan ProbeResult, 100)
	mon := NewSiloMonitor(testConfig(), silo(2), prober, members, nil, func(_ *SiloMonitor, r ProbeResult) {
		select {
		case results <- r:
		default:
		}
	})

	mon.Start()
	t.Cleanup(func() {
		require.NoError(t, mon.Stop(context.Background()))
	})

	select {
	case r := <-results:
		assert.Equal(t, ProbeSucceeded, r.Status)
		assert.True(t, r.Direct)
	case <-time.After(5 * time.Second):
		t.Fatal("no probe result reported")
	}
}

func TestSiloMonitor_RecusesDegradedIntermediary(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockProber(ctrl)
	members := NewMockMembership(ctrl)

	conf := testConfig()
	conf.Options.ExtendProbeTimeoutDuringDegradation = false
	conf.Now = func() time.Time { return now }

	// Silo 3 is the only possible intermediary for probing silo 2.
	members.EXPECT().Snapshot().Return(cluster(3)).AnyTimes()

	prober.EXPECT().
		ProbeIndirectly(gomock.Any(), silo(3), silo(2), gomock.Any(), gomock.Any()).
		Return(IndirectProbeResponse{IntermediaryHealthScore: 4}, nil)

	direct := make(chan struct{}, 100)
	prober.EXPECT().Probe(gomock.Any(), silo(2), gomock.Any()).
		DoAndReturn(func(context.Context, membership.SiloAddress, int) error {
			select {
			case direct <- struct{}{}:
			default:
			}

			return errUnreachable
		}).
		AnyTimes()

	mon := NewSiloMonitor(conf, silo(2), prober, members, nil, nil)
	mon.failedProbes = 2

	mon.Start()
	t.Cleanup(func() {
		require.NoError(t, mon.Stop(context.Background()))
	})

	select {
	case <-direct:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not fall back to direct probes")
	}
}
