package gossip

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/siloring/internal/telemetry"
	"github.com/maxpoletaev/siloring/membership"
)

var errUnreachable = errors.New("unreachable")

func silo(port int) membership.SiloAddress {
	return membership.SiloAddress{Host: "10.0.0.1", Port: uint16(port), Generation: 1}
}

func version(v int64) *membership.Snapshot {
	return &membership.Snapshot{Version: v}
}

type recordingTransport struct {
	mu      sync.Mutex
	batches map[membership.SiloAddress][]Batch
}

func (r *recordingTransport) record(_ context.Context, target membership.SiloAddress, batch Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.batches == nil {
		r.batches = make(map[membership.SiloAddress][]Batch)
	}

	r.batches[target] = append(r.batches[target], batch)

	return nil
}

func (r *recordingTransport) last(target membership.SiloAddress) Batch {
	r.mu.Lock()
	defer r.mu.Unlock()

	batches := r.batches[target]

	return batches[len(batches)-1]
}

func newTestGossiper(t *testing.T, mult int) (*Gossiper, *MockTransport, *recordingTransport) {
	ctrl := gomock.NewController(t)
	transport := NewMockTransport(ctrl)
	rec := &recordingTransport{}

	conf := DefaultConfig()
	conf.Silo = silo(1)
	conf.RetransmitMult = mult

	return New(conf, transport), transport, rec
}

func TestGossiper_SendsToAllPartners(t *testing.T) {
	g, transport, rec := newTestGossiper(t, 3)
	partners := []membership.SiloAddress{silo(2), silo(3), silo(4)}

	transport.EXPECT().SendGossip(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(rec.record).
		Times(len(partners))

	err := g.GossipToRemoteSilos(context.Background(), partners, version(7), silo(5), membership.StatusDead)
	require.NoError(t, err)

	want := Notification{Silo: silo(5), Status: membership.StatusDead, Version: 7}

	for _, p := range partners {
		batch := rec.last(p)
		assert.Equal(t, silo(1), batch.Sender)
		assert.Equal(t, []Notification{want}, batch.Notifications)
	}

	assert.Equal(t, 1, g.Pending())
}

func TestGossiper_PiggybacksPendingNotifications(t *testing.T) {
	g, transport, rec := newTestGossiper(t, 3)
	partners := []membership.SiloAddress{silo(2)}

	transport.EXPECT().SendGossip(gomock.Any(), silo(2), gomock.Any()).
		DoAndReturn(rec.record).
		Times(2)

	require.NoError(t, g.GossipToRemoteSilos(context.Background(), partners, version(3), silo(5), membership.StatusDead))
	require.NoError(t, g.GossipToRemoteSilos(context.Background(), partners, version(4), silo(6), membership.StatusActive))

	assert.Equal(t, []Notification{
		{Silo: silo(6), Status: membership.StatusActive, Version: 4},
		{Silo: silo(5), Status: membership.StatusDead, Version: 3},
	}, rec.last(silo(2)).Notifications)
}

func TestGossiper_NewerNotificationReplacesOlder(t *testing.T) {
	g, transport, rec := newTestGossiper(t, 3)
	partners := []membership.SiloAddress{silo(2)}

	transport.EXPECT().SendGossip(gomock.Any(), silo(2), gomock.Any()).
		DoAndReturn(rec.record).
		Times(2)

	require.NoError(t, g.GossipToRemoteSilos(context.Background(), partners, version(3), silo(5), membership.StatusJoining))
	require.NoError(t, g.GossipToRemoteSilos(context.Background(), partners, version(4), silo(5), membership.StatusActive))

	assert.Equal(t, []Notification{
		{Silo: silo(5), Status: membership.StatusActive, Version: 4},
	}, rec.last(silo(2)).Notifications)

	assert.Equal(t, 1, g.Pending())
}

func TestGossiper_RetransmitLimit(t *testing.T) {
	g, transport, rec := newTestGossiper(t, 1)
	partners := []membership.SiloAddress{silo(2)}

	transport.EXPECT().SendGossip(gomock.Any(), silo(2), gomock.Any()).
		DoAndReturn(rec.record).
		Times(3)

	require.NoError(t, g.GossipToRemoteSilos(context.Background(), partners, version(1), silo(5), membership.StatusActive))
	require.NoError(t, g.GossipToRemoteSilos(context.Background(), partners, version(2), silo(6), membership.StatusActive))
	require.NoError(t, g.GossipToRemoteSilos(context.Background(), partners, version(3), silo(7), membership.StatusActive))

	// With two nodes every notification is retransmitted once.
	assert.Equal(t, []Notification{
		{Silo: silo(7), Status: membership.StatusActive, Version: 3},
		{Silo: silo(6), Status: membership.StatusActive, Version: 2},
	}, rec.last(silo(2)).Notifications)
}

func TestGossiper_Failures(t *testing.T) {
	tests := map[string]struct {
		failing []membership.SiloAddress
		wantErr bool
	}{
		"all delivered": {},
		"some partners unreachable": {
			failing: []membership.SiloAddress{silo(2)},
		},
		"all partners unreachable": {
			failing: []membership.SiloAddress{silo(2), silo(3)},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			g, transport, _ := newTestGossiper(t, 3)
			partners := []membership.SiloAddress{silo(2), silo(3)}
			failuresBefore := testutil.ToFloat64(telemetry.GossipTotal.WithLabelValues("failure"))

			for _, p := range partners {
				var err error

				for _, f := range tt.failing {
					if f == p {
						err = errUnreachable
					}
				}

				transport.EXPECT().SendGossip(gomock.Any(), p, gomock.Any()).Return(err)
			}

			err := g.GossipToRemoteSilos(context.Background(), partners, version(1), silo(5), membership.StatusDead)

			if tt.wantErr {
				assert.ErrorIs(t, err, errUnreachable)
			} else {
				assert.NoError(t, err)
			}

			failures := testutil.ToFloat64(telemetry.GossipTotal.WithLabelValues("failure")) - failuresBefore
			assert.Equal(t, float64(len(tt.failing)), failures)
		})
	}
}

func TestGossiper_NoPartners(t *testing.T) {
	g, _, _ := newTestGossiper(t, 3)

	require.NoError(t, g.GossipToRemoteSilos(context.Background(), nil, version(1), silo(5), membership.StatusDead))
	assert.Equal(t, 0, g.Pending())
}
