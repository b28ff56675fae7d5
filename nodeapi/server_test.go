package nodeapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/maxpoletaev/siloring/gossip"
	"github.com/maxpoletaev/siloring/internal/grpcutil"
	"github.com/maxpoletaev/siloring/membership"
)

var errUnreachable = errors.New("unreachable")

func silo(port int) membership.SiloAddress {
	return membership.SiloAddress{Host: "10.0.0.1", Port: uint16(port), Generation: 1}
}

type serverMocks struct {
	prober   *MockProber
	requests *MockProbeRequests
	scorer   *MockHealthScorer
	receiver *MockGossipReceiver
}

func newTestServer(t *testing.T) (*Server, serverMocks) {
	ctrl := gomock.NewController(t)

	m := serverMocks{
		prober:   NewMockProber(ctrl),
		requests: NewMockProbeRequests(ctrl),
		scorer:   NewMockHealthScorer(ctrl),
		receiver: NewMockGossipReceiver(ctrl),
	}

	conf := DefaultServerConfig()
	conf.Silo = silo(1)

	return NewServer(conf, m.prober, m.requests, m.scorer, m.receiver), m
}

func TestServer_Ping(t *testing.T) {
	tests := map[string]struct {
		target   membership.SiloAddress
		accepted bool
	}{
		"addressed to local silo": {
			target:   silo(1),
			accepted: true,
		},
		"no target": {
			accepted: true,
		},
		"older generation": {
			target: membership.SiloAddress{Host: "10.0.0.1", Port: 1, Generation: 0},
		},
		"other silo": {
			target: silo(2),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv, m := newTestServer(t)

			if tt.accepted {
				m.requests.EXPECT().OnReceivedProbeRequest()
			}

			_, err := srv.Ping(context.Background(), &PingRequest{Target: tt.target, ProbeNumber: 1})

			if tt.accepted {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, codes.FailedPrecondition, grpcutil.ErrorCode(err))
			}
		})
	}
}

func TestServer_ProbeIndirectly(t *testing.T) {
	tests := map[string]struct {
		probeErr error
		want     bool
	}{
		"target responds": {
			want: true,
		},
		"target unreachable": {
			probeErr: errUnreachable,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv, m := newTestServer(t)

			m.prober.EXPECT().Probe(gomock.Any(), silo(3), 7).DoAndReturn(
				func(ctx context.Context, _ membership.SiloAddress, _ int) error {
					_, ok := ctx.Deadline()
					assert.True(t, ok, "probe must be bounded by the requested timeout")
					return tt.probeErr
				},
			)

			m.scorer.EXPECT().Score(gomock.Any()).Return(2)

			resp, err := srv.ProbeIndirectly(context.Background(), &IndirectProbeRequest{
				Target:      silo(3),
				Timeout:     time.Second,
				ProbeNumber: 7,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Succeeded)
			assert.Equal(t, 2, resp.IntermediaryHealthScore)

			if tt.probeErr != nil {
				assert.Equal(t, errUnreachable.Error(), resp.FailureMessage)
			} else {
				assert.Empty(t, resp.FailureMessage)
			}
		})
	}
}

func TestServer_ProbeIndirectly_InvalidRequest(t *testing.T) {
	tests := map[string]*IndirectProbeRequest{
		"no target":  {Timeout: time.Second},
		"no timeout": {Target: silo(3)},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t)

			_, err := srv.ProbeIndirectly(context.Background(), req)
			assert.Equal(t, codes.InvalidArgument, grpcutil.ErrorCode(err))
		})
	}
}

func TestServer_Gossip(t *testing.T) {
	batch := &gossip.Batch{
		Sender: silo(2),
		Notifications: []gossip.Notification{
			{Silo: silo(3), Status: membership.StatusDead, Version: 4},
		},
	}

	t.Run("accepted", func(t *testing.T) {
		srv, m := newTestServer(t)
		m.receiver.EXPECT().Receive(gomock.Any(), *batch).Return(nil)

		_, err := srv.Gossip(context.Background(), batch)
		assert.NoError(t, err)
	})

	t.Run("caller gone", func(t *testing.T) {
		srv, m := newTestServer(t)
		m.receiver.EXPECT().Receive(gomock.Any(), *batch).Return(context.Canceled)

		_, err := srv.Gossip(context.Background(), batch)
		assert.Equal(t, codes.Canceled, grpcutil.ErrorCode(err))
	})

	t.Run("refresh fails", func(t *testing.T) {
		srv, m := newTestServer(t)
		m.receiver.EXPECT().Receive(gomock.Any(), *batch).Return(errUnreachable)

		_, err := srv.Gossip(context.Background(), batch)
		assert.Equal(t, codes.Unavailable, grpcutil.ErrorCode(err))
	})
}
