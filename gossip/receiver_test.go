package gossip

import (
	"context"
	"testing"

	"github.com/go-kit/log"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/maxpoletaev/siloring/membership"
)

func TestReceiver_Receive(t *testing.T) {
	snap := &membership.Snapshot{
		Version: 5,
		Entries: map[membership.SiloAddress]*membership.Entry{
			silo(1): {Address: silo(1), Status: membership.StatusActive},
			silo(2): {Address: silo(2), Status: membership.StatusActive},
		},
	}

	tests := map[string]struct {
		notifications []Notification
		refresh       bool
		refreshErr    error
	}{
		"known state": {
			notifications: []Notification{{Silo: silo(2), Status: membership.StatusActive, Version: 4}},
		},
		"newer version": {
			notifications: []Notification{{Silo: silo(2), Status: membership.StatusActive, Version: 6}},
			refresh:       true,
		},
		"status differs": {
			notifications: []Notification{{Silo: silo(2), Status: membership.StatusDead, Version: 5}},
			refresh:       true,
		},
		"unknown silo": {
			notifications: []Notification{{Silo: silo(3), Status: membership.StatusJoining, Version: 2}},
			refresh:       true,
		},
		"removed dead silo": {
			notifications: []Notification{{Silo: silo(3), Status: membership.StatusDead, Version: 2}},
		},
		"refresh fails": {
			notifications: []Notification{{Silo: silo(2), Status: membership.StatusDead, Version: 6}},
			refresh:       true,
			refreshErr:    errUnreachable,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			members := NewMockMembership(ctrl)
			members.EXPECT().Snapshot().Return(snap)

			if tt.refresh {
				members.EXPECT().Refresh(gomock.Any()).Return(tt.refreshErr)
			}

			r := NewReceiver(members, log.NewNopLogger())
			err := r.Receive(context.Background(), Batch{Sender: silo(9), Notifications: tt.notifications})

			if tt.refreshErr != nil {
				assert.ErrorIs(t, err, tt.refreshErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
