package gossip

import (
	"context"
	"fmt"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/siloring/membership"
)

// Receiver handles notification batches sent by remote gossipers. A
// notification is only a hint: when it shows that the local view is behind,
// the table is re-read.
type Receiver struct {
	members Membership
	logger  kitlog.Logger
}

func NewReceiver(members Membership, logger kitlog.Logger) *Receiver {
	return &Receiver{
		members: members,
		logger:  logger,
	}
}

func (r *Receiver) Receive(ctx context.Context, batch Batch) error {
	snap := r.members.Snapshot()
	outdated := false

	for _, n := range batch.Notifications {
		if isNews(snap, n) {
			outdated = true
			break
		}
	}

	if !outdated {
		level.Debug(r.logger).Log("msg", "gossip carries no news", "from", batch.Sender, "notifications", len(batch.Notifications))
		return nil
	}

	level.Debug(r.logger).Log("msg", "refreshing membership after gossip", "from", batch.Sender)

	if err := r.members.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh membership: %w", err)
	}

	return nil
}

func isNews(snap *membership.Snapshot, n Notification) bool {
	if n.Version > snap.Version {
		return true
	}

	known := snap.Status(n.Silo)

	// Dead entries may already be cleaned up from the table.
	if known == membership.StatusNone && n.Status == membership.StatusDead {
		return false
	}

	return known != n.Status
}
