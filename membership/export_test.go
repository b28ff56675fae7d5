package membership

import (
	"context"
)

func (m *TableManager) SuspectOrKillNow(ctx context.Context, target, intermediary SiloAddress) (bool, error) {
	return m.tryToSuspectOrKill(ctx, target, intermediary)
}

func (m *TableManager) KillNow(ctx context.Context, target SiloAddress) (bool, error) {
	return m.tryKill(ctx, target)
}

// PendingRequests drains the suspect-or-kill queue and returns the targets
// in queue order.
func (m *TableManager) PendingRequests() []SiloAddress {
	var targets []SiloAddress

	for {
		select {
		case req := <-m.requests:
			targets = append(targets, req.target)
		default:
			return targets
		}
	}
}

const SuspectQueueSize = suspectQueueSize
