package nodeapi

//go:generate mockgen -source=facilities.go -destination=facilities_mock.go -package=nodeapi

import (
	"context"
	"time"

	"github.com/maxpoletaev/siloring/gossip"
	"github.com/maxpoletaev/siloring/membership"
)

// Prober is used by the server to probe a target on behalf of another silo.
type Prober interface {
	Probe(ctx context.Context, target membership.SiloAddress, probeNumber int) error
}

// ProbeRequests records incoming probes for the local health monitor.
type ProbeRequests interface {
	OnReceivedProbeRequest()
}

// HealthScorer reports the local health degradation score.
type HealthScorer interface {
	Score(now time.Time) int
}

// GossipReceiver handles notification batches from remote silos.
type GossipReceiver interface {
	Receive(ctx context.Context, batch gossip.Batch) error
}
