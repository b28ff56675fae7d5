package faildetector

//go:generate mockgen -source=facilities.go -destination=facilities_mock.go -package=faildetector

import (
	"context"
	"time"

	"github.com/maxpoletaev/siloring/membership"
)

// Prober sends probes to remote silos.
type Prober interface {
	// Probe sends a ping directly to the target.
	Probe(ctx context.Context, target membership.SiloAddress, probeNumber int) error

	// ProbeIndirectly asks the intermediary to probe the target on behalf of
	// the local silo, using timeout for its own direct probe.
	ProbeIndirectly(
		ctx context.Context,
		intermediary, target membership.SiloAddress,
		timeout time.Duration,
		probeNumber int,
	) (IndirectProbeResponse, error)
}

// Membership is the part of the membership table manager the monitors rely on.
type Membership interface {
	Snapshot() *membership.Snapshot
	Subscribe() *membership.Subscription
	TryToSuspectOrKill(target membership.SiloAddress, intermediary *membership.SiloAddress)
	TryKill(target membership.SiloAddress)
}

// HealthScorer reports the local health degradation score.
type HealthScorer interface {
	Score(now time.Time) int
}
