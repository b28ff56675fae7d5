package api

//go:generate mockgen -source=facilities.go -destination=facilities_mock.go -package=api

import (
	"time"

	"github.com/maxpoletaev/siloring/membership"
)

// Oracle is the read-only view of the cluster served by the API.
type Oracle interface {
	LocalSilo() membership.SiloAddress
	CurrentStatus() membership.SiloStatus
	Snapshot() *membership.ClusterSnapshot
}

// Health reports the local health degradation score and its reasons.
type Health interface {
	Score(now time.Time) int
	Complaints() []string
}
