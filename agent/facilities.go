package agent

//go:generate mockgen -source=facilities.go -destination=facilities_mock.go -package=agent

import (
	"context"

	"github.com/maxpoletaev/siloring/membership"
)

// Membership is the part of the table manager that drives the local silo
// through its lifecycle.
type Membership interface {
	LocalSilo() membership.SiloAddress
	Snapshot() *membership.Snapshot
	CurrentStatus() membership.SiloStatus
	UpdateStatus(ctx context.Context, status membership.SiloStatus) error
	UpdateIAmAlive(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Prober sends a direct probe to a remote silo.
type Prober interface {
	Probe(ctx context.Context, target membership.SiloAddress, probeNumber int) error
}
