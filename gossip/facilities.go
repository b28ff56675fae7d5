package gossip

//go:generate mockgen -source=facilities.go -destination=facilities_mock.go -package=gossip

import (
	"context"

	"github.com/maxpoletaev/siloring/membership"
)

// Transport delivers notification batches to remote silos.
type Transport interface {
	SendGossip(ctx context.Context, target membership.SiloAddress, batch Batch) error
}

// Membership is used by the receiving side to refresh the local view when a
// notification reveals that it is outdated.
type Membership interface {
	Snapshot() *membership.Snapshot
	Refresh(ctx context.Context) error
}
