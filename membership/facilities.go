package membership

import (
	"context"
)

//go:generate mockgen -source=facilities.go -destination=facilities_mock_test.go -package=membership

// Gossiper delivers status change notifications to remote silos.
type Gossiper interface {
	GossipToRemoteSilos(ctx context.Context, partners []SiloAddress, snapshot *Snapshot, silo SiloAddress, status SiloStatus) error
}

// FatalErrorHandler is invoked when the local silo can no longer take part
// in the cluster and must terminate.
type FatalErrorHandler interface {
	OnFatalError(source string, err error)
}

// FatalFunc adapts a function to the FatalErrorHandler interface.
type FatalFunc func(source string, err error)

func (f FatalFunc) OnFatalError(source string, err error) {
	f(source, err)
}
