package oracle

//go:generate mockgen -source=facilities.go -destination=facilities_mock.go -package=oracle

import (
	"github.com/maxpoletaev/siloring/membership"
)

// Membership is the source of truth the oracle projects.
type Membership interface {
	LocalSilo() membership.SiloAddress
	CurrentStatus() membership.SiloStatus
	Snapshot() *membership.Snapshot
	Subscribe() *membership.Subscription
}

// Listener is notified about every silo status change observed locally.
type Listener interface {
	SiloStatusChangeNotification(silo membership.SiloAddress, status membership.SiloStatus)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(silo membership.SiloAddress, status membership.SiloStatus)

func (f ListenerFunc) SiloStatusChangeNotification(silo membership.SiloAddress, status membership.SiloStatus) {
	f(silo, status)
}
