package health

//go:generate mockgen -source=facilities.go -destination=facilities_mock.go -package=health

import (
	"time"

	"github.com/maxpoletaev/siloring/membership"
)

// Membership provides the latest membership snapshot.
type Membership interface {
	Snapshot() *membership.Snapshot
}

// ProbeResponses reports how recently any monitored silo answered a probe.
type ProbeResponses interface {
	LastProbeResponse() (monitored int, elapsed time.Duration, ok bool)
}

// Participant is a component able to tell whether it is working properly,
// typically a periodic loop that checks its timer is not overdue.
type Participant interface {
	CheckHealth(now time.Time) (bool, string)
}
