package gossip

import (
	"encoding/json"

	"github.com/hashicorp/memberlist"

	"github.com/maxpoletaev/siloring/membership"
)

// Notification announces that Silo moved to Status in the table version
// Version.
type Notification struct {
	Silo    membership.SiloAddress `json:"silo"`
	Status  membership.SiloStatus  `json:"status"`
	Version int64                  `json:"version"`
}

// Batch is the unit of gossip exchanged between two silos.
type Batch struct {
	Sender        membership.SiloAddress `json:"sender"`
	Notifications []Notification         `json:"notifications"`
}

// broadcast adapts a notification to the memberlist broadcast queue.
type broadcast struct {
	n   Notification
	msg []byte
}

var _ memberlist.Broadcast = (*broadcast)(nil)

func newBroadcast(n Notification) (*broadcast, error) {
	msg, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}

	return &broadcast{n: n, msg: msg}, nil
}

// Invalidates drops a queued notification about the same silo that is not
// newer than this one.
func (b *broadcast) Invalidates(other memberlist.Broadcast) bool {
	o, ok := other.(*broadcast)
	if !ok {
		return false
	}

	return o.n.Silo == b.n.Silo && o.n.Version <= b.n.Version
}

func (b *broadcast) Message() []byte {
	return b.msg
}

func (b *broadcast) Finished() {}
