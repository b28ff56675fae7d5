package gossip

import (
	"context"
	"encoding/json"
	"sync/atomic"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/memberlist"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/siloring/internal/multierror"
	"github.com/maxpoletaev/siloring/internal/telemetry"
	"github.com/maxpoletaev/siloring/membership"
)

// overhead is the per-message framing cost assumed when filling a batch.
const overhead = 2

// Gossiper sends status change notifications to remote silos. Every change
// is delivered to all given partners at once; it is then kept in a transmit
// limited queue and piggybacked on later rounds, so that partners which
// missed it have another chance to learn about it.
type Gossiper struct {
	self      membership.SiloAddress
	transport Transport
	logger    kitlog.Logger
	maxBytes  int
	numNodes  atomic.Int64
	queue     *memberlist.TransmitLimitedQueue
}

var _ membership.Gossiper = (*Gossiper)(nil)

func New(conf Config, transport Transport) *Gossiper {
	g := &Gossiper{
		self:      conf.Silo,
		transport: transport,
		logger:    conf.Logger,
		maxBytes:  conf.MaxBatchBytes,
	}

	g.numNodes.Store(1)

	g.queue = &memberlist.TransmitLimitedQueue{
		NumNodes: func() int {
			return int(g.numNodes.Load())
		},
		RetransmitMult: conf.RetransmitMult,
	}

	return g
}

// Pending is the number of notifications still queued for piggybacking.
func (g *Gossiper) Pending() int {
	return g.queue.NumQueued()
}

// GossipToRemoteSilos notifies the partners that silo moved to status. The
// call fails only if no partner could be reached.
func (g *Gossiper) GossipToRemoteSilos(
	ctx context.Context,
	partners []membership.SiloAddress,
	snapshot *membership.Snapshot,
	silo membership.SiloAddress,
	status membership.SiloStatus,
) error {
	if len(partners) == 0 {
		return nil
	}

	current := Notification{
		Silo:    silo,
		Status:  status,
		Version: snapshot.Version,
	}

	g.numNodes.Store(int64(len(partners) + 1))

	var (
		errs = multierror.New[membership.SiloAddress]()
		wg   errgroup.Group
	)

	for _, partner := range partners {
		partner := partner
		batch := g.nextBatch(current)

		wg.Go(func() error {
			err := g.transport.SendGossip(ctx, partner, batch)
			telemetry.GossipTotal.WithLabelValues(telemetry.ResultLabel(err)).Inc()

			if err != nil {
				level.Debug(g.logger).Log("msg", "failed to gossip", "partner", partner, "err", err)
				errs.Add(partner, err)
			}

			return nil
		})
	}

	_ = wg.Wait()

	if b, err := newBroadcast(current); err == nil {
		g.queue.QueueBroadcast(b)
	}

	if errs.Len() == len(partners) {
		return errs.Combined()
	}

	if errs.Len() > 0 {
		level.Warn(g.logger).Log("msg", "some partners were not notified", "failed", errs.Len(), "partners", len(partners), "err", errs)
	}

	return nil
}

// nextBatch combines the current notification with the queued ones that are
// still worth retransmitting.
func (g *Gossiper) nextBatch(current Notification) Batch {
	batch := Batch{
		Sender:        g.self,
		Notifications: []Notification{current},
	}

	for _, msg := range g.queue.GetBroadcasts(overhead, g.maxBytes) {
		var n Notification

		if err := json.Unmarshal(msg, &n); err != nil {
			level.Warn(g.logger).Log("msg", "dropping malformed queued notification", "err", err)
			continue
		}

		if n.Silo == current.Silo && n.Version <= current.Version {
			continue
		}

		batch.Notifications = append(batch.Notifications, n)
	}

	return batch
}
