package oracle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/siloring/internal/generic"
	"github.com/maxpoletaev/siloring/membership"
)

// Oracle is a read-only projection of the membership snapshots published by
// the table manager. It answers status queries and notifies listeners about
// status changes in the order they were observed.
type Oracle struct {
	members Membership
	logger  kitlog.Logger
	current atomic.Pointer[membership.ClusterSnapshot]

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(members Membership, logger kitlog.Logger) *Oracle {
	o := &Oracle{
		members:   members,
		logger:    logger,
		listeners: make(map[uint64]Listener),
	}

	o.ctx, o.cancel = context.WithCancel(context.Background())

	return o
}

// Start begins dispatching membership changes to listeners.
func (o *Oracle) Start() {
	sub := o.members.Subscribe()

	o.wg.Add(1)

	go func() {
		defer o.wg.Done()
		defer sub.Close()

		for {
			select {
			case <-o.ctx.Done():
				return
			case snap := <-sub.Updates():
				o.process(snap.ClusterSnapshot())
			}
		}
	}()
}

func (o *Oracle) Stop(ctx context.Context) error {
	o.cancel()

	done := make(chan struct{})

	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("silo status oracle did not stop in time: %w", ctx.Err())
	}
}

// Snapshot returns the cluster view the listeners were last notified about.
func (o *Oracle) Snapshot() *membership.ClusterSnapshot {
	if snap := o.current.Load(); snap != nil {
		return snap
	}

	return o.members.Snapshot().ClusterSnapshot()
}

func (o *Oracle) LocalSilo() membership.SiloAddress {
	return o.members.LocalSilo()
}

// CurrentStatus is the status of the local silo.
func (o *Oracle) CurrentStatus() membership.SiloStatus {
	return o.members.CurrentStatus()
}

// ApproximateSiloStatus returns the last known status of the silo. The local
// silo always reports its own current status. A silo superseded by a newer
// generation on the same endpoint is reported dead even after its entry was
// removed from the table.
func (o *Oracle) ApproximateSiloStatus(silo membership.SiloAddress) membership.SiloStatus {
	if silo == o.members.LocalSilo() {
		return o.members.CurrentStatus()
	}

	snap := o.Snapshot()

	if status := snap.Status(silo); status != membership.StatusNone {
		return status
	}

	for addr := range snap.Members {
		if addr.IsSuccessorOf(silo) {
			return membership.StatusDead
		}
	}

	return membership.StatusNone
}

// ApproximateSiloStatuses returns the status of every known silo, or of the
// active ones only.
func (o *Oracle) ApproximateSiloStatuses(onlyActive bool) map[membership.SiloAddress]membership.SiloStatus {
	var (
		snap     = o.Snapshot()
		self     = o.members.LocalSilo()
		statuses = make(map[membership.SiloAddress]membership.SiloStatus, len(snap.Members))
	)

	for addr, m := range snap.Members {
		status := m.Status
		if addr == self {
			status = o.members.CurrentStatus()
		}

		if onlyActive && status != membership.StatusActive {
			continue
		}

		statuses[addr] = status
	}

	return statuses
}

// ActiveSilos returns the active silos ordered by address.
func (o *Oracle) ActiveSilos() []membership.SiloAddress {
	silos := generic.MapKeys(o.ApproximateSiloStatuses(true))
	generic.SortBy(silos, membership.SiloAddress.String)

	return silos
}

func (o *Oracle) IsDeadSilo(silo membership.SiloAddress) bool {
	return o.ApproximateSiloStatus(silo) == membership.StatusDead
}

func (o *Oracle) IsFunctional(silo membership.SiloAddress) bool {
	return o.ApproximateSiloStatus(silo).IsFunctional()
}

// Subscribe registers a listener for status changes. The returned handle
// must be closed to stop receiving notifications.
func (o *Oracle) Subscribe(l Listener) *Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	o.listeners[id] = l

	return &Handle{oracle: o, id: id}
}

func (o *Oracle) unsubscribe(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.listeners[id]; !ok {
		return false
	}

	delete(o.listeners, id)

	return true
}

func (o *Oracle) process(next *membership.ClusterSnapshot) {
	previous := o.current.Load()
	if previous != nil && next.Version <= previous.Version {
		return
	}

	update := next.CreateUpdate(previous)
	o.current.Store(next)

	if !update.HasChanges() {
		return
	}

	o.mu.Lock()
	listeners := make([]Listener, 0, len(o.listeners))
	ids := make([]uint64, 0, len(o.listeners))

	for id := range o.listeners {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		listeners = append(listeners, o.listeners[id])
	}
	o.mu.Unlock()

	generic.SortBy(update.Changes, func(m membership.ClusterMember) string {
		return m.Address.String()
	})

	for _, change := range update.Changes {
		level.Debug(o.logger).Log("msg", "silo status changed", "silo", change.Address, "status", change.Status, "version", next.Version)

		for _, l := range listeners {
			o.notify(l, change)
		}
	}
}

func (o *Oracle) notify(l Listener, change membership.ClusterMember) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(o.logger).Log("msg", "silo status listener panicked", "silo", change.Address, "panic", r)
		}
	}()

	l.SiloStatusChangeNotification(change.Address, change.Status)
}

// Handle is a listener registration.
type Handle struct {
	oracle *Oracle
	id     uint64
}

// Close unsubscribes the listener. It reports false if it was already closed.
func (h *Handle) Close() bool {
	return h.oracle.unsubscribe(h.id)
}
