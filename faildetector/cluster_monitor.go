package faildetector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/siloring/internal/generic"
	"github.com/maxpoletaev/siloring/internal/multierror"
	"github.com/maxpoletaev/siloring/internal/telemetry"
	"github.com/maxpoletaev/siloring/membership"
)

// ClusterMonitor keeps one SiloMonitor per silo selected for monitoring and
// turns their probe results into suspicions. The set of monitors is rebuilt
// on every membership snapshot.
type ClusterMonitor struct {
	conf     Config
	members  Membership
	prober   Prober
	scorer   HealthScorer
	logger   kitlog.Logger
	monitors atomic.Pointer[map[membership.SiloAddress]*SiloMonitor]

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(conf Config, members Membership, prober Prober, scorer HealthScorer) *ClusterMonitor {
	m := &ClusterMonitor{
		conf:    conf,
		members: members,
		prober:  prober,
		scorer:  scorer,
		logger:  conf.Logger,
	}

	m.monitors.Store(&map[membership.SiloAddress]*SiloMonitor{})
	m.ctx, m.cancel = context.WithCancel(context.Background())

	return m
}

// Start subscribes to membership updates and begins monitoring.
func (m *ClusterMonitor) Start() {
	sub := m.members.Subscribe()

	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer sub.Close()

		for {
			select {
			case <-m.ctx.Done():
				return
			case snap := <-sub.Updates():
				m.update(snap)
			}
		}
	}()
}

// Stop stops the update loop and every silo monitor.
func (m *ClusterMonitor) Stop(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})

	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("cluster health monitor did not stop in time: %w", ctx.Err())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := *m.monitors.Load()
	m.monitors.Store(&map[membership.SiloAddress]*SiloMonitor{})

	return stopAll(ctx, current)
}

// SiloMonitors returns the monitors currently running, ordered by target.
func (m *ClusterMonitor) SiloMonitors() []*SiloMonitor {
	current := *m.monitors.Load()
	list := make([]*SiloMonitor, 0, len(current))

	for _, mon := range current {
		list = append(list, mon)
	}

	sort.Slice(list, func(i, j int) bool {
		return compareAddresses(list[i].Target(), list[j].Target()) < 0
	})

	return list
}

// LastProbeResponse reports the number of monitored silos and the shortest
// time since any of them answered a probe. ok is false when no silo is
// monitored.
func (m *ClusterMonitor) LastProbeResponse() (monitored int, elapsed time.Duration, ok bool) {
	current := *m.monitors.Load()
	if len(current) == 0 {
		return 0, 0, false
	}

	elapsed = time.Duration(1<<63 - 1)

	for _, mon := range current {
		if e := mon.ElapsedSinceLastResponse(); e < elapsed {
			elapsed = e
		}
	}

	return len(current), elapsed, true
}

// CheckHealth reports unhealthy if any probe loop has stalled.
func (m *ClusterMonitor) CheckHealth(now time.Time) (bool, string) {
	for _, mon := range m.SiloMonitors() {
		if ok, reason := mon.CheckHealth(now); !ok {
			return false, reason
		}
	}

	return true, ""
}

func (m *ClusterMonitor) update(snap *membership.Snapshot) {
	now := m.conf.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return
	}

	current := *m.monitors.Load()
	targets := SelectMonitoredSilos(snap, m.conf.Silo, m.conf.Options, now)
	next := make(map[membership.SiloAddress]*SiloMonitor, len(targets))

	for _, target := range targets {
		if mon, ok := current[target]; ok {
			next[target] = mon
			continue
		}

		mon := NewSiloMonitor(m.conf, target, m.prober, m.members, m.scorer, m.onProbeResult)
		next[target] = mon
		mon.Start()

		level.Debug(m.logger).Log("msg", "started monitoring silo", "target", target)
	}

	removed := generic.MapClone(current)

	for target := range next {
		delete(removed, target)
	}

	m.monitors.Store(&next)
	telemetry.MonitoredSilos.Set(float64(len(next)))

	if len(removed) > 0 {
		m.wg.Add(1)

		go func() {
			defer m.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), m.conf.Options.ProbeTimeout)
			defer cancel()

			if err := stopAll(ctx, removed); err != nil {
				level.Warn(m.logger).Log("msg", "failed to stop silo monitors", "err", err)
			}
		}()
	}

	if m.conf.Options.EvictWhenMaxJoinAttemptTimeExceeded {
		m.evictStuckJoiners(snap, now)
	}
}

// evictStuckJoiners kills silos that have been trying to join for longer
// than MaxJoinAttemptTime. Only an active silo may do so.
func (m *ClusterMonitor) evictStuckJoiners(snap *membership.Snapshot, now time.Time) {
	if snap.Status(m.conf.Silo) != membership.StatusActive {
		return
	}

	for addr, entry := range snap.Entries {
		if addr == m.conf.Silo {
			continue
		}

		if entry.Status != membership.StatusCreated && entry.Status != membership.StatusJoining {
			continue
		}

		if joining := now.Sub(entry.StartTime); joining > m.conf.Options.MaxJoinAttemptTime {
			level.Warn(m.logger).Log(
				"msg", "silo exceeded the maximum join attempt time",
				"silo", addr,
				"status", entry.Status,
				"joining_for", joining,
			)

			m.members.TryKill(addr)
		}
	}
}

func (m *ClusterMonitor) onProbeResult(mon *SiloMonitor, result ProbeResult) {
	if _, ok := (*m.monitors.Load())[mon.Target()]; !ok {
		return
	}

	if result.Direct {
		if result.Status == ProbeFailed && result.FailedProbeCount >= m.conf.Options.NumMissedProbesLimit {
			m.members.TryToSuspectOrKill(mon.Target(), nil)
		}

		return
	}

	if result.Status == ProbeFailed {
		intermediary := result.Intermediary
		m.members.TryToSuspectOrKill(mon.Target(), &intermediary)
	}
}

func stopAll(ctx context.Context, monitors map[membership.SiloAddress]*SiloMonitor) error {
	errs := multierror.New[membership.SiloAddress]()
	g := errgroup.Group{}

	for target, mon := range monitors {
		target, mon := target, mon

		g.Go(func() error {
			if err := mon.Stop(ctx); err != nil {
				errs.Add(target, err)
			}

			return nil
		})
	}

	_ = g.Wait()

	return errs.Combined()
}
