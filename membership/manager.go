package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"

	"github.com/maxpoletaev/siloring/internal/backoff"
	"github.com/maxpoletaev/siloring/internal/periodic"
	"github.com/maxpoletaev/siloring/internal/telemetry"
)

const (
	gossipTimeout         = 3 * time.Second
	suspectQueueSize      = 100
	refreshKey            = "refresh"
	fatalSourceMembership = "membership"
)

var (
	// ErrTableContention is returned when a conditional write kept losing
	// to concurrent writers.
	ErrTableContention = errors.New("membership table write conflict")

	// ErrSiloDead is reported when the local silo finds itself declared dead.
	ErrSiloDead = errors.New("local silo is dead")
)

// TableManager owns the local view of the membership table. It performs all
// conditional writes on behalf of the local silo, runs the eviction protocol
// and publishes every newer table version as a snapshot.
type TableManager struct {
	opts     Options
	self     SiloAddress
	local    Entry
	table    Table
	gossiper Gossiper
	fatal    FatalErrorHandler
	logger   kitlog.Logger
	now      func() time.Time

	status   atomic.Uint32
	updates  *UpdateStream
	group    singleflight.Group
	requests chan suspectRequest
	killOnce sync.Once

	refreshTimer *periodic.Timer
	cleanupTimer *periodic.Timer

	contentionBackoff backoff.Exponential
	errorBackoff      backoff.Exponential

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTableManager(conf Config, table Table, gossiper Gossiper, fatal FatalErrorHandler) *TableManager {
	m := &TableManager{
		opts:     conf.Options,
		self:     conf.Silo,
		table:    table,
		gossiper: gossiper,
		fatal:    fatal,
		logger:   conf.Logger,
		now:      conf.Now,
		requests: make(chan suspectRequest, suspectQueueSize),
		contentionBackoff: backoff.Exponential{
			Min:  100 * time.Millisecond,
			Max:  time.Minute,
			Step: time.Second,
		},
		errorBackoff: backoff.Exponential{
			Min:  time.Second,
			Max:  time.Minute,
			Step: time.Second,
		},
	}

	m.local = Entry{
		Address:   conf.Silo,
		Name:      conf.Name,
		HostName:  conf.HostName,
		Role:      conf.Role,
		Status:    StatusCreated,
		StartTime: m.now(),
	}

	m.refreshTimer = periodic.New("membership-refresh", m.opts.TableRefreshTimeout,
		periodic.WithGrace(m.opts.TableRefreshTimeout))
	m.cleanupTimer = periodic.New("defunct-cleanup", m.opts.DefunctSiloCleanupPeriod)

	m.status.Store(uint32(StatusCreated))
	m.updates = NewUpdateStream(initialSnapshot(m.local.Copy()))
	m.ctx, m.cancel = context.WithCancel(context.Background())

	return m
}

func (m *TableManager) LocalSilo() SiloAddress {
	return m.self
}

func (m *TableManager) Options() Options {
	return m.opts
}

// CurrentStatus is the status of the local silo as last written by it.
func (m *TableManager) CurrentStatus() SiloStatus {
	return SiloStatus(m.status.Load())
}

func (m *TableManager) setStatus(status SiloStatus) {
	m.status.Store(uint32(status))
}

func (m *TableManager) isStopping() bool {
	return m.ctx.Err() != nil || m.CurrentStatus().IsTerminating()
}

// Snapshot returns the latest published snapshot.
func (m *TableManager) Snapshot() *Snapshot {
	return m.updates.Current()
}

// Subscribe starts receiving snapshots from the current one onwards.
func (m *TableManager) Subscribe() *Subscription {
	return m.updates.Subscribe()
}

// Start reads the table, removes stale incarnations of the local silo and
// starts the background loops.
func (m *TableManager) Start(ctx context.Context) error {
	level.Info(m.logger).Log("msg", "starting membership table manager", "silo", m.self)

	if err := m.table.InitializeMembershipTable(ctx, true); err != nil {
		return fmt.Errorf("failed to initialize membership table: %w", err)
	}

	err := m.executeWithRetries(ctx, m.opts.MaxJoinAttemptTime, func(ctx context.Context) (bool, error) {
		if err := m.refresh(ctx, true); err != nil {
			return false, err
		}

		return true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to read membership table: %w", err)
	}

	m.detectNodeMigration(m.Snapshot())

	m.wg.Add(2)
	go m.refreshLoop()
	go m.processSuspectOrKillRequests()

	if m.opts.DefunctSiloCleanupPeriod > 0 {
		m.wg.Add(1)
		go m.cleanupDefunctEntriesLoop()
	}

	return nil
}

// Stop terminates the background loops and waits for them to exit.
func (m *TableManager) Stop(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})

	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("membership table manager did not stop in time: %w", ctx.Err())
	}
}

// UpdateStatus writes the new status of the local silo to the table. It keeps
// retrying on conflicts and errors for up to MaxJoinAttemptTime.
func (m *TableManager) UpdateStatus(ctx context.Context, status SiloStatus) error {
	start := time.Now()

	err := m.executeWithRetries(ctx, m.opts.MaxJoinAttemptTime, func(ctx context.Context) (bool, error) {
		return m.tryUpdateMyStatusGlobalOnce(ctx, status)
	})
	if err != nil {
		level.Error(m.logger).Log("msg", "failed to update silo status", "status", status, "err", err)
		return fmt.Errorf("failed to update status to %s: %w", status, err)
	}

	level.Info(m.logger).Log("msg", "silo status updated", "status", status, "took", time.Since(start))

	m.gossipToOthers(ctx, m.self, status)

	return nil
}

func (m *TableManager) tryUpdateMyStatusGlobalOnce(ctx context.Context, status SiloStatus) (bool, error) {
	table, err := m.table.ReadAll(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read membership table: %w", err)
	}

	var (
		entry *Entry
		etag  string
	)

	row, found := table.Find(m.self)
	if found {
		entry, etag = row.Entry.Copy(), row.ETag

		if entry.Status == StatusDead && status != StatusDead {
			m.killMyselfLocally("this silo is marked as dead in the membership table")
			return false, ErrSiloDead
		}
	} else {
		entry = m.local.Copy()
	}

	now := m.now()

	if status == StatusDead {
		entry.AddSuspector(m.self, now)
	}

	entry.Status = status
	entry.IAmAliveTime = now
	next := table.Version.Next()

	var ok bool

	if found {
		ok, err = m.table.UpdateRow(ctx, entry, etag, next)
	} else {
		ok, err = m.table.InsertRow(ctx, entry, next)
	}

	if err != nil {
		return false, fmt.Errorf("failed to write silo entry: %w", err)
	}

	if !ok {
		telemetry.TableWriteConflicts.WithLabelValues("update_status").Inc()
		level.Debug(m.logger).Log("msg", "status update lost a write race", "status", status, "version", next.Version)

		return false, nil
	}

	m.setStatus(status)
	m.processTableUpdate(withRow(table, entry, next), "UpdateStatus")

	return true, nil
}

// withRow returns a copy of the table data where the row of the entry is
// replaced or added, moved to the given version.
func withRow(table *TableData, entry *Entry, version TableVersion) *TableData {
	rows := make([]Row, 0, len(table.Rows)+1)
	replaced := false

	for _, row := range table.Rows {
		if row.Entry.Address == entry.Address {
			row = Row{Entry: entry}
			replaced = true
		}

		rows = append(rows, row)
	}

	if !replaced {
		rows = append(rows, Row{Entry: entry})
	}

	return &TableData{Rows: rows, Version: version}
}

// Refresh re-reads the table and publishes it if it succeeds the current
// snapshot. Concurrent callers share a single table read.
func (m *TableManager) Refresh(ctx context.Context) error {
	ch := m.group.DoChan(refreshKey, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(m.ctx, m.opts.TableRefreshTimeout)
		defer cancel()

		return nil, m.refresh(ctx, false)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (m *TableManager) refresh(ctx context.Context, requireCleanup bool) error {
	table, err := m.table.ReadAll(ctx)
	if err != nil {
		telemetry.TableRefreshFailures.Inc()
		return fmt.Errorf("failed to read membership table: %w", err)
	}

	m.processTableUpdate(table, "Refresh")

	// Every read checks for other incarnations of the local silo. Only the
	// startup read treats a failed cleanup as a failed refresh.
	if err := m.cleanupMyTableEntries(ctx, table); err != nil {
		if requireCleanup {
			return err
		}

		level.Warn(m.logger).Log("msg", "failed to clean up entries of this silo", "err", err)
	}

	return nil
}

// processTableUpdate publishes the table read if it succeeds the current
// snapshot. It also detects that the local silo was declared dead.
func (m *TableManager) processTableUpdate(table *TableData, caller string) bool {
	if row, ok := table.Find(m.self); ok && row.Entry.Status == StatusDead && m.CurrentStatus() != StatusDead {
		m.killMyselfLocally("this silo was declared dead by other silos")
	}

	snap := NewSnapshot(table, m.self, m.CurrentStatus())
	if !m.updates.TryPublish(snap) {
		return false
	}

	telemetry.TableVersion.Set(float64(snap.Version))
	level.Debug(m.logger).Log("msg", "published membership snapshot", "version", snap.Version, "caller", caller)
	m.logMissedIAmAlives(snap)

	return true
}

func (m *TableManager) logMissedIAmAlives(snap *Snapshot) {
	now := m.now()

	for addr, entry := range snap.Entries {
		if addr == m.self || entry.Status != StatusActive {
			continue
		}

		if entry.HasMissedIAmAlives(m.opts, now) {
			level.Warn(m.logger).Log(
				"msg", "silo has not updated its liveness timestamp in time",
				"silo", addr,
				"last_update", entry.EffectiveIAmAliveTime(),
				"since", now.Sub(entry.EffectiveIAmAliveTime()),
			)
		}
	}
}

// UpdateIAmAlive refreshes the liveness timestamp of the local silo without
// bumping the table version.
func (m *TableManager) UpdateIAmAlive(ctx context.Context) error {
	entry := &Entry{
		Address:      m.self,
		IAmAliveTime: m.now(),
	}

	if err := m.table.UpdateIAmAlive(ctx, entry); err != nil {
		return fmt.Errorf("failed to update liveness timestamp: %w", err)
	}

	return nil
}

// CheckHealth reports whether the periodic refresh is keeping up.
func (m *TableManager) CheckHealth(now time.Time) (bool, string) {
	return m.refreshTimer.CheckHealth(now)
}

func (m *TableManager) refreshLoop() {
	defer m.wg.Done()

	var failures int

	delay := backoff.Jitter(m.opts.TableRefreshTimeout)

	for m.refreshTimer.NextAfter(m.ctx, delay) {
		delay = m.opts.TableRefreshTimeout

		if err := m.Refresh(m.ctx); err != nil {
			if m.ctx.Err() != nil {
				return
			}

			failures++

			if retry := m.errorBackoff.Next(failures); retry < delay {
				delay = retry
			}

			level.Warn(m.logger).Log("msg", "failed to refresh membership table", "retry_in", delay, "err", err)

			continue
		}

		failures = 0
	}
}

func (m *TableManager) cleanupDefunctEntriesLoop() {
	defer m.wg.Done()

	for m.cleanupTimer.Next(m.ctx) {
		cutoff := m.now().Add(-m.opts.DefunctSiloExpiration)

		ctx, cancel := context.WithTimeout(m.ctx, m.opts.TableRefreshTimeout)
		err := m.table.CleanupDefunctSiloEntries(ctx, cutoff)
		cancel()

		if err != nil {
			level.Warn(m.logger).Log("msg", "failed to clean up defunct silo entries", "err", err)
			continue
		}

		level.Debug(m.logger).Log("msg", "defunct silo entries cleaned up", "before", cutoff)
	}
}

func (m *TableManager) detectNodeMigration(snap *Snapshot) {
	var previous *Entry

	for _, entry := range snap.Entries {
		if entry.Name != m.local.Name || entry.Address.Generation >= m.self.Generation {
			continue
		}

		if previous == nil || entry.Address.Generation > previous.Address.Generation {
			previous = entry
		}
	}

	if previous == nil {
		return
	}

	if previous.HostName != m.local.HostName || !previous.Address.IsSameLogicalSilo(m.self) {
		level.Warn(m.logger).Log(
			"msg", "silo migrated to another host",
			"name", m.local.Name,
			"host", m.local.HostName,
			"silo", m.self,
			"previous_host", previous.HostName,
			"previous_silo", previous.Address,
		)

		return
	}

	level.Info(m.logger).Log(
		"msg", "silo restarted on the same host",
		"name", m.local.Name,
		"silo", m.self,
		"previous_silo", previous.Address,
	)
}

func (m *TableManager) gossipToOthers(ctx context.Context, silo SiloAddress, status SiloStatus) {
	if !m.opts.UseLivenessGossip || m.gossiper == nil {
		return
	}

	snap := m.Snapshot()
	now := m.now()

	var partners []SiloAddress

	for addr, entry := range snap.Entries {
		if addr.IsSameLogicalSilo(m.self) || !entry.Status.IsFunctional() || entry.HasMissedIAmAlives(m.opts, now) {
			continue
		}

		partners = append(partners, addr)
	}

	if len(partners) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, gossipTimeout)
	defer cancel()

	if err := m.gossiper.GossipToRemoteSilos(ctx, partners, snap, silo, status); err != nil {
		level.Warn(m.logger).Log("msg", "failed to gossip status change", "silo", silo, "status", status, "err", err)
	}
}

func (m *TableManager) killMyselfLocally(reason string) {
	m.setStatus(StatusDead)

	m.killOnce.Do(func() {
		level.Error(m.logger).Log("msg", "terminating local silo", "silo", m.self, "reason", reason)

		if m.fatal != nil {
			m.fatal.OnFatalError(fatalSourceMembership, fmt.Errorf("%w: %s", ErrSiloDead, reason))
		}
	})
}

// executeWithRetries calls fn until it succeeds or maxTime elapses. A false
// result is treated as contention and retried with a short backoff, an error
// is retried with a longer one. ErrSiloDead is never retried.
func (m *TableManager) executeWithRetries(ctx context.Context, maxTime time.Duration, fn func(context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, maxTime)
	defer cancel()

	var lastErr error

	for attempt := 0; ; attempt++ {
		ok, err := fn(ctx)
		if err == nil && ok {
			return nil
		}

		if errors.Is(err, ErrSiloDead) {
			return err
		}

		delay := m.contentionBackoff.Next(attempt)
		lastErr = ErrTableContention

		if err != nil {
			delay = m.errorBackoff.Next(attempt)
			lastErr = err
		}

		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
}
