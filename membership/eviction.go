package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/siloring/internal/telemetry"
)

type suspectRequest struct {
	target       SiloAddress
	intermediary SiloAddress
	kill         bool
}

// TryKill asks for the silo to be declared dead without a vote. It is used
// for stale incarnations and silos that never finished joining.
func (m *TableManager) TryKill(target SiloAddress) {
	m.enqueue(suspectRequest{target: target, kill: true})
}

// TryToSuspectOrKill casts a suspicion vote against the target and declares
// it dead once enough fresh votes are collected. When the target failed an
// indirect probe, the intermediary that reported the failure votes too.
func (m *TableManager) TryToSuspectOrKill(target SiloAddress, intermediary *SiloAddress) {
	req := suspectRequest{target: target}
	if intermediary != nil {
		req.intermediary = *intermediary
	}

	m.enqueue(req)
}

// enqueue adds the request to the bounded queue, discarding the oldest
// pending request when the queue is full.
func (m *TableManager) enqueue(req suspectRequest) {
	for {
		select {
		case m.requests <- req:
			return
		default:
		}

		select {
		case dropped := <-m.requests:
			level.Warn(m.logger).Log("msg", "suspect-or-kill queue is full, dropping request", "silo", dropped.target)
		default:
		}
	}
}

func (m *TableManager) processSuspectOrKillRequests() {
	defer m.wg.Done()

	var failures int

	for {
		var req suspectRequest

		select {
		case <-m.ctx.Done():
			return
		case req = <-m.requests:
		}

		ctx, cancel := context.WithTimeout(m.ctx, m.opts.TableRefreshTimeout)

		var err error
		if req.kill {
			_, err = m.tryKill(ctx, req.target)
		} else {
			_, err = m.tryToSuspectOrKill(ctx, req.target, req.intermediary)
		}

		cancel()

		if err == nil {
			failures = 0
			continue
		}

		if m.ctx.Err() != nil {
			return
		}

		delay := m.errorBackoff.Next(failures)
		if errors.Is(err, ErrTableContention) {
			delay = m.contentionBackoff.Next(failures)
		}

		failures++

		level.Warn(m.logger).Log(
			"msg", "failed to process suspect-or-kill request",
			"silo", req.target,
			"kill", req.kill,
			"retry_in", delay,
			"err", err,
		)

		m.enqueue(req)

		timer := time.NewTimer(delay)

		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// readForEviction reads the table and returns the row of the target. The
// boolean result is false when the request must not proceed.
func (m *TableManager) readForEviction(ctx context.Context, target SiloAddress) (*TableData, Row, bool, error) {
	table, err := m.table.ReadAll(ctx)
	if err != nil {
		return nil, Row{}, false, fmt.Errorf("failed to read membership table: %w", err)
	}

	if m.isStopping() {
		level.Info(m.logger).Log("msg", "ignoring suspicion while the local silo is stopping", "silo", target)
		return table, Row{}, false, nil
	}

	m.processTableUpdate(table, "TryToSuspectOrKill")

	if m.CurrentStatus() == StatusDead {
		return table, Row{}, false, nil
	}

	row, ok := table.Find(target)
	if !ok {
		level.Warn(m.logger).Log("msg", "suspected silo is not in the membership table", "silo", target)
		return table, Row{}, false, nil
	}

	return table, row, true, nil
}

func (m *TableManager) tryKill(ctx context.Context, target SiloAddress) (bool, error) {
	table, row, ok, err := m.readForEviction(ctx, target)
	if err != nil || !ok {
		return ok, err
	}

	if row.Entry.Status == StatusDead {
		level.Debug(m.logger).Log("msg", "silo is already dead", "silo", target)
		return true, nil
	}

	return m.declareDead(ctx, row.Entry.Copy(), row.ETag, table.Version, m.now())
}

func (m *TableManager) tryToSuspectOrKill(ctx context.Context, target, intermediary SiloAddress) (bool, error) {
	table, row, ok, err := m.readForEviction(ctx, target)
	if err != nil || !ok {
		return ok, err
	}

	if row.Entry.Status == StatusDead {
		level.Debug(m.logger).Log("msg", "silo is already dead", "silo", target)
		return true, nil
	}

	now := m.now()
	entry := row.Entry.Copy()
	quorum := m.opts.NumVotesForDeathDeclaration

	if fresh := entry.FreshVotes(now, m.opts.DeathVoteExpirationTimeout); len(fresh) >= quorum {
		level.Error(m.logger).Log(
			"msg", "silo has enough votes to be dead but is not marked as dead",
			"silo", target,
			"votes", len(fresh),
			"quorum", quorum,
		)

		m.killMyselfLocally(fmt.Sprintf("inconsistent membership table: %s has %d fresh votes", target, len(fresh)))

		return false, ErrSiloDead
	}

	entry.AddOrUpdateSuspector(m.self, now, quorum)

	if !intermediary.IsZero() && intermediary != m.self && intermediary != target {
		entry.AddOrUpdateSuspector(intermediary, now, quorum)
	}

	var activeNonStale int

	for _, r := range table.Rows {
		if r.Entry.Status == StatusActive && !r.Entry.HasMissedIAmAlives(m.opts, now) {
			activeNonStale++
		}
	}

	required := quorum
	if majority := (activeNonStale + 1) / 2; majority < required {
		required = majority
	}

	fresh := entry.FreshVotes(now, m.opts.DeathVoteExpirationTimeout)
	if len(fresh) >= required {
		level.Info(m.logger).Log(
			"msg", "evicting silo",
			"silo", target,
			"votes", len(fresh),
			"required", required,
			"active", activeNonStale,
		)

		return m.declareDead(ctx, entry, row.ETag, table.Version, now)
	}

	level.Info(m.logger).Log(
		"msg", "voting to evict silo",
		"silo", target,
		"votes", len(fresh),
		"required", required,
		"active", activeNonStale,
	)

	ok, err = m.table.UpdateRow(ctx, entry, row.ETag, table.Version.Next())
	if err != nil {
		return false, fmt.Errorf("failed to write suspicion vote: %w", err)
	}

	if !ok {
		telemetry.TableWriteConflicts.WithLabelValues("suspect").Inc()
		return false, ErrTableContention
	}

	telemetry.SuspicionVotes.Inc()
	m.refreshAfterWrite(ctx)

	return true, nil
}

func (m *TableManager) declareDead(ctx context.Context, entry *Entry, etag string, version TableVersion, now time.Time) (bool, error) {
	if !m.opts.LivenessEnabled {
		level.Info(m.logger).Log("msg", "liveness is disabled, not declaring silo dead", "silo", entry.Address)
		return true, nil
	}

	entry.AddSuspector(m.self, now)
	entry.Status = StatusDead

	ok, err := m.table.UpdateRow(ctx, entry, etag, version.Next())
	if err != nil {
		return false, fmt.Errorf("failed to declare silo dead: %w", err)
	}

	if !ok {
		telemetry.TableWriteConflicts.WithLabelValues("declare_dead").Inc()
		return false, ErrTableContention
	}

	telemetry.DeclaredDead.Inc()
	level.Info(m.logger).Log("msg", "silo declared dead", "silo", entry.Address)

	m.refreshAfterWrite(ctx)
	m.gossipToOthers(ctx, entry.Address, StatusDead)

	return true, nil
}

func (m *TableManager) refreshAfterWrite(ctx context.Context) {
	if err := m.refresh(ctx, false); err != nil {
		level.Warn(m.logger).Log("msg", "failed to refresh membership after write", "err", err)
	}
}
