package faildetector

import (
	"context"
	"math/rand"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/siloring/internal/backoff"
	"github.com/maxpoletaev/siloring/internal/periodic"
	"github.com/maxpoletaev/siloring/internal/telemetry"
	"github.com/maxpoletaev/siloring/membership"
)

// maxTimeoutExtension caps the number of extra periods a degraded silo
// waits for a probe response.
const maxTimeoutExtension = 8

// SiloMonitor probes a single remote silo until stopped. After
// NumMissedProbesLimit-1 consecutive failures it switches to indirect probes
// through a random active silo, so that a broken link between two silos is
// not mistaken for a dead target.
type SiloMonitor struct {
	target       membership.SiloAddress
	self         membership.SiloAddress
	opts         membership.Options
	prober       Prober
	members      Membership
	scorer       HealthScorer
	onResult     func(*SiloMonitor, ProbeResult)
	logger       kitlog.Logger
	now          func() time.Time
	recusalDelay time.Duration
	timer        *periodic.Timer

	mu            sync.Mutex
	nextProbe     int
	lastCompleted int
	failedProbes  int
	lastResponse  time.Time
	lastRoundTrip time.Duration
	started       bool
	stopped       bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSiloMonitor(
	conf Config,
	target membership.SiloAddress,
	prober Prober,
	members Membership,
	scorer HealthScorer,
	onResult func(*SiloMonitor, ProbeResult),
) *SiloMonitor {
	timer := periodic.New("probe "+target.String(), conf.Options.ProbeTimeout,
		periodic.WithTaskTimeout(conf.Options.ProbeTimeout*(maxTimeoutExtension+2)))

	m := &SiloMonitor{
		target:       target,
		self:         conf.Silo,
		opts:         conf.Options,
		prober:       prober,
		members:      members,
		scorer:       scorer,
		onResult:     onResult,
		logger:       kitlog.With(conf.Logger, "target", target),
		now:          conf.Now,
		recusalDelay: conf.RecusalDelay,
		timer:        timer,
		lastResponse: time.Now(),
		done:         make(chan struct{}),
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	return m
}

func (m *SiloMonitor) Target() membership.SiloAddress {
	return m.target
}

// Start launches the probe loop. The first probe is delayed by a random
// fraction of the probe period to spread probes of different monitors.
func (m *SiloMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.stopped {
		return
	}

	m.started = true

	go m.run(backoff.Jitter(m.opts.ProbeTimeout))
}

// Stop cancels the in-flight probe and waits for the loop to exit. Results
// that arrive after Stop are discarded.
func (m *SiloMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	started := m.started
	m.mu.Unlock()

	m.cancel()

	if !started {
		return nil
	}

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MissedProbes is the number of consecutive failed probes.
func (m *SiloMonitor) MissedProbes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.failedProbes
}

// ElapsedSinceLastResponse is the time since the target last answered a
// probe, or since the monitor was created if it never did.
func (m *SiloMonitor) ElapsedSinceLastResponse() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return time.Since(m.lastResponse)
}

func (m *SiloMonitor) LastRoundTripTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastRoundTrip
}

func (m *SiloMonitor) CheckHealth(now time.Time) (bool, string) {
	return m.timer.CheckHealth(now)
}

func (m *SiloMonitor) run(delay time.Duration) {
	defer close(m.done)

	var (
		intermediaries []membership.SiloAddress
		basedOn        *membership.Snapshot
	)

	for m.timer.NextAfter(m.ctx, delay) {
		delay = m.opts.ProbeTimeout

		if snap := m.members.Snapshot(); snap != basedOn {
			basedOn = snap
			intermediaries = m.intermediaries(snap)
		}

		result, ok := m.probe(intermediaries)
		if !ok {
			continue
		}

		if !result.Direct && result.Status != ProbeSucceeded && result.IntermediaryHealthScore > 0 {
			level.Info(m.logger).Log("msg", "recusing unhealthy intermediary", "intermediary", result.Intermediary)
			intermediaries = removeAddress(intermediaries, result.Intermediary)
			delay = m.recusalDelay
		}

		if m.ctx.Err() == nil && m.onResult != nil {
			m.onResult(m, result)
		}
	}
}

// intermediaries lists active, non-stale silos other than the local silo and
// the target.
func (m *SiloMonitor) intermediaries(snap *membership.Snapshot) []membership.SiloAddress {
	now := m.now()

	var nodes []membership.SiloAddress

	for addr, entry := range snap.Entries {
		if addr == m.target || addr == m.self || entry.Status != membership.StatusActive {
			continue
		}

		if entry.HasMissedIAmAlives(m.opts, now) {
			continue
		}

		nodes = append(nodes, addr)
	}

	return nodes
}

func (m *SiloMonitor) probe(intermediaries []membership.SiloAddress) (ProbeResult, bool) {
	direct := !m.opts.EnableIndirectProbes ||
		m.MissedProbes() < m.opts.NumMissedProbesLimit-1 ||
		len(intermediaries) == 0

	if direct {
		return m.probeDirectly(m.timeout(true))
	}

	intermediary := intermediaries[rand.Intn(len(intermediaries))]

	return m.probeIndirectly(intermediary, m.timeout(true), m.timeout(false))
}

// timeout extends the probe timeout by one period per point of local health
// degradation, and by one more period for the extra hop of indirect probes.
func (m *SiloMonitor) timeout(direct bool) time.Duration {
	extra := 0

	if m.opts.ExtendProbeTimeoutDuringDegradation && m.scorer != nil {
		extra += min(m.scorer.Score(m.now()), maxTimeoutExtension)
	}

	if !direct {
		extra++
	}

	return m.opts.ProbeTimeout * time.Duration(1+extra)
}

func (m *SiloMonitor) startProbe() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextProbe++

	return m.nextProbe
}

// complete applies the outcome of probe id to the monitor state. It returns
// false for outcomes that arrive after the monitor was stopped or after a
// later probe already completed.
func (m *SiloMonitor) complete(id int, apply func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || id <= m.lastCompleted {
		return false
	}

	m.lastCompleted = id
	apply()

	return true
}

func (m *SiloMonitor) probeDirectly(timeout time.Duration) (ProbeResult, bool) {
	id := m.startProbe()

	ctx, cancel := context.WithTimeout(m.ctx, timeout)
	defer cancel()

	level.Debug(m.logger).Log("msg", "sending probe", "probe", id)

	start := time.Now()
	err := m.prober.Probe(ctx, m.target, id)
	roundTrip := time.Since(start)

	result := ProbeResult{Direct: true}

	ok := m.complete(id, func() {
		if err == nil {
			m.failedProbes = 0
			m.lastResponse = time.Now()
			m.lastRoundTrip = roundTrip
			result.Status = ProbeSucceeded

			return
		}

		m.failedProbes++
		result.Status = ProbeFailed
		result.FailedProbeCount = m.failedProbes
	})

	if !ok {
		level.Debug(m.logger).Log("msg", "discarding stale probe result", "probe", id)
		return ProbeResult{}, false
	}

	telemetry.ProbesTotal.WithLabelValues("direct", telemetry.ResultLabel(err)).Inc()

	if err != nil {
		level.Warn(m.logger).Log(
			"msg", "probe failed",
			"probe", id,
			"after", roundTrip,
			"failed_probes", result.FailedProbeCount,
			"err", err,
		)

		return result, true
	}

	telemetry.ProbeRoundTrip.Observe(roundTrip.Seconds())

	return result, true
}

func (m *SiloMonitor) probeIndirectly(intermediary membership.SiloAddress, directTimeout, timeout time.Duration) (ProbeResult, bool) {
	id := m.startProbe()

	ctx, cancel := context.WithTimeout(m.ctx, timeout)
	defer cancel()

	level.Debug(m.logger).Log("msg", "sending indirect probe", "probe", id, "intermediary", intermediary)

	start := time.Now()
	resp, err := m.prober.ProbeIndirectly(ctx, intermediary, m.target, directTimeout, id)
	roundTrip := time.Since(start) - resp.ProbeResponseTime

	result := ProbeResult{
		Intermediary:            intermediary,
		IntermediaryHealthScore: resp.IntermediaryHealthScore,
	}

	ok := m.complete(id, func() {
		result.FailedProbeCount = m.failedProbes

		if err != nil {
			result.Status = ProbeUnknown
			return
		}

		// The intermediary answered, so the link to it is healthy.
		m.lastResponse = time.Now()
		m.lastRoundTrip = roundTrip

		switch {
		case resp.Succeeded:
			m.failedProbes = 0
			result.Status = ProbeSucceeded
		case resp.IntermediaryHealthScore > 0:
			result.Status = ProbeUnknown
		default:
			m.failedProbes++
			result.Status = ProbeFailed
		}

		result.FailedProbeCount = m.failedProbes
	})

	if !ok {
		level.Debug(m.logger).Log("msg", "discarding stale probe result", "probe", id)
		return ProbeResult{}, false
	}

	telemetry.ProbesTotal.WithLabelValues("indirect", result.Status.String()).Inc()

	switch {
	case err != nil:
		level.Warn(m.logger).Log("msg", "indirect probe request failed", "probe", id, "intermediary", intermediary, "err", err)
	case result.Status == ProbeUnknown:
		level.Info(m.logger).Log(
			"msg", "ignoring indirect probe failure reported by a degraded intermediary",
			"probe", id,
			"intermediary", intermediary,
			"intermediary_score", resp.IntermediaryHealthScore,
		)
	case result.Status == ProbeFailed:
		level.Warn(m.logger).Log(
			"msg", "indirect probe failed",
			"probe", id,
			"intermediary", intermediary,
			"response_time", resp.ProbeResponseTime,
			"failure", resp.FailureMessage,
			"failed_probes", result.FailedProbeCount,
		)
	}

	return result, true
}

func removeAddress(addrs []membership.SiloAddress, addr membership.SiloAddress) []membership.SiloAddress {
	out := make([]membership.SiloAddress, 0, len(addrs))

	for _, a := range addrs {
		if a != addr {
			out = append(out, a)
		}
	}

	return out
}
