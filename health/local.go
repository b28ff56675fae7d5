package health

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/siloring/internal/periodic"
	"github.com/maxpoletaev/siloring/internal/telemetry"
	"github.com/maxpoletaev/siloring/membership"
)

// MaxScore is the worst possible local health score.
const MaxScore = 8

// LocalMonitor computes the local health degradation score: 0 when the silo
// is healthy, up to MaxScore when it is likely the silo itself, rather than
// its peers, that is broken. A degraded silo extends its probe timeouts and
// its failure reports as an intermediary are discounted by others.
type LocalMonitor struct {
	conf      Config
	members   Membership
	responses ProbeResponses
	requests  *ProbeRequestMonitor
	scheduler SchedulerMonitor
	timer     *periodic.Timer
	logger    kitlog.Logger

	mu             sync.Mutex
	participants   map[string]Participant
	active         bool
	clusteredSince time.Time
	lastCheck      time.Time
	complaints     []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLocalMonitor(conf Config, members Membership, responses ProbeResponses, requests *ProbeRequestMonitor) *LocalMonitor {
	m := &LocalMonitor{
		conf:         conf,
		members:      members,
		responses:    responses,
		requests:     requests,
		logger:       conf.Logger,
		participants: make(map[string]Participant),
		timer:        periodic.New("local-health", conf.Options.LocalHealthDegradationMonitoringPeriod),
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	return m
}

// Register adds a participant whose health contributes to the score.
func (m *LocalMonitor) Register(name string, p Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.participants[name] = p
}

// Complaints returns the issues found by the most recent periodic check.
func (m *LocalMonitor) Complaints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.complaints...)
}

// Score returns the degradation score at now in [0, MaxScore]. It reads the
// state kept by the periodic check without advancing it.
func (m *LocalMonitor) Score(now time.Time) int {
	score, _ := m.evaluate(now, false)
	return score
}

func (m *LocalMonitor) Start() {
	m.mu.Lock()
	m.active = true
	m.mu.Unlock()

	m.wg.Add(1)

	go m.run()
}

func (m *LocalMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()

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
		return fmt.Errorf("local health monitor did not stop in time: %w", ctx.Err())
	}
}

func (m *LocalMonitor) run() {
	defer m.wg.Done()

	for m.timer.Next(m.ctx) {
		score, complaints := m.check(m.conf.Now())

		if score > 0 {
			level.Warn(m.logger).Log(
				"msg", "local health is degraded",
				"score", score,
				"max_score", MaxScore,
				"complaints", strings.Join(complaints, "; "),
			)
		}

		m.mu.Lock()
		m.complaints = complaints
		m.mu.Unlock()
	}
}

// check is the periodic health check. Unlike Score it records the check
// time and the start of the clustered period.
func (m *LocalMonitor) check(now time.Time) (int, []string) {
	return m.evaluate(now, true)
}

func (m *LocalMonitor) evaluate(now time.Time, record bool) (int, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		snap       = m.members.Snapshot()
		complaints []string
		score      int
	)

	complain := func(format string, args ...interface{}) {
		complaints = append(complaints, fmt.Sprintf(format, args...))
	}

	score += m.checkSuspectingSilos(snap, now, complain)
	score += m.checkParticipants(now, complain)
	score += m.checkSchedulerDelay(complain)

	if m.active {
		since := m.clusteredSince

		switch {
		case snap.ActiveNodeCount() <= 1:
			since = time.Time{}
		case since.IsZero():
			since = now
		}

		// Peers need some time to start probing a silo that just joined.
		window := m.conf.Options.ProbeTimeout * time.Duration(m.conf.Options.NumMissedProbesLimit)

		if !since.IsZero() && now.Sub(since) > window {
			score += m.checkProbeResponses(window, complain)
			score += m.checkProbeRequests(snap, now, window, complain)
		}

		if record {
			m.clusteredSince = since
		}
	}

	score = min(max(score, 0), MaxScore)

	if record {
		m.lastCheck = now
		telemetry.LocalHealthScore.Set(float64(score))
	}

	return score, complaints
}

func (m *LocalMonitor) checkSuspectingSilos(snap *membership.Snapshot, now time.Time, complain func(string, ...interface{})) int {
	entry, ok := snap.Entry(m.conf.Silo)
	if !ok {
		complain("could not find a membership entry for this silo")
		return MaxScore
	}

	var score int

	if entry.Status != membership.StatusActive {
		complain("this silo is not active (status: %s)", entry.Status)
		score = MaxScore
	}

	for _, vote := range entry.FreshVotes(now, m.conf.Options.DeathVoteExpirationTimeout) {
		if snap.Status(vote.Voter) == membership.StatusActive {
			complain("silo %s suspected this silo at %s", vote.Voter, vote.Time.Format(time.RFC3339))
			score++
		}
	}

	return score
}

func (m *LocalMonitor) checkParticipants(now time.Time, complain func(string, ...interface{})) int {
	names := make([]string, 0, len(m.participants))
	for name := range m.participants {
		names = append(names, name)
	}

	sort.Strings(names)

	checkTime := m.lastCheck
	if checkTime.IsZero() {
		checkTime = now
	}

	var score int

	for _, name := range names {
		if ok, reason := m.participants[name].CheckHealth(checkTime); !ok {
			complain("%s is unhealthy: %s", name, reason)
			score++
		}
	}

	return score
}

func (m *LocalMonitor) checkSchedulerDelay(complain func(string, ...interface{})) int {
	delay := m.scheduler.MeasureDelay()

	seconds := int(delay.Seconds())
	if seconds >= 1 {
		complain("goroutine scheduling is delayed by %s", delay)

		if seconds >= 10 {
			level.Error(m.logger).Log("msg", "goroutine scheduling is severely delayed", "delay", delay)
		}
	}

	return seconds
}

func (m *LocalMonitor) checkProbeResponses(window time.Duration, complain func(string, ...interface{})) int {
	if m.responses == nil {
		return 0
	}

	monitored, elapsed, ok := m.responses.LastProbeResponse()

	// With a single monitored silo a failure of that silo would make this
	// one look degraded and unable to vote it dead.
	if monitored <= 1 {
		return 0
	}

	if !ok {
		complain("this silo has not received any successful probe responses")
		return 1
	}

	if elapsed > window {
		complain("this silo has not received a successful probe response for %s", elapsed)
		return 1
	}

	return 0
}

func (m *LocalMonitor) checkProbeRequests(snap *membership.Snapshot, now time.Time, window time.Duration, complain func(string, ...interface{})) int {
	if m.requests == nil || snap.ActiveNodeCount() <= 2 {
		return 0
	}

	elapsed, ok := m.requests.ElapsedSinceLastProbeRequest(now)
	if !ok {
		complain("this silo has not received any probe requests")
		return 1
	}

	if elapsed > window {
		complain("this silo has not received a probe request for %s", elapsed)
		return 1
	}

	return 0
}
