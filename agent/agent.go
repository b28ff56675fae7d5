package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/siloring/internal/backoff"
	"github.com/maxpoletaev/siloring/internal/periodic"
	"github.com/maxpoletaev/siloring/membership"
)

const fatalSourceAgent = "agent"

var (
	// ErrConnectivityValidationFailed is returned when some active silos were
	// still unreachable after MaxJoinAttemptTime.
	ErrConnectivityValidationFailed = errors.New("failed to validate connectivity to active silos")

	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// Agent drives the local silo through its lifecycle:
// Joining, Active, then ShuttingDown or Stopping, and finally Dead. While
// the silo is active it keeps its liveness timestamp in the table fresh.
type Agent struct {
	conf    Config
	members Membership
	prober  Prober
	fatal   membership.FatalErrorHandler
	logger  kitlog.Logger
	timer   *periodic.Timer

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(conf Config, members Membership, prober Prober, fatal membership.FatalErrorHandler) *Agent {
	return &Agent{
		conf:    conf,
		members: members,
		prober:  prober,
		fatal:   fatal,
		logger:  conf.Logger,
		timer: periodic.New("i-am-alive", conf.Options.IAmAliveTablePublishTimeout,
			periodic.WithGrace(conf.Options.IAmAliveTablePublishTimeout)),
	}
}

// Join announces the local silo to the cluster with the Joining status.
func (a *Agent) Join(ctx context.Context) error {
	if status := a.members.CurrentStatus(); status != membership.StatusCreated {
		return fmt.Errorf("%w: join from %s", ErrInvalidTransition, status)
	}

	level.Info(a.logger).Log("msg", "joining the cluster", "silo", a.members.LocalSilo())

	if err := a.members.UpdateStatus(ctx, membership.StatusJoining); err != nil {
		a.fatal.OnFatalError(fatalSourceAgent, err)
		return fmt.Errorf("failed to become joining: %w", err)
	}

	return nil
}

// BecomeActive validates connectivity to the active silos, marks the local
// silo active and starts publishing its liveness timestamp.
func (a *Agent) BecomeActive(ctx context.Context) error {
	if status := a.members.CurrentStatus(); status != membership.StatusJoining {
		return fmt.Errorf("%w: activate from %s", ErrInvalidTransition, status)
	}

	if a.conf.ValidateInitialConnectivity {
		if err := a.validateInitialConnectivity(ctx); err != nil {
			a.fatal.OnFatalError(fatalSourceAgent, err)
			return err
		}
	} else {
		level.Warn(a.logger).Log("msg", "skipping initial connectivity validation")
	}

	if err := a.members.UpdateStatus(ctx, membership.StatusActive); err != nil {
		a.fatal.OnFatalError(fatalSourceAgent, err)
		return fmt.Errorf("failed to become active: %w", err)
	}

	level.Info(a.logger).Log("msg", "silo is active", "silo", a.members.LocalSilo())

	a.startIAmAliveLoop()

	return nil
}

// Leave takes the silo out of the cluster. A graceful leave first tries to
// write ShuttingDown within ShutdownGracePeriod and falls back to Stopping.
// In both cases the silo ends up Dead.
func (a *Agent) Leave(ctx context.Context, graceful bool) error {
	a.stopIAmAliveLoop()

	status := a.members.CurrentStatus()
	if status == membership.StatusDead {
		return nil
	}

	if status == membership.StatusActive {
		if graceful {
			a.shutDownGracefully(ctx)
		} else {
			a.becomeStopping(ctx)
		}
	}

	if err := a.members.UpdateStatus(ctx, membership.StatusDead); err != nil {
		return fmt.Errorf("failed to become dead: %w", err)
	}

	level.Info(a.logger).Log("msg", "left the cluster", "silo", a.members.LocalSilo())

	return nil
}

func (a *Agent) shutDownGracefully(ctx context.Context) {
	graceCtx, cancel := context.WithTimeout(ctx, a.conf.Options.ShutdownGracePeriod)
	defer cancel()

	err := a.members.UpdateStatus(graceCtx, membership.StatusShuttingDown)
	if err == nil {
		return
	}

	level.Warn(a.logger).Log("msg", "failed to shut down gracefully, stopping instead", "err", err)

	a.becomeStopping(ctx)
}

func (a *Agent) becomeStopping(ctx context.Context) {
	if err := a.members.UpdateStatus(ctx, membership.StatusStopping); err != nil {
		level.Error(a.logger).Log("msg", "failed to become stopping", "err", err)
	}
}

// CheckHealth reports whether the liveness loop is ticking on time.
func (a *Agent) CheckHealth(now time.Time) (bool, string) {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()

	if !running {
		return true, ""
	}

	return a.timer.CheckHealth(now)
}

func (a *Agent) startIAmAliveLoop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.running = true

	a.wg.Add(1)

	go a.updateIAmAliveLoop(ctx)
}

func (a *Agent) stopIAmAliveLoop() {
	a.mu.Lock()

	if !a.running {
		a.mu.Unlock()
		return
	}

	a.running = false
	a.cancel()
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *Agent) updateIAmAliveLoop(ctx context.Context) {
	defer a.wg.Done()

	period := a.conf.Options.IAmAliveTablePublishTimeout
	delay := period

	for a.timer.NextAfter(ctx, delay) {
		delay = period

		if err := a.members.UpdateIAmAlive(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}

			// Retry sooner than the regular period so that a single
			// failure does not make the silo look stale.
			delay = backoff.Jitter(period / 5)

			level.Warn(a.logger).Log("msg", "failed to update liveness timestamp", "retry_in", delay, "err", err)
		}
	}
}
