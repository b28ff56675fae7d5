package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/siloring/internal/multierror"
	"github.com/maxpoletaev/siloring/membership"
)

// validateInitialConnectivity probes every active, non-stale silo until all
// of them respond. The table is refreshed between attempts so that silos
// which died in the meantime are no longer expected to respond.
func (a *Agent) validateInitialConnectivity(ctx context.Context) error {
	start := time.Now()

	for attempt := 1; ; attempt++ {
		failed, err := a.probeActiveSilos(ctx)
		if err == nil {
			if attempt > 1 {
				level.Info(a.logger).Log("msg", "connectivity validated", "attempt", attempt)
			}

			return nil
		}

		elapsed := time.Since(start)
		if elapsed+a.conf.ConnectivityRetryDelay > a.conf.Options.MaxJoinAttemptTime {
			return fmt.Errorf("%w after %d attempts, unreachable silos %v: %v",
				ErrConnectivityValidationFailed, attempt, failed, err)
		}

		level.Warn(a.logger).Log(
			"msg", "failed to connect to some active silos, retrying",
			"attempt", attempt,
			"unreachable", len(failed),
			"err", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.conf.ConnectivityRetryDelay):
		}

		if err := a.members.Refresh(ctx); err != nil {
			level.Warn(a.logger).Log("msg", "failed to refresh membership table", "err", err)
		}
	}
}

func (a *Agent) probeActiveSilos(ctx context.Context) ([]membership.SiloAddress, error) {
	var (
		self    = a.members.LocalSilo()
		snap    = a.members.Snapshot()
		now     = a.conf.Now()
		errs    = multierror.New[membership.SiloAddress]()
		g, gctx = errgroup.WithContext(ctx)
	)

	for addr, entry := range snap.Entries {
		if addr == self || entry.Status != membership.StatusActive || entry.HasMissedIAmAlives(a.conf.Options, now) {
			continue
		}

		addr := addr

		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, a.conf.Options.ProbeTimeout)
			defer cancel()

			// Probe number -1 marks probes that are not part of a monitor loop.
			if err := a.prober.Probe(probeCtx, addr, -1); err != nil {
				errs.Add(addr, err)
			}

			return nil
		})
	}

	_ = g.Wait()

	if err := errs.Combined(); err != nil {
		return errs.Keys(), err
	}

	return nil, nil
}
