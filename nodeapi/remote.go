package nodeapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maxpoletaev/siloring/faildetector"
	"github.com/maxpoletaev/siloring/gossip"
	"github.com/maxpoletaev/siloring/internal/grpcutil"
	"github.com/maxpoletaev/siloring/membership"
)

var ErrProbeTimeout = errors.New("probe timed out")

// Remote sends probes and gossip to other silos over the registry
// connections.
type Remote struct {
	conns *Registry
}

var (
	_ faildetector.Prober = (*Remote)(nil)
	_ gossip.Transport    = (*Remote)(nil)
	_ Prober              = (*Remote)(nil)
)

func NewRemote(conns *Registry) *Remote {
	return &Remote{conns: conns}
}

func (r *Remote) Probe(ctx context.Context, target membership.SiloAddress, probeNumber int) error {
	conn, err := r.conns.Get(ctx, target)
	if err != nil {
		return err
	}

	req := &PingRequest{
		Target:      target,
		ProbeNumber: probeNumber,
	}

	if err := conn.Ping(ctx, req); err != nil {
		if grpcutil.IsTimeout(err) {
			return fmt.Errorf("%w: %s", ErrProbeTimeout, target)
		}

		return fmt.Errorf("ping %s: %w", target, err)
	}

	return nil
}

func (r *Remote) ProbeIndirectly(
	ctx context.Context,
	intermediary, target membership.SiloAddress,
	timeout time.Duration,
	probeNumber int,
) (faildetector.IndirectProbeResponse, error) {
	conn, err := r.conns.Get(ctx, intermediary)
	if err != nil {
		return faildetector.IndirectProbeResponse{}, err
	}

	resp, err := conn.ProbeIndirectly(ctx, &IndirectProbeRequest{
		Target:      target,
		Timeout:     timeout,
		ProbeNumber: probeNumber,
	})

	if err != nil {
		return faildetector.IndirectProbeResponse{}, fmt.Errorf("indirect probe of %s via %s: %w", target, intermediary, err)
	}

	return *resp, nil
}

func (r *Remote) SendGossip(ctx context.Context, target membership.SiloAddress, batch gossip.Batch) error {
	conn, err := r.conns.Get(ctx, target)
	if err != nil {
		return err
	}

	if err := conn.Gossip(ctx, &batch); err != nil {
		return fmt.Errorf("gossip to %s: %w", target, err)
	}

	return nil
}

// SiloStatusChangeNotification releases the connection to a silo that is
// known to be dead.
func (r *Remote) SiloStatusChangeNotification(silo membership.SiloAddress, status membership.SiloStatus) {
	if status == membership.StatusDead {
		r.conns.Drop(silo)
	}
}
