package nodeapi

import (
	"context"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/maxpoletaev/siloring/faildetector"
	"github.com/maxpoletaev/siloring/gossip"
	"github.com/maxpoletaev/siloring/internal/grpcutil"
	"github.com/maxpoletaev/siloring/membership"
)

type ServerConfig struct {
	Silo   membership.SiloAddress
	Logger kitlog.Logger
	Now    func() time.Time
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Logger: kitlog.NewNopLogger(),
		Now:    time.Now,
	}
}

// Server answers probes and gossip from remote silos.
type Server struct {
	self     membership.SiloAddress
	prober   Prober
	requests ProbeRequests
	scorer   HealthScorer
	receiver GossipReceiver
	logger   kitlog.Logger
	now      func() time.Time
}

var _ MembershipServer = (*Server)(nil)

func NewServer(conf ServerConfig, prober Prober, requests ProbeRequests, scorer HealthScorer, receiver GossipReceiver) *Server {
	return &Server{
		self:     conf.Silo,
		prober:   prober,
		requests: requests,
		scorer:   scorer,
		receiver: receiver,
		logger:   conf.Logger,
		now:      conf.Now,
	}
}

func (s *Server) Ping(ctx context.Context, req *PingRequest) (*emptypb.Empty, error) {
	if !req.Target.IsZero() && req.Target != s.self {
		return nil, status.Errorf(codes.FailedPrecondition, "probe addressed to %s reached %s", req.Target, s.self)
	}

	s.requests.OnReceivedProbeRequest()

	return &emptypb.Empty{}, nil
}

// ProbeIndirectly probes the target directly and reports the outcome along
// with the local health score. A failed probe is not an RPC error.
func (s *Server) ProbeIndirectly(ctx context.Context, req *IndirectProbeRequest) (*faildetector.IndirectProbeResponse, error) {
	if req.Target.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "target is required")
	}

	if req.Timeout <= 0 {
		return nil, status.Error(codes.InvalidArgument, "timeout must be positive")
	}

	probeCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	start := s.now()
	err := s.prober.Probe(probeCtx, req.Target, req.ProbeNumber)
	took := s.now().Sub(start)

	resp := &faildetector.IndirectProbeResponse{
		Succeeded:               err == nil,
		IntermediaryHealthScore: s.scorer.Score(s.now()),
		ProbeResponseTime:       took,
	}

	if err != nil {
		resp.FailureMessage = err.Error()

		level.Debug(s.logger).Log(
			"msg", "indirect probe failed",
			"target", req.Target,
			"probe", req.ProbeNumber,
			"took", took,
			"err", err,
		)
	}

	return resp, nil
}

func (s *Server) Gossip(ctx context.Context, req *gossip.Batch) (*emptypb.Empty, error) {
	if err := s.receiver.Receive(ctx, *req); err != nil {
		if grpcutil.IsCanceled(err) {
			return nil, status.Error(codes.Canceled, "gossip cancelled by the caller")
		}

		level.Warn(s.logger).Log("msg", "failed to handle gossip", "from", req.Sender, "err", err)
		return nil, status.Errorf(codes.Unavailable, "failed to handle gossip: %v", err)
	}

	return &emptypb.Empty{}, nil
}
