package nodeapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/maxpoletaev/siloring/faildetector"
	"github.com/maxpoletaev/siloring/gossip"
	"github.com/maxpoletaev/siloring/membership"
)

const serviceName = "siloring.MembershipService"

const (
	methodPing            = "/" + serviceName + "/Ping"
	methodProbeIndirectly = "/" + serviceName + "/ProbeIndirectly"
	methodGossip          = "/" + serviceName + "/Gossip"
)

type PingRequest struct {
	// Target is the silo the sender believes it is probing. A silo refuses
	// probes addressed to another generation on the same endpoint.
	Target      membership.SiloAddress `json:"target"`
	ProbeNumber int                    `json:"probe_number"`
}

type IndirectProbeRequest struct {
	Target      membership.SiloAddress `json:"target"`
	Timeout     time.Duration          `json:"timeout"`
	ProbeNumber int                    `json:"probe_number"`
}

// MembershipServer is the server side of the silo-to-silo membership API.
type MembershipServer interface {
	Ping(ctx context.Context, req *PingRequest) (*emptypb.Empty, error)
	ProbeIndirectly(ctx context.Context, req *IndirectProbeRequest) (*faildetector.IndirectProbeResponse, error)
	Gossip(ctx context.Context, req *gossip.Batch) (*emptypb.Empty, error)
}

// Register attaches the membership service to the gRPC server.
func Register(s *grpc.Server, srv MembershipServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MembershipServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ping",
			Handler:    pingHandler,
		},
		{
			MethodName: "ProbeIndirectly",
			Handler:    probeIndirectlyHandler,
		},
		{
			MethodName: "Gossip",
			Handler:    gossipHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nodeapi/service.go",
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MembershipServer).Ping(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodPing,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MembershipServer).Ping(ctx, req.(*PingRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func probeIndirectlyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(IndirectProbeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MembershipServer).ProbeIndirectly(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodProbeIndirectly,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MembershipServer).ProbeIndirectly(ctx, req.(*IndirectProbeRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func gossipHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(gossip.Batch)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(MembershipServer).Gossip(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodGossip,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MembershipServer).Gossip(ctx, req.(*gossip.Batch))
	}

	return interceptor(ctx, in, info, handler)
}
