package nodeapi

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/maxpoletaev/siloring/faildetector"
	"github.com/maxpoletaev/siloring/gossip"
	"github.com/maxpoletaev/siloring/internal/grpcutil"
)

// Client is a connection to a remote silo.
type Client struct {
	conn   *grpc.ClientConn
	closed atomic.Bool
}

// Dialer establishes a connection with a remote silo.
type Dialer func(ctx context.Context, addr string) (*Client, error)

// DialGRPC connects to the silo at addr. The call blocks until the
// connection is established or ctx expires.
func DialGRPC(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time: 10 * time.Second, // ping every 10 seconds if there is no activity
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpcutil.CallOption()),
	}, opts...)

	conn, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial failed: %w", err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Ping(ctx context.Context, req *PingRequest) error {
	return c.conn.Invoke(ctx, methodPing, req, &emptypb.Empty{})
}

func (c *Client) ProbeIndirectly(ctx context.Context, req *IndirectProbeRequest) (*faildetector.IndirectProbeResponse, error) {
	resp := &faildetector.IndirectProbeResponse{}

	if err := c.conn.Invoke(ctx, methodProbeIndirectly, req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) Gossip(ctx context.Context, batch *gossip.Batch) error {
	return c.conn.Invoke(ctx, methodGossip, batch, &emptypb.Empty{})
}

// Close closes the underlying connection. The connection may be in use by
// other goroutines, whose calls will fail.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil // already closed
	}

	return c.conn.Close()
}

func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
