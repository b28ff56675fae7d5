package nodeapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maxpoletaev/siloring/internal/generic"
	"github.com/maxpoletaev/siloring/membership"
)

var ErrConcurrentDialFailed = errors.New("failed to connect in another goroutine")

// Registry keeps one connection per remote silo. Connections are dialed on
// first use, and concurrent callers share a single dial.
type Registry struct {
	mut            sync.RWMutex
	connections    map[membership.SiloAddress]*Client
	inProgress     generic.SyncMap[membership.SiloAddress, chan struct{}]
	connectTimeout time.Duration
	dialer         Dialer
}

func NewRegistry(dialer Dialer, connectTimeout time.Duration) *Registry {
	return &Registry{
		connections:    make(map[membership.SiloAddress]*Client),
		connectTimeout: connectTimeout,
		dialer:         dialer,
	}
}

// Get returns a connection to the silo, dialing it if needed.
func (r *Registry) Get(ctx context.Context, silo membership.SiloAddress) (*Client, error) {
	if conn, ok := r.get(silo); ok {
		return conn, nil
	}

	return r.connect(ctx, silo)
}

func (r *Registry) get(silo membership.SiloAddress) (*Client, bool) {
	r.mut.RLock()

	conn, ok := r.connections[silo]
	if !ok {
		r.mut.RUnlock()
		return nil, false
	}

	// The connection was closed manually, so it has to be removed.
	if conn.IsClosed() {
		r.mut.RUnlock()
		r.mut.Lock()

		// A new connection might have been created while we were waiting for the lock.
		if conn, ok := r.connections[silo]; ok && !conn.IsClosed() {
			r.mut.Unlock()
			return conn, true
		}

		delete(r.connections, silo)
		r.mut.Unlock()

		return nil, false
	}

	r.mut.RUnlock()

	return conn, true
}

func (r *Registry) connect(ctx context.Context, silo membership.SiloAddress) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, r.connectTimeout)
	defer cancel()

	var retry bool

	for {
		c := make(chan struct{})

		done, loaded := r.inProgress.LoadOrStore(silo, c)

		// Another goroutine is already dialing the silo. Wait for it to finish
		// or for the context to expire.
		if loaded {
			close(c)

			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			if conn, ok := r.get(silo); ok {
				return conn, nil
			}

			// The other goroutine has failed. Make one more attempt ourselves.
			if !retry {
				retry = true
				continue
			}

			return nil, ErrConcurrentDialFailed
		}

		defer r.inProgress.Delete(silo)
		defer close(done)

		// The previous dial may have completed right before we took over.
		if conn, ok := r.get(silo); ok {
			return conn, nil
		}

		conn, err := r.dialer(ctx, silo.Endpoint())
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", silo, err)
		}

		r.mut.Lock()
		defer r.mut.Unlock()

		// Keep the connection that was added while we were dialing.
		if old, ok := r.connections[silo]; ok && !old.IsClosed() {
			_ = conn.Close()
			return old, nil
		}

		r.connections[silo] = conn

		return conn, nil
	}
}

// Drop closes and forgets the connection to the silo.
func (r *Registry) Drop(silo membership.SiloAddress) {
	r.mut.Lock()
	defer r.mut.Unlock()

	if conn, ok := r.connections[silo]; ok {
		_ = conn.Close()
		delete(r.connections, silo)
	}
}

// Len is the number of open connections.
func (r *Registry) Len() int {
	r.mut.RLock()
	defer r.mut.RUnlock()

	return len(r.connections)
}

// Close closes all connections.
func (r *Registry) Close() {
	r.mut.Lock()
	defer r.mut.Unlock()

	for silo, conn := range r.connections {
		_ = conn.Close()
		delete(r.connections, silo)
	}
}
