package membership

import (
	"sync"
	"sync/atomic"
)

// UpdateStream holds the latest snapshot and fans it out to subscribers.
// A snapshot is accepted only if it succeeds the current one, so subscribers
// never observe a version going backwards. Slow
// subscribers skip intermediate snapshots and always see the latest one.
type UpdateStream struct {
	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
}

func NewUpdateStream(initial *Snapshot) *UpdateStream {
	s := &UpdateStream{
		subs: make(map[uint64]*Subscription),
	}

	s.current.Store(initial)

	return s
}

func (s *UpdateStream) Current() *Snapshot {
	return s.current.Load()
}

// TryPublish installs the snapshot if it succeeds the current one.
func (s *UpdateStream) TryPublish(next *Snapshot) bool {
	for {
		current := s.current.Load()
		if !next.IsSuccessorTo(current) {
			return false
		}

		if s.current.CompareAndSwap(current, next) {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		sub.offer(next)
	}

	return true
}

// Subscribe returns a subscription that immediately receives the current
// snapshot followed by every later one. Close must be called to release it.
func (s *UpdateStream) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscription{
		id:     s.nextID,
		ch:     make(chan *Snapshot, 1),
		done:   make(chan struct{}),
		stream: s,
	}

	s.nextID++
	s.subs[sub.id] = sub
	sub.offer(s.current.Load())

	return sub
}

func (s *UpdateStream) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subs, id)
}

// Subscription is a handle to an UpdateStream registration.
type Subscription struct {
	id     uint64
	ch     chan *Snapshot
	done   chan struct{}
	once   sync.Once
	stream *UpdateStream

	// last is guarded by the stream mutex.
	last *Snapshot
}

// Updates returns the channel delivering snapshots. It is never closed;
// select on Done to learn that the subscription was closed.
func (sub *Subscription) Updates() <-chan *Snapshot {
	return sub.ch
}

func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.stream.unsubscribe(sub.id)
		close(sub.done)
	})
}

// offer replaces any undelivered snapshot with snap. Must be called with
// the stream mutex held.
func (sub *Subscription) offer(snap *Snapshot) {
	if snap == nil || !snap.IsSuccessorTo(sub.last) {
		return
	}

	select {
	case <-sub.ch:
	default:
	}

	sub.ch <- snap
	sub.last = snap
}
