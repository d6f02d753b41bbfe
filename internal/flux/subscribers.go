package flux

import (
	"slices"
	"sync"

	"github.com/roach88/fluxury/internal/ir"
)

// Listener is notified after its store commits a new state.
type Listener func(action ir.Action)

type subscription struct {
	fn Listener
}

// subscribers is a copy-on-write listener list.
//
// current is the slice handed to the notification in flight; next is the
// slice that subscribe/unsubscribe edit. While they are shared, any edit
// clones next first, so a notification never iterates a slice that is
// being changed. Listeners added or removed during a notification take
// effect from the following notification.
type subscribers struct {
	mu      sync.Mutex
	current []*subscription
	next    []*subscription
	shared  bool
}

// add appends fn and returns an idempotent removal function.
func (s *subscribers) add(fn Listener) func() {
	sub := &subscription{fn: fn}

	s.mu.Lock()
	s.ensureOwned()
	s.next = append(s.next, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			s.ensureOwned()
			s.next = slices.DeleteFunc(s.next, func(x *subscription) bool { return x == sub })
		})
	}
}

// snapshot publishes next as current and returns it for iteration.
func (s *subscribers) snapshot() []*subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.next
	s.shared = true
	return s.current
}

// ensureOwned gives next its own backing array if current shares it.
// Caller holds s.mu.
func (s *subscribers) ensureOwned() {
	if s.shared {
		s.next = slices.Clone(s.next)
		s.shared = false
	}
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.next)
}
