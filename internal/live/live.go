package live

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Subscribe after the Value has been closed, and by
// Next once the subscription has ended.
var ErrClosed = errors.New("live: closed")

// Option configures a Value.
type Option[T any] func(*Value[T])

// WithEqual suppresses publishes whose value equals the current one.
// Without it every Set is delivered.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(v *Value[T]) {
		v.equal = eq
	}
}

// Value is an observable value. Safe for concurrent use.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	equal  func(a, b T) bool
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// New creates a Value holding initial.
func New[T any](initial T, opts ...Option[T]) *Value[T] {
	v := &Value[T]{
		cur:  initial,
		subs: make(map[*Subscription[T]]struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current value and delivers it to every subscriber.
// Returns false if the value was suppressed by the equality option or the
// Value is closed.
func (v *Value[T]) Set(x T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	if v.equal != nil && v.equal(v.cur, x) {
		return false
	}

	v.cur = x
	for s := range v.subs {
		s.offer(x)
	}
	return true
}

// Subscribe registers a new subscriber. The current value is queued for it
// before Subscribe returns.
//
// The subscription ends when ctx is cancelled, when Close is called on it, or
// when the Value is closed. Its channel is closed in all three cases.
func (v *Value[T]) Subscribe(ctx context.Context) (*Subscription[T], error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}

	s := &Subscription[T]{
		ch:    make(chan T, 1),
		done:  make(chan struct{}),
		owner: v,
	}
	s.ch <- v.cur
	v.subs[s] = struct{}{}
	v.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.Close()
			case <-s.done:
			}
		}()
	}

	return s, nil
}

// Subscribers returns the number of open subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// Close ends every subscription and rejects further Set and Subscribe calls.
// Safe to call more than once.
func (v *Value[T]) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	subs := make([]*Subscription[T], 0, len(v.subs))
	for s := range v.subs {
		subs = append(subs, s)
	}
	v.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// Subscription is a single subscriber's view of a Value.
type Subscription[T any] struct {
	ch    chan T
	done  chan struct{}
	once  sync.Once
	owner *Value[T]
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Done is closed when the subscription ends.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Next waits for the next delivered value.
// Returns ErrClosed once the subscription has ended, or ctx.Err().
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case x, ok := <-s.ch:
		if !ok {
			return zero, ErrClosed
		}
		return x, nil
	}
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		// Holding the owner's lock keeps Set from offering into a closed channel.
		s.owner.mu.Lock()
		delete(s.owner.subs, s)
		close(s.ch)
		s.owner.mu.Unlock()
		close(s.done)
	})
}

// offer replaces the pending value, if any, with x.
// Caller must hold the owner's lock.
func (s *Subscription[T]) offer(x T) {
	select {
	case <-s.ch:
	default:
	}
	// The slot is empty now and only lock holders send, so this never blocks.
	s.ch <- x
}
