package events

import (
	"sync"

	model "auction-lifecycle/internal/models"
)

// Publisher receives state-change events from the auction service
type Publisher interface {
	Publish(event model.Event)
}

// Bus fans events out to subscribers. Each subscriber has its own unbounded
// queue drained by a dedicated goroutine, so Publish never blocks on a slow
// consumer and no event is dropped while the subscription is live.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
	closed bool
}

type subscription struct {
	mu     sync.Mutex
	queue  []model.Event
	wake   chan struct{}
	done   chan struct{}
	out    chan model.Event
	closed bool
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Publish enqueues event for every current subscriber
func (b *Bus) Publish(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		s.push(event)
	}
}

// Subscribe registers a new consumer. The returned cancel func stops delivery
// and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan model.Event, func()) {
	s := &subscription{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan model.Event),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.out)
		return s.out, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	b.mu.Unlock()

	go s.pump()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			s.stop()
		})
	}
	return s.out, cancel
}

// Subscribers returns the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close stops every subscription. Later Subscribe calls get a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[int]*subscription)
	b.closed = true
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

func (s *subscription) push(event model.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

func (s *subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, event := range pending {
			select {
			case s.out <- event:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}
