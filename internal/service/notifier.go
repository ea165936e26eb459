package service

import (
	"sync"
	"time"
)

// Topic names a change-signal channel. Signals carry no payload;
// listeners re-fetch full state when one arrives.
type Topic string

const (
	TopicBookingsChanged     Topic = "bookings-changed"
	TopicBlockedDatesChanged Topic = "blocked-dates-changed"
)

// DefaultCoalesceDelay is how long a publish is held back so that a
// burst of mutations (blocking ten dates in one action) collapses into
// one broadcast.
const DefaultCoalesceDelay = 150 * time.Millisecond

type subscriber struct {
	topic Topic
	ch    chan Topic
}

// Notifier broadcasts "something changed" signals to registered
// subscribers after ledger mutations. Broadcasts are asynchronous and
// debounced per topic.
type Notifier struct {
	mu     sync.Mutex
	delay  time.Duration
	nextID int
	subs   map[int]subscriber
	timers map[Topic]*time.Timer
}

func NewNotifier(delay time.Duration) *Notifier {
	return &Notifier{
		delay:  delay,
		subs:   make(map[int]subscriber),
		timers: make(map[Topic]*time.Timer),
	}
}

// Subscribe registers a listener for topic. The returned cancel func
// must be called when the listener goes away; pairing the two gives
// components scoped acquire/release around their lifetime.
func (n *Notifier) Subscribe(topic Topic) (<-chan Topic, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan Topic, 1)
	n.subs[id] = subscriber{topic: topic, ch: ch}

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Publish schedules a broadcast for topic. Publishes arriving while one
// is already pending are absorbed into it.
func (n *Notifier) Publish(topic Topic) {
	if n.delay <= 0 {
		go n.broadcast(topic)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, pending := n.timers[topic]; pending {
		return
	}
	n.timers[topic] = time.AfterFunc(n.delay, func() {
		n.mu.Lock()
		delete(n.timers, topic)
		n.mu.Unlock()
		n.broadcast(topic)
	})
}

// broadcast delivers topic to every matching subscriber. The send never
// blocks: each subscriber channel holds one pending signal, and a
// listener that has not drained it already knows state changed.
func (n *Notifier) broadcast(topic Topic) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		if sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- topic:
		default:
		}
	}
}
