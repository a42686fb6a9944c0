package kit

import "sync"

type Event string

// Notifier fans an event out to every subscriber. Delivery is best-effort:
// a subscriber that has fallen behind drops the event instead of blocking
// the publisher.
type Notifier struct {
	mu   sync.Mutex
	subs []chan Event
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Subscribe() <-chan Event {
	ch := make(chan Event, 8)

	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()

	return ch
}

func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	subs := make([]chan Event, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}
