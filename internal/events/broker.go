package events

import "sync"

// Envelope pairs a topic name with its event for subscribers.
type Envelope struct {
	Topic string    `json:"topic"`
	Event StepEvent `json:"event"`
}

// Broker fans published events out to in-process subscribers, which is
// what the SSE endpoint tails. A subscriber registered with a session key
// receives only that session's events; an empty key receives everything.
// Slow subscribers lose events rather than block publishers.
type Broker struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	sessionKey string
	ch         chan Envelope
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a listener and returns its channel plus a cancel
// func. Cancel is idempotent and closes the channel.
func (b *Broker) Subscribe(sessionKey string, buffer int) (<-chan Envelope, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{sessionKey: sessionKey, ch: make(chan Envelope, buffer)}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

func (b *Broker) Publish(topic string, evt StepEvent) {
	env := Envelope{Topic: topic, Event: evt}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.sessionKey != "" && sub.sessionKey != evt.SessionKey {
			continue
		}
		select {
		case sub.ch <- env:
		default:
		}
	}
}

func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
