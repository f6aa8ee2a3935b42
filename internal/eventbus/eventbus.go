// Package eventbus implements an in-process pub/sub bus satisfying
// scheduler.EventBus (spec.md section 4.6): subscribers register for a
// topic and receive a notification channel, a publisher fans a topic out
// to every current subscriber. Adapted from the teacher pack's
// steveyegge-beads internal/eventbus.Bus, which keeps a mutex-guarded
// registry and dispatches to every matching registrant; this version
// trades beads' typed-handler registry and JetStream persistence for a
// plain channel-per-subscriber fanout, since the scheduler only needs a
// single "something changed" signal rather than a structured event
// payload.
package eventbus

import "sync"

// Bus is a topic-keyed fanout of buffered, capacity-1 notification
// channels. The zero value is not usable; construct with New.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]chan struct{})}
}

// Subscribe registers for topic and returns a channel that receives one
// notification per Publish call, plus an idempotent unsubscribe function.
// The channel is buffered by one slot so a publisher never blocks on a
// slow or absent subscriber; a notification is dropped rather than
// queued if the subscriber hasn't drained the previous one yet.
func (b *Bus) Subscribe(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			chans := b.subs[topic]
			for i, c := range chans {
				if c == ch {
					b.subs[topic] = append(chans[:i], chans[i+1:]...)
					break
				}
			}
		})
	}
	return ch, unsubscribe
}

// Publish notifies every current subscriber of topic.
func (b *Bus) Publish(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
