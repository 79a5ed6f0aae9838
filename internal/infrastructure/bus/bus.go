package bus

import (
	"log"
	"sync"

	"lumenvault/internal/domain/event"
)

// Broadcaster fans committed domain events out to subscriber channels.
// Publish never blocks: a subscriber whose buffer is full misses the event
// and is expected to resync from the query surface.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[uint64]chan event.Event
	next uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]chan event.Event)}
}

// Subscribe registers a buffered subscriber channel and returns it with a
// cancel func that closes and removes it.
func (b *Broadcaster) Subscribe(buffer int) (<-chan event.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan event.Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broadcaster) Publish(e event.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			log.Printf("event bus: dropping %s for slow subscriber", e.Kind)
		}
	}
}
