package dashboard

import (
	"sync"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/kpi"
)

// EventType discriminates shell events.
type EventType string

const (
	// EventStatus reports a status line change.
	EventStatus EventType = "status"
	// EventKpi reports a merged KPI record of one queue.
	EventKpi EventType = "kpi"
)

// eventBuffer is the buffer of each event subscriber.
const eventBuffer = 32

// Event is one change of a shell.
type Event struct {
	Type    EventType     `json:"type"`
	State   State         `json:"state,omitempty"`
	Status  string        `json:"status,omitempty"`
	QueueID string        `json:"queueId,omitempty"`
	Kpi     *kpi.QueueKpi `json:"kpi,omitempty"`
}

// broadcaster fans events out to subscribers without blocking the sender.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, eventBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// close ends every subscription. Later subscribers get a closed channel.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broadcaster) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
