package kpi

import "sync"

// subscriberBuffer is the notification buffer of each board subscriber.
const subscriberBuffer = 16

// Update is sent to subscribers after a queue record changed.
type Update struct {
	QueueID string   `json:"queueId"`
	Kpi     QueueKpi `json:"kpi"`
}

// Board holds the merged QueueKpi of every queue. It is safe for
// concurrent use.
type Board struct {
	mu          sync.RWMutex
	queues      map[string]QueueKpi
	subscribers map[int]chan Update
	nextID      int
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		queues:      make(map[string]QueueKpi),
		subscribers: make(map[int]chan Update),
	}
}

// Apply merges partial into the record of queueID and notifies subscribers.
// An empty partial changes nothing and notifies nobody.
func (b *Board) Apply(queueID string, partial QueueKpi) QueueKpi {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.queues[queueID]
	if partial.IsEmpty() {
		return current.Clone()
	}

	current.Merge(partial)
	b.queues[queueID] = current

	update := Update{QueueID: queueID, Kpi: current.Clone()}
	for _, ch := range b.subscribers {
		select {
		case ch <- update:
		default:
			// Slow subscriber; it re-reads Snapshot on its next frame.
		}
	}

	return update.Kpi
}

// Get returns the record of queueID and whether the queue has one.
func (b *Board) Get(queueID string) (QueueKpi, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	k, ok := b.queues[queueID]
	return k.Clone(), ok
}

// Snapshot returns a copy of every record.
func (b *Board) Snapshot() map[string]QueueKpi {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]QueueKpi, len(b.queues))
	for id, k := range b.queues {
		out[id] = k.Clone()
	}
	return out
}

// Reset drops every record.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues = make(map[string]QueueKpi)
}

// Subscribe returns a channel of updates and a func that cancels the
// subscription and closes the channel. Notifications to a full channel are
// dropped.
func (b *Board) Subscribe() (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Update, subscriberBuffer)
	b.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}
