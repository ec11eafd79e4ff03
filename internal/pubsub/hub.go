package pubsub

import (
	"sync"
	"sync/atomic"
)

// Hub fans events out to the connected websocket clients.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan interface{}]struct{}
	dropped     atomic.Int64
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan interface{}]struct{})}
}

// Subscribe returns a channel buffered to hold buffer events and a function
// that detaches it. The channel is never closed.
func (h *Hub) Subscribe(buffer int) (<-chan interface{}, func()) {
	ch := make(chan interface{}, buffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
		})
	}
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Publish(event interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
