package notify

import (
	"sync"

	"github.com/danglnh07/concord/db"
)

// Subscriber of the notification service
type Subscriber chan db.Notification

// Hub fans notifications out to SSE subscribers. Subscriptions are keyed by
// account so a notification is only delivered to streams of its recipient.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[Subscriber]struct{}
}

// Constructor method for the hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[Subscriber]struct{}),
	}
}

// Method to subscribe into the hub. One account may hold several streams
// (multiple tabs), each with its own channel.
func (h *Hub) Subscribe(accountID uint) Subscriber {
	ch := make(Subscriber, 10) // buffered channel
	h.mu.Lock()
	if h.subscribers[accountID] == nil {
		h.subscribers[accountID] = make(map[Subscriber]struct{})
	}
	h.subscribers[accountID][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Method to unsubscribe from the hub
func (h *Hub) Unsubscribe(accountID uint, ch Subscriber) {
	h.mu.Lock()
	if subs, ok := h.subscribers[accountID]; ok {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, accountID)
		}
	}
	h.mu.Unlock()
}

// Method to publish a notification to its recipient's streams
func (h *Hub) Publish(noti db.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[noti.AccountID] {
		select {
		case ch <- noti:
		default: // avoid blocking if buffer full
		}
	}
}
