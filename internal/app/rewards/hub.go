package rewards

import (
	"sync"

	"github.com/glowcircle/glow/internal/domain"
)

// ─── Notice Hub ─────────────────────────────────────────────────────────────
// Achievement notices ("first point earned", "signup bonus awarded") are
// published to subscribers after the relevant append commits. Subscription
// replaces the stored-closure callback of older designs: the engine never
// holds a reference to any single UI listener.

// NoticeHub fans engine notices out to subscribers.
type NoticeHub struct {
	mu      sync.Mutex
	clients map[chan domain.Notice]struct{}
}

// NewNoticeHub creates an empty hub.
func NewNoticeHub() *NoticeHub {
	return &NoticeHub{clients: make(map[chan domain.Notice]struct{})}
}

// Subscribe registers a new listener. Returns the channel and an unsubscribe
// func the caller must invoke when done.
func (h *NoticeHub) Subscribe() (<-chan domain.Notice, func()) {
	ch := make(chan domain.Notice, 8)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	}
}

// Broadcast delivers notices to every subscriber.
func (h *NoticeHub) Broadcast(notices ...domain.Notice) {
	if len(notices) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range notices {
		for ch := range h.clients {
			select {
			case ch <- n:
			default:
				// Listener too slow, drop the notice
			}
		}
	}
}

// ClientCount returns the number of active subscribers.
func (h *NoticeHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
