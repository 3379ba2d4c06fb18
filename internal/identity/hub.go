package identity

import (
	"sync"

	domain "store-sync/internal/domain/identity"
)

// hub fans auth changes out to subscribed observers. Delivery is
// synchronous and best-effort ordered; cancellation is idempotent.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]domain.Observer
}

func newHub() *hub {
	return &hub{subs: make(map[int]domain.Observer)}
}

func (h *hub) subscribe(fn domain.Observer) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *hub) emit(ident *domain.Identity) {
	h.mu.Lock()
	fns := make([]domain.Observer, 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ident)
	}
}
