package httpapi

import (
	"sync"
	"time"

	"bankist.app/internal/bank"
)

// sessionEntry serialises requests of one client on its bank session.
type sessionEntry struct {
	mu      sync.Mutex
	sess    *bank.Session
	expires time.Time
}

type sessionRegistry struct {
	mu    sync.Mutex
	items map[string]*sessionEntry
	now   func() time.Time
}

func newSessionRegistry(now func() time.Time) *sessionRegistry {
	if now == nil {
		now = time.Now
	}
	return &sessionRegistry{items: make(map[string]*sessionEntry), now: now}
}

// put registers e until expires and drops every entry already past its expiry.
func (r *sessionRegistry) put(e *sessionEntry, expires time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, item := range r.items {
		if now.After(item.expires) {
			delete(r.items, id)
		}
	}
	e.expires = expires
	r.items[e.sess.ID] = e
}

func (r *sessionRegistry) get(id string) (*sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, false
	}
	if r.now().After(e.expires) {
		delete(r.items, id)
		return nil, false
	}
	return e, true
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
