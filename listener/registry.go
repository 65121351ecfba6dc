// Package listener provides the subscribe/fan-out registry shared by Match
// and Lobby observers.
//
// Grounded on the teacher's transport/websocket.Hub (transport/websocket/hub.go):
// a registered-clients set guarded by its own lock, iterated to fan out a
// notification. Publish calls each callback synchronously, so callbacks are
// expected not to block (Session's enqueue is non-blocking). The teacher scopes its map by session id; Match and
// Lobby each own one Registry already scoped to themselves, so this is the
// single-set case of that pattern.
package listener

import "sync"

// Registry is a monitor holding a set of no-argument callbacks. Fan-out
// iterates the current subscriber list while holding the registry's own
// lock, so concurrent subscription cannot corrupt iteration; callbacks
// themselves run outside that lock.
type Registry struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{subs: make(map[int]func())}
}

// Subscribe registers cb and returns an id that can later be passed to
// Unsubscribe. cb must not re-enter the owning Match/Lobby's lock; it
// should only enqueue work elsewhere (e.g. onto a Session's queue).
func (r *Registry) Subscribe(cb func()) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = cb
	return id
}

// Unsubscribe removes a previously registered callback. Safe to call more
// than once for the same id.
func (r *Registry) Unsubscribe(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

// Publish copies the current subscriber list under the registry's lock,
// then invokes each callback outside that lock.
func (r *Registry) Publish() {
	r.mu.Lock()
	callbacks := make([]func(), 0, len(r.subs))
	for _, cb := range r.subs {
		callbacks = append(callbacks, cb)
	}
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}
