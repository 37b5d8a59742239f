package msgbus

import "sync"

// Token identifies one registration on one bus instance. The zero Token
// matches nothing and may be passed to Unsubscribe freely.
type Token struct {
	bus *Bus
	key TypeKey
	id  uint64
}

// Key returns the type key the registration was made for.
func (t Token) Key() TypeKey { return t.key }

// ID returns the registration's id, unique within the owning bus and
// reported as Sub in HandlerError. The zero Token reports 0.
func (t Token) ID() uint64 { return t.id }

type subscription struct {
	id      uint64
	handler Handler
}

// registry maps type keys to registration-ordered handler lists. Mutation
// is copy-on-write: an installed slice is never edited in place, so a
// slice returned by lookup is a stable snapshot regardless of concurrent
// Subscribe and Unsubscribe calls.
type registry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[TypeKey][]*subscription
}

func newRegistry() *registry {
	return &registry{subs: make(map[TypeKey][]*subscription)}
}

func (r *registry) add(key TypeKey, h Handler) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cur := r.subs[key]
	next := make([]*subscription, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, &subscription{id: r.nextID, handler: h})
	r.subs[key] = next
	return r.nextID
}

func (r *registry) remove(key TypeKey, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.subs[key]
	for i, s := range cur {
		if s.id != id {
			continue
		}
		if len(cur) == 1 {
			delete(r.subs, key)
			return true
		}
		next := make([]*subscription, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		r.subs[key] = next
		return true
	}
	return false
}

func (r *registry) lookup(key TypeKey) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subs[key]
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[TypeKey][]*subscription)
}
