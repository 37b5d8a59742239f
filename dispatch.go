package msgbus

import (
	"fmt"
	"sync"

	"github.com/petermattis/goid"
)

// pass holds the messages queued by handlers while one Publish call is
// dispatching on a goroutine. Queued messages run after the message that
// produced them, in queue order.
type pass struct {
	queue []Message
}

// dispatcher tracks the active pass per goroutine so that a Publish from
// inside a handler defers instead of recursing. Publishes from other
// goroutines are unrelated passes and proceed concurrently.
type dispatcher struct {
	mu     sync.Mutex
	passes map[int64]*pass
}

func newDispatcher() *dispatcher {
	return &dispatcher{passes: make(map[int64]*pass)}
}

// begin opens a pass for the calling goroutine. When a pass is already
// active there, msg is queued onto it and ok is false.
func (d *dispatcher) begin(msg Message) (gid int64, ok bool) {
	gid = goid.Get()
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, active := d.passes[gid]; active {
		p.queue = append(p.queue, msg)
		return gid, false
	}
	d.passes[gid] = &pass{}
	return gid, true
}

func (d *dispatcher) next(gid int64) (Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.passes[gid]
	if len(p.queue) == 0 {
		return nil, false
	}
	msg := p.queue[0]
	p.queue = p.queue[1:]
	return msg, true
}

func (d *dispatcher) end(gid int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.passes, gid)
}

// dispatch delivers msg to every matching registration: exact-key handlers
// first in registration order, then the handlers of each declared class in
// declaration order. Every snapshot is taken before the first handler runs,
// so a handler mutating the registry cannot change who receives the message
// it is handling. Failures are appended to failures; delivery always
// continues to the remaining handlers.
func (b *Bus) dispatch(msg Message, failures []*HandlerError) []*HandlerError {
	snapshots := [][]*subscription{b.reg.lookup(msg.Key())}
	if cm, ok := msg.(Classed); ok {
		for _, class := range cm.Classes() {
			snapshots = append(snapshots, b.reg.lookup(class))
		}
	}
	for _, subs := range snapshots {
		failures = b.invoke(subs, msg, failures)
	}
	return failures
}

func (b *Bus) invoke(subs []*subscription, msg Message, failures []*HandlerError) []*HandlerError {
	for _, s := range subs {
		if err := b.call(s, msg); err != nil {
			b.obs.Failed(b.name, msg.Key())
			b.log.Warnf("bus %s: handler %d for %s failed: %v", b.name, s.id, msg.Key(), err)
			failures = append(failures, &HandlerError{Key: msg.Key(), Sub: s.id, Err: err})
			continue
		}
		b.obs.Delivered(b.name, msg.Key())
	}
	return failures
}

// call runs one handler, converting a panic into an error so a bad
// subscriber cannot abort the pass.
func (b *Bus) call(s *subscription, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handler(msg)
}
