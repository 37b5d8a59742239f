// Package msgbus implements a small in-process publish/subscribe bus.
//
// Producers publish immutable typed messages; consumers subscribe handlers
// to type keys and are invoked synchronously, in registration order, on the
// publisher's goroutine. One failing handler never blocks delivery to the
// rest: Publish collects every failure of the pass into one aggregate and
// hands it back to the publisher. Messages published from inside a handler
// are dispatched after the current pass, in publish order.
//
// A Bus is constructed explicitly with NewBus and passed to the components
// that need it; there is no process-wide default instance, and independent
// instances do not interfere with each other.
package msgbus

import "sync/atomic"

// Handler consumes one message. A non-nil return is recorded as a
// HandlerError and reported to the publisher; it does not stop delivery to
// the handlers registered after it.
type Handler func(Message) error

// State is the lifecycle position of a Bus.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateShuttingDown
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateShutdown:
		return "shutdown"
	}
	return "unknown"
}

// Logger is the logging surface the bus writes diagnostics to.
// *logrus.Logger satisfies it. The default discards everything.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Observer receives dispatch accounting, typically to feed metrics
// counters. Calls happen synchronously on the publishing goroutine and
// implementations must be safe for concurrent use.
type Observer interface {
	// Published marks the start of delivery of one message.
	Published(bus string, key TypeKey)
	// Delivered marks one successful handler invocation.
	Delivered(bus string, key TypeKey)
	// Failed marks one failed handler invocation.
	Failed(bus string, key TypeKey)
	// Deferred marks a nested publish queued behind the active pass.
	Deferred(bus string, key TypeKey)
}

type nopObserver struct{}

func (nopObserver) Published(string, TypeKey) {}
func (nopObserver) Delivered(string, TypeKey) {}
func (nopObserver) Failed(string, TypeKey)    {}
func (nopObserver) Deferred(string, TypeKey)  {}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithLogger directs bus diagnostics to l.
func WithLogger(l Logger) Option { return func(b *Bus) { b.log = l } }

// WithObserver wires dispatch accounting to o.
func WithObserver(o Observer) Option { return func(b *Bus) { b.obs = o } }

// Bus is a named, independent publish/subscribe instance composed of a
// subscription registry and a synchronous dispatcher. The name exists for
// diagnostics: it appears in logs, errors and metrics labels.
type Bus struct {
	name  string
	state atomic.Int32
	reg   *registry
	disp  *dispatcher
	log   Logger
	obs   Observer
}

// NewBus returns a running bus.
func NewBus(name string, opts ...Option) *Bus {
	b := &Bus{
		name: name,
		reg:  newRegistry(),
		disp: newDispatcher(),
		log:  nopLogger{},
		obs:  nopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.state.Store(int32(StateRunning))
	b.log.Debugf("bus %s: running", name)
	return b
}

// Name returns the instance name given to NewBus.
func (b *Bus) Name() string { return b.name }

// State returns the current lifecycle state.
func (b *Bus) State() State { return State(b.state.Load()) }

// Subscribe registers h for messages whose key, or one of their declared
// class keys, equals key. Handlers registered for one key run in
// registration order. The returned Token removes exactly this
// registration and nothing else.
func (b *Bus) Subscribe(key TypeKey, h Handler) (Token, error) {
	if b.State() != StateRunning {
		return Token{}, &ShutdownError{Bus: b.name}
	}
	if h == nil {
		return Token{}, &InvalidHandlerError{Bus: b.name, Key: key}
	}
	id := b.reg.add(key, h)
	b.log.Debugf("bus %s: subscription %d added for %s", b.name, id, key)
	return Token{bus: b, key: key, id: id}, nil
}

// Unsubscribe removes the registration tok identifies. Unknown, stale,
// zero-value and foreign-bus tokens are silent no-ops, which keeps
// removal safe to call from shutdown paths and handler logic alike.
func (b *Bus) Unsubscribe(tok Token) error {
	if b.State() != StateRunning {
		return &ShutdownError{Bus: b.name}
	}
	if tok.bus != b {
		return nil
	}
	if b.reg.remove(tok.key, tok.id) {
		b.log.Debugf("bus %s: subscription %d removed from %s", b.name, tok.id, tok.key)
	}
	return nil
}

// Publish delivers msg to every matching handler, synchronously, on the
// calling goroutine. Zero matching handlers is a valid no-op. Publish
// returns nil when every invoked handler succeeded, and a *DispatchError
// listing each failure otherwise; it never retries.
//
// A Publish issued from inside a handler on the same goroutine does not
// dispatch immediately: the message is queued and dispatched after the
// message currently being delivered, under the same ordering rules, and
// its failures are folded into the originating call's report. The nested
// call itself always returns nil.
//
// msg must not be nil.
func (b *Bus) Publish(msg Message) error {
	if msg == nil {
		panic("msgbus: Publish called with nil message")
	}
	if b.State() != StateRunning {
		return &ShutdownError{Bus: b.name}
	}
	gid, outer := b.disp.begin(msg)
	if !outer {
		b.obs.Deferred(b.name, msg.Key())
		return nil
	}
	defer b.disp.end(gid)

	b.obs.Published(b.name, msg.Key())
	failures := b.dispatch(msg, nil)
	for {
		queued, ok := b.disp.next(gid)
		if !ok {
			break
		}
		b.obs.Published(b.name, queued.Key())
		failures = b.dispatch(queued, failures)
	}
	if len(failures) == 0 {
		return nil
	}
	return &DispatchError{Bus: b.name, Failures: failures}
}

// Shutdown removes every subscription and makes all further operations
// fail with a *ShutdownError. It is idempotent. Dispatch is synchronous,
// so there is no queued work to drain; a pass already running on another
// goroutine completes against the snapshots it holds.
func (b *Bus) Shutdown() {
	if !b.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		return
	}
	b.reg.clear()
	b.state.Store(int32(StateShutdown))
	b.log.Infof("bus %s: shut down", b.name)
}
