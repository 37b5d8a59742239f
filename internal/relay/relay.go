package relay

import (
	"encoding/json"
	"fmt"

	"msgbus"
	"msgbus/internal/logging"
	"msgbus/internal/messages"
	"msgbus/internal/model"
)

// MessageHandler consumes one raw broker payload.
type MessageHandler func(data []byte) error

// Source is a stream of raw order payloads. Implementations ack a payload
// only after the handler returns nil.
type Source interface {
	Start(subject string, handler MessageHandler) error
	Close()
}

var ErrBadOrder = &BadOrderError{}

type BadOrderError struct{}

func (e *BadOrderError) Error() string { return "bad order" }

// Relay turns raw broker payloads into typed bus messages. Payloads that
// do not decode into an order with a UID are rejected; a failed dispatch
// is reported back to the source so the payload stays unacked.
type Relay struct {
	bus *msgbus.Bus
	src Source
}

func New(bus *msgbus.Bus, src Source) *Relay {
	return &Relay{bus: bus, src: src}
}

func (r *Relay) Start(subject string) error {
	return r.src.Start(subject, r.handle)
}

func (r *Relay) handle(data []byte) error {
	var o model.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("%w: %v", ErrBadOrder, err)
	}
	if o.OrderUID == "" {
		return fmt.Errorf("%w: empty order_uid", ErrBadOrder)
	}
	msg := messages.NewOrderReceived(o)
	if err := r.bus.Publish(msg); err != nil {
		return fmt.Errorf("dispatch %s: %w", msg.ID, err)
	}
	logging.L().Debugf("relay: order %s published as %s", o.OrderUID, msg.ID)
	return nil
}

func (r *Relay) Close() { r.src.Close() }
