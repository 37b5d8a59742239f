package messages

import (
	"github.com/google/uuid"

	"msgbus"
	"msgbus/internal/model"
)

// Type keys of the order pipeline.
const (
	KeyOrderReceived msgbus.TypeKey = "order.received"
	KeyOrderStored   msgbus.TypeKey = "order.stored"
)

// OrderReceived is published by the relay when a well-formed order arrives
// from the broker.
type OrderReceived struct {
	msgbus.Event
	ID    string
	Order model.Order
}

func (OrderReceived) Key() msgbus.TypeKey { return KeyOrderReceived }

// NewOrderReceived stamps the message with a fresh id.
func NewOrderReceived(o model.Order) OrderReceived {
	return OrderReceived{ID: uuid.NewString(), Order: o}
}

// OrderStored is published by the archive handler after the upsert
// commits. CauseID is the id of the OrderReceived it confirms.
type OrderStored struct {
	msgbus.Event
	ID      string
	CauseID string
	Order   model.Order
}

func (OrderStored) Key() msgbus.TypeKey { return KeyOrderStored }

func NewOrderStored(causeID string, o model.Order) OrderStored {
	return OrderStored{ID: uuid.NewString(), CauseID: causeID, Order: o}
}
