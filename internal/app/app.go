package app

import (
	"context"

	"msgbus"
	"msgbus/internal/cache"
	"msgbus/internal/logging"
	"msgbus/internal/messages"
	"msgbus/internal/storage"
)

// App owns the order pipeline's bus subscriptions: archiving, cache
// maintenance and the audit trail.
type App struct {
	Store storage.Store
	Cache cache.Cache
	Bus   *msgbus.Bus
}

// Subscribe registers the pipeline handlers. The cache is fed from
// OrderStored, so an order becomes readable only after its upsert
// committed.
func (a *App) Subscribe() error {
	if _, err := a.Bus.Subscribe(messages.KeyOrderReceived, a.archive); err != nil {
		return err
	}
	if _, err := a.Bus.Subscribe(messages.KeyOrderStored, a.cacheOrder); err != nil {
		return err
	}
	if _, err := a.Bus.Subscribe(msgbus.ClassEvent, a.audit); err != nil {
		return err
	}
	return nil
}

// archive upserts the order and confirms it with an OrderStored event.
// The confirmation dispatches after the current pass finishes.
func (a *App) archive(m msgbus.Message) error {
	rcv := m.(messages.OrderReceived)
	if err := a.Store.UpsertOrder(context.Background(), rcv.Order); err != nil {
		return err
	}
	return a.Bus.Publish(messages.NewOrderStored(rcv.ID, rcv.Order))
}

func (a *App) cacheOrder(m msgbus.Message) error {
	o := m.(messages.OrderStored).Order
	a.Cache.Set(o.OrderUID, o)
	return nil
}

// audit sees every event on the bus.
func (a *App) audit(m msgbus.Message) error {
	switch ev := m.(type) {
	case messages.OrderReceived:
		logging.L().Infof("order received: %s (items=%d)", ev.Order.OrderUID, len(ev.Order.Items))
	case messages.OrderStored:
		logging.L().Infof("order stored: %s (cause=%s)", ev.Order.OrderUID, ev.CauseID)
	default:
		logging.L().Infof("event: %s", m.Key())
	}
	return nil
}

// RestoreCache preloads the cache from the store.
func (a *App) RestoreCache(ctx context.Context) error {
	orders, err := a.Store.LoadAllRaw(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		a.Cache.Set(o.OrderUID, o)
	}
	logging.L().Infof("cache restored (%d)", len(orders))
	return nil
}
