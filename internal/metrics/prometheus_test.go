package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"msgbus"
)

type ping struct{}

func (ping) Key() msgbus.TypeKey { return "test.ping" }

type pong struct{}

func (pong) Key() msgbus.TypeKey { return "test.pong" }

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestPromObservesBusDispatch(t *testing.T) {
	p := NewProm()
	b := msgbus.NewBus("orders-test", msgbus.WithObserver(p))
	defer b.Shutdown()

	_, err := b.Subscribe("test.ping", func(msgbus.Message) error {
		return b.Publish(pong{})
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.ping", func(msgbus.Message) error {
		return errors.New("down")
	})
	require.NoError(t, err)
	_, err = b.Subscribe("test.pong", func(msgbus.Message) error { return nil })
	require.NoError(t, err)

	require.Error(t, b.Publish(ping{}))

	require.Equal(t, 1.0, getCounterValue(t, p.published.WithLabelValues("orders-test", "test.ping")))
	require.Equal(t, 1.0, getCounterValue(t, p.published.WithLabelValues("orders-test", "test.pong")))
	require.Equal(t, 1.0, getCounterValue(t, p.deferred.WithLabelValues("orders-test", "test.pong")))
	require.Equal(t, 1.0, getCounterValue(t, p.failed.WithLabelValues("orders-test", "test.ping")))
	require.Equal(t, 1.0, getCounterValue(t, p.delivered.WithLabelValues("orders-test", "test.ping")))
	require.Equal(t, 1.0, getCounterValue(t, p.delivered.WithLabelValues("orders-test", "test.pong")))
}

func TestPromHandlerServesRegistry(t *testing.T) {
	p := NewProm()
	p.Published("orders", "order.received")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	p.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "msgbus_published_total")
}
