package relay

import (
	"time"

	"github.com/nats-io/stan.go"

	"msgbus/internal/logging"
)

// StanSource feeds payloads from a NATS Streaming subject through a
// durable, manual-ack subscription.
type StanSource struct {
	conn    stan.Conn
	durable string
}

var _ Source = (*StanSource)(nil)

func NewStan(cluster, clientID, url, durable string) (*StanSource, error) {
	c, err := stan.Connect(cluster, clientID, stan.NatsURL(url))
	if err != nil {
		return nil, err
	}
	return &StanSource{conn: c, durable: durable}, nil
}

func (s *StanSource) Start(subject string, handler MessageHandler) error {
	_, err := s.conn.Subscribe(subject, func(m *stan.Msg) {
		if err := handler(m.Data); err != nil {
			logging.L().Warnf("relay: handle error: %v", err)
			return
		}
		if err := m.Ack(); err != nil {
			logging.L().Warnf("relay: ack error: %v", err)
		}
	}, stan.SetManualAckMode(),
		stan.DurableName(s.durable),
		stan.AckWait(30*time.Second),
		stan.DeliverAllAvailable())
	if err == nil {
		logging.L().Infof("relay: subscribed to %s (durable %s)", subject, s.durable)
	}
	return err
}

func (s *StanSource) Close() { s.conn.Close() }
