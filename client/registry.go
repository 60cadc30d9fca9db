package client

import (
	"log/slog"
	"time"

	"github.com/issac1998/kafka-client/internal/protocol"
)

// brokerRegistry is the ordered set of brokers the worker holds sockets to.
// Insertion order is preserved; the head is the fallback broker. Owned by
// the worker loop, never shared.
type brokerRegistry struct {
	brokers []*Broker
	net     NetworkClient
	timeout time.Duration
	logger  *slog.Logger
}

func newBrokerRegistry(net NetworkClient, timeout time.Duration, logger *slog.Logger) *brokerRegistry {
	return &brokerRegistry{
		net:     net,
		timeout: timeout,
		logger:  logger,
	}
}

// Add connects a broker and prepends it to the registry. A failed connect
// still registers the broker, without a socket; it is skipped by request
// paths and retried on the next reconciliation.
func (r *brokerRegistry) Add(host string, port int32) *Broker {
	broker := &Broker{Host: host, Port: port}
	conn, err := r.net.Dial(host, port, r.timeout)
	if err != nil {
		r.logger.Warn("failed to connect to broker", "broker", broker.Addr(), "error", err)
	} else {
		broker.conn = conn
	}
	r.brokers = append([]*Broker{broker}, r.brokers...)
	return broker
}

// Reconcile aligns the registry with a fresh broker list from metadata:
// brokers absent from the list (or with a dead socket) are closed and
// dropped, new entries are connected and prepended. When the list would
// empty the registry entirely the removal is skipped, so a spurious
// metadata response cannot disconnect the worker.
func (r *brokerRegistry) Reconcile(fresh []protocol.Broker) {
	var keep, drop []*Broker
	for _, broker := range r.brokers {
		if broker.Connected() && brokerListed(broker, fresh) {
			keep = append(keep, broker)
		} else {
			drop = append(drop, broker)
		}
	}

	survivors := keep
	if len(keep) == 0 {
		survivors = r.brokers
	} else {
		for _, broker := range drop {
			r.logger.Info("removing broker", "broker", broker.Addr())
			if broker.conn != nil {
				r.net.Close(broker.conn)
				broker.conn = nil
			}
		}
	}

	r.brokers = survivors
	for _, b := range fresh {
		if r.Find(b.Host, b.Port) == nil {
			r.logger.Info("adding broker from metadata", "broker", (&Broker{Host: b.Host, Port: b.Port}).Addr())
			r.Add(b.Host, b.Port)
		}
	}
}

func brokerListed(broker *Broker, fresh []protocol.Broker) bool {
	for _, b := range fresh {
		if broker.is(b.Host, b.Port) {
			return true
		}
	}
	return false
}

// Find returns the registered broker with the given identity, or nil
func (r *brokerRegistry) Find(host string, port int32) *Broker {
	for _, broker := range r.brokers {
		if broker.is(host, port) {
			return broker
		}
	}
	return nil
}

// First returns the registry head, the fallback broker, or nil
func (r *brokerRegistry) First() *Broker {
	if len(r.brokers) == 0 {
		return nil
	}
	return r.brokers[0]
}

// Brokers returns the registry in order
func (r *brokerRegistry) Brokers() []*Broker {
	return r.brokers
}

// CloseAll closes every live socket, for worker shutdown
func (r *brokerRegistry) CloseAll() {
	for _, broker := range r.brokers {
		if broker.conn != nil {
			r.net.Close(broker.conn)
			broker.conn = nil
		}
	}
}
