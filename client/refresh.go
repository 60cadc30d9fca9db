package client

import (
	"time"

	kerrors "github.com/issac1998/kafka-client/internal/errors"
	"github.com/issac1998/kafka-client/internal/protocol"
)

// Retry policy for the two refreshers
const (
	metadataRetries       = 3
	metadataRetryDelay    = 300 * time.Millisecond
	coordinatorRetries    = 3
	coordinatorRetryDelay = 400 * time.Millisecond
)

// withRetry runs fn up to attempts times, sleeping delay between attempts,
// until fn reports success.
func withRetry(attempts int, delay time.Duration, fn func(attempt int) bool) bool {
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
		}
		if fn(attempt) {
			return true
		}
	}
	return false
}

// firstBrokerResponse walks the brokers in registry order, skips those
// without a live socket, and returns the first non-empty reply.
func firstBrokerResponse(net NetworkClient, brokers []*Broker, request []byte, timeout time.Duration) []byte {
	for _, broker := range brokers {
		if !broker.Connected() {
			continue
		}
		data, err := net.SendSync(broker.conn, request, timeout)
		if err != nil || len(data) == 0 {
			continue
		}
		return data
	}
	return nil
}

// retrieveMetadata queries the cluster for metadata, optionally scoped to
// one topic. While the cluster reports a leader election in progress the
// query is retried; on exhaustion an empty snapshot is returned so callers
// proceed with targeted refreshes later. Finding no reachable broker at
// all is fatal to the worker.
func (w *worker) retrieveMetadata(topic string) (*protocol.MetadataResponse, error) {
	var snapshot *protocol.MetadataResponse
	var fatal error

	withRetry(metadataRetries, metadataRetryDelay, func(attempt int) bool {
		request := protocol.CreateMetadataRequest(int32(w.correlationID), clientID, topic)
		w.correlationID++

		data := firstBrokerResponse(w.net, w.registry.Brokers(), request, w.syncTimeout)
		if data == nil {
			w.logger.Error("unable to fetch metadata from any broker")
			fatal = kerrors.NoMetadataAvailable()
			return true
		}

		parsed, err := protocol.ParseMetadataResponse(data)
		if err != nil {
			w.logger.Warn("failed to parse metadata response", "error", err)
			return false
		}

		if parsed.HasLeaderNotAvailable() {
			w.logger.Warn("metadata reports leader not available, retrying",
				"attempt", attempt+1, "retries", metadataRetries)
			return false
		}

		snapshot = parsed
		return true
	})

	if fatal != nil {
		return nil, fatal
	}
	if snapshot == nil {
		w.logger.Error("metadata retries exhausted",
			"error_code", protocol.ErrLeaderNotAvailable.Code)
		return &protocol.MetadataResponse{}, nil
	}
	return snapshot, nil
}

// updateMetadata refreshes the metadata snapshot and reconciles the broker
// registry against it.
func (w *worker) updateMetadata(topic string) error {
	snapshot, err := w.retrieveMetadata(topic)
	if err != nil {
		return err
	}
	w.registry.Reconcile(snapshot.Brokers)
	w.metadata = snapshot
	return nil
}

// updateCoordinator refreshes the consumer group coordinator. The snapshot
// is installed only on success; on exhaustion the previous value is kept
// and the returned snapshot carries the last error code.
func (w *worker) updateCoordinator() *protocol.ConsumerMetadataResponse {
	var last *protocol.ConsumerMetadataResponse

	ok := withRetry(coordinatorRetries, coordinatorRetryDelay, func(attempt int) bool {
		request := protocol.CreateConsumerMetadataRequest(int32(w.correlationID), clientID, w.consumerGroup)
		w.correlationID++

		data := firstBrokerResponse(w.net, w.registry.Brokers(), request, w.syncTimeout)
		if data == nil {
			w.logger.Warn("no broker answered coordinator discovery",
				"group", w.consumerGroup, "attempt", attempt+1)
			return false
		}

		parsed, err := protocol.ParseConsumerMetadataResponse(data)
		if err != nil {
			w.logger.Warn("failed to parse coordinator response", "error", err)
			return false
		}

		if parsed.ErrorCode != protocol.ErrNone.Code {
			w.logger.Warn("coordinator discovery returned error",
				"group", w.consumerGroup, "error_code", parsed.ErrorCode)
			last = parsed
			return false
		}

		w.coordinator = parsed
		last = parsed
		return true
	})

	if !ok {
		w.logger.Error("coordinator refresh exhausted", "group", w.consumerGroup)
		if last == nil {
			last = &protocol.ConsumerMetadataResponse{
				ErrorCode: protocol.ErrCoordinatorNotAvailable.Code,
			}
		}
	}
	return last
}
