package client

import (
	kerrors "github.com/issac1998/kafka-client/internal/errors"
	"github.com/issac1998/kafka-client/internal/protocol"
)

// Operation handlers. Each assembles a request with the current correlation
// id, routes it, exchanges it, parses the reply, and bumps the correlation
// id. A returned error is fatal to the worker; operational failures travel
// in the reply instead.

// fatalOnly passes through only the error that terminates the worker:
// total metadata unavailability.
func fatalOnly(err error) error {
	if kerrors.IsNoMetadataAvailable(err) {
		return err
	}
	return nil
}

// exchange performs one synchronous request/reply with a broker and bumps
// the correlation id, reply or not.
func (w *worker) exchange(broker *Broker, request []byte) ([]byte, error) {
	data, err := w.net.SendSync(broker.conn, request, w.syncTimeout)
	w.correlationID++
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &kerrors.TypedError{
			Type:    kerrors.ConnectionError,
			Message: "no response from broker " + broker.Addr(),
		}
	}
	return data, nil
}

func (w *worker) handleProduce(e produceEvent) error {
	req := e.req

	broker, err := w.brokerForProduce(req.Topic, req.Partition)
	if err != nil {
		e.reply <- produceReply{err: err}
		return fatalOnly(err)
	}
	if broker == nil || !broker.Connected() {
		w.logger.Warn("produce could not resolve a leader",
			"topic", req.Topic, "partition", req.Partition)
		e.reply <- produceReply{err: kerrors.LeaderNotAvailable(req.Topic, req.Partition)}
		return nil
	}

	request, err := protocol.CreateProduceRequest(int32(w.correlationID+1), clientID, req)
	if err != nil {
		e.reply <- produceReply{err: err}
		return nil
	}

	// Produce advances the correlation id twice, matching the id sequence
	// brokers observe from this client.
	if req.RequiredAcks == 0 {
		err := w.net.SendAsync(broker.conn, request)
		w.correlationID += 2
		if err != nil {
			e.reply <- produceReply{err: err}
			return nil
		}
		e.reply <- produceReply{dispatched: true}
		return nil
	}

	data, err := w.net.SendSync(broker.conn, request, w.syncTimeout)
	w.correlationID += 2
	if err != nil {
		e.reply <- produceReply{err: err}
		return nil
	}
	if len(data) == 0 {
		e.reply <- produceReply{err: &kerrors.TypedError{
			Type:    kerrors.ConnectionError,
			Message: "no response from broker " + broker.Addr(),
		}}
		return nil
	}

	resp, err := protocol.ParseProduceResponse(data)
	e.reply <- produceReply{resp: resp, err: err}
	return nil
}

func (w *worker) handleFetch(e fetchEvent) error {
	resp, err := w.fetch(e.opts)
	e.reply <- fetchReply{resp: resp, err: err}
	return fatalOnly(err)
}

// fetch performs a fetch and, when asked, commits the last consumed offset
// for the worker's consumer group. Shared by the fetch handler and the
// streaming loop.
func (w *worker) fetch(opts FetchOptions) (*protocol.FetchResponse, error) {
	if opts.AutoCommit && w.consumerGroup == NoConsumerGroup {
		return nil, kerrors.ConsumerGroupRequired()
	}

	broker, err := w.brokerForPartition(opts.Topic, opts.Partition)
	if err != nil {
		return nil, err
	}
	if broker == nil || !broker.Connected() {
		w.logger.Warn("fetch could not resolve a leader",
			"topic", opts.Topic, "partition", opts.Partition)
		return nil, kerrors.TopicNotFound(opts.Topic)
	}

	request := protocol.CreateFetchRequest(int32(w.correlationID), clientID, &protocol.FetchRequest{
		Topic:     opts.Topic,
		Partition: opts.Partition,
		Offset:    opts.Offset,
		WaitTime:  opts.WaitTime,
		MinBytes:  opts.MinBytes,
		MaxBytes:  opts.MaxBytes,
	})

	data, err := w.exchange(broker, request)
	if err != nil {
		return nil, err
	}

	resp, err := protocol.ParseFetchResponse(data)
	if err != nil {
		return nil, err
	}

	if opts.AutoCommit {
		if partition := resp.FirstPartition(); partition != nil {
			if last := partition.LastOffset(); last != nil {
				if _, err := w.commitOffset(&protocol.OffsetCommitRequest{
					ConsumerGroup: w.consumerGroup,
					Topic:         opts.Topic,
					Partition:     opts.Partition,
					Offset:        *last,
				}); err != nil {
					w.logger.Warn("auto commit failed",
						"topic", opts.Topic, "partition", opts.Partition,
						"offset", *last, "error", err)
				}
			}
		}
	}

	return resp, nil
}

func (w *worker) handleOffset(e offsetEvent) error {
	req := e.req

	broker, err := w.brokerForPartition(req.Topic, req.Partition)
	if err != nil {
		e.reply <- offsetReply{err: err}
		return fatalOnly(err)
	}
	if broker == nil || !broker.Connected() {
		w.logger.Warn("offset lookup could not resolve a leader",
			"topic", req.Topic, "partition", req.Partition)
		e.reply <- offsetReply{err: kerrors.TopicNotFound(req.Topic)}
		return nil
	}

	request := protocol.CreateOffsetRequest(int32(w.correlationID), clientID, req)
	data, err := w.exchange(broker, request)
	if err != nil {
		e.reply <- offsetReply{err: err}
		return nil
	}

	resp, err := protocol.ParseOffsetResponse(data)
	e.reply <- offsetReply{resp: resp, err: err}
	return nil
}

func (w *worker) handleOffsetFetch(e offsetFetchEvent) error {
	req := e.req
	if req.ConsumerGroup == "" {
		if w.consumerGroup == NoConsumerGroup {
			e.reply <- offsetFetchReply{err: kerrors.ConsumerGroupRequired()}
			return nil
		}
		req.ConsumerGroup = w.consumerGroup
	}

	broker := w.brokerForCoordinator(false)
	if broker == nil || !broker.Connected() {
		w.logger.Warn("offset fetch could not resolve the coordinator",
			"group", req.ConsumerGroup)
		e.reply <- offsetFetchReply{err: kerrors.TopicNotFound(req.Topic)}
		return nil
	}

	request := protocol.CreateOffsetFetchRequest(int32(w.correlationID), clientID, req)
	data, err := w.exchange(broker, request)
	if err != nil {
		e.reply <- offsetFetchReply{err: err}
		return nil
	}

	resp, err := protocol.ParseOffsetFetchResponse(data)
	e.reply <- offsetFetchReply{resp: resp, err: err}
	return nil
}

func (w *worker) handleOffsetCommit(e offsetCommitEvent) error {
	resp, err := w.commitOffset(e.req)
	e.reply <- offsetCommitReply{resp: resp, err: err}
	return nil
}

// commitOffset routes an offset commit to the coordinator, falling back to
// the registry head when no coordinator is known.
func (w *worker) commitOffset(req *protocol.OffsetCommitRequest) (*protocol.OffsetCommitResponse, error) {
	if req.ConsumerGroup == "" {
		if w.consumerGroup == NoConsumerGroup {
			return nil, kerrors.ConsumerGroupRequired()
		}
		req.ConsumerGroup = w.consumerGroup
	}

	broker := w.brokerForCoordinator(true)
	if broker == nil || !broker.Connected() {
		w.logger.Warn("offset commit could not resolve a broker", "group", req.ConsumerGroup)
		return nil, &kerrors.TypedError{
			Type:    kerrors.CoordinatorError,
			Message: kerrors.CoordinatorNotFoundMsg,
		}
	}

	request := protocol.CreateOffsetCommitRequest(int32(w.correlationID), clientID, req)
	data, err := w.exchange(broker, request)
	if err != nil {
		return nil, err
	}

	return protocol.ParseOffsetCommitResponse(data)
}

func (w *worker) handleConsumerGroupMetadata(e consumerGroupMetadataEvent) error {
	if w.consumerGroup == NoConsumerGroup {
		e.reply <- consumerGroupMetadataReply{err: kerrors.ConsumerGroupRequired()}
		return nil
	}
	snapshot := w.updateCoordinator()
	e.reply <- consumerGroupMetadataReply{resp: snapshot}
	return nil
}

func (w *worker) handleMetadata(e metadataEvent) error {
	snapshot, err := w.retrieveMetadata(e.topic)
	if err != nil {
		e.reply <- metadataReply{err: err}
		return fatalOnly(err)
	}
	w.metadata = snapshot
	e.reply <- metadataReply{resp: snapshot}
	return nil
}

// coordinatorExchange is the shared skeleton of the thin group operations
func (w *worker) coordinatorExchange(group string, request []byte) ([]byte, error) {
	broker := w.brokerForCoordinator(false)
	if broker == nil || !broker.Connected() {
		w.logger.Warn("could not resolve the group coordinator", "group", group)
		return nil, &kerrors.TypedError{
			Type:    kerrors.CoordinatorError,
			Message: kerrors.CoordinatorNotFoundMsg,
		}
	}
	return w.exchange(broker, request)
}

func (w *worker) handleJoinGroup(e joinGroupEvent) error {
	if w.consumerGroup == NoConsumerGroup {
		e.reply <- joinGroupReply{err: kerrors.ConsumerGroupRequired()}
		return nil
	}
	req := e.req
	req.GroupName = w.consumerGroup

	request := protocol.CreateJoinGroupRequest(int32(w.correlationID), clientID, req)
	data, err := w.coordinatorExchange(req.GroupName, request)
	if err != nil {
		e.reply <- joinGroupReply{err: err}
		return nil
	}

	resp, err := protocol.ParseJoinGroupResponse(data)
	e.reply <- joinGroupReply{resp: resp, err: err}
	return nil
}

func (w *worker) handleSyncGroup(e syncGroupEvent) error {
	request := protocol.CreateSyncGroupRequest(int32(w.correlationID), clientID, e.req)
	data, err := w.coordinatorExchange(e.req.GroupName, request)
	if err != nil {
		e.reply <- syncGroupReply{err: err}
		return nil
	}

	resp, err := protocol.ParseSyncGroupResponse(data)
	e.reply <- syncGroupReply{resp: resp, err: err}
	return nil
}

func (w *worker) handleHeartbeat(e heartbeatEvent) error {
	request := protocol.CreateHeartbeatRequest(int32(w.correlationID), clientID, e.req)
	data, err := w.coordinatorExchange(e.req.GroupName, request)
	if err != nil {
		e.reply <- heartbeatReply{err: err}
		return nil
	}

	resp, err := protocol.ParseHeartbeatResponse(data)
	e.reply <- heartbeatReply{resp: resp, err: err}
	return nil
}

func (w *worker) handleLeaveGroup(e leaveGroupEvent) error {
	request := protocol.CreateLeaveGroupRequest(int32(w.correlationID), clientID, e.req)
	data, err := w.coordinatorExchange(e.req.GroupName, request)
	if err != nil {
		e.reply <- leaveGroupReply{err: err}
		return nil
	}

	resp, err := protocol.ParseLeaveGroupResponse(data)
	e.reply <- leaveGroupReply{resp: resp, err: err}
	return nil
}
