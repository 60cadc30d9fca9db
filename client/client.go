// Package client implements a stateful worker for a Kafka-style cluster:
// it owns the broker sockets, tracks cluster metadata and the consumer
// group coordinator, serializes all requests through one event loop, and
// exposes produce, fetch, offset, consumer group, and streaming operations.
package client

import (
	"sync"

	"github.com/issac1998/kafka-client/internal/discovery"
	kerrors "github.com/issac1998/kafka-client/internal/errors"
	"github.com/issac1998/kafka-client/internal/protocol"
)

// Client is the public handle to one worker. Methods may be called from
// any goroutine; the worker processes them strictly one at a time, in
// arrival order.
type Client struct {
	w         *worker
	closeOnce sync.Once
}

// NewClient resolves the seed brokers, connects them, performs the initial
// metadata retrieval, and starts the worker loop. It fails when no seed
// broker answers the initial metadata request.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	var seeds []*discovery.BrokerInfo
	if cfg.Discovery != nil {
		discovered, err := cfg.Discovery.DiscoverBrokers()
		if err != nil {
			return nil, err
		}
		seeds = discovered
	} else {
		static, err := discovery.NewStaticDiscovery(cfg.Uris)
		if err != nil {
			return nil, err
		}
		seeds, _ = static.DiscoverBrokers()
	}

	w := newWorker(cfg)
	if err := w.init(seeds); err != nil {
		return nil, err
	}

	go w.run()
	return &Client{w: w}, nil
}

// Close stops the worker: the stream sink, if any, is stopped and every
// broker socket is closed. An in-flight request completes first.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.w.stop)
	})
	<-c.w.closed
}

func workerClosed() error {
	return &kerrors.TypedError{
		Type:    kerrors.GeneralError,
		Message: kerrors.WorkerClosedMsg,
	}
}

// send enqueues an event unless the worker has terminated
func (w *worker) send(e workerEvent) error {
	select {
	case w.events <- e:
		return nil
	case <-w.closed:
		return workerClosed()
	}
}

// await reads the reply to an enqueued event, preferring a reply that
// raced with worker termination.
func await[T any](w *worker, reply chan T) (T, error) {
	select {
	case r := <-reply:
		return r, nil
	case <-w.closed:
		select {
		case r := <-reply:
			return r, nil
		default:
			var zero T
			return zero, workerClosed()
		}
	}
}

// Produce sends a batch of messages. With RequiredAcks zero the request is
// dispatched without waiting for the broker and both return values are
// nil.
func (c *Client) Produce(req *ProduceRequest) (*ProduceResponse, error) {
	e := produceEvent{req: req, reply: make(chan produceReply, 1)}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// Fetch reads messages from a partition. With AutoCommit set the last
// returned offset is committed for the worker's consumer group.
func (c *Client) Fetch(opts FetchOptions) (*FetchResponse, error) {
	e := fetchEvent{opts: opts, reply: make(chan fetchReply, 1)}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// Offset looks up the offset at or before a time; use
// LatestOffsetTime and EarliestOffsetTime as sentinels.
func (c *Client) Offset(topic string, partition int32, time int64) (*OffsetResponse, error) {
	e := offsetEvent{
		req:   &protocol.OffsetRequest{Topic: topic, Partition: partition, Time: time},
		reply: make(chan offsetReply, 1),
	}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// LatestOffset looks up the next offset to be written
func (c *Client) LatestOffset(topic string, partition int32) (*OffsetResponse, error) {
	return c.Offset(topic, partition, LatestOffsetTime)
}

// EarliestOffset looks up the oldest retained offset
func (c *Client) EarliestOffset(topic string, partition int32) (*OffsetResponse, error) {
	return c.Offset(topic, partition, EarliestOffsetTime)
}

// OffsetFetch reads a committed offset. An empty ConsumerGroup is
// substituted with the worker's.
func (c *Client) OffsetFetch(req *OffsetFetchRequest) (*OffsetFetchResponse, error) {
	e := offsetFetchEvent{req: req, reply: make(chan offsetFetchReply, 1)}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// OffsetCommit commits an offset. An empty ConsumerGroup is substituted
// with the worker's.
func (c *Client) OffsetCommit(req *OffsetCommitRequest) (*OffsetCommitResponse, error) {
	e := offsetCommitEvent{req: req, reply: make(chan offsetCommitReply, 1)}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// ConsumerGroup returns the configured consumer group, or NoConsumerGroup
func (c *Client) ConsumerGroup() (string, error) {
	e := consumerGroupEvent{reply: make(chan string, 1)}
	if err := c.w.send(e); err != nil {
		return NoConsumerGroup, err
	}
	return await(c.w, e.reply)
}

// ConsumerGroupMetadata refreshes and returns the coordinator snapshot
func (c *Client) ConsumerGroupMetadata() (*ConsumerMetadataResponse, error) {
	e := consumerGroupMetadataEvent{reply: make(chan consumerGroupMetadataReply, 1)}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// Metadata forces a refresh scoped to one topic and returns the fresh
// snapshot. An empty topic refreshes the full cluster view.
func (c *Client) Metadata(topic string) (*MetadataResponse, error) {
	e := metadataEvent{topic: topic, reply: make(chan metadataReply, 1)}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// JoinGroup enters the worker's consumer group for the given topics
func (c *Client) JoinGroup(topics []string, sessionTimeout int32, memberID string) (*JoinGroupResponse, error) {
	e := joinGroupEvent{
		req: &protocol.JoinGroupRequest{
			SessionTimeout: sessionTimeout,
			MemberID:       memberID,
			Topics:         topics,
		},
		reply: make(chan joinGroupReply, 1),
	}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// SyncGroup distributes partition assignments; arguments pass through to
// the coordinator untouched.
func (c *Client) SyncGroup(group string, generationID int32, memberID string, assignments []GroupAssignment) (*SyncGroupResponse, error) {
	e := syncGroupEvent{
		req: &protocol.SyncGroupRequest{
			GroupName:    group,
			GenerationID: generationID,
			MemberID:     memberID,
			Assignments:  assignments,
		},
		reply: make(chan syncGroupReply, 1),
	}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// Heartbeat keeps a group membership alive
func (c *Client) Heartbeat(group string, generationID int32, memberID string) (*HeartbeatResponse, error) {
	e := heartbeatEvent{
		req: &protocol.HeartbeatRequest{
			GroupName:    group,
			GenerationID: generationID,
			MemberID:     memberID,
		},
		reply: make(chan heartbeatReply, 1),
	}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// LeaveGroup removes a member from a group
func (c *Client) LeaveGroup(group, memberID string) (*LeaveGroupResponse, error) {
	e := leaveGroupEvent{
		req:   &protocol.LeaveGroupRequest{GroupName: group, MemberID: memberID},
		reply: make(chan leaveGroupReply, 1),
	}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.resp, r.err
}

// CreateStream attaches a sink to the worker and returns its output
// channel. A second call while a stream is active returns the existing
// channel and an error; the sink is not replaced.
func (c *Client) CreateStream(handler MessageHandler) (<-chan Message, error) {
	e := createStreamEvent{handler: handler, reply: make(chan createStreamReply, 1)}
	if err := c.w.send(e); err != nil {
		return nil, err
	}
	r, err := await(c.w, e.reply)
	if err != nil {
		return nil, err
	}
	return r.messages, r.err
}

// StartStreaming begins the polling loop that feeds the stream sink. It
// is asynchronous; messages appear on the channel returned by
// CreateStream.
func (c *Client) StartStreaming(opts StreamOptions) error {
	if opts.AutoCommit && c.w.consumerGroup == NoConsumerGroup {
		return kerrors.ConsumerGroupRequired()
	}
	return c.w.send(startStreamingEvent{opts: opts})
}

// StopStreaming stops the sink and detaches it; a poll already in flight
// is discarded when it arrives.
func (c *Client) StopStreaming() error {
	e := stopStreamingEvent{reply: make(chan struct{}, 1)}
	if err := c.w.send(e); err != nil {
		return err
	}
	_, err := await(c.w, e.reply)
	return err
}
