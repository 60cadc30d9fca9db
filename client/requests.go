package client

import (
	"time"

	"github.com/issac1998/kafka-client/internal/protocol"
)

// The worker mailbox carries tagged request variants; each synchronous
// variant holds its parameters and a buffered reply channel.

type workerEvent interface{}

// FetchOptions parameterizes a fetch operation
type FetchOptions struct {
	Topic      string
	Partition  int32
	Offset     int64
	WaitTime   int32 // ms the broker may hold the fetch
	MinBytes   int32
	MaxBytes   int32
	AutoCommit bool
}

// StreamOptions parameterizes the background streaming loop
type StreamOptions struct {
	Topic        string
	Partition    int32
	Offset       int64
	AutoCommit   bool
	PollInterval time.Duration
}

type produceReply struct {
	resp *protocol.ProduceResponse
	// dispatched marks a fire-and-forget produce that was sent without
	// waiting for a reply
	dispatched bool
	err        error
}

type produceEvent struct {
	req   *protocol.ProduceRequest
	reply chan produceReply
}

type fetchReply struct {
	resp *protocol.FetchResponse
	err  error
}

type fetchEvent struct {
	opts  FetchOptions
	reply chan fetchReply
}

type offsetReply struct {
	resp *protocol.OffsetResponse
	err  error
}

type offsetEvent struct {
	req   *protocol.OffsetRequest
	reply chan offsetReply
}

type offsetFetchReply struct {
	resp *protocol.OffsetFetchResponse
	err  error
}

type offsetFetchEvent struct {
	req   *protocol.OffsetFetchRequest
	reply chan offsetFetchReply
}

type offsetCommitReply struct {
	resp *protocol.OffsetCommitResponse
	err  error
}

type offsetCommitEvent struct {
	req   *protocol.OffsetCommitRequest
	reply chan offsetCommitReply
}

type consumerGroupEvent struct {
	reply chan string
}

type consumerGroupMetadataReply struct {
	resp *protocol.ConsumerMetadataResponse
	err  error
}

type consumerGroupMetadataEvent struct {
	reply chan consumerGroupMetadataReply
}

type metadataReply struct {
	resp *protocol.MetadataResponse
	err  error
}

type metadataEvent struct {
	topic string
	reply chan metadataReply
}

type joinGroupReply struct {
	resp *protocol.JoinGroupResponse
	err  error
}

type joinGroupEvent struct {
	req   *protocol.JoinGroupRequest
	reply chan joinGroupReply
}

type syncGroupReply struct {
	resp *protocol.SyncGroupResponse
	err  error
}

type syncGroupEvent struct {
	req   *protocol.SyncGroupRequest
	reply chan syncGroupReply
}

type heartbeatReply struct {
	resp *protocol.HeartbeatResponse
	err  error
}

type heartbeatEvent struct {
	req   *protocol.HeartbeatRequest
	reply chan heartbeatReply
}

type leaveGroupReply struct {
	resp *protocol.LeaveGroupResponse
	err  error
}

type leaveGroupEvent struct {
	req   *protocol.LeaveGroupRequest
	reply chan leaveGroupReply
}

type createStreamReply struct {
	messages <-chan protocol.Message
	err      error
}

type createStreamEvent struct {
	handler MessageHandler
	reply   chan createStreamReply
}

// startStreamingEvent is the self-message the streaming loop reposts with
// the next offset
type startStreamingEvent struct {
	opts StreamOptions
}

type stopStreamingEvent struct {
	reply chan struct{}
}
