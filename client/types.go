package client

import (
	"github.com/issac1998/kafka-client/internal/protocol"
)

// Re-exported wire types, so callers never import internal packages.

type (
	// Message is a single record
	Message = protocol.Message

	// ProduceRequest carries a batch of messages for one partition
	ProduceRequest = protocol.ProduceRequest
	// ProduceResponse is a parsed produce reply
	ProduceResponse = protocol.ProduceResponse

	// FetchResponse is a parsed fetch reply
	FetchResponse = protocol.FetchResponse

	// OffsetResponse is a parsed offset lookup reply
	OffsetResponse = protocol.OffsetResponse

	// OffsetFetchRequest reads a committed offset
	OffsetFetchRequest = protocol.OffsetFetchRequest
	// OffsetFetchResponse is a parsed offset fetch reply
	OffsetFetchResponse = protocol.OffsetFetchResponse

	// OffsetCommitRequest commits a consumed offset
	OffsetCommitRequest = protocol.OffsetCommitRequest
	// OffsetCommitResponse is a parsed offset commit reply
	OffsetCommitResponse = protocol.OffsetCommitResponse

	// ConsumerMetadataResponse is the coordinator snapshot
	ConsumerMetadataResponse = protocol.ConsumerMetadataResponse

	// MetadataResponse is the cluster metadata snapshot
	MetadataResponse = protocol.MetadataResponse

	// JoinGroupResponse is a parsed join group reply
	JoinGroupResponse = protocol.JoinGroupResponse
	// SyncGroupResponse is a parsed sync group reply
	SyncGroupResponse = protocol.SyncGroupResponse
	// HeartbeatResponse is a parsed heartbeat reply
	HeartbeatResponse = protocol.HeartbeatResponse
	// LeaveGroupResponse is a parsed leave group reply
	LeaveGroupResponse = protocol.LeaveGroupResponse

	// GroupAssignment carries the partitions assigned to one member
	GroupAssignment = protocol.GroupAssignment
	// TopicPartitions names a set of partitions of one topic
	TopicPartitions = protocol.TopicPartitions
)

// Offset lookup time sentinels
const (
	LatestOffsetTime   = protocol.LatestOffsetTime
	EarliestOffsetTime = protocol.EarliestOffsetTime
)
