package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// OffsetCommitRequest commits a consumed offset for a group
type OffsetCommitRequest struct {
	ConsumerGroup string
	Topic         string
	Partition     int32
	Offset        int64
	Metadata      string
}

// OffsetCommitPartitionResponse is the per-partition commit result
type OffsetCommitPartitionResponse struct {
	Partition int32
	ErrorCode int16
}

// OffsetCommitTopicResponse groups commit results by topic
type OffsetCommitTopicResponse struct {
	Topic      string
	Partitions []OffsetCommitPartitionResponse
}

// OffsetCommitResponse is the parsed offset commit reply
type OffsetCommitResponse struct {
	CorrelationID int32
	Topics        []OffsetCommitTopicResponse
}

// CreateOffsetCommitRequest builds an offset commit request
func CreateOffsetCommitRequest(correlationID int32, clientID string, req *OffsetCommitRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, OffsetCommitAPI, correlationID, clientID)

	writeString(buf, req.ConsumerGroup)
	binary.Write(buf, binary.BigEndian, int32(1)) // topics
	writeString(buf, req.Topic)
	binary.Write(buf, binary.BigEndian, int32(1)) // partitions
	binary.Write(buf, binary.BigEndian, req.Partition)
	binary.Write(buf, binary.BigEndian, req.Offset)
	writeString(buf, req.Metadata)

	return buf.Bytes()
}

// ParseOffsetCommitResponse decodes an offset commit response
func ParseOffsetCommitResponse(data []byte) (*OffsetCommitResponse, error) {
	r := bytes.NewReader(data)
	resp := &OffsetCommitResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}

	topicCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic count: %v", err)
	}
	resp.Topics = make([]OffsetCommitTopicResponse, 0, topicCount)
	for i := int32(0); i < topicCount; i++ {
		var tr OffsetCommitTopicResponse
		if tr.Topic, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read topic name: %v", err)
		}

		partitionCount, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read partition count: %v", err)
		}
		tr.Partitions = make([]OffsetCommitPartitionResponse, 0, partitionCount)
		for j := int32(0); j < partitionCount; j++ {
			var pr OffsetCommitPartitionResponse
			if pr.Partition, err = readInt32(r); err != nil {
				return nil, fmt.Errorf("failed to read partition: %v", err)
			}
			if pr.ErrorCode, err = readInt16(r); err != nil {
				return nil, fmt.Errorf("failed to read error code: %v", err)
			}
			tr.Partitions = append(tr.Partitions, pr)
		}
		resp.Topics = append(resp.Topics, tr)
	}

	return resp, nil
}
