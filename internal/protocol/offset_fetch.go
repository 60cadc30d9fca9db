package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// OffsetFetchRequest reads the committed offset for a group
type OffsetFetchRequest struct {
	ConsumerGroup string
	Topic         string
	Partition     int32
}

// OffsetFetchPartitionResponse is the per-partition committed offset
type OffsetFetchPartitionResponse struct {
	Partition int32
	Offset    int64
	Metadata  string
	ErrorCode int16
}

// OffsetFetchTopicResponse groups committed offsets by topic
type OffsetFetchTopicResponse struct {
	Topic      string
	Partitions []OffsetFetchPartitionResponse
}

// OffsetFetchResponse is the parsed offset fetch reply
type OffsetFetchResponse struct {
	CorrelationID int32
	Topics        []OffsetFetchTopicResponse
}

// CreateOffsetFetchRequest builds an offset fetch request
func CreateOffsetFetchRequest(correlationID int32, clientID string, req *OffsetFetchRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, OffsetFetchAPI, correlationID, clientID)

	writeString(buf, req.ConsumerGroup)
	binary.Write(buf, binary.BigEndian, int32(1)) // topics
	writeString(buf, req.Topic)
	binary.Write(buf, binary.BigEndian, int32(1)) // partitions
	binary.Write(buf, binary.BigEndian, req.Partition)

	return buf.Bytes()
}

// ParseOffsetFetchResponse decodes an offset fetch response
func ParseOffsetFetchResponse(data []byte) (*OffsetFetchResponse, error) {
	r := bytes.NewReader(data)
	resp := &OffsetFetchResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}

	topicCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic count: %v", err)
	}
	resp.Topics = make([]OffsetFetchTopicResponse, 0, topicCount)
	for i := int32(0); i < topicCount; i++ {
		var tr OffsetFetchTopicResponse
		if tr.Topic, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read topic name: %v", err)
		}

		partitionCount, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read partition count: %v", err)
		}
		tr.Partitions = make([]OffsetFetchPartitionResponse, 0, partitionCount)
		for j := int32(0); j < partitionCount; j++ {
			var pr OffsetFetchPartitionResponse
			if pr.Partition, err = readInt32(r); err != nil {
				return nil, fmt.Errorf("failed to read partition: %v", err)
			}
			if pr.Offset, err = readInt64(r); err != nil {
				return nil, fmt.Errorf("failed to read offset: %v", err)
			}
			if pr.Metadata, err = readString(r); err != nil {
				return nil, fmt.Errorf("failed to read metadata: %v", err)
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
