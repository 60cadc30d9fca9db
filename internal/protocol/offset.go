package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Offset lookup time sentinels
const (
	LatestOffsetTime   int64 = -1
	EarliestOffsetTime int64 = -2
)

// OffsetRequest asks for the offset at or before a timestamp
type OffsetRequest struct {
	Topic     string
	Partition int32
	Time      int64
}

// OffsetPartitionResponse is the per-partition offset lookup result
type OffsetPartitionResponse struct {
	Partition int32
	ErrorCode int16
	Offsets   []int64
}

// OffsetTopicResponse groups offset lookup results by topic
type OffsetTopicResponse struct {
	Topic      string
	Partitions []OffsetPartitionResponse
}

// OffsetResponse is the parsed offset lookup reply
type OffsetResponse struct {
	CorrelationID int32
	Topics        []OffsetTopicResponse
}

// CreateOffsetRequest builds a time-indexed offset lookup request
func CreateOffsetRequest(correlationID int32, clientID string, req *OffsetRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, OffsetAPI, correlationID, clientID)

	binary.Write(buf, binary.BigEndian, int32(-1)) // replica id
	binary.Write(buf, binary.BigEndian, int32(1))  // topics
	writeString(buf, req.Topic)
	binary.Write(buf, binary.BigEndian, int32(1)) // partitions
	binary.Write(buf, binary.BigEndian, req.Partition)
	binary.Write(buf, binary.BigEndian, req.Time)
	binary.Write(buf, binary.BigEndian, int32(1)) // max offsets

	return buf.Bytes()
}

// ParseOffsetResponse decodes an offset lookup response
func ParseOffsetResponse(data []byte) (*OffsetResponse, error) {
	r := bytes.NewReader(data)
	resp := &OffsetResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}

	topicCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic count: %v", err)
	}
	resp.Topics = make([]OffsetTopicResponse, 0, topicCount)
	for i := int32(0); i < topicCount; i++ {
		var tr OffsetTopicResponse
		if tr.Topic, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read topic name: %v", err)
		}

		partitionCount, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read partition count: %v", err)
		}
		tr.Partitions = make([]OffsetPartitionResponse, 0, partitionCount)
		for j := int32(0); j < partitionCount; j++ {
			var pr OffsetPartitionResponse
			if pr.Partition, err = readInt32(r); err != nil {
				return nil, fmt.Errorf("failed to read partition: %v", err)
			}
			if pr.ErrorCode, err = readInt16(r); err != nil {
				return nil, fmt.Errorf("failed to read error code: %v", err)
			}

			offsetCount, err := readInt32(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read offset count: %v", err)
			}
			pr.Offsets = make([]int64, 0, offsetCount)
			for k := int32(0); k < offsetCount; k++ {
				offset, err := readInt64(r)
				if err != nil {
					return nil, fmt.Errorf("failed to read offset: %v", err)
				}
				pr.Offsets = append(pr.Offsets, offset)
			}
			tr.Partitions = append(tr.Partitions, pr)
		}
		resp.Topics = append(resp.Topics, tr)
	}

	return resp, nil
}
