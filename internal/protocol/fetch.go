package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// FetchRequest asks for messages from one partition starting at an offset
type FetchRequest struct {
	Topic     string
	Partition int32
	Offset    int64
	WaitTime  int32
	MinBytes  int32
	MaxBytes  int32
}

// FetchPartitionResponse is the per-partition fetch result
type FetchPartitionResponse struct {
	Partition     int32
	ErrorCode     int16
	HighWaterMark int64
	Messages      []Message
}

// LastOffset returns the offset of the last decoded message, or nil when
// the fetch returned no messages.
func (p *FetchPartitionResponse) LastOffset() *int64 {
	if len(p.Messages) == 0 {
		return nil
	}
	offset := p.Messages[len(p.Messages)-1].Offset
	return &offset
}

// FetchTopicResponse groups fetch results by topic
type FetchTopicResponse struct {
	Topic      string
	Partitions []FetchPartitionResponse
}

// FetchResponse is the parsed fetch reply
type FetchResponse struct {
	CorrelationID int32
	Topics        []FetchTopicResponse
}

// FirstPartition returns the first topic/partition entry of the reply, the
// one a single-partition fetch is answered in, or nil.
func (f *FetchResponse) FirstPartition() *FetchPartitionResponse {
	if len(f.Topics) == 0 || len(f.Topics[0].Partitions) == 0 {
		return nil
	}
	return &f.Topics[0].Partitions[0]
}

// CreateFetchRequest builds a fetch request
func CreateFetchRequest(correlationID int32, clientID string, req *FetchRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, FetchAPI, correlationID, clientID)

	binary.Write(buf, binary.BigEndian, int32(-1)) // replica id, -1 for clients
	binary.Write(buf, binary.BigEndian, req.WaitTime)
	binary.Write(buf, binary.BigEndian, req.MinBytes)

	binary.Write(buf, binary.BigEndian, int32(1)) // topics
	writeString(buf, req.Topic)
	binary.Write(buf, binary.BigEndian, int32(1)) // partitions
	binary.Write(buf, binary.BigEndian, req.Partition)
	binary.Write(buf, binary.BigEndian, req.Offset)
	binary.Write(buf, binary.BigEndian, req.MaxBytes)

	return buf.Bytes()
}

// ParseFetchResponse decodes a fetch response, decompressing message sets
func ParseFetchResponse(data []byte) (*FetchResponse, error) {
	r := bytes.NewReader(data)
	resp := &FetchResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}

	topicCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic count: %v", err)
	}
	resp.Topics = make([]FetchTopicResponse, 0, topicCount)
	for i := int32(0); i < topicCount; i++ {
		var tr FetchTopicResponse
		if tr.Topic, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read topic name: %v", err)
		}

		partitionCount, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read partition count: %v", err)
		}
		tr.Partitions = make([]FetchPartitionResponse, 0, partitionCount)
		for j := int32(0); j < partitionCount; j++ {
			var pr FetchPartitionResponse
			if pr.Partition, err = readInt32(r); err != nil {
				return nil, fmt.Errorf("failed to read partition: %v", err)
			}
			if pr.ErrorCode, err = readInt16(r); err != nil {
				return nil, fmt.Errorf("failed to read error code: %v", err)
			}
			if pr.HighWaterMark, err = readInt64(r); err != nil {
				return nil, fmt.Errorf("failed to read high water mark: %v", err)
			}

			setData, err := readBytes(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read message set: %v", err)
			}
			if pr.Messages, err = parseMessageSet(setData); err != nil {
				return nil, err
			}
			tr.Partitions = append(tr.Partitions, pr)
		}
		resp.Topics = append(resp.Topics, tr)
	}

	return resp, nil
}
