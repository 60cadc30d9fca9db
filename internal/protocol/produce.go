package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/issac1998/kafka-client/internal/compression"
)

// ProduceRequest carries a batch of messages for one partition
type ProduceRequest struct {
	Topic        string
	Partition    int32
	RequiredAcks int16
	Timeout      int32
	Compression  compression.CompressionType
	Messages     []Message
}

// ProducePartitionResponse is the per-partition produce result
type ProducePartitionResponse struct {
	Partition int32
	ErrorCode int16
	Offset    int64
}

// ProduceTopicResponse groups produce results by topic
type ProduceTopicResponse struct {
	Topic      string
	Partitions []ProducePartitionResponse
}

// ProduceResponse is the parsed produce reply
type ProduceResponse struct {
	CorrelationID int32
	Topics        []ProduceTopicResponse
}

// CreateProduceRequest builds a produce request
func CreateProduceRequest(correlationID int32, clientID string, req *ProduceRequest) ([]byte, error) {
	buf := new(bytes.Buffer)
	writeHeader(buf, ProduceAPI, correlationID, clientID)

	binary.Write(buf, binary.BigEndian, req.RequiredAcks)
	binary.Write(buf, binary.BigEndian, req.Timeout)

	binary.Write(buf, binary.BigEndian, int32(1)) // topics
	writeString(buf, req.Topic)
	binary.Write(buf, binary.BigEndian, int32(1)) // partitions
	binary.Write(buf, binary.BigEndian, req.Partition)

	if err := writeMessageSet(buf, req.Messages, req.Compression); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ParseProduceResponse decodes a produce response
func ParseProduceResponse(data []byte) (*ProduceResponse, error) {
	r := bytes.NewReader(data)
	resp := &ProduceResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}

	topicCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic count: %v", err)
	}
	resp.Topics = make([]ProduceTopicResponse, 0, topicCount)
	for i := int32(0); i < topicCount; i++ {
		var tr ProduceTopicResponse
		if tr.Topic, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read topic name: %v", err)
		}

		partitionCount, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read partition count: %v", err)
		}
		tr.Partitions = make([]ProducePartitionResponse, 0, partitionCount)
		for j := int32(0); j < partitionCount; j++ {
			var pr ProducePartitionResponse
			if pr.Partition, err = readInt32(r); err != nil {
				return nil, fmt.Errorf("failed to read partition: %v", err)
			}
			if pr.ErrorCode, err = readInt16(r); err != nil {
				return nil, fmt.Errorf("failed to read error code: %v", err)
			}
			if pr.Offset, err = readInt64(r); err != nil {
				return nil, fmt.Errorf("failed to read offset: %v", err)
			}
			tr.Partitions = append(tr.Partitions, pr)
		}
		resp.Topics = append(resp.Topics, tr)
	}

	return resp, nil
}
