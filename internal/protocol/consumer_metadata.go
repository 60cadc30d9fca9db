package protocol

import (
	"bytes"
	"fmt"
)

// ConsumerMetadataResponse carries the coordinator for a consumer group
type ConsumerMetadataResponse struct {
	CorrelationID   int32
	ErrorCode       int16
	CoordinatorID   int32
	CoordinatorHost string
	CoordinatorPort int32
}

// CreateConsumerMetadataRequest builds a coordinator discovery request for a group
func CreateConsumerMetadataRequest(correlationID int32, clientID string, consumerGroup string) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, ConsumerMetadataAPI, correlationID, clientID)
	writeString(buf, consumerGroup)
	return buf.Bytes()
}

// ParseConsumerMetadataResponse decodes a coordinator discovery response
func ParseConsumerMetadataResponse(data []byte) (*ConsumerMetadataResponse, error) {
	r := bytes.NewReader(data)
	resp := &ConsumerMetadataResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}
	if resp.ErrorCode, err = readInt16(r); err != nil {
		return nil, fmt.Errorf("failed to read error code: %v", err)
	}
	if resp.CoordinatorID, err = readInt32(r); err != nil {
		return nil, fmt.Errorf("failed to read coordinator id: %v", err)
	}
	if resp.CoordinatorHost, err = readString(r); err != nil {
		return nil, fmt.Errorf("failed to read coordinator host: %v", err)
	}
	if resp.CoordinatorPort, err = readInt32(r); err != nil {
		return nil, fmt.Errorf("failed to read coordinator port: %v", err)
	}

	return resp, nil
}
