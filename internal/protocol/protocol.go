// Package protocol implements the binary wire format spoken with the cluster:
// a build/parse pair per API plus the shared header and primitive codecs.
// It is stateless; correlation ids are owned by the worker.
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// API keys identifying each request type on the wire
const (
	ProduceAPI          int16 = 0
	FetchAPI            int16 = 1
	OffsetAPI           int16 = 2
	MetadataAPI         int16 = 3
	OffsetCommitAPI     int16 = 8
	OffsetFetchAPI      int16 = 9
	ConsumerMetadataAPI int16 = 10
	JoinGroupAPI        int16 = 11
	HeartbeatAPI        int16 = 12
	LeaveGroupAPI       int16 = 13
	SyncGroupAPI        int16 = 14
)

// APIVersion is the version stamped into every request header
const APIVersion int16 = 0

// RequestTypeNames maps API keys to human-readable names
var RequestTypeNames = map[int16]string{
	ProduceAPI:          "PRODUCE",
	FetchAPI:            "FETCH",
	OffsetAPI:           "OFFSET",
	MetadataAPI:         "METADATA",
	OffsetCommitAPI:     "OFFSET_COMMIT",
	OffsetFetchAPI:      "OFFSET_FETCH",
	ConsumerMetadataAPI: "CONSUMER_METADATA",
	JoinGroupAPI:        "JOIN_GROUP",
	HeartbeatAPI:        "HEARTBEAT",
	LeaveGroupAPI:       "LEAVE_GROUP",
	SyncGroupAPI:        "SYNC_GROUP",
}

// GetRequestTypeName returns the human-readable name for an API key
func GetRequestTypeName(apiKey int16) string {
	if name, exists := RequestTypeNames[apiKey]; exists {
		return name
	}
	return "UNKNOWN"
}

// writeHeader writes the common request header: api key, api version,
// correlation id and client id.
func writeHeader(buf *bytes.Buffer, apiKey int16, correlationID int32, clientID string) {
	binary.Write(buf, binary.BigEndian, apiKey)
	binary.Write(buf, binary.BigEndian, APIVersion)
	binary.Write(buf, binary.BigEndian, correlationID)
	writeString(buf, clientID)
}

// writeString writes an int16-length-prefixed string, -1 for the empty
// "null" string.
func writeString(buf *bytes.Buffer, s string) {
	if s == "" {
		binary.Write(buf, binary.BigEndian, int16(-1))
		return
	}
	binary.Write(buf, binary.BigEndian, int16(len(s)))
	buf.WriteString(s)
}

// writeBytes writes an int32-length-prefixed byte slice, -1 for nil
func writeBytes(buf *bytes.Buffer, b []byte) {
	if b == nil {
		binary.Write(buf, binary.BigEndian, int32(-1))
		return
	}
	binary.Write(buf, binary.BigEndian, int32(len(b)))
	buf.Write(b)
}

// --- parse helpers over bytes.Reader ---

func readInt8(r *bytes.Reader) (int8, error) {
	var v int8
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readInt16(r *bytes.Reader) (int16, error) {
	var v int16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readInt32(r *bytes.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readInt64(r *bytes.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readString(r *bytes.Reader) (string, error) {
	length, err := readInt16(r)
	if err != nil {
		return "", fmt.Errorf("failed to read string length: %v", err)
	}
	if length < 0 {
		return "", nil
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to read string content: %v", err)
	}
	return string(b), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	length, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bytes length: %v", err)
	}
	if length < 0 {
		return nil, nil
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("failed to read bytes content: %v", err)
	}
	return b, nil
}

// readResponseHeader reads the correlation id that opens every response
func readResponseHeader(r *bytes.Reader) (int32, error) {
	correlationID, err := readInt32(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read correlation id: %v", err)
	}
	return correlationID, nil
}
