package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Broker identifies a cluster node as reported by metadata
type Broker struct {
	NodeID int32
	Host   string
	Port   int32
}

// PartitionMetadata describes one partition of a topic
type PartitionMetadata struct {
	ErrorCode int16
	ID        int32
	Leader    int32
	Replicas  []int32
	ISR       []int32
}

// TopicMetadata describes a topic and its partitions
type TopicMetadata struct {
	ErrorCode  int16
	Topic      string
	Partitions []PartitionMetadata
}

// MetadataResponse is the parsed cluster metadata snapshot
type MetadataResponse struct {
	CorrelationID int32
	Brokers       []Broker
	Topics        []TopicMetadata
}

// CreateMetadataRequest builds a metadata request, optionally scoped to a
// single topic. An empty topic asks for the full cluster view.
func CreateMetadataRequest(correlationID int32, clientID string, topic string) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, MetadataAPI, correlationID, clientID)

	if topic == "" {
		binary.Write(buf, binary.BigEndian, int32(0))
	} else {
		binary.Write(buf, binary.BigEndian, int32(1))
		writeString(buf, topic)
	}

	return buf.Bytes()
}

// ParseMetadataResponse decodes a metadata response
func ParseMetadataResponse(data []byte) (*MetadataResponse, error) {
	r := bytes.NewReader(data)
	resp := &MetadataResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}

	brokerCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read broker count: %v", err)
	}
	resp.Brokers = make([]Broker, 0, brokerCount)
	for i := int32(0); i < brokerCount; i++ {
		var b Broker
		if b.NodeID, err = readInt32(r); err != nil {
			return nil, fmt.Errorf("failed to read broker node id: %v", err)
		}
		if b.Host, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read broker host: %v", err)
		}
		if b.Port, err = readInt32(r); err != nil {
			return nil, fmt.Errorf("failed to read broker port: %v", err)
		}
		resp.Brokers = append(resp.Brokers, b)
	}

	topicCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic count: %v", err)
	}
	resp.Topics = make([]TopicMetadata, 0, topicCount)
	for i := int32(0); i < topicCount; i++ {
		var tm TopicMetadata
		if tm.ErrorCode, err = readInt16(r); err != nil {
			return nil, fmt.Errorf("failed to read topic error code: %v", err)
		}
		if tm.Topic, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read topic name: %v", err)
		}

		partitionCount, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read partition count: %v", err)
		}
		tm.Partitions = make([]PartitionMetadata, 0, partitionCount)
		for j := int32(0); j < partitionCount; j++ {
			var pm PartitionMetadata
			if pm.ErrorCode, err = readInt16(r); err != nil {
				return nil, fmt.Errorf("failed to read partition error code: %v", err)
			}
			if pm.ID, err = readInt32(r); err != nil {
				return nil, fmt.Errorf("failed to read partition id: %v", err)
			}
			if pm.Leader, err = readInt32(r); err != nil {
				return nil, fmt.Errorf("failed to read partition leader: %v", err)
			}
			if pm.Replicas, err = readInt32Array(r); err != nil {
				return nil, fmt.Errorf("failed to read replicas: %v", err)
			}
			if pm.ISR, err = readInt32Array(r); err != nil {
				return nil, fmt.Errorf("failed to read isr: %v", err)
			}
			tm.Partitions = append(tm.Partitions, pm)
		}
		resp.Topics = append(resp.Topics, tm)
	}

	return resp, nil
}

func readInt32Array(r *bytes.Reader) ([]int32, error) {
	count, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, nil
	}
	out := make([]int32, 0, count)
	for i := int32(0); i < count; i++ {
		v, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Topic returns the metadata entry for a topic, or nil
func (m *MetadataResponse) Topic(name string) *TopicMetadata {
	for i := range m.Topics {
		if m.Topics[i].Topic == name {
			return &m.Topics[i]
		}
	}
	return nil
}

// BrokerByNode returns the broker entry for a node id, or nil
func (m *MetadataResponse) BrokerByNode(nodeID int32) *Broker {
	for i := range m.Brokers {
		if m.Brokers[i].NodeID == nodeID {
			return &m.Brokers[i]
		}
	}
	return nil
}

// Partition returns the partition entry with the given id, or nil
func (tm *TopicMetadata) Partition(id int32) *PartitionMetadata {
	for i := range tm.Partitions {
		if tm.Partitions[i].ID == id {
			return &tm.Partitions[i]
		}
	}
	return nil
}

// HasLeaderNotAvailable reports whether any topic or partition in the
// snapshot carries the leader-not-available error code.
func (m *MetadataResponse) HasLeaderNotAvailable() bool {
	for i := range m.Topics {
		if m.Topics[i].ErrorCode == ErrLeaderNotAvailable.Code {
			return true
		}
		for j := range m.Topics[i].Partitions {
			if m.Topics[i].Partitions[j].ErrorCode == ErrLeaderNotAvailable.Code {
				return true
			}
		}
	}
	return false
}
