package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// JoinGroupRequest enters a consumer group
type JoinGroupRequest struct {
	GroupName      string
	SessionTimeout int32
	MemberID       string
	Topics         []string
}

// JoinGroupResponse is the parsed join group reply
type JoinGroupResponse struct {
	CorrelationID int32
	ErrorCode     int16
	GenerationID  int32
	LeaderID      string
	MemberID      string
	Members       []string
}

// TopicPartitions names a set of partitions of one topic
type TopicPartitions struct {
	Topic      string
	Partitions []int32
}

// GroupAssignment carries the partitions assigned to one member
type GroupAssignment struct {
	MemberID   string
	Partitions []TopicPartitions
}

// SyncGroupRequest distributes partition assignments; only the group
// leader sends a non-empty assignment list.
type SyncGroupRequest struct {
	GroupName    string
	GenerationID int32
	MemberID     string
	Assignments  []GroupAssignment
}

// SyncGroupResponse is the parsed sync group reply
type SyncGroupResponse struct {
	CorrelationID int32
	ErrorCode     int16
	Assignments   []TopicPartitions
}

// HeartbeatRequest keeps a group membership alive
type HeartbeatRequest struct {
	GroupName    string
	GenerationID int32
	MemberID     string
}

// HeartbeatResponse is the parsed heartbeat reply
type HeartbeatResponse struct {
	CorrelationID int32
	ErrorCode     int16
}

// LeaveGroupRequest removes a member from a group
type LeaveGroupRequest struct {
	GroupName string
	MemberID  string
}

// LeaveGroupResponse is the parsed leave group reply
type LeaveGroupResponse struct {
	CorrelationID int32
	ErrorCode     int16
}

// CreateJoinGroupRequest builds a join group request
func CreateJoinGroupRequest(correlationID int32, clientID string, req *JoinGroupRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, JoinGroupAPI, correlationID, clientID)

	writeString(buf, req.GroupName)
	binary.Write(buf, binary.BigEndian, req.SessionTimeout)
	writeString(buf, req.MemberID)
	binary.Write(buf, binary.BigEndian, int32(len(req.Topics)))
	for _, topic := range req.Topics {
		writeString(buf, topic)
	}

	return buf.Bytes()
}

// ParseJoinGroupResponse decodes a join group response
func ParseJoinGroupResponse(data []byte) (*JoinGroupResponse, error) {
	r := bytes.NewReader(data)
	resp := &JoinGroupResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}
	if resp.ErrorCode, err = readInt16(r); err != nil {
		return nil, fmt.Errorf("failed to read error code: %v", err)
	}
	if resp.GenerationID, err = readInt32(r); err != nil {
		return nil, fmt.Errorf("failed to read generation id: %v", err)
	}
	if resp.LeaderID, err = readString(r); err != nil {
		return nil, fmt.Errorf("failed to read leader id: %v", err)
	}
	if resp.MemberID, err = readString(r); err != nil {
		return nil, fmt.Errorf("failed to read member id: %v", err)
	}

	memberCount, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read member count: %v", err)
	}
	resp.Members = make([]string, 0, memberCount)
	for i := int32(0); i < memberCount; i++ {
		member, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read member: %v", err)
		}
		resp.Members = append(resp.Members, member)
	}

	return resp, nil
}

// CreateSyncGroupRequest builds a sync group request
func CreateSyncGroupRequest(correlationID int32, clientID string, req *SyncGroupRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, SyncGroupAPI, correlationID, clientID)

	writeString(buf, req.GroupName)
	binary.Write(buf, binary.BigEndian, req.GenerationID)
	writeString(buf, req.MemberID)

	binary.Write(buf, binary.BigEndian, int32(len(req.Assignments)))
	for _, assignment := range req.Assignments {
		writeString(buf, assignment.MemberID)
		writeTopicPartitions(buf, assignment.Partitions)
	}

	return buf.Bytes()
}

// ParseSyncGroupResponse decodes a sync group response
func ParseSyncGroupResponse(data []byte) (*SyncGroupResponse, error) {
	r := bytes.NewReader(data)
	resp := &SyncGroupResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}
	if resp.ErrorCode, err = readInt16(r); err != nil {
		return nil, fmt.Errorf("failed to read error code: %v", err)
	}
	if resp.Assignments, err = readTopicPartitions(r); err != nil {
		return nil, err
	}

	return resp, nil
}

// CreateHeartbeatRequest builds a heartbeat request
func CreateHeartbeatRequest(correlationID int32, clientID string, req *HeartbeatRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, HeartbeatAPI, correlationID, clientID)

	writeString(buf, req.GroupName)
	binary.Write(buf, binary.BigEndian, req.GenerationID)
	writeString(buf, req.MemberID)

	return buf.Bytes()
}

// ParseHeartbeatResponse decodes a heartbeat response
func ParseHeartbeatResponse(data []byte) (*HeartbeatResponse, error) {
	r := bytes.NewReader(data)
	resp := &HeartbeatResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}
	if resp.ErrorCode, err = readInt16(r); err != nil {
		return nil, fmt.Errorf("failed to read error code: %v", err)
	}

	return resp, nil
}

// CreateLeaveGroupRequest builds a leave group request
func CreateLeaveGroupRequest(correlationID int32, clientID string, req *LeaveGroupRequest) []byte {
	buf := new(bytes.Buffer)
	writeHeader(buf, LeaveGroupAPI, correlationID, clientID)

	writeString(buf, req.GroupName)
	writeString(buf, req.MemberID)

	return buf.Bytes()
}

// ParseLeaveGroupResponse decodes a leave group response
func ParseLeaveGroupResponse(data []byte) (*LeaveGroupResponse, error) {
	r := bytes.NewReader(data)
	resp := &LeaveGroupResponse{}

	var err error
	if resp.CorrelationID, err = readResponseHeader(r); err != nil {
		return nil, err
	}
	if resp.ErrorCode, err = readInt16(r); err != nil {
		return nil, fmt.Errorf("failed to read error code: %v", err)
	}

	return resp, nil
}

func writeTopicPartitions(buf *bytes.Buffer, partitions []TopicPartitions) {
	binary.Write(buf, binary.BigEndian, int32(len(partitions)))
	for _, tp := range partitions {
		writeString(buf, tp.Topic)
		binary.Write(buf, binary.BigEndian, int32(len(tp.Partitions)))
		for _, partition := range tp.Partitions {
			binary.Write(buf, binary.BigEndian, partition)
		}
	}
}

func readTopicPartitions(r *bytes.Reader) ([]TopicPartitions, error) {
	count, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment count: %v", err)
	}
	out := make([]TopicPartitions, 0, count)
	for i := int32(0); i < count; i++ {
		var tp TopicPartitions
		if tp.Topic, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read assignment topic: %v", err)
		}
		if tp.Partitions, err = readInt32Array(r); err != nil {
			return nil, fmt.Errorf("failed to read assignment partitions: %v", err)
		}
		out = append(out, tp)
	}
	return out, nil
}
