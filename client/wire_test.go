package client

// Test fixtures: an in-memory NetworkClient and hand-rolled response
// encoders mirroring the wire layout the parsers expect.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"net"
	"sync"
	"time"

	kerrors "github.com/issac1998/kafka-client/internal/errors"
	"github.com/issac1998/kafka-client/internal/logging"
	"github.com/issac1998/kafka-client/internal/protocol"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

type fakeConn struct {
	addr string
}

func (c *fakeConn) Read(b []byte) (int, error)         { return 0, io.EOF }
func (c *fakeConn) Write(b []byte) (int, error)        { return len(b), nil }
func (c *fakeConn) Close() error                       { return nil }
func (c *fakeConn) LocalAddr() net.Addr                { return fakeAddr("local") }
func (c *fakeConn) RemoteAddr() net.Addr               { return fakeAddr(c.addr) }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

type sentRequest struct {
	addr    string
	payload []byte
	async   bool
}

// fakeNetwork is an in-memory NetworkClient. The respond hook scripts the
// cluster; returning nil simulates a lost reply.
type fakeNetwork struct {
	mu       sync.Mutex
	dialErrs map[string]error
	respond  func(addr string, request []byte) []byte

	dials    []string
	requests []sentRequest
	closed   int
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{dialErrs: make(map[string]error)}
}

func (f *fakeNetwork) Dial(host string, port int32, timeout time.Duration) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials = append(f.dials, addr)
	if err := f.dialErrs[addr]; err != nil {
		return nil, err
	}
	return &fakeConn{addr: addr}, nil
}

func (f *fakeNetwork) SendSync(conn net.Conn, request []byte, timeout time.Duration) ([]byte, error) {
	addr := conn.RemoteAddr().String()
	f.mu.Lock()
	f.requests = append(f.requests, sentRequest{addr: addr, payload: request})
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return nil, &kerrors.TypedError{Type: kerrors.TimeoutError, Message: "request timed out"}
	}
	data := respond(addr, request)
	if data == nil {
		return nil, &kerrors.TypedError{Type: kerrors.TimeoutError, Message: "request timed out"}
	}
	return data, nil
}

func (f *fakeNetwork) SendAsync(conn net.Conn, request []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, sentRequest{addr: conn.RemoteAddr().String(), payload: request, async: true})
	return nil
}

func (f *fakeNetwork) Close(conn net.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeNetwork) sentByAPI(apiKey int16) []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentRequest
	for _, req := range f.requests {
		if requestAPIKey(req.payload) == apiKey {
			out = append(out, req)
		}
	}
	return out
}

func (f *fakeNetwork) correlationIDs() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int32
	for _, req := range f.requests {
		out = append(out, requestCorrelationID(req.payload))
	}
	return out
}

func (f *fakeNetwork) closedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func requestAPIKey(request []byte) int16 {
	return int16(binary.BigEndian.Uint16(request[0:2]))
}

func requestCorrelationID(request []byte) int32 {
	return int32(binary.BigEndian.Uint32(request[4:8]))
}

// --- response encoders ---

func respHeader(request []byte) *bytes.Buffer {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, requestCorrelationID(request))
	return buf
}

func putString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, int16(len(s)))
	buf.WriteString(s)
}

type testPartition struct {
	id        int32
	leader    int32
	errorCode int16
}

type testTopic struct {
	name       string
	errorCode  int16
	partitions []testPartition
}

func encodeMetadataResponse(request []byte, brokers []protocol.Broker, topics []testTopic) []byte {
	buf := respHeader(request)

	binary.Write(buf, binary.BigEndian, int32(len(brokers)))
	for _, b := range brokers {
		binary.Write(buf, binary.BigEndian, b.NodeID)
		putString(buf, b.Host)
		binary.Write(buf, binary.BigEndian, b.Port)
	}

	binary.Write(buf, binary.BigEndian, int32(len(topics)))
	for _, t := range topics {
		binary.Write(buf, binary.BigEndian, t.errorCode)
		putString(buf, t.name)
		binary.Write(buf, binary.BigEndian, int32(len(t.partitions)))
		for _, p := range t.partitions {
			binary.Write(buf, binary.BigEndian, p.errorCode)
			binary.Write(buf, binary.BigEndian, p.id)
			binary.Write(buf, binary.BigEndian, p.leader)
			binary.Write(buf, binary.BigEndian, int32(1)) // replicas
			binary.Write(buf, binary.BigEndian, p.leader)
			binary.Write(buf, binary.BigEndian, int32(1)) // isr
			binary.Write(buf, binary.BigEndian, p.leader)
		}
	}

	return buf.Bytes()
}

func encodeConsumerMetadataResponse(request []byte, errorCode int16, nodeID int32, host string, port int32) []byte {
	buf := respHeader(request)
	binary.Write(buf, binary.BigEndian, errorCode)
	binary.Write(buf, binary.BigEndian, nodeID)
	putString(buf, host)
	binary.Write(buf, binary.BigEndian, port)
	return buf.Bytes()
}

func encodeProduceResponse(request []byte, topic string, partition int32, errorCode int16, offset int64) []byte {
	buf := respHeader(request)
	binary.Write(buf, binary.BigEndian, int32(1))
	putString(buf, topic)
	binary.Write(buf, binary.BigEndian, int32(1))
	binary.Write(buf, binary.BigEndian, partition)
	binary.Write(buf, binary.BigEndian, errorCode)
	binary.Write(buf, binary.BigEndian, offset)
	return buf.Bytes()
}

type testMessage struct {
	offset int64
	value  string
}

func encodeMessage(buf *bytes.Buffer, offset int64, value string) {
	body := new(bytes.Buffer)
	body.WriteByte(0) // magic
	body.WriteByte(0) // attributes
	binary.Write(body, binary.BigEndian, int32(-1))
	binary.Write(body, binary.BigEndian, int32(len(value)))
	body.WriteString(value)

	binary.Write(buf, binary.BigEndian, offset)
	binary.Write(buf, binary.BigEndian, int32(4+body.Len()))
	binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(body.Bytes()))
	buf.Write(body.Bytes())
}

func encodeFetchResponse(request []byte, topic string, partition int32, errorCode int16, messages []testMessage) []byte {
	set := new(bytes.Buffer)
	for _, msg := range messages {
		encodeMessage(set, msg.offset, msg.value)
	}

	buf := respHeader(request)
	binary.Write(buf, binary.BigEndian, int32(1))
	putString(buf, topic)
	binary.Write(buf, binary.BigEndian, int32(1))
	binary.Write(buf, binary.BigEndian, partition)
	binary.Write(buf, binary.BigEndian, errorCode)
	binary.Write(buf, binary.BigEndian, int64(100)) // high water mark
	binary.Write(buf, binary.BigEndian, int32(set.Len()))
	buf.Write(set.Bytes())
	return buf.Bytes()
}

func encodeOffsetResponse(request []byte, topic string, partition int32, errorCode int16, offsets []int64) []byte {
	buf := respHeader(request)
	binary.Write(buf, binary.BigEndian, int32(1))
	putString(buf, topic)
	binary.Write(buf, binary.BigEndian, int32(1))
	binary.Write(buf, binary.BigEndian, partition)
	binary.Write(buf, binary.BigEndian, errorCode)
	binary.Write(buf, binary.BigEndian, int32(len(offsets)))
	for _, o := range offsets {
		binary.Write(buf, binary.BigEndian, o)
	}
	return buf.Bytes()
}

func encodeOffsetCommitResponse(request []byte, topic string, partition int32, errorCode int16) []byte {
	buf := respHeader(request)
	binary.Write(buf, binary.BigEndian, int32(1))
	putString(buf, topic)
	binary.Write(buf, binary.BigEndian, int32(1))
	binary.Write(buf, binary.BigEndian, partition)
	binary.Write(buf, binary.BigEndian, errorCode)
	return buf.Bytes()
}

func encodeHeartbeatResponse(request []byte, errorCode int16) []byte {
	buf := respHeader(request)
	binary.Write(buf, binary.BigEndian, errorCode)
	return buf.Bytes()
}

// decodeOffsetCommitRequest pulls the fields the tests assert on out of a
// captured offset commit request.
func decodeOffsetCommitRequest(payload []byte) (group, topic string, partition int32, offset int64) {
	r := bytes.NewReader(payload[8:]) // skip api key, version, correlation id
	readTestString(r)                 // client id
	group = readTestString(r)
	var count int32
	binary.Read(r, binary.BigEndian, &count)
	topic = readTestString(r)
	binary.Read(r, binary.BigEndian, &count)
	binary.Read(r, binary.BigEndian, &partition)
	binary.Read(r, binary.BigEndian, &offset)
	return
}

// decodeFetchRequestOffset pulls the requested offset out of a captured
// fetch request.
func decodeFetchRequestOffset(payload []byte) int64 {
	r := bytes.NewReader(payload[8:])
	readTestString(r) // client id
	var i32 int32
	binary.Read(r, binary.BigEndian, &i32) // replica id
	binary.Read(r, binary.BigEndian, &i32) // wait time
	binary.Read(r, binary.BigEndian, &i32) // min bytes
	binary.Read(r, binary.BigEndian, &i32) // topic count
	readTestString(r)
	binary.Read(r, binary.BigEndian, &i32) // partition count
	binary.Read(r, binary.BigEndian, &i32) // partition
	var offset int64
	binary.Read(r, binary.BigEndian, &offset)
	return offset
}

func readTestString(r *bytes.Reader) string {
	var length int16
	binary.Read(r, binary.BigEndian, &length)
	if length < 0 {
		return ""
	}
	b := make([]byte, length)
	io.ReadFull(r, b)
	return string(b)
}

func quietLogger() *logging.Logger {
	logger, err := logging.New(logging.Config{Level: logging.LevelError})
	if err != nil {
		panic(err)
	}
	return logger
}

func testConfig(fake *fakeNetwork, group string) Config {
	return Config{
		Uris:          []string{"h1:9092", "h2:9092"},
		ConsumerGroup: group,
		SyncTimeout:   100 * time.Millisecond,
		Network:       fake,
		Logger:        quietLogger(),
	}
}
