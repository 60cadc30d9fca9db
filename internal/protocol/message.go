package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/issac1998/kafka-client/internal/compression"
)

// Message is a single decoded record
type Message struct {
	Offset     int64
	Attributes int8
	Key        []byte
	Value      []byte
}

// CompressionCodec returns the codec encoded in the attributes byte
func (m *Message) CompressionCodec() compression.CompressionType {
	return compression.CompressionType(m.Attributes & 0x07)
}

// writeMessageSet encodes messages as a message set. With a codec other
// than none, the plain set is compressed and wrapped in a single envelope
// message carrying the codec in its attributes.
func writeMessageSet(buf *bytes.Buffer, messages []Message, codec compression.CompressionType) error {
	plain := new(bytes.Buffer)
	for i := range messages {
		writeMessage(plain, messages[i].Offset, 0, messages[i].Key, messages[i].Value)
	}

	if codec == compression.None {
		binary.Write(buf, binary.BigEndian, int32(plain.Len()))
		buf.Write(plain.Bytes())
		return nil
	}

	compressed, err := compression.Compress(plain.Bytes(), codec)
	if err != nil {
		return fmt.Errorf("failed to compress message set: %v", err)
	}

	wrapped := new(bytes.Buffer)
	writeMessage(wrapped, 0, int8(codec), nil, compressed)
	binary.Write(buf, binary.BigEndian, int32(wrapped.Len()))
	buf.Write(wrapped.Bytes())
	return nil
}

// writeMessage encodes one offset+size framed message with a crc over the
// message content.
func writeMessage(buf *bytes.Buffer, offset int64, attributes int8, key, value []byte) {
	body := new(bytes.Buffer)
	body.WriteByte(0) // magic
	binary.Write(body, binary.BigEndian, attributes)
	writeBytes(body, key)
	writeBytes(body, value)

	crc := crc32.ChecksumIEEE(body.Bytes())

	binary.Write(buf, binary.BigEndian, offset)
	binary.Write(buf, binary.BigEndian, int32(4+body.Len()))
	binary.Write(buf, binary.BigEndian, crc)
	buf.Write(body.Bytes())
}

// parseMessageSet decodes a message set, recursing into compressed
// envelope messages so callers always see plain records. A trailing
// partial message (cut off by the fetch size limit) is dropped.
func parseMessageSet(data []byte) ([]Message, error) {
	var messages []Message
	r := bytes.NewReader(data)

	for r.Len() > 0 {
		if r.Len() < 12 {
			break // partial trailing message
		}

		offset, err := readInt64(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read message offset: %v", err)
		}
		size, err := readInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read message size: %v", err)
		}
		if int(size) > r.Len() {
			break // partial trailing message
		}

		raw := make([]byte, size)
		if _, err := r.Read(raw); err != nil {
			return nil, fmt.Errorf("failed to read message content: %v", err)
		}

		msg, err := parseMessage(offset, raw)
		if err != nil {
			return nil, err
		}

		if codec := msg.CompressionCodec(); codec != compression.None {
			inner, err := compression.Decompress(msg.Value, codec)
			if err != nil {
				return nil, fmt.Errorf("failed to decompress message set: %v", err)
			}
			innerMessages, err := parseMessageSet(inner)
			if err != nil {
				return nil, err
			}
			messages = append(messages, innerMessages...)
			continue
		}

		messages = append(messages, *msg)
	}

	return messages, nil
}

func parseMessage(offset int64, raw []byte) (*Message, error) {
	r := bytes.NewReader(raw)

	crc, err := readInt32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message crc: %v", err)
	}

	rest := make([]byte, r.Len())
	if _, err := r.Read(rest); err != nil {
		return nil, fmt.Errorf("failed to read message body: %v", err)
	}
	if uint32(crc) != crc32.ChecksumIEEE(rest) {
		return nil, fmt.Errorf("message at offset %d failed crc check", offset)
	}

	r = bytes.NewReader(rest)
	if _, err := readInt8(r); err != nil { // magic
		return nil, fmt.Errorf("failed to read message magic: %v", err)
	}

	msg := &Message{Offset: offset}
	if msg.Attributes, err = readInt8(r); err != nil {
		return nil, fmt.Errorf("failed to read message attributes: %v", err)
	}
	if msg.Key, err = readBytes(r); err != nil {
		return nil, fmt.Errorf("failed to read message key: %v", err)
	}
	if msg.Value, err = readBytes(r); err != nil {
		return nil, fmt.Errorf("failed to read message value: %v", err)
	}

	return msg, nil
}
