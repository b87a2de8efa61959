package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ProtocolVersion is the version nibble of the binary websocket protocol.
const ProtocolVersion = 0b0001

// MessageType is the message type nibble.
type MessageType uint8

const (
	FullClientRequest       MessageType = 0b0001
	AudioOnlyRequest        MessageType = 0b0010
	FullServerResponse      MessageType = 0b1001
	AudioOnlyServerResponse MessageType = 0b1011
	ErrorMessage            MessageType = 0b1111
)

// MessageFlags tells what follows the header.
type MessageFlags uint8

const (
	NoSequenceNumber       MessageFlags = 0b0000
	PositiveSequenceNumber MessageFlags = 0b0001
	// LastPacketNoSequence marks the final packet without a sequence number.
	LastPacketNoSequence MessageFlags = 0b0010
	// NegativeSequenceNumber marks the final packet; its sequence is negated.
	NegativeSequenceNumber MessageFlags = 0b0011
	// WithEvent means an event number and ids follow.
	WithEvent MessageFlags = 0b0100
)

// EventType is a server or client event number.
type EventType int32

const (
	EventTypeNone               EventType = 0
	EventTypeStartConnection    EventType = 1
	EventTypeFinishConnection   EventType = 2
	EventTypeConnectionStarted  EventType = 50
	EventTypeConnectionFailed   EventType = 51
	EventTypeConnectionFinished EventType = 52
	EventTypeSessionStarted     EventType = 150
	EventTypeSessionFinished    EventType = 152
	EventTypeSessionFailed      EventType = 153
)

// SerializationMethod is the payload serialization nibble.
type SerializationMethod uint8

const (
	NoSerialization     SerializationMethod = 0b0000
	JSONSerialization   SerializationMethod = 0b0001
	CustomSerialization SerializationMethod = 0b1111
)

// CompressionMethod is the payload compression nibble.
type CompressionMethod uint8

const (
	NoCompression     CompressionMethod = 0b0000
	GzipCompression   CompressionMethod = 0b0001
	CustomCompression CompressionMethod = 0b1111
)

// Header is the 4-byte message header.
type Header struct {
	ProtocolVersion     uint8
	HeaderSize          uint8 // in 4-byte words
	MessageType         MessageType
	MessageFlags        MessageFlags
	SerializationMethod SerializationMethod
	CompressionMethod   CompressionMethod
	Reserved            uint8
}

// Message is one frame of the protocol.
type Message struct {
	Header      Header
	Sequence    int32
	EventType   EventType
	SessionID   string
	ConnectID   string
	ErrorCode   uint32
	PayloadSize uint32
	Payload     []byte
}

// NewHeader returns a 4-byte header.
func NewHeader(msgType MessageType, flags MessageFlags, serialization SerializationMethod, compression CompressionMethod) Header {
	return Header{
		ProtocolVersion:     ProtocolVersion,
		HeaderSize:          0b0001,
		MessageType:         msgType,
		MessageFlags:        flags,
		SerializationMethod: serialization,
		CompressionMethod:   compression,
	}
}

// Encode packs the header nibbles.
func (h *Header) Encode() []byte {
	return []byte{
		(h.ProtocolVersion << 4) | h.HeaderSize,
		(uint8(h.MessageType) << 4) | uint8(h.MessageFlags),
		(uint8(h.SerializationMethod) << 4) | uint8(h.CompressionMethod),
		h.Reserved,
	}
}

// DecodeHeader unpacks a header and checks the version.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("header data too short: got %d, need 4", len(data))
	}

	header := &Header{
		ProtocolVersion:     (data[0] >> 4) & 0x0F,
		HeaderSize:          data[0] & 0x0F,
		MessageType:         MessageType((data[1] >> 4) & 0x0F),
		MessageFlags:        MessageFlags(data[1] & 0x0F),
		SerializationMethod: SerializationMethod((data[2] >> 4) & 0x0F),
		CompressionMethod:   CompressionMethod(data[2] & 0x0F),
		Reserved:            data[3],
	}

	if header.ProtocolVersion != ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", header.ProtocolVersion)
	}
	return header, nil
}

func (m *Message) hasSequence() bool {
	switch m.Header.MessageFlags & 0b0011 {
	case PositiveSequenceNumber, NegativeSequenceNumber:
		return true
	}
	return false
}

func (m *Message) hasEvent() bool {
	return m.Header.MessageFlags&WithEvent == WithEvent
}

// EncodeMessage serializes msg. Sizes are big-endian.
func EncodeMessage(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(msg.Header.Encode())

	if msg.hasSequence() {
		writeUint32(&buf, uint32(msg.Sequence))
	}

	if msg.hasEvent() {
		writeUint32(&buf, uint32(msg.EventType))
		if !eventSkipsSessionID(msg.EventType) {
			writeSized(&buf, msg.SessionID)
		}
		if eventHasConnectID(msg.EventType) {
			writeSized(&buf, msg.ConnectID)
		}
	}

	if msg.Header.MessageType == ErrorMessage {
		writeUint32(&buf, msg.ErrorCode)
	}

	writeUint32(&buf, msg.PayloadSize)
	buf.Write(msg.Payload)
	return buf.Bytes(), nil
}

// DecodeMessage reads one message from reader.
func DecodeMessage(reader io.Reader) (*Message, error) {
	headerBytes := make([]byte, 4)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header, err := DecodeHeader(headerBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	msg := &Message{Header: *header}

	if extra := int(header.HeaderSize)*4 - 4; extra > 0 {
		if _, err := io.CopyN(io.Discard, reader, int64(extra)); err != nil {
			return nil, fmt.Errorf("failed to read extended header: %w", err)
		}
	}

	if msg.hasSequence() {
		seq, err := readUint32(reader, "sequence")
		if err != nil {
			return nil, err
		}
		msg.Sequence = int32(seq)
	}

	if msg.hasEvent() {
		event, err := readUint32(reader, "event type")
		if err != nil {
			return nil, err
		}
		msg.EventType = EventType(int32(event))

		if !eventSkipsSessionID(msg.EventType) {
			if msg.SessionID, err = readSized(reader, "session id"); err != nil {
				return nil, err
			}
		}
		if eventHasConnectID(msg.EventType) {
			if msg.ConnectID, err = readSized(reader, "connect id"); err != nil {
				return nil, err
			}
		}
	}

	if header.MessageType == ErrorMessage {
		if msg.ErrorCode, err = readUint32(reader, "error code"); err != nil {
			return nil, err
		}
	}

	if msg.PayloadSize, err = readUint32(reader, "payload size"); err != nil {
		return nil, err
	}

	if msg.PayloadSize > 0 {
		msg.Payload = make([]byte, msg.PayloadSize)
		if _, err := io.ReadFull(reader, msg.Payload); err != nil {
			return nil, fmt.Errorf("failed to read payload (expected %d bytes): %w", msg.PayloadSize, err)
		}
	}
	return msg, nil
}

// CreateFullClientRequest wraps a JSON request payload.
func CreateFullClientRequest(payload []byte, compression CompressionMethod) *Message {
	return &Message{
		Header:      NewHeader(FullClientRequest, NoSequenceNumber, JSONSerialization, compression),
		PayloadSize: uint32(len(payload)),
		Payload:     payload,
	}
}

// CreateAudioOnlyRequest wraps an audio chunk. The last chunk carries a
// negated sequence number.
func CreateAudioOnlyRequest(audio []byte, sequence int32, isLast bool, compression CompressionMethod) *Message {
	var flags MessageFlags
	switch {
	case isLast && sequence != 0:
		flags = NegativeSequenceNumber
		sequence = -sequence
	case isLast:
		flags = LastPacketNoSequence
	case sequence > 0:
		flags = PositiveSequenceNumber
	default:
		flags = NoSequenceNumber
	}

	return &Message{
		Header:      NewHeader(AudioOnlyRequest, flags, NoSerialization, compression),
		Sequence:    sequence,
		PayloadSize: uint32(len(audio)),
		Payload:     audio,
	}
}

// IsLastPacket reports whether the sender marked this as the final packet.
func (m *Message) IsLastPacket() bool {
	switch m.Header.MessageFlags & 0b0011 {
	case LastPacketNoSequence, NegativeSequenceNumber:
		return true
	}
	return false
}

// IsErrorMessage reports whether the server sent an error frame.
func (m *Message) IsErrorMessage() bool {
	return m.Header.MessageType == ErrorMessage
}

func eventSkipsSessionID(event EventType) bool {
	switch event {
	case EventTypeStartConnection, EventTypeFinishConnection,
		EventTypeConnectionStarted, EventTypeConnectionFailed,
		EventTypeConnectionFinished:
		return true
	}
	return false
}

func eventHasConnectID(event EventType) bool {
	switch event {
	case EventTypeConnectionStarted, EventTypeConnectionFailed, EventTypeConnectionFinished:
		return true
	}
	return false
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeSized(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readUint32(r io.Reader, what string) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", what, err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readSized(r io.Reader, what string) (string, error) {
	size, err := readUint32(r, what+" size")
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", what, err)
	}
	return string(data), nil
}
