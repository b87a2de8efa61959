package speech

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader(AudioOnlyRequest, NegativeSequenceNumber, NoSerialization, GzipCompression)
	decoded, err := DecodeHeader(h.Encode())
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}
	if *decoded != h {
		t.Fatalf("decoded header = %+v, want %+v", *decoded, h)
	}
}

func TestDecodeHeaderRejectsUnknownVersion(t *testing.T) {
	if _, err := DecodeHeader([]byte{0x21, 0x10, 0x10, 0x00}); err == nil {
		t.Fatalf("expected version error")
	}
	if _, err := DecodeHeader([]byte{0x11}); err == nil {
		t.Fatalf("expected short header error")
	}
}

func TestAudioOnlyRequestSequence(t *testing.T) {
	msg := CreateAudioOnlyRequest([]byte{1, 2, 3}, 5, true, NoCompression)
	if msg.Header.MessageFlags != NegativeSequenceNumber || msg.Sequence != -5 {
		t.Fatalf("last packet flags=%d seq=%d", msg.Header.MessageFlags, msg.Sequence)
	}

	data, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("EncodeMessage returned error: %v", err)
	}
	decoded, err := DecodeMessage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	if !decoded.IsLastPacket() || decoded.Sequence != -5 {
		t.Fatalf("decoded last=%t seq=%d", decoded.IsLastPacket(), decoded.Sequence)
	}
	if !bytes.Equal(decoded.Payload, []byte{1, 2, 3}) {
		t.Fatalf("payload = %v", decoded.Payload)
	}

	mid := CreateAudioOnlyRequest([]byte{9}, 2, false, NoCompression)
	if mid.Header.MessageFlags != PositiveSequenceNumber || mid.IsLastPacket() {
		t.Fatalf("middle packet flags=%d", mid.Header.MessageFlags)
	}
}

func TestEventMessageCarriesIDs(t *testing.T) {
	msg := &Message{
		Header:      NewHeader(FullServerResponse, WithEvent, JSONSerialization, NoCompression),
		EventType:   EventTypeConnectionStarted,
		ConnectID:   "conn-1",
		Payload:     []byte("{}"),
		PayloadSize: 2,
	}
	data, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("EncodeMessage returned error: %v", err)
	}
	decoded, err := DecodeMessage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	if decoded.ConnectID != "conn-1" || decoded.SessionID != "" {
		t.Fatalf("connect=%q session=%q", decoded.ConnectID, decoded.SessionID)
	}

	msg.EventType = EventTypeSessionFinished
	msg.SessionID = "sess-9"
	data, _ = EncodeMessage(msg)
	decoded, err = DecodeMessage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	if decoded.SessionID != "sess-9" || decoded.EventType != EventTypeSessionFinished {
		t.Fatalf("session=%q event=%d", decoded.SessionID, decoded.EventType)
	}
}

func TestErrorMessageCode(t *testing.T) {
	msg := &Message{
		Header:      NewHeader(ErrorMessage, NoSequenceNumber, JSONSerialization, NoCompression),
		ErrorCode:   45000001,
		Payload:     []byte("bad"),
		PayloadSize: 3,
	}
	data, _ := EncodeMessage(msg)
	decoded, err := DecodeMessage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	if !decoded.IsErrorMessage() || decoded.ErrorCode != 45000001 || string(decoded.Payload) != "bad" {
		t.Fatalf("unexpected error message %+v", decoded)
	}
}

func TestDecodeMessageTruncatedPayload(t *testing.T) {
	msg := CreateFullClientRequest([]byte("payload"), NoCompression)
	data, _ := EncodeMessage(msg)
	if _, err := DecodeMessage(bytes.NewReader(data[:len(data)-2])); err == nil {
		t.Fatalf("expected truncated payload error")
	}
}

func TestGzipRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("мила кішка "), 50)
	compressed, err := CompressPayload(src, GzipCompression)
	if err != nil {
		t.Fatalf("CompressPayload returned error: %v", err)
	}
	if len(compressed) >= len(src) {
		t.Fatalf("compressed %d bytes into %d", len(src), len(compressed))
	}
	out, err := DecompressPayload(compressed, GzipCompression)
	if err != nil {
		t.Fatalf("DecompressPayload returned error: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("round trip mismatch")
	}

	if _, err := CompressPayload(src, CustomCompression); err == nil {
		t.Fatalf("expected unsupported method error")
	}
	if _, err := DecompressPayload([]byte("not gzip"), GzipCompression); err == nil {
		t.Fatalf("expected corrupt gzip error")
	}
}
