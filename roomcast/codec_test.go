package roomcast

import (
	"strings"
	"testing"
)

func TestEncodeMessageNilPayload(t *testing.T) {
	data, err := encodeMessage(msgPing, nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if strings.Contains(string(data), "payload") {
		t.Fatalf("nil payload should omit the payload field: %s", data)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := encodeMessage(msgJoinRoom, joinRoomPayload{RoomCode: "ABCD", Username: "alice"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	msg, err := decodeMessage(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.Type != msgJoinRoom {
		t.Fatalf("type mismatch: %s", msg.Type)
	}

	var p joinRoomPayload
	if err := decodePayload(msg, &p); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if p.RoomCode != "ABCD" || p.Username != "alice" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestDecodeMessageUnknownType(t *testing.T) {
	msg, err := decodeMessage([]byte(`{"type":"totally_new_thing","payload":{"x":1}}`))
	if err != nil {
		t.Fatalf("unknown types must decode: %v", err)
	}
	if msg.Type != "totally_new_thing" {
		t.Fatalf("type mismatch: %s", msg.Type)
	}
}

func TestDecodeMessageMissingType(t *testing.T) {
	if _, err := decodeMessage([]byte(`{"payload":{}}`)); err == nil {
		t.Fatal("expected error for envelope without type")
	}
}

func TestDecodeMessageMalformed(t *testing.T) {
	if _, err := decodeMessage([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestDecodePayloadMissing(t *testing.T) {
	var p joinRoomPayload
	if err := decodePayload(Message{Type: msgJoinRoom}, &p); err == nil {
		t.Fatal("expected error for missing payload")
	}
}
