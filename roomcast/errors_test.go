package roomcast

import (
	"errors"
	"testing"
)

func TestErrorCodeRoundTrip(t *testing.T) {
	codes := []ErrorCode{
		ErrorSessionNotFound,
		ErrorRoomNotFound,
		ErrorRoomFull,
		ErrorNotHost,
		ErrorInvalidMessage,
		ErrorInternalServer,
	}
	for _, code := range codes {
		if got := ParseErrorCode(code.String()); got != code {
			t.Errorf("%v: round trip gave %v", code, got)
		}
	}
	if got := ParseErrorCode("something_else"); got != ErrorUnknown {
		t.Errorf("unknown code: got %v", got)
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("tcp reset")
	err := WrapError(ErrorConnection, "dial relay", cause)

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause lost")
	}
	if !errors.Is(err, NewError(ErrorConnection, "other message")) {
		t.Fatal("errors with the same code must match")
	}
	if errors.Is(err, NewError(ErrorTimeout, "")) {
		t.Fatal("different codes must not match")
	}

	var rcErr *RoomcastError
	if !errors.As(err, &rcErr) || rcErr.Code != ErrorConnection {
		t.Fatalf("As failed: %v", err)
	}
}

func TestIsProtocolError(t *testing.T) {
	if !IsProtocolError(NewError(ErrorRoomFull, "")) {
		t.Fatal("room_full is a protocol error")
	}
	if IsProtocolError(NewError(ErrorNotConnected, "")) {
		t.Fatal("not_connected is client-side")
	}
	if IsProtocolError(errors.New("plain")) {
		t.Fatal("plain errors are not protocol errors")
	}
}
