package roomcast

import "encoding/json"

// encodeMessage builds a wire frame. A nil payload encodes an envelope
// without a payload field, which the server accepts for fire-and-forget
// types.
func encodeMessage(typ string, payload any) ([]byte, error) {
	m := Message{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, WrapError(ErrorSerialization, "encode "+typ+" payload", err)
		}
		m.Payload = raw
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, WrapError(ErrorSerialization, "encode "+typ, err)
	}
	return data, nil
}

// decodeMessage parses a wire frame into an envelope. Envelopes with an
// unknown type decode successfully; the caller treats them as no-ops so
// server-side additions do not break older clients.
func decodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, WrapError(ErrorSerialization, "malformed envelope", err)
	}
	if m.Type == "" {
		return Message{}, NewError(ErrorSerialization, "envelope missing type")
	}
	return m, nil
}

// decodePayload parses an envelope payload. Missing payloads and type
// mismatches are decode failures, never defaulted.
func decodePayload(m Message, v any) error {
	if len(m.Payload) == 0 {
		return NewError(ErrorSerialization, m.Type+" missing payload")
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return WrapError(ErrorSerialization, "decode "+m.Type+" payload", err)
	}
	return nil
}
