package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the single normalized view of an upstream response body.  The
// backend is inconsistent: some endpoints answer with {"data": [...]}, some
// with a Laravel paginator {"data": {"data": [...], "current_page": 1}} and
// some with the bare payload.  Call sites only ever see Data.
type Envelope struct {
	Data    json.RawMessage
	Message string
}

// ErrEmptyBody is returned when a response that must carry a payload is empty.
var ErrEmptyBody = errors.New("empty response body")

// parseEnvelope unwraps up to two levels of "data" keys.  A body that is not
// an object (array, string, number) is taken as the payload itself.
func parseEnvelope(body []byte) (Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Envelope{}, ErrEmptyBody
	}
	if body[0] != '{' {
		return Envelope{Data: json.RawMessage(body)}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	env := Envelope{Data: json.RawMessage(body)}
	if raw, ok := obj["message"]; ok {
		_ = json.Unmarshal(raw, &env.Message)
	}
	data, ok := obj["data"]
	if !ok {
		return env, nil
	}
	env.Data = data
	// paginator: {"data": {"data": [...], ...}}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &inner); err == nil {
			if nested, ok := inner["data"]; ok {
				if n := bytes.TrimSpace(nested); len(n) > 0 && n[0] == '[' {
					env.Data = nested
				}
			}
		}
	}
	return env, nil
}

// IsNull reports whether the payload is absent or JSON null.
func (e Envelope) IsNull() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if e.IsNull() {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// Field returns the raw value of a top-level key of an object payload, or
// nil when the payload is not an object or the key is missing.
func (e Envelope) Field(key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &obj); err != nil {
		return nil
	}
	return obj[key]
}
