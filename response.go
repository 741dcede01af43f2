package nsgifts

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/nsgifts/client-go/internal/apierrors"
)

// Response holds a decoded JSON body whose schema the client does not fix.
// A body that is not a JSON object or array is rejected as a protocol error.
type Response struct {
	raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Response) UnmarshalJSON(data []byte) error {
	r.raw = append(r.raw[:0], data...)
	return nil
}

// Validate implements the executor's shape check.
func (r *Response) Validate() error {
	trimmed := bytes.TrimSpace(r.raw)
	if len(trimmed) == 0 {
		return errors.New("empty response body")
	}
	switch trimmed[0] {
	case '{', '[':
		return nil
	}
	return errors.New("response body is not a JSON object or array")
}

// Raw returns the body as received.
func (r *Response) Raw() json.RawMessage {
	return r.raw
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.raw, v); err != nil {
		return &apierrors.Error{
			Kind:    apierrors.KindProtocol,
			Message: "decode response: " + err.Error(),
			Body:    apierrors.Snippet(r.raw),
			Err:     err,
		}
	}
	return nil
}

// Object decodes the body as a JSON object.
func (r *Response) Object() (map[string]any, error) {
	var m map[string]any
	if err := r.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// String returns the raw body.
func (r *Response) String() string {
	return string(r.raw)
}
