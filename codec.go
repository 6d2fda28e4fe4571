// Value serialization.
//
// Keys are encoded by the explicit, order-preserving functions in
// lexicographic.go because their byte order has to match value order.
// Record bodies have no such constraint, so they go through a ValueCodec —
// an ordinary (non order-preserving) marshaler, JSON by default.
package kivis

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// ValueCodec marshals and unmarshals record bodies.
type ValueCodec interface {
	Encode(buf *Buffer, v any) error
	Decode(data View, out any) error
}

// JSONCodec is the default ValueCodec, backed by goccy/go-json.
type JSONCodec struct{}

// Encode marshals v and appends the result to buf.
func (JSONCodec) Encode(buf *Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	buf.ExtendFrom(data)
	return nil
}

// Decode unmarshals data into out, which must be a pointer.
func (JSONCodec) Decode(data View, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	return nil
}
