// Byte buffers shared by the key and value paths.
//
// A Buffer is an append-only byte container that supports extracting a
// zero-copy view of a previously written range and duplicating that range
// onto the end of the buffer again. The transaction buffer (txbuffer.go)
// relies on both: once a primary key has been serialized for the first
// index entry, every subsequent index entry reuses the same bytes instead
// of re-encoding the key.
package kivis

import "fmt"

// View is a read-only window into a Buffer's backing array. It stays valid
// only until the Buffer it was extracted from is mutated again.
type View []byte

// Buffer accumulates bytes for a single key or value during encoding.
type Buffer struct {
	data []byte
}

// NewBuffer returns an empty buffer with no pre-allocated capacity.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewBufferWithCapacity pre-allocates capacity bytes, avoiding reallocation
// for callers that know roughly how large the encoded form will be.
func NewBufferWithCapacity(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.data)
}

// IsEmpty reports whether the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return len(b.data) == 0
}

// Bytes returns the full backing slice. Callers must not retain it across
// further writes to the buffer.
func (b *Buffer) Bytes() View {
	return View(b.data)
}

// ExtendFrom appends raw bytes to the buffer.
func (b *Buffer) ExtendFrom(data []byte) {
	b.data = append(b.data, data...)
}

// ExtractRange returns a zero-copy view of b.data[start:end]. The view is
// only valid until the next write to b.
func (b *Buffer) ExtractRange(start, end int) (View, error) {
	if start < 0 || end > len(b.data) || start > end {
		return nil, fmt.Errorf("%w: range [%d:%d) out of bounds for buffer of length %d", ErrInternal, start, end, len(b.data))
	}
	return View(b.data[start:end]), nil
}

// DuplicateWithin appends a copy of b.data[start:end] onto the end of b.
// Used to repeat an already-serialized primary key across multiple index
// entries without re-encoding it.
func (b *Buffer) DuplicateWithin(start, end int) error {
	v, err := b.ExtractRange(start, end)
	if err != nil {
		return err
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	b.data = append(b.data, dup...)
	return nil
}

// Next advances the buffer to its lexicographic successor in place: the
// last non-0xff byte is incremented and everything after it zeroed, the
// big-endian carry. When every byte is 0xff no same-length successor
// exists, so the bytes are kept and a 0x00 is appended — the smallest byte
// string strictly greater than the input. Used to synthesize the exclusive
// upper bound for an exact-match scan over an index prefix.
func (b *Buffer) Next() {
	for i := len(b.data) - 1; i >= 0; i-- {
		if b.data[i] != 0xff {
			b.data[i]++
			return
		}
		b.data[i] = 0x00
	}
	for i := range b.data {
		b.data[i] = 0xff
	}
	b.data = append(b.data, 0x00)
}

// Clone returns a new Buffer holding a copy of b's current bytes.
func (b *Buffer) Clone() *Buffer {
	dup := make([]byte, len(b.data))
	copy(dup, b.data)
	return &Buffer{data: dup}
}

// FixedBuffer is the bounded-capacity counterpart to Buffer: a container
// over a caller-sized backing array that never grows past the capacity
// handed to NewFixedBuffer. Where Buffer always succeeds (it reallocates as
// needed), every FixedBuffer operation that would write past its capacity
// returns ErrOverflow instead, for callers that need a hard ceiling on
// per-operation memory.
type FixedBuffer struct {
	data []byte
}

// NewFixedBuffer returns an empty FixedBuffer that can hold up to capacity
// bytes before ExtendFrom, DuplicateWithin, or Next reports ErrOverflow.
func NewFixedBuffer(capacity int) *FixedBuffer {
	return &FixedBuffer{data: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (b *FixedBuffer) Len() int { return len(b.data) }

// IsEmpty reports whether the buffer is empty.
func (b *FixedBuffer) IsEmpty() bool { return len(b.data) == 0 }

// Bytes returns the full backing slice. Callers must not retain it across
// further writes to the buffer.
func (b *FixedBuffer) Bytes() View { return View(b.data) }

// ExtendFrom appends raw bytes, failing with ErrOverflow rather than
// reallocating if doing so would exceed the buffer's fixed capacity.
func (b *FixedBuffer) ExtendFrom(data []byte) error {
	if len(b.data)+len(data) > cap(b.data) {
		return ErrOverflow
	}
	b.data = append(b.data, data...)
	return nil
}

// ExtractRange returns a zero-copy view of b.data[start:end].
func (b *FixedBuffer) ExtractRange(start, end int) (View, error) {
	if start < 0 || end > len(b.data) || start > end {
		return nil, fmt.Errorf("%w: range [%d:%d) out of bounds for buffer of length %d", ErrInternal, start, end, len(b.data))
	}
	return View(b.data[start:end]), nil
}

// DuplicateWithin appends a copy of b.data[start:end] onto the end of b,
// failing with ErrOverflow if the fixed capacity would be exceeded.
func (b *FixedBuffer) DuplicateWithin(start, end int) error {
	v, err := b.ExtractRange(start, end)
	if err != nil {
		return err
	}
	if len(b.data)+len(v) > cap(b.data) {
		return ErrOverflow
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	b.data = append(b.data, dup...)
	return nil
}

// Next advances the buffer in place exactly as Buffer.Next does, except
// that the all-0xff case (which needs one extra trailing byte) reports
// ErrOverflow, leaving the buffer unchanged, when the fixed capacity has
// no room for it.
func (b *FixedBuffer) Next() error {
	for i := len(b.data) - 1; i >= 0; i-- {
		if b.data[i] != 0xff {
			b.data[i]++
			return nil
		}
		b.data[i] = 0x00
	}
	for i := range b.data {
		b.data[i] = 0xff
	}
	if len(b.data)+1 > cap(b.data) {
		return ErrOverflow
	}
	b.data = append(b.data, 0x00)
	return nil
}

// Clone returns a new FixedBuffer with the same capacity, holding a copy of
// b's current bytes.
func (b *FixedBuffer) Clone() *FixedBuffer {
	dup := make([]byte, len(b.data), cap(b.data))
	copy(dup, b.data)
	return &FixedBuffer{data: dup}
}
