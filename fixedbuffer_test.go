// FixedBuffer tests.
//
// FixedBuffer mirrors Buffer's contract exactly except that every write
// that would exceed its fixed capacity reports ErrOverflow instead of
// growing. These tests check the overflow boundary directly on each
// operation that writes.
package kivis

import (
	"errors"
	"testing"
)

// TestFixedBufferExtendFromWithinCapacity verifies writes under capacity
// succeed and are readable back exactly.
func TestFixedBufferExtendFromWithinCapacity(t *testing.T) {
	buf := NewFixedBuffer(8)
	if err := buf.ExtendFrom([]byte("abcd")); err != nil {
		t.Fatalf("ExtendFrom: %v", err)
	}
	if string(buf.Bytes()) != "abcd" {
		t.Errorf("Bytes = %q, want %q", buf.Bytes(), "abcd")
	}
}

// TestFixedBufferExtendFromOverflow verifies a write past capacity is
// rejected with ErrOverflow and leaves the buffer unchanged.
func TestFixedBufferExtendFromOverflow(t *testing.T) {
	buf := NewFixedBuffer(4)
	if err := buf.ExtendFrom([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("ExtendFrom to exact capacity: %v", err)
	}
	if err := buf.ExtendFrom([]byte{5}); !errors.Is(err, ErrOverflow) {
		t.Errorf("ExtendFrom past capacity = %v, want ErrOverflow", err)
	}
	if buf.Len() != 4 {
		t.Errorf("Len after rejected write = %d, want 4", buf.Len())
	}
}

// TestFixedBufferDuplicateWithinOverflow verifies DuplicateWithin respects
// the same capacity ceiling as ExtendFrom.
func TestFixedBufferDuplicateWithinOverflow(t *testing.T) {
	buf := NewFixedBuffer(6)
	if err := buf.ExtendFrom([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("ExtendFrom: %v", err)
	}
	if err := buf.DuplicateWithin(0, 4); !errors.Is(err, ErrOverflow) {
		t.Errorf("DuplicateWithin past capacity = %v, want ErrOverflow", err)
	}
	if err := buf.DuplicateWithin(0, 2); err != nil {
		t.Errorf("DuplicateWithin within capacity: %v", err)
	}
	if string(buf.Bytes()) != string([]byte{1, 2, 3, 4, 1, 2}) {
		t.Errorf("Bytes = % x, want % x", buf.Bytes(), []byte{1, 2, 3, 4, 1, 2})
	}
}

// TestFixedBufferNextCarriesWithinCapacity verifies the common case
// matches Buffer.Next exactly.
func TestFixedBufferNextCarriesWithinCapacity(t *testing.T) {
	buf := NewFixedBuffer(4)
	if err := buf.ExtendFrom([]byte{0x01, 0xff}); err != nil {
		t.Fatalf("ExtendFrom: %v", err)
	}
	if err := buf.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got := buf.Bytes(); string(got) != string([]byte{0x02, 0x00}) {
		t.Errorf("Next() = % x, want % x", got, []byte{0x02, 0x00})
	}
}

// TestFixedBufferNextOverflowAtCapacity verifies that an all-0xff buffer
// already at capacity reports ErrOverflow rather than silently growing,
// since growth would need a byte the fixed backing array doesn't have,
// and leaves the buffer's contents untouched.
func TestFixedBufferNextOverflowAtCapacity(t *testing.T) {
	buf := NewFixedBuffer(2)
	if err := buf.ExtendFrom([]byte{0xff, 0xff}); err != nil {
		t.Fatalf("ExtendFrom: %v", err)
	}
	if err := buf.Next(); !errors.Is(err, ErrOverflow) {
		t.Errorf("Next() at capacity = %v, want ErrOverflow", err)
	}
	if got := buf.Bytes(); string(got) != string([]byte{0xff, 0xff}) {
		t.Errorf("buffer mutated by failed Next: % x", got)
	}
}

// TestFixedBufferNextOverflowGrowsWithSpareCapacity verifies the all-0xff
// case succeeds when the backing array has room for the extra trailing
// byte, matching Buffer's growth behaviour up to the capacity ceiling.
func TestFixedBufferNextOverflowGrowsWithSpareCapacity(t *testing.T) {
	buf := NewFixedBuffer(3)
	if err := buf.ExtendFrom([]byte{0xff, 0xff}); err != nil {
		t.Fatalf("ExtendFrom: %v", err)
	}
	if err := buf.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := []byte{0xff, 0xff, 0x00}
	if got := buf.Bytes(); string(got) != string(want) {
		t.Errorf("Next() = % x, want % x", got, want)
	}
}

// TestFixedBufferClone verifies Clone copies bytes and capacity
// independently of the source buffer.
func TestFixedBufferClone(t *testing.T) {
	buf := NewFixedBuffer(4)
	if err := buf.ExtendFrom([]byte{1, 2}); err != nil {
		t.Fatalf("ExtendFrom: %v", err)
	}
	dup := buf.Clone()
	if err := buf.ExtendFrom([]byte{3, 4}); err != nil {
		t.Fatalf("ExtendFrom: %v", err)
	}
	if string(dup.Bytes()) != string([]byte{1, 2}) {
		t.Errorf("clone mutated by source write: %x", dup.Bytes())
	}
}
