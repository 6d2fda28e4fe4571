// Key-wrapping tests.
//
// SubtableBound is what turns "every record in this table" or "every
// entry in this index" into a single contiguous byte range — if its
// bounds were off by one subtable tag, a scan over one table's Main
// records could bleed into its own index entries or the next table
// entirely.
package kivis

import (
	"bytes"
	"testing"
)

// TestSubtableBoundExcludesOtherSubtables verifies that a key built for
// Index(0) falls outside the bound computed for Main.
func TestSubtableBoundExcludesOtherSubtables(t *testing.T) {
	const scope = 5

	mainStart, mainEnd := SubtableBound(scope, Main())
	indexKey := NewBuffer()
	encodePrelude(indexKey, scope, Index(0))
	indexKey.ExtendFrom([]byte{0x01})

	if bytes.Compare(indexKey.Bytes(), mainStart) >= 0 && bytes.Compare(indexKey.Bytes(), mainEnd) < 0 {
		t.Error("an Index(0) key should not fall inside the Main subtable's bound")
	}
}

// TestSubtableBoundIncludesOwnKeys verifies a key built for Main(scope)
// does fall inside Main's own bound.
func TestSubtableBoundIncludesOwnKeys(t *testing.T) {
	const scope = 5
	start, end := SubtableBound(scope, Main())

	key := NewBuffer()
	WrapMain(key, scope, Uint64Key(42), func(b *Buffer, k Uint64Key) { k.Encode(b) })

	if bytes.Compare(key.Bytes(), start) < 0 || bytes.Compare(key.Bytes(), end) >= 0 {
		t.Errorf("key % x should fall within bound [% x, % x)", key.Bytes(), start, end)
	}
}

// TestScopeBoundExcludesAdjacentScope verifies ScopeBound(5) does not
// contain any key wrapped under scope 6.
func TestScopeBoundExcludesAdjacentScope(t *testing.T) {
	start, end := ScopeBound(5)

	other := NewBuffer()
	WrapMain(other, 6, Uint64Key(0), func(b *Buffer, k Uint64Key) { k.Encode(b) })

	if bytes.Compare(other.Bytes(), start) >= 0 && bytes.Compare(other.Bytes(), end) < 0 {
		t.Error("a scope-6 key should not fall inside scope 5's bound")
	}
}

// TestDecodePreludeRoundTrip verifies decodePrelude recovers the exact
// scope and subtable encodePrelude wrote, including the Index
// discriminator byte.
func TestDecodePreludeRoundTrip(t *testing.T) {
	buf := NewBuffer()
	encodePrelude(buf, 9, Index(3))
	buf.ExtendFrom([]byte("payload"))

	scope, sub, rest, err := decodePrelude(buf.Bytes())
	if err != nil {
		t.Fatalf("decodePrelude: %v", err)
	}
	if scope != 9 || sub.tag != subtableIndex || sub.discriminator != 3 {
		t.Errorf("decodePrelude = scope %d, tag %d, discriminator %d", scope, sub.tag, sub.discriminator)
	}
	if string(rest) != "payload" {
		t.Errorf("rest = %q, want %q", rest, "payload")
	}
}
