// Key wrapping: the prefix scheme that multiplexes every table's main
// records, its secondary indexes, and an optional per-table metadata
// singleton onto one ordered byte space.
//
// A wrapped key is [scope byte][subtable tag][subtable payload][key bytes].
// Because every piece is order-preserving, a half-open byte range built
// from two wrapped keys with the same scope and subtable selects exactly
// the records in that subtable, in key order.
package kivis

// Subtable selects which region of a table's key space a wrapped key falls
// into.
type Subtable struct {
	tag           subtableTag
	discriminator uint8 // only meaningful when tag == subtableIndex
}

type subtableTag uint8

const (
	subtableMain              subtableTag = 0
	subtableMetadataSingleton subtableTag = 1
	subtableIndex             subtableTag = 2
)

// Main selects a table's primary record space.
func Main() Subtable { return Subtable{tag: subtableMain} }

// MetadataSingleton selects the single slot a table reserves for its own
// bookkeeping (currently unused by the manifest, which keeps watermarks in
// memory, but kept available for backends that want to persist auxiliary
// per-table state next to the records it describes).
func MetadataSingleton() Subtable { return Subtable{tag: subtableMetadataSingleton} }

// Index selects the secondary-index space identified by discriminator,
// the position of the index among the ones a record type declares.
func Index(discriminator uint8) Subtable {
	return Subtable{tag: subtableIndex, discriminator: discriminator}
}

// encodePrelude appends [scope][tag][discriminator?] to buf.
func encodePrelude(buf *Buffer, scope byte, sub Subtable) {
	buf.ExtendFrom([]byte{scope, byte(sub.tag)})
	if sub.tag == subtableIndex {
		buf.ExtendFrom([]byte{sub.discriminator})
	}
}

// decodePrelude consumes [scope][tag][discriminator?] from the front of
// data.
func decodePrelude(data View) (scope byte, sub Subtable, rest View, err error) {
	if len(data) < 2 {
		return 0, Subtable{}, nil, ErrDeserialization
	}
	scope = data[0]
	tag := subtableTag(data[1])
	rest = data[2:]
	switch tag {
	case subtableMain, subtableMetadataSingleton:
		return scope, Subtable{tag: tag}, rest, nil
	case subtableIndex:
		if len(rest) < 1 {
			return 0, Subtable{}, nil, ErrDeserialization
		}
		return scope, Subtable{tag: tag, discriminator: rest[0]}, rest[1:], nil
	default:
		return 0, Subtable{}, nil, &InvalidScopeError{Scope: scope}
	}
}

// WrapMain encodes the full primary-record key for scope/key into buf,
// using encodeKey to serialize key in its order-preserving form.
func WrapMain[K any](buf *Buffer, scope byte, key K, encodeKey func(*Buffer, K)) {
	encodePrelude(buf, scope, Main())
	encodeKey(buf, key)
}

// WrapIndexPrelude encodes just [scope][Index(discriminator)] — the prefix
// shared by every entry in one secondary index, and the starting point for
// building an exact-match or range scan over it.
func WrapIndexPrelude(buf *Buffer, scope byte, discriminator uint8) {
	encodePrelude(buf, scope, Index(discriminator))
}

// ScopeBound returns the half-open byte range [start, end) that contains
// every wrapped key belonging to scope, across every subtable. end is
// scope+1 as a single byte, the smallest key strictly greater than any key
// beginning with scope.
func ScopeBound(scope byte) (start, end []byte) {
	return []byte{scope}, []byte{scope + 1}
}

// SubtableBound returns the half-open byte range covering exactly the
// given subtable within scope.
func SubtableBound(scope byte, sub Subtable) (start, end []byte) {
	lo := NewBuffer()
	encodePrelude(lo, scope, sub)
	hi := lo.Clone()
	hi.Next()
	return lo.Bytes(), hi.Bytes()
}
