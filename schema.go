// Interfaces a record type implements to participate in a Table.
package kivis

// KeyType is the constraint every primary or index key type satisfies: it
// must be comparable (so it can be used as a Go map/slice key in tests and
// watermark state) and must know how to append its own order-preserving
// encoding to a Buffer. Decoding is supplied separately, as a plain
// function value at table-registration time (see Table), rather than as a
// method — Go generics have no way to call a decoder through a zero value
// of K the way a pointer-receiver method could, and routing decode through
// an explicit closure keeps every registered table's wire format visible in
// one place instead of scattered across method bodies.
type KeyType interface {
	comparable
	Encode(buf *Buffer)
}

// Incrementable is implemented by key types that support auto-increment via
// Put. NextID returns the next key in sequence and ok == false if the type
// has exhausted its range (e.g. a uint64 watermark at its maximum value).
type Incrementable[K any] interface {
	NextID() (K, bool)
}

// AutoKey is the constraint satisfied by key types usable with Put.
type AutoKey[K any] interface {
	KeyType
	Incrementable[K]
}

// Entry is implemented by every record type stored in a Table. IndexKeys
// reports the record's secondary-index entries by calling ix.Add once per
// entry, in table-declaration order; a record with no secondary indexes
// implements IndexKeys as a no-op.
type Entry interface {
	IndexKeys(ix *IndexBuilder) error
}

// Uint64Key is a ready-made AutoKey for the common case of a plain
// unsigned 64-bit auto-increment primary key.
type Uint64Key uint64

// Encode implements KeyType.
func (k Uint64Key) Encode(buf *Buffer) { EncodeUint64(buf, uint64(k)) }

// NextID implements Incrementable.
func (k Uint64Key) NextID() (Uint64Key, bool) {
	if k == Uint64Key(^uint64(0)) {
		return k, false
	}
	return k + 1, true
}

// DecodeUint64Key decodes a Uint64Key from the front of data.
func DecodeUint64Key(data View) (Uint64Key, View, error) {
	v, rest, err := DecodeUint64(data)
	return Uint64Key(v), rest, err
}

// StringKey is a plain order-preserving string primary key. It has no
// Incrementable implementation: there is no sensible "next string", so
// tables keyed by StringKey use Insert with a caller- or DeriveKey-supplied
// key rather than Put.
type StringKey string

// Encode implements KeyType.
func (k StringKey) Encode(buf *Buffer) { EncodeString(buf, string(k)) }

// DecodeStringKey decodes a StringKey from the front of data.
func DecodeStringKey(data View) (StringKey, View, error) {
	v, rest, err := DecodeString(data)
	return StringKey(v), rest, err
}
