// Order-preserving encodings for primary and index keys.
//
// Every function here guarantees that byte-lexicographic order of the
// encoded form matches value order of the input: sorting the encoded bytes
// sorts the values. That property is what lets Scan turn a typed interval
// into a single contiguous byte range. Per the design notes this repo
// favours a concrete set of explicit per-type functions over a blanket
// generic codec — adding a new key type means adding a pair of functions
// here, not teaching a reflection-based encoder about it.
package kivis

import "encoding/binary"

// EncodeUint8 appends a single order-preserving byte.
func EncodeUint8(buf *Buffer, v uint8) {
	buf.ExtendFrom([]byte{v})
}

// DecodeUint8 consumes one byte from the front of data.
func DecodeUint8(data View) (uint8, View, error) {
	if len(data) < 1 {
		return 0, nil, ErrDeserialization
	}
	return data[0], data[1:], nil
}

// EncodeUint16 appends v as 2 big-endian bytes.
func EncodeUint16(buf *Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.ExtendFrom(b[:])
}

// DecodeUint16 consumes 2 big-endian bytes from the front of data.
func DecodeUint16(data View) (uint16, View, error) {
	if len(data) < 2 {
		return 0, nil, ErrDeserialization
	}
	return binary.BigEndian.Uint16(data), data[2:], nil
}

// EncodeUint32 appends v as 4 big-endian bytes.
func EncodeUint32(buf *Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.ExtendFrom(b[:])
}

// DecodeUint32 consumes 4 big-endian bytes from the front of data.
func DecodeUint32(data View) (uint32, View, error) {
	if len(data) < 4 {
		return 0, nil, ErrDeserialization
	}
	return binary.BigEndian.Uint32(data), data[4:], nil
}

// EncodeUint64 appends v as 8 big-endian bytes.
func EncodeUint64(buf *Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.ExtendFrom(b[:])
}

// DecodeUint64 consumes 8 big-endian bytes from the front of data.
func DecodeUint64(data View) (uint64, View, error) {
	if len(data) < 8 {
		return 0, nil, ErrDeserialization
	}
	return binary.BigEndian.Uint64(data), data[8:], nil
}

// EncodeInt64 maps v onto the unsigned domain by flipping its sign bit so
// that two's-complement ordering (which disagrees with byte order on
// negative numbers) becomes plain big-endian byte order.
func EncodeInt64(buf *Buffer, v int64) {
	EncodeUint64(buf, uint64(v)^(1<<63))
}

// DecodeInt64 is the inverse of EncodeInt64.
func DecodeInt64(data View) (int64, View, error) {
	u, rest, err := DecodeUint64(data)
	if err != nil {
		return 0, nil, err
	}
	return int64(u ^ (1 << 63)), rest, nil
}

// EncodeString appends s's bytes followed by a single 0x00 terminator. The
// terminator keeps "Cat" sorting before "Caterpillar" once more bytes follow
// the string (a tuple's next component, or an index entry's primary-key
// suffix): without it, the byte after "Cat" would be compared against 'e'
// and could sort it after "Caterpillar"; 0x00 sorts below any byte the
// longer string can continue with. A
// literal 0x00 inside s would otherwise be indistinguishable from the
// terminator; string keys in this package are assumed not to contain one.
func EncodeString(buf *Buffer, s string) {
	buf.ExtendFrom([]byte(s))
	buf.ExtendFrom([]byte{0x00})
}

// DecodeString consumes bytes up to and including the first 0x00.
func DecodeString(data View) (string, View, error) {
	for i, b := range data {
		if b == 0x00 {
			return string(data[:i]), data[i+1:], nil
		}
	}
	return "", nil, ErrDeserialization
}

// EncodeBytes appends arbitrary binary content in an order-preserving,
// self-delimiting form: each 0x00 inside b is escaped as the pair
// 0x00 0xff, and a bare 0x00 terminates the encoding. A length prefix
// would compare lengths before content and break ordering; the escape
// keeps byte-for-byte comparison intact (an embedded 0x00 encodes as
// 0x00 0xff, which still sorts below every nonzero lead byte), and the
// bare terminator sorts below any continuation, so a proper prefix of a
// longer value sorts first, same as EncodeString.
func EncodeBytes(buf *Buffer, b []byte) {
	for _, c := range b {
		if c == 0x00 {
			buf.ExtendFrom([]byte{0x00, 0xff})
			continue
		}
		buf.ExtendFrom([]byte{c})
	}
	buf.ExtendFrom([]byte{0x00})
}

// DecodeBytes is the inverse of EncodeBytes.
func DecodeBytes(data View) ([]byte, View, error) {
	var out []byte
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != 0x00 {
			out = append(out, c)
			continue
		}
		if i+1 < len(data) && data[i+1] == 0xff {
			out = append(out, 0x00)
			i++
			continue
		}
		return out, data[i+1:], nil
	}
	return nil, nil, ErrDeserialization
}

// Tuple2 encodes two order-preserving components one after the other. Since
// each component's own encoding is order-preserving and self-delimiting,
// concatenation is too: the first component dominates comparisons, the
// second only breaks ties.
func Tuple2[A, B any](buf *Buffer, a A, b B, encodeA func(*Buffer, A), encodeB func(*Buffer, B)) {
	encodeA(buf, a)
	encodeB(buf, b)
}

// DecodeTuple2 is the inverse of Tuple2.
func DecodeTuple2[A, B any](data View, decodeA func(View) (A, View, error), decodeB func(View) (B, View, error)) (A, B, View, error) {
	var zeroA A
	var zeroB B
	a, rest, err := decodeA(data)
	if err != nil {
		return zeroA, zeroB, nil, err
	}
	b, rest, err := decodeB(rest)
	if err != nil {
		return zeroA, zeroB, nil, err
	}
	return a, b, rest, nil
}

// Tuple3 is Tuple2 extended to three components.
func Tuple3[A, B, C any](buf *Buffer, a A, b B, c C, encodeA func(*Buffer, A), encodeB func(*Buffer, B), encodeC func(*Buffer, C)) {
	encodeA(buf, a)
	encodeB(buf, b)
	encodeC(buf, c)
}

// DecodeTuple3 is the inverse of Tuple3.
func DecodeTuple3[A, B, C any](data View, decodeA func(View) (A, View, error), decodeB func(View) (B, View, error), decodeC func(View) (C, View, error)) (A, B, C, View, error) {
	var zeroA A
	var zeroB B
	var zeroC C
	a, rest, err := decodeA(data)
	if err != nil {
		return zeroA, zeroB, zeroC, nil, err
	}
	b, rest, err := decodeB(rest)
	if err != nil {
		return zeroA, zeroB, zeroC, nil, err
	}
	c, rest, err := decodeC(rest)
	if err != nil {
		return zeroA, zeroB, zeroC, nil, err
	}
	return a, b, c, rest, nil
}
