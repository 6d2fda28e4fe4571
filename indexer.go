// IndexBuilder accumulates a record's secondary-index entries during
// PrepareWrites/PrepareDeletes.
//
// Each call to Add appends one index entry's encoded bytes to a shared
// buffer and remembers where that entry ends; entries then replays the
// buffer as a sequence of (discriminator, byte range) pairs in the order
// Add was called, discriminator assigned 0, 1, 2... matching an index's
// position among the ones the record type declares in its IndexKeys
// method.
package kivis

// IndexBuilder is the accumulator passed to Entry.IndexKeys.
type IndexBuilder struct {
	buf  Buffer
	ends []int
}

// newIndexBuilder returns an empty builder.
func newIndexBuilder() *IndexBuilder {
	return &IndexBuilder{}
}

// Add encodes one secondary-index entry by invoking encode with the
// builder's internal buffer, then records the encoded range's end offset.
// Call Add once per secondary index, in the same order every time for a
// given record type — the order determines each entry's discriminator.
func (ix *IndexBuilder) Add(encode func(buf *Buffer) error) error {
	if err := encode(&ix.buf); err != nil {
		return err
	}
	ix.ends = append(ix.ends, ix.buf.Len())
	return nil
}

// entries replays the accumulated buffer, yielding each index entry's
// discriminator and its encoded View.
func (ix *IndexBuilder) entries() ([]indexEntry, error) {
	out := make([]indexEntry, 0, len(ix.ends))
	start := 0
	for i, end := range ix.ends {
		v, err := ix.buf.ExtractRange(start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, indexEntry{discriminator: uint8(i), key: v})
		start = end
	}
	return out, nil
}

type indexEntry struct {
	discriminator uint8
	key           View
}
