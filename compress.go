// Compression for FSRepository's retired-version history.
//
// Overwriting a key does not discard the previous value: it is Zstd
// compressed, then Ascii85-encoded to keep the sidecar history file
// newline-delimited and free of embedded NULs, and appended to a history
// file alongside the live one. historyCodec is the type that owns this:
// a FSRepository-scoped pair of encoder/decoder handles operating on the
// package's own View byte type rather than bare []byte/string, so a
// .hist entry is produced and consumed using the same vocabulary as
// every other keyed value in the package.
package kivis

import (
	"bytes"
	"encoding/ascii85"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// historyCodec holds the shared zstd encoder/decoder pair used to retire
// one value into a key's .hist sidecar. Both are safe for concurrent use
// and allocated once — construction walks internal state tables that would
// dominate the cost of compressing a single small record if repeated per
// call. SpeedFastest: retirement runs on every overwriting Insert, while
// decoding only runs on History retrieval.
type historyCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var defaultHistoryCodec = mustNewHistoryCodec()

func mustNewHistoryCodec() *historyCodec {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("kivis: building history zstd encoder: %v", err))
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("kivis: building history zstd decoder: %v", err))
	}
	return &historyCodec{enc: enc, dec: dec}
}

// encodeHistoryEntry compresses one retired record value and Ascii85-wraps
// it so the result can be appended as a single newline-delimited line to a
// .hist sidecar, free of embedded NULs and raw newlines.
func (c *historyCodec) encodeHistoryEntry(value View) string {
	if len(value) == 0 {
		return ""
	}

	compressed := c.enc.EncodeAll(value, nil)

	var line bytes.Buffer
	enc := ascii85.NewEncoder(&line)
	// bytes.Buffer.Write never errors; enc.Close flushes trailing padding.
	_, _ = enc.Write(compressed)
	_ = enc.Close()

	return line.String()
}

// decodeHistoryEntry reverses encodeHistoryEntry for one line read back
// from a .hist sidecar.
func (c *historyCodec) decodeHistoryEntry(line string) (View, error) {
	if line == "" {
		return nil, nil
	}

	dec := ascii85.NewDecoder(bytes.NewReader([]byte(line)))
	compressed, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: ascii85: %w", ErrDecompress, err)
	}

	out, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecompress, err)
	}
	return View(out), nil
}
