// historyCodec tests.
package kivis

import "testing"

// TestHistoryCodecRoundTrip verifies encodeHistoryEntry/decodeHistoryEntry
// recover the original value, including the empty-value shorthand used for
// an empty line in a .hist sidecar.
func TestHistoryCodecRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte(""),
		[]byte("a"),
		[]byte(`{"name":"Ann","age":30}`),
	}
	for _, want := range cases {
		line := defaultHistoryCodec.encodeHistoryEntry(View(want))
		got, err := defaultHistoryCodec.decodeHistoryEntry(line)
		if err != nil {
			t.Fatalf("decodeHistoryEntry(%q): %v", line, err)
		}
		if len(want) == 0 && len(got) != 0 {
			t.Fatalf("round trip of empty value = %q, want empty", got)
		}
		if len(want) != 0 && string(got) != string(want) {
			t.Fatalf("round trip = %q, want %q", got, want)
		}
	}
}

// TestHistoryCodecDecodeRejectsGarbage verifies a malformed Ascii85 line
// reports ErrDecompress rather than panicking or silently truncating.
func TestHistoryCodecDecodeRejectsGarbage(t *testing.T) {
	_, err := defaultHistoryCodec.decodeHistoryEntry("not valid ascii85 zstd data!!")
	if err == nil {
		t.Fatal("decodeHistoryEntry(garbage) = nil error, want ErrDecompress")
	}
}
