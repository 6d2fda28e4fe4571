// Negative-lookup filter for FSRepository. A Get for a key that was never
// inserted would otherwise cost a filesystem read just to learn the .dat
// file is absent; the filter answers "definitely absent" from memory. It
// is rebuilt from the directory listing on open and only ever grows during
// a session — removed keys stay set, which costs a file read on re-lookup
// but never a wrong answer.
package kivis

import "github.com/zeebo/xxh3"

// Sized for roughly 16k live keys at about 2% false positives.
const (
	filterBits   = 1 << 17
	filterHashes = 6
)

// presenceFilter is a bloom filter over wrapped key bytes. Both probe
// hashes come from one xxh3 128-bit pass, combined by double hashing.
type presenceFilter struct {
	bits [filterBits / 8]byte
}

func newPresenceFilter() *presenceFilter {
	return &presenceFilter{}
}

// add marks key as present.
func (f *presenceFilter) add(key View) {
	h := xxh3.Hash128(key)
	for i := uint64(0); i < filterHashes; i++ {
		pos := (h.Lo + i*h.Hi) % filterBits
		f.bits[pos/8] |= 1 << (pos % 8)
	}
}

// mightContain reports whether key may have been added. False means the
// key was definitely never added this session.
func (f *presenceFilter) mightContain(key View) bool {
	h := xxh3.Hash128(key)
	for i := uint64(0); i < filterHashes; i++ {
		pos := (h.Lo + i*h.Hi) % filterBits
		if f.bits[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}
	return true
}
