// Hash algorithm selection for hash-derived keys.
//
// A DeriveKey implementation can build a fixed-width primary key by hashing
// one or more of a record's fields instead of using a sequential or
// natural key. HashAlgorithm picks which of three algorithms does the
// hashing; all three hash to a uint64 so the result is still an ordinary
// order-preserving KeyType via EncodeUint64 (order over the hash itself,
// not over the hashed fields — the commonly accepted tradeoff of
// hash-derived keys).
package kivis

import (
	"hash/fnv"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm selects the hash function HashKey uses.
type HashAlgorithm int

const (
	HashXXHash3 HashAlgorithm = 1 // default, fastest
	HashFNV1a   HashAlgorithm = 2 // no external dependencies
	HashBlake2b HashAlgorithm = 3 // best distribution
)

// HashKey hashes data with alg and returns the result as a Uint64Key,
// ready to use as a table's primary key.
func HashKey(data []byte, alg HashAlgorithm) Uint64Key {
	return Uint64Key(hashBytes(data, alg))
}

func hashBytes(data []byte, alg HashAlgorithm) uint64 {
	switch alg {
	case HashFNV1a:
		h := fnv.New64a()
		h.Write(data)
		return h.Sum64()
	case HashBlake2b:
		h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
		h.Write(data)
		var sum [8]byte
		copy(sum[:], h.Sum(nil))
		return beUint64(sum)
	case HashXXHash3:
		fallthrough
	default:
		return xxh3.Hash(data)
	}
}

func beUint64(b [8]byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
