// Table is the compile-time description of one record type: its scope
// byte (assigned by Manifest in registration order), how to decode its
// primary key, how to derive a key from a record when one is not supplied
// explicitly, and the auto-increment watermark used by Put.
package kivis

import "context"

// Table describes one record type's key shape and wiring. Construct it
// with NewTable and register every table a Database uses with NewManifest,
// in a fixed order — that order becomes each table's SCOPE byte and must
// stay stable across deployments for existing keys to keep their meaning.
type Table[K KeyType, R Entry] struct {
	name      string
	decodeKey func(View) (K, View, error)
	deriveKey func(R) K

	theScope byte
	last     *K
	staged   *K // tentative watermark advance from a TxPut not yet committed
}

// NewTable constructs a table descriptor. decodeKey must be the exact
// inverse of K's Encode method. deriveKey may be nil for tables that are
// only ever written through Put (auto-increment) or through Insert with an
// explicitly supplied key.
func NewTable[K KeyType, R Entry](name string, decodeKey func(View) (K, View, error), deriveKey func(R) K) *Table[K, R] {
	return &Table[K, R]{name: name, decodeKey: decodeKey, deriveKey: deriveKey}
}

// Scope returns the table's assigned SCOPE byte. Only meaningful after the
// table has been registered with a Manifest.
func (t *Table[K, R]) Scope() byte { return t.theScope }

func (t *Table[K, R]) setScope(s byte) { t.theScope = s }

func (t *Table[K, R]) scope() byte { return t.theScope }

// watermarkBase returns the key a pending TxPut should increment from: a
// still-uncommitted staged value if one exists, otherwise the last
// committed watermark.
func (t *Table[K, R]) watermarkBase() *K {
	if t.staged != nil {
		return t.staged
	}
	return t.last
}

// stageWatermark records k as a tentative watermark advance, pending the
// owning transaction's commit.
func (t *Table[K, R]) stageWatermark(k K) { t.staged = &k }

// commitWatermark promotes a staged watermark to the committed one. Called
// only after the transaction that staged it has committed successfully.
func (t *Table[K, R]) commitWatermark() {
	if t.staged != nil {
		t.last = t.staged
		t.staged = nil
	}
}

// discardWatermark drops a staged watermark without touching the committed
// one. Called when the transaction that staged it fails to commit or is
// rolled back, so the next TxPut retries from the same committed base
// instead of skipping past a key that was never durably written.
func (t *Table[K, R]) discardWatermark() { t.staged = nil }

// mainRange returns the half-open byte range covering every primary
// record in this table.
func (t *Table[K, R]) mainRange() (start, end []byte) {
	return SubtableBound(t.theScope, Main())
}

// indexRange returns the half-open byte range covering every entry in the
// secondary index identified by discriminator.
func (t *Table[K, R]) indexRange(discriminator uint8) (start, end []byte) {
	return SubtableBound(t.theScope, Index(discriminator))
}

// loadWatermark scans the table's Main subtable in (backend-guaranteed)
// reverse key order and decodes the first entry found as the current
// auto-increment high-water mark. A table with no rows yet leaves the
// watermark unset, so the next Put starts from K's zero value.
func (t *Table[K, R]) loadWatermark(ctx context.Context, storage *Storage) error {
	start, end := t.mainRange()
	it, err := storage.Repo.Scan(ctx, start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	key, _, ok, err := it.Next()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	scope, sub, payload, err := decodePrelude(key)
	if err != nil {
		return err
	}
	if sub.tag != subtableMain {
		return &UnexpectedScopeInIndexError{Want: t.theScope, Got: scope}
	}
	k, _, err := t.decodeKey(payload)
	if err != nil {
		return err
	}
	t.last = &k
	return nil
}

// tableDescriptor is the type-erased view of a Table the Manifest needs in
// order to assign scopes and load watermarks without knowing K or R.
type tableDescriptor interface {
	setScope(byte)
	scope() byte
	loadWatermark(ctx context.Context, storage *Storage) error
}
