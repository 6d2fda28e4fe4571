// Database is the typed façade over a Storage: Put/Insert/Get/Remove for
// single records, index scans, and multi-record transactions.
package kivis

import (
	"context"
	"fmt"
	"iter"
)

// Database ties a Storage to the Manifest describing every table it holds.
type Database struct {
	Storage  *Storage
	Manifest *Manifest
}

// Open loads manifest's watermarks from storage and returns a ready
// Database. Call this once at process start. Database, Table and
// Transaction take no locks (table watermarks and transaction buffers are
// updated in place), so they are not safe for unsynchronized concurrent
// use, matching the single-writer model this package targets.
func Open(ctx context.Context, storage *Storage, manifest *Manifest) (*Database, error) {
	if err := manifest.Load(ctx, storage); err != nil {
		return nil, err
	}
	return &Database{Storage: storage, Manifest: manifest}, nil
}

// MainEntry is one decoded row yielded by IterMain.
type MainEntry[K any, R any] struct {
	Key    K
	Record R
}

// Put inserts rec under the next auto-increment key for t. The watermark
// only advances once the write is durably committed; a failed commit
// leaves t free to retry the same key on the next Put, per the no-watermark-
// update-on-failure contract.
func Put[K AutoKey[K], R Entry](ctx context.Context, db *Database, t *Table[K, R], rec R) (K, error) {
	var zero K
	tx := NewTransaction(db.Storage.Values)
	key, err := TxPut(tx, t, rec)
	if err != nil {
		return zero, err
	}
	if _, err := tx.Commit(ctx, db.Storage.Repo); err != nil {
		return zero, err
	}
	return key, nil
}

// Insert writes rec under the explicit key, along with every secondary
// index entry rec.IndexKeys reports.
func Insert[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], key K, rec R) error {
	tx := NewTransaction(db.Storage.Values)
	if err := TxInsert(tx, t, key, rec); err != nil {
		return err
	}
	_, err := tx.Commit(ctx, db.Storage.Repo)
	return err
}

// InsertDerived computes the record's key via t's registered derive
// function and inserts it, returning the derived key.
func InsertDerived[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], rec R) (K, error) {
	var zero K
	if t.deriveKey == nil {
		return zero, fmt.Errorf("%w: table %q has no derive-key function registered", ErrInternal, t.name)
	}
	key := t.deriveKey(rec)
	return key, Insert(ctx, db, t, key, rec)
}

// Get fetches the record stored under key, if any.
func Get[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], key K) (R, bool, error) {
	var zero R
	buf := NewBuffer()
	WrapMain(buf, t.Scope(), key, func(b *Buffer, k K) { k.Encode(b) })

	v, ok, err := db.Storage.Repo.Get(ctx, buf.Bytes())
	if err != nil || !ok {
		return zero, ok, err
	}

	var rec R
	if err := db.Storage.Values.Decode(v, &rec); err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

// Remove deletes the record stored under key. rec must be the record
// currently stored there (e.g. from a prior Get) so its secondary index
// entries can be located and removed too; use RemoveByKey when the caller
// does not already have it in hand.
func Remove[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], key K, rec R) error {
	tx := NewTransaction(db.Storage.Values)
	if err := TxRemove(tx, t, key, rec); err != nil {
		return err
	}
	_, err := tx.Commit(ctx, db.Storage.Repo)
	return err
}

// RemoveByKey fetches the record at key and removes it, reporting whether
// it existed.
func RemoveByKey[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], key K) (R, bool, error) {
	rec, ok, err := Get(ctx, db, t, key)
	if err != nil || !ok {
		return rec, ok, err
	}
	return rec, true, Remove(ctx, db, t, key, rec)
}

// IterMain walks every record in t's Main subtable in reverse key order.
func IterMain[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R]) iter.Seq2[MainEntry[K, R], error] {
	return func(yield func(MainEntry[K, R], error) bool) {
		start, end := t.mainRange()
		it, err := db.Storage.Repo.Scan(ctx, start, end)
		if err != nil {
			yield(MainEntry[K, R]{}, err)
			return
		}
		defer it.Close()

		for {
			k, v, ok, err := it.Next()
			if err != nil {
				yield(MainEntry[K, R]{}, err)
				return
			}
			if !ok {
				return
			}

			_, sub, payload, err := decodePrelude(k)
			if err != nil {
				if !yield(MainEntry[K, R]{}, err) {
					return
				}
				continue
			}
			if sub.tag != subtableMain {
				continue
			}

			key, _, err := t.decodeKey(payload)
			if err != nil {
				if !yield(MainEntry[K, R]{}, err) {
					return
				}
				continue
			}

			var rec R
			if err := db.Storage.Values.Decode(v, &rec); err != nil {
				if !yield(MainEntry[K, R]{}, err) {
					return
				}
				continue
			}

			if !yield(MainEntry[K, R]{Key: key, Record: rec}, nil) {
				return
			}
		}
	}
}

// ScanIndexExact returns every primary key whose secondary index entry
// (identified by discriminator) equals the bytes produced by encoding
// indexKey with encode.
func ScanIndexExact[K KeyType, R Entry, IK any](ctx context.Context, db *Database, t *Table[K, R], discriminator uint8, indexKey IK, encode func(*Buffer, IK)) ([]K, error) {
	start, end := indexExactBounds(t.Scope(), discriminator, indexKey, encode)
	return scanIndexKeys(ctx, db, t, start, end)
}

// ScanIndexRange returns every primary key whose secondary index entry
// (identified by discriminator) falls in the half-open range
// [lowerSuffix, upperSuffix) appended after the index's own prelude.
func ScanIndexRange[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], discriminator uint8, lowerSuffix, upperSuffix []byte) ([]K, error) {
	start, end := indexRangeBounds(t.Scope(), discriminator, lowerSuffix, upperSuffix)
	return scanIndexKeys(ctx, db, t, start, end)
}

// IterIndexExact is the verifying counterpart to ScanIndexExact: for every
// matching index entry it also fetches and decodes the referenced record,
// reporting MissingIndexEntryError for an entry whose primary key has no
// corresponding record in the Main subtable. Writes keep index and record
// in one atomic batch, so a dangling entry means corruption or a bug; it
// surfaces as a per-item scan error rather than being silently skipped.
func IterIndexExact[K KeyType, R Entry, IK any](ctx context.Context, db *Database, t *Table[K, R], discriminator uint8, indexKey IK, encode func(*Buffer, IK)) iter.Seq2[MainEntry[K, R], error] {
	start, end := indexExactBounds(t.Scope(), discriminator, indexKey, encode)
	return iterIndexEntries(ctx, db, t, start, end)
}

// IterIndexRange is the verifying counterpart to ScanIndexRange; see
// IterIndexExact.
func IterIndexRange[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], discriminator uint8, lowerSuffix, upperSuffix []byte) iter.Seq2[MainEntry[K, R], error] {
	start, end := indexRangeBounds(t.Scope(), discriminator, lowerSuffix, upperSuffix)
	return iterIndexEntries(ctx, db, t, start, end)
}

func indexExactBounds[IK any](scope byte, discriminator uint8, indexKey IK, encode func(*Buffer, IK)) (start, end []byte) {
	prelude := NewBuffer()
	WrapIndexPrelude(prelude, scope, discriminator)

	lower := prelude.Clone()
	encode(lower, indexKey)
	upper := lower.Clone()
	upper.Next()
	return lower.Bytes(), upper.Bytes()
}

func indexRangeBounds(scope byte, discriminator uint8, lowerSuffix, upperSuffix []byte) (start, end []byte) {
	prelude := NewBuffer()
	WrapIndexPrelude(prelude, scope, discriminator)

	lower := prelude.Clone()
	lower.ExtendFrom(lowerSuffix)
	upper := prelude.Clone()
	upper.ExtendFrom(upperSuffix)
	return lower.Bytes(), upper.Bytes()
}

func scanIndexKeys[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], start, end []byte) ([]K, error) {
	it, err := db.Storage.Repo.Scan(ctx, start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []K
	for {
		_, v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		key, _, err := t.decodeKey(v)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
}

func iterIndexEntries[K KeyType, R Entry](ctx context.Context, db *Database, t *Table[K, R], start, end []byte) iter.Seq2[MainEntry[K, R], error] {
	return func(yield func(MainEntry[K, R], error) bool) {
		it, err := db.Storage.Repo.Scan(ctx, start, end)
		if err != nil {
			yield(MainEntry[K, R]{}, err)
			return
		}
		defer it.Close()

		for {
			_, v, ok, err := it.Next()
			if err != nil {
				yield(MainEntry[K, R]{}, err)
				return
			}
			if !ok {
				return
			}

			key, _, err := t.decodeKey(v)
			if err != nil {
				if !yield(MainEntry[K, R]{}, err) {
					return
				}
				continue
			}

			rec, found, err := Get(ctx, db, t, key)
			if err != nil {
				if !yield(MainEntry[K, R]{}, err) {
					return
				}
				continue
			}
			if !found {
				if !yield(MainEntry[K, R]{}, &MissingIndexEntryError{Key: View(v)}) {
					return
				}
				continue
			}

			if !yield(MainEntry[K, R]{Key: key, Record: rec}, nil) {
				return
			}
		}
	}
}

// TxPut stages rec for insertion under t's next auto-increment key within
// tx, without committing. The returned key accounts for any earlier TxPut
// against t staged in the same (still-uncommitted) tx, so two calls in a
// row within one transaction return consecutive keys. The watermark itself
// is only staged here; it is promoted to committed by tx.Commit on success,
// or discarded (leaving t free to reuse the same key) on failure or
// Rollback — see Table.commitWatermark / discardWatermark.
func TxPut[K AutoKey[K], R Entry](tx *Transaction, t *Table[K, R], rec R) (K, error) {
	var zero K
	var newKey K
	if base := t.watermarkBase(); base != nil {
		next, ok := (*base).NextID()
		if !ok {
			return zero, ErrFailedToIncrement
		}
		newKey = next
	}
	if err := PrepareWrites(tx, t.Scope(), newKey, rec); err != nil {
		return zero, err
	}
	t.stageWatermark(newKey)
	tx.onCommit = append(tx.onCommit, t.commitWatermark)
	tx.onDiscard = append(tx.onDiscard, t.discardWatermark)
	return newKey, nil
}

// TxInsert stages rec for insertion under the explicit key within tx.
func TxInsert[K KeyType, R Entry](tx *Transaction, t *Table[K, R], key K, rec R) error {
	return PrepareWrites(tx, t.Scope(), key, rec)
}

// TxRemove stages the removal of key (and rec's index entries) within tx.
func TxRemove[K KeyType, R Entry](tx *Transaction, t *Table[K, R], key K, rec R) error {
	return PrepareDeletes(tx, t.Scope(), key, rec)
}

// CreateTransaction returns a new empty Transaction bound to db's value
// codec.
func (db *Database) CreateTransaction() *Transaction {
	return NewTransaction(db.Storage.Values)
}

// CommitTransaction applies tx to db's repository.
func (db *Database) CommitTransaction(ctx context.Context, tx *Transaction) ([]View, error) {
	return tx.Commit(ctx, db.Storage.Repo)
}
