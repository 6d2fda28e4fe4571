// Transaction buffer: accumulates every key/value byte range a multi-write
// commit will touch into two shared buffers, deferring any call into the
// Repository until Commit.
//
// The buffer does not re-encode the primary key for every index entry: the
// first secondary-index entry serializes it, every later entry for the
// same record copies that byte range via Buffer.DuplicateWithin. The main
// entry encodes the key once more after the index entries.
package kivis

import "context"

type txOp struct {
	kind     OpKind
	keyEnd   int
	valueEnd int // only meaningful when kind == OpInsert
}

// Transaction accumulates pending writes and deletes. Nothing is applied to
// storage until Commit is called.
type Transaction struct {
	ops      []txOp
	keyBuf   Buffer
	valueBuf Buffer
	values   ValueCodec

	onCommit  []func()
	onDiscard []func()
}

// NewTransaction returns an empty transaction that will use codec to encode
// record bodies.
func NewTransaction(codec ValueCodec) *Transaction {
	return &Transaction{values: codec}
}

// IsEmpty reports whether any operation has been staged.
func (tx *Transaction) IsEmpty() bool { return len(tx.ops) == 0 }

// PrepareWrites stages one record's main entry and all of its secondary
// index entries for insertion under key.
func PrepareWrites[K KeyType, R Entry](tx *Transaction, scope byte, key K, rec R) error {
	ix := newIndexBuilder()
	if err := rec.IndexKeys(ix); err != nil {
		return err
	}
	entries, err := ix.entries()
	if err != nil {
		return err
	}

	var keyRangeSet bool
	var keyStart, keyEnd int
	var valRangeSet bool
	var valStart, valEnd int

	for _, e := range entries {
		encodePrelude(&tx.keyBuf, scope, Index(e.discriminator))
		tx.keyBuf.ExtendFrom(e.key)

		if keyRangeSet {
			if err := tx.keyBuf.DuplicateWithin(keyStart, keyEnd); err != nil {
				return err
			}
		} else {
			keyStart = tx.keyBuf.Len()
			key.Encode(&tx.keyBuf)
			keyEnd = tx.keyBuf.Len()
			keyRangeSet = true
		}
		opKeyEnd := tx.keyBuf.Len()

		if valRangeSet {
			if err := tx.valueBuf.DuplicateWithin(valStart, valEnd); err != nil {
				return err
			}
		} else {
			valStart = tx.valueBuf.Len()
			key.Encode(&tx.valueBuf)
			valEnd = tx.valueBuf.Len()
			valRangeSet = true
		}
		opValueEnd := tx.valueBuf.Len()

		tx.ops = append(tx.ops, txOp{kind: OpInsert, keyEnd: opKeyEnd, valueEnd: opValueEnd})
	}

	WrapMain(&tx.keyBuf, scope, key, func(b *Buffer, k K) { k.Encode(b) })
	mainKeyEnd := tx.keyBuf.Len()

	if err := tx.values.Encode(&tx.valueBuf, rec); err != nil {
		return err
	}
	mainValueEnd := tx.valueBuf.Len()

	tx.ops = append(tx.ops, txOp{kind: OpInsert, keyEnd: mainKeyEnd, valueEnd: mainValueEnd})
	return nil
}

// PrepareDeletes stages the removal of one record's main entry and all of
// its secondary index entries.
func PrepareDeletes[K KeyType, R Entry](tx *Transaction, scope byte, key K, rec R) error {
	ix := newIndexBuilder()
	if err := rec.IndexKeys(ix); err != nil {
		return err
	}
	entries, err := ix.entries()
	if err != nil {
		return err
	}

	var keyRangeSet bool
	var keyStart, keyEnd int

	for _, e := range entries {
		encodePrelude(&tx.keyBuf, scope, Index(e.discriminator))
		tx.keyBuf.ExtendFrom(e.key)

		if keyRangeSet {
			if err := tx.keyBuf.DuplicateWithin(keyStart, keyEnd); err != nil {
				return err
			}
		} else {
			keyStart = tx.keyBuf.Len()
			key.Encode(&tx.keyBuf)
			keyEnd = tx.keyBuf.Len()
			keyRangeSet = true
		}
		opKeyEnd := tx.keyBuf.Len()
		tx.ops = append(tx.ops, txOp{kind: OpDelete, keyEnd: opKeyEnd})
	}

	WrapMain(&tx.keyBuf, scope, key, func(b *Buffer, k K) { k.Encode(b) })
	mainKeyEnd := tx.keyBuf.Len()
	tx.ops = append(tx.ops, txOp{kind: OpDelete, keyEnd: mainKeyEnd})
	return nil
}

// Iter replays the staged operations as BatchOps, slicing them out of the
// shared key/value buffers.
func (tx *Transaction) Iter() ([]BatchOp, error) {
	out := make([]BatchOp, 0, len(tx.ops))
	prevKeyEnd, prevValueEnd := 0, 0
	for _, op := range tx.ops {
		key, err := tx.keyBuf.ExtractRange(prevKeyEnd, op.keyEnd)
		if err != nil {
			return nil, err
		}
		prevKeyEnd = op.keyEnd

		switch op.kind {
		case OpInsert:
			value, err := tx.valueBuf.ExtractRange(prevValueEnd, op.valueEnd)
			if err != nil {
				return nil, err
			}
			prevValueEnd = op.valueEnd
			out = append(out, BatchOp{Kind: OpInsert, Key: key, Value: value})
		case OpDelete:
			out = append(out, BatchOp{Kind: OpDelete, Key: key})
		}
	}
	return out, nil
}

// Commit applies every staged operation to repo, atomically if repo
// implements Batcher. An empty transaction is a no-op that returns no
// deleted values. Every watermark a TxPut staged against this transaction
// is promoted to committed only once BatchMixed itself succeeds; on any
// failure those watermarks are discarded instead, so a subsequent Put or
// TxPut retries from the same key rather than skipping past one that was
// never durably written.
func (tx *Transaction) Commit(ctx context.Context, repo Repository) ([]View, error) {
	if tx.IsEmpty() {
		tx.runDiscardHooks()
		return nil, nil
	}
	ops, err := tx.Iter()
	if err != nil {
		tx.runDiscardHooks()
		return nil, err
	}
	deleted, err := BatchMixed(ctx, repo, ops)
	if err != nil {
		tx.runDiscardHooks()
		return nil, &storageError{err: err}
	}
	tx.runCommitHooks()
	return deleted, nil
}

// Rollback discards every staged operation, including any watermark a
// TxPut staged against this transaction. Since Transaction holds no
// storage handle, discarding the ops themselves is equivalent to simply not
// calling Commit; Rollback exists for callers that want an explicit,
// readable no-op symmetric with Commit, and to put staged watermarks back.
func (tx *Transaction) Rollback() {
	tx.runDiscardHooks()
	tx.ops = nil
	tx.keyBuf = Buffer{}
	tx.valueBuf = Buffer{}
}

func (tx *Transaction) runCommitHooks() {
	for _, f := range tx.onCommit {
		f()
	}
	tx.onCommit = nil
	tx.onDiscard = nil
}

func (tx *Transaction) runDiscardHooks() {
	for _, f := range tx.onDiscard {
		f()
	}
	tx.onCommit = nil
	tx.onDiscard = nil
}

type storageError struct{ err error }

func (e *storageError) Error() string { return "kivis: batch commit failed: " + e.err.Error() }
func (e *storageError) Unwrap() error { return ErrStorage }
func (e *storageError) Cause() error  { return e.err }
