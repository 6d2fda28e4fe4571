// The minimal ordered key-value contract every storage backend implements.
package kivis

import "context"

// OpKind distinguishes the two kinds of operation a batch can contain.
type OpKind uint8

const (
	OpInsert OpKind = iota
	OpDelete
)

// BatchOp is one operation inside a transaction commit.
type BatchOp struct {
	Kind  OpKind
	Key   View
	Value View // unused when Kind == OpDelete
}

// ScanIterator yields key/value pairs in reverse lexicographic order over a
// half-open byte range. Callers must exhaust or explicitly stop consuming
// before discarding it; backends that hold OS resources (file handles)
// release them once Next returns ok == false or an error.
type ScanIterator interface {
	// Next advances the iterator. ok is false once the range is exhausted;
	// a non-nil error takes priority and ends iteration regardless of ok.
	Next() (key, value View, ok bool, err error)
	Close() error
}

// Repository is the minimal ordered key-value backend every Database sits
// on top of. Implementations are free to be in-memory, file-backed, or
// remote; the only contractual requirement beyond plain CRUD is that Scan
// returns entries in reverse lexicographic key order, matching the layout
// wrap.go relies on to turn typed range queries into contiguous byte
// ranges.
type Repository interface {
	Insert(ctx context.Context, key, value View) error
	Get(ctx context.Context, key View) (value View, ok bool, err error)
	Remove(ctx context.Context, key View) (prior View, ok bool, err error)

	// Scan returns an iterator over [start, end) in reverse lexicographic
	// order.
	Scan(ctx context.Context, start, end View) (ScanIterator, error)
}

// Batcher is implemented by backends that can apply a batch of writes and
// deletes atomically. Backends without a native transaction mechanism fall
// back to SequentialBatch.
type Batcher interface {
	BatchMixed(ctx context.Context, ops []BatchOp) (deleted []View, err error)
}

// SequentialBatch applies ops one at a time against repo: every Insert is
// applied first in order, then every Delete, collecting the prior value of
// each deleted key that existed (a delete of an absent key adds nothing to
// the returned list). It is the fallback for
// backends with no native transaction mechanism — best-effort, not
// all-or-nothing: a failure partway through leaves earlier operations
// applied.
func SequentialBatch(ctx context.Context, repo Repository, ops []BatchOp) ([]View, error) {
	deleted := make([]View, 0, len(ops))
	for _, op := range ops {
		if op.Kind != OpInsert {
			continue
		}
		if err := repo.Insert(ctx, op.Key, op.Value); err != nil {
			return nil, err
		}
	}
	for _, op := range ops {
		if op.Kind != OpDelete {
			continue
		}
		prior, ok, err := repo.Remove(ctx, op.Key)
		if err != nil {
			return nil, err
		}
		if ok {
			deleted = append(deleted, prior)
		}
	}
	return deleted, nil
}

// BatchMixed applies ops against repo atomically if it implements Batcher,
// falling back to SequentialBatch otherwise.
func BatchMixed(ctx context.Context, repo Repository, ops []BatchOp) ([]View, error) {
	if b, ok := repo.(Batcher); ok {
		return b.BatchMixed(ctx, ops)
	}
	return SequentialBatch(ctx, repo, ops)
}

// collectViews drains a ScanIterator into two parallel slices. Intended for
// tests and small administrative scans; production scan paths should
// consume the iterator directly.
func collectViews(it ScanIterator) (keys, values []View, err error) {
	defer it.Close()
	for {
		k, v, ok, err := it.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return keys, values, nil
		}
		keys = append(keys, k)
		values = append(values, v)
	}
}
