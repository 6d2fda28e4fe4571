// In-memory Repository, the reference backend used by tests and by
// callers with no durability requirement. Built on google/btree since Go
// has no ordered standard-library map.
package kivis

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
)

type kvPair struct {
	key, value []byte
}

func kvLess(a, b kvPair) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// MemoryRepository is a Repository backed by an ordered in-memory tree.
// Safe for concurrent use.
type MemoryRepository struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[kvPair]
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tree: btree.NewG(32, kvLess)}
}

// Insert implements Repository.
func (m *MemoryRepository) Insert(_ context.Context, key, value View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.ReplaceOrInsert(kvPair{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

// Get implements Repository.
func (m *MemoryRepository) Get(_ context.Context, key View) (View, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.tree.Get(kvPair{key: []byte(key)})
	if !ok {
		return nil, false, nil
	}
	return View(item.value), true, nil
}

// Remove implements Repository.
func (m *MemoryRepository) Remove(_ context.Context, key View) (View, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.tree.Delete(kvPair{key: []byte(key)})
	if !ok {
		return nil, false, nil
	}
	return View(item.value), true, nil
}

// Scan implements Repository, yielding entries within [start, end) in
// reverse lexicographic order.
func (m *MemoryRepository) Scan(_ context.Context, start, end View) (ScanIterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pairs []kvPair
	m.tree.AscendRange(kvPair{key: []byte(start)}, kvPair{key: []byte(end)}, func(item kvPair) bool {
		pairs = append(pairs, item)
		return true
	})
	// AscendRange visits ascending; the Repository contract requires
	// descending (reverse lexicographic) order, so reverse in place.
	for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	return &memoryIterator{pairs: pairs}, nil
}

// BatchMixed implements Batcher: the in-memory tree needs no external
// transaction mechanism, so every operation is applied under a single
// lock, making the whole batch appear atomic to other Scan/Get/Insert
// callers.
func (m *MemoryRepository) BatchMixed(_ context.Context, ops []BatchOp) ([]View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []View
	for _, op := range ops {
		switch op.Kind {
		case OpInsert:
			m.tree.ReplaceOrInsert(kvPair{key: append([]byte(nil), op.Key...), value: append([]byte(nil), op.Value...)})
		case OpDelete:
			if item, ok := m.tree.Delete(kvPair{key: []byte(op.Key)}); ok {
				deleted = append(deleted, View(item.value))
			}
		}
	}
	return deleted, nil
}

type memoryIterator struct {
	pairs []kvPair
	pos   int
}

func (it *memoryIterator) Next() (View, View, bool, error) {
	if it.pos >= len(it.pairs) {
		return nil, nil, false, nil
	}
	p := it.pairs[it.pos]
	it.pos++
	return View(p.key), View(p.value), true, nil
}

func (it *memoryIterator) Close() error { return nil }
