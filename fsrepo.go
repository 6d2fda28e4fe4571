// FSRepository is a directory-of-files Repository: each key becomes a file
// named by the hex encoding of its bytes, with a .dat suffix. Overwriting
// or removing a key does not discard the previous value: it is
// Zstd-compressed, Ascii85-encoded, and appended to a sibling .hist file
// first, so prior versions stay recoverable through History.
//
// Directory access goes through os.Root, keeping every file operation
// confined under the repository's root regardless of what bytes end up in
// a key. A state field plus sync.Cond gate readers and writers around
// Compact.
package kivis

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// fsState values, mirroring the normal/compacting/closed phases a
// single-file store's own state field tracks.
const (
	fsStateOpen       = 0
	fsStateCompacting = 1
	fsStateClosed     = 2
)

// FSRepository implements Repository over a directory of per-key files.
type FSRepository struct {
	dir    string
	root   *os.Root
	lock   *fsDirLock
	filter *presenceFilter

	state atomic.Int32
	cond  *sync.Cond
	mu    sync.RWMutex
}

// OpenFSRepository opens (creating if needed) a directory-backed
// repository rooted at dir.
func OpenFSRepository(dir string) (*FSRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}

	lockFile, err := root.OpenFile(".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		root.Close()
		return nil, err
	}

	fs := &FSRepository{
		dir:    dir,
		root:   root,
		lock:   &fsDirLock{f: lockFile},
		filter: newPresenceFilter(),
		cond:   sync.NewCond(&sync.Mutex{}),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		root.Close()
		return nil, err
	}
	for _, e := range entries {
		if key, ok := keyFromDatFilename(e.Name()); ok {
			fs.filter.add(key)
		}
	}

	return fs, nil
}

// Close releases the repository's lock file handle.
func (fs *FSRepository) Close() error {
	fs.cond.L.Lock()
	fs.state.Store(fsStateClosed)
	fs.cond.Broadcast()
	fs.cond.L.Unlock()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.lock.close(); err != nil {
		fs.root.Close()
		return err
	}
	return fs.root.Close()
}

// blockWrite waits until the repository is neither compacting nor closed,
// then reports whether it is safe to proceed (false if closed).
func (fs *FSRepository) blockWrite() bool {
	fs.cond.L.Lock()
	defer fs.cond.L.Unlock()
	for fs.state.Load() == fsStateCompacting {
		fs.cond.Wait()
	}
	return fs.state.Load() != fsStateClosed
}

func datName(key []byte) string  { return hex.EncodeToString(key) + ".dat" }
func histName(key []byte) string { return hex.EncodeToString(key) + ".hist" }

func keyFromDatFilename(name string) ([]byte, bool) {
	if !strings.HasSuffix(name, ".dat") {
		return nil, false
	}
	key, err := hex.DecodeString(strings.TrimSuffix(name, ".dat"))
	if err != nil {
		return nil, false
	}
	return key, true
}

// Insert implements Repository. If key already has a value on disk, that
// value is retired into the history sidecar before being overwritten.
func (fs *FSRepository) Insert(_ context.Context, key, value View) error {
	if !fs.blockWrite() {
		return ErrClosed
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.lock.Lock(lockExclusive); err != nil {
		return err
	}
	defer fs.lock.Unlock()

	if prior, err := fs.root.ReadFile(datName(key)); err == nil {
		if err := fs.appendHistory(key, prior); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := fs.root.WriteFile(datName(key), value, 0o644); err != nil {
		return err
	}
	fs.filter.add(key)
	return nil
}

// Get implements Repository. A presence-filter miss short-circuits to
// "not found" without touching the filesystem.
func (fs *FSRepository) Get(_ context.Context, key View) (View, bool, error) {
	if !fs.filter.mightContain(key) {
		return nil, false, nil
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := fs.root.ReadFile(datName(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return View(data), true, nil
}

// Remove implements Repository. The removed value is retired into history
// before the live file is deleted, so History still recovers it.
func (fs *FSRepository) Remove(_ context.Context, key View) (View, bool, error) {
	if !fs.blockWrite() {
		return nil, false, ErrClosed
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.lock.Lock(lockExclusive); err != nil {
		return nil, false, err
	}
	defer fs.lock.Unlock()

	data, err := fs.root.ReadFile(datName(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := fs.appendHistory(key, data); err != nil {
		return nil, false, err
	}
	if err := fs.root.Remove(datName(key)); err != nil {
		return nil, false, err
	}
	return View(data), true, nil
}

// Scan implements Repository by listing every .dat file, filtering to
// [start, end), and returning them in reverse lexicographic key order.
// This backend trades scan cost for simplicity: there is no persistent
// ordered index, so every Scan pays a full directory listing.
func (fs *FSRepository) Scan(_ context.Context, start, end View) (ScanIterator, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, err
	}

	var pairs []struct{ key, value []byte }
	for _, e := range entries {
		key, ok := keyFromDatFilename(e.Name())
		if !ok {
			continue
		}
		if bytes.Compare(key, start) < 0 || bytes.Compare(key, end) >= 0 {
			continue
		}
		data, err := fs.root.ReadFile(datName(key))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		pairs = append(pairs, struct{ key, value []byte }{key: key, value: data})
	}

	sort.Slice(pairs, func(i, j int) bool { return bytes.Compare(pairs[i].key, pairs[j].key) > 0 })

	it := &fsIterator{pairs: pairs}
	return it, nil
}

type fsIterator struct {
	pairs []struct{ key, value []byte }
	pos   int
}

func (it *fsIterator) Next() (View, View, bool, error) {
	if it.pos >= len(it.pairs) {
		return nil, nil, false, nil
	}
	p := it.pairs[it.pos]
	it.pos++
	return View(p.key), View(p.value), true, nil
}

func (it *fsIterator) Close() error { return nil }

// appendHistory compresses value and appends it, newline-terminated, to
// key's .hist sidecar.
func (fs *FSRepository) appendHistory(key, value []byte) error {
	encoded := defaultHistoryCodec.encodeHistoryEntry(View(value))
	f, err := fs.root.OpenFile(histName(key), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, encoded)
	return err
}

// History returns every retired value for key, oldest first.
func (fs *FSRepository) History(key []byte) ([][]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := fs.root.ReadFile(histName(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, nil
	}

	// One line per retired value; an empty line is a retired empty value.
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	out := make([][]byte, 0, len(lines))
	for _, line := range lines {
		decoded, err := defaultHistoryCodec.decodeHistoryEntry(line)
		if err != nil {
			return nil, err
		}
		out = append(out, []byte(decoded))
	}
	return out, nil
}

// Compact blocks new writes, purges every .hist sidecar whose .dat file no
// longer exists (keys that were overwritten and later removed entirely),
// then resumes normal operation. This is backend-local housekeeping, not
// the core key-space compaction the package's Non-goals exclude.
func (fs *FSRepository) Compact() error {
	fs.cond.L.Lock()
	if fs.state.Load() == fsStateClosed {
		fs.cond.L.Unlock()
		return ErrClosed
	}
	fs.state.Store(fsStateCompacting)
	fs.cond.L.Unlock()

	defer func() {
		fs.cond.L.Lock()
		fs.state.Store(fsStateOpen)
		fs.cond.Broadcast()
		fs.cond.L.Unlock()
	}()

	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".hist") {
			continue
		}
		keyHex := strings.TrimSuffix(e.Name(), ".hist")
		if _, err := fs.root.Stat(keyHex + ".dat"); os.IsNotExist(err) {
			if err := fs.root.Remove(e.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}
