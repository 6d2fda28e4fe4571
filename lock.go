// OS-level locking for one FSRepository's root directory.
//
// fsDirLock wraps flock(2) / LockFileEx around the repository's lock file
// (".lock" in the directory passed to OpenFSRepository) with a mutex that
// guards the handle's lifetime. The mutex is held for the entire duration
// of the flock syscall so that Fd() cannot race with close() on the same
// *os.File. This is the cross-process half of FSRepository's concurrency
// story — the cond/atomic state machine in fsrepo.go only coordinates
// goroutines within one process; two separate processes pointed at the
// same directory still need an OS-level lock to serialize their
// Insert/Remove calls.
//
// FSRepository.Close uses close(), which blocks until any in-flight flock
// completes, then closes the handle and makes subsequent lock/unlock
// calls no-ops.
package kivis

import (
	"os"
	"sync"
)

// fsLockMode selects shared (read) or exclusive (write) locking for a
// fsDirLock.
type fsLockMode int

const (
	lockShared fsLockMode = iota
	lockExclusive
)

// fsDirLock coordinates one FSRepository's cross-process directory lock
// with safe handle teardown. mu serialises flock syscalls against close()
// so a concurrent Close cannot invalidate the fd mid-syscall.
type fsDirLock struct {
	mu sync.Mutex
	f  *os.File
}

// Lock acquires a shared or exclusive flock on the repository's lock file.
// Returns nil immediately if the handle has been cleared by close().
func (l *fsDirLock) Lock(mode fsLockMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.lock(mode)
}

// Unlock releases the flock. Returns nil immediately if the handle
// has been cleared by close().
func (l *fsDirLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.unlock()
}

// close drains any in-flight flock (blocks until the mutex is available),
// closes the lock-file handle, and disables further locking.
func (l *fsDirLock) close() error {
	l.mu.Lock()
	f := l.f
	l.f = nil
	l.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}
