//go:build windows

// LockFileEx/UnlockFileEx implementation of fsDirLock for Windows, guarding
// one FSRepository's lock file. Both methods run with l.mu already held by
// the exported Lock/Unlock.
package kivis

import (
	"syscall"
	"unsafe"
)

var (
	kivisKernel32    = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = kivisKernel32.NewProc("LockFileEx")
	procUnlockFileEx = kivisKernel32.NewProc("UnlockFileEx")
)

const (
	lockfileExclusiveLock   = 0x00000002
	lockfileFailImmediately = 0x00000001
)

func (l *fsDirLock) lock(mode fsLockMode) error {
	var flags uint32
	if mode == lockExclusive {
		flags |= lockfileExclusiveLock
	}

	// Blocking lock over the repository lock file's entire byte range.
	h := syscall.Handle(l.f.Fd())
	var overlapped syscall.Overlapped

	r1, _, err := procLockFileEx.Call(
		uintptr(h),
		uintptr(flags),
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}

func (l *fsDirLock) unlock() error {
	h := syscall.Handle(l.f.Fd())
	var overlapped syscall.Overlapped

	r1, _, err := procUnlockFileEx.Call(
		uintptr(h),
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}
