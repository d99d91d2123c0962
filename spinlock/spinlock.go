// Package spinlock is a busy-waiting mutual-exclusion lock. Unlike
// sync.Mutex's documented use, a Spinlock is routinely released by a
// different thread than the one that acquired it: the process table
// lock is handed across context switches.
package spinlock

import (
	"runtime"
	"sync/atomic"

	db "armos/debug"
)

type Spinlock struct {
	name   string
	locked atomic.Bool
}

func NewSpinlock(name string) *Spinlock {
	return &Spinlock{name: name}
}

func (lk *Spinlock) Init(name string) {
	lk.name = name
}

func (lk *Spinlock) Lock() {
	for !lk.locked.CompareAndSwap(false, true) {
		// Let the holder, which may be a descheduled goroutine, run.
		runtime.Gosched()
	}
}

func (lk *Spinlock) TryLock() bool {
	return lk.locked.CompareAndSwap(false, true)
}

func (lk *Spinlock) Unlock() {
	if !lk.locked.CompareAndSwap(true, false) {
		db.DFatalf("release %v: not held", lk.name)
	}
}

// Holding reports whether the lock is held by anyone.
func (lk *Spinlock) Holding() bool {
	return lk.locked.Load()
}

func (lk *Spinlock) String() string {
	return lk.name
}
