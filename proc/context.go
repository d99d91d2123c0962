package proc

import (
	"runtime"

	db "armos/debug"
)

//
// A Context is a suspended kernel thread: a process's, or a CPU's
// scheduler. swtch is the only way to suspend one and resume another,
// and it has two callers: Scheduler, switching into a process, and
// sched, switching from a process back to its CPU's scheduler.
//

type Context struct {
	name  string
	entry func() // where the thread starts; nil once started
	wake  chan struct{}
	dead  chan struct{}
}

func newContext(name string, entry func()) *Context {
	return &Context{
		name:  name,
		entry: entry,
		wake:  make(chan struct{}, 1),
		dead:  make(chan struct{}),
	}
}

func (c *Context) String() string {
	return c.name
}

// resume lets c's thread run; the first resume starts it at its entry
// point.
func (c *Context) resume() {
	if c.entry != nil {
		f := c.entry
		c.entry = nil
		go f()
		return
	}
	c.wake <- struct{}{}
}

// suspend blocks the calling thread until c is resumed. If c is
// retired instead, the thread ends here.
func (c *Context) suspend() {
	select {
	case <-c.wake:
	case <-c.dead:
		db.DPrintf(db.SWTCH, "retired %v", c)
		runtime.Goexit()
	}
}

// retire ends the thread suspended in c, e.g. when its process's
// kernel stack is reclaimed.
func (c *Context) retire() {
	close(c.dead)
}

// swtch saves the calling thread in old and runs new. It returns when
// someone switches back to old. Whatever locks the caller holds are
// handed to new.
func swtch(old, new *Context) {
	db.DPrintf(db.SWTCH, "swtch %v -> %v", old, new)
	new.resume()
	old.suspend()
}
