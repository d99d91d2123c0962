package proc

import (
	"runtime"

	db "armos/debug"
)

// Scheduler is CPU c's scheduler loop; the calling goroutine becomes
// c's scheduler thread. It repeatedly picks a RUNNABLE process, marks
// it RUNNING, installs its page table and switches to it. The process
// switches back by calling sched. Scheduler returns once the table is
// halted.
func (t *Ptable) Scheduler(c *Cpu) {
	db.DPrintf(db.SCHED, "%v: start", c)
	c.proc = nil
	for !t.halted.Load() {
		found := false
		t.lock.Lock()
		for i := range t.procs {
			p := &t.procs[i]
			if p.state != RUNNABLE {
				continue
			}
			found = true
			c.proc = p
			p.cpu = c
			c.switchuvm(p)
			p.state = RUNNING
			c.ndispatch++
			db.DPrintf(db.SCHED, "%v: run %v", c, p)
			swtch(c.scheduler, p.context)
			// The process changed its own state before switching back.
			c.proc = nil
		}
		t.lock.Unlock()
		if !found {
			runtime.Gosched()
		}
	}
	db.DPrintf(db.SCHED, "%v: halt", c)
}

// Halt makes every scheduler return once its current process gives up
// the CPU.
func (t *Ptable) Halt() {
	t.halted.Store(true)
}

// Retire ends the kernel threads of all remaining processes. Only call
// it after every Scheduler has returned.
func (t *Ptable) Retire() {
	t.retireAll()
}

// sched switches from process p back to its CPU's scheduler. The
// caller holds the table lock and has already moved p out of RUNNING.
func (t *Ptable) sched(p *Proc) {
	if !t.lock.Holding() {
		db.DFatalf("sched: %v without table lock", p)
	}
	if p.state == RUNNING {
		db.DFatalf("sched: %v running", p)
	}
	c := p.cpu
	if c == nil || c.proc != p {
		db.DFatalf("sched: %v not on a cpu", p)
	}
	swtch(p.context, c.scheduler)
}

// Yield gives up the CPU for one scheduling round.
func (p *Proc) Yield() {
	t := p.tbl
	t.lock.Lock()
	p.state = RUNNABLE
	t.sched(p)
	t.lock.Unlock()
}
