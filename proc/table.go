package proc

import (
	"fmt"
	"sync/atomic"

	db "armos/debug"
	"armos/kalloc"
	"armos/kerr"
	"armos/spinlock"
)

// Ptable is the process table. Its lock protects every slot's state,
// pid, parent, wait channel and kill flag, as well as nextpid.
type Ptable struct {
	lock     spinlock.Spinlock
	procs    []Proc
	nextpid  Tpid
	initproc *Proc
	mem      kalloc.Allocator
	ntlb     int
	cpus     []*Cpu
	halted   atomic.Bool
}

func NewPtable(mem kalloc.Allocator, nproc, ncpu, ntlb int) *Ptable {
	t := &Ptable{
		procs:   make([]Proc, nproc),
		nextpid: 1,
		mem:     mem,
		ntlb:    ntlb,
		cpus:    make([]*Cpu, ncpu),
	}
	t.lock.Init("ptable")
	for i := range t.procs {
		t.procs[i].tbl = t
	}
	for i := range t.cpus {
		t.cpus[i] = newCpu(i)
	}
	return t
}

func (t *Ptable) String() string {
	return fmt.Sprintf("{ptable nproc %d ncpu %d}", len(t.procs), len(t.cpus))
}

func (t *Ptable) Ncpu() int {
	return len(t.cpus)
}

func (t *Ptable) Cpu(i int) *Cpu {
	return t.cpus[i]
}

func (t *Ptable) Initproc() *Proc {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.initproc
}

// State returns the state of the live process pid.
func (t *Ptable) State(pid Tpid) (Tstate, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if p := t.lookup(pid); p != nil {
		return p.state, true
	}
	return UNUSED, false
}

// Nlive counts slots in use.
func (t *Ptable) Nlive() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	n := 0
	for i := range t.procs {
		if t.procs[i].state != UNUSED {
			n++
		}
	}
	return n
}

// Nstate counts processes in state st.
func (t *Ptable) Nstate(st Tstate) int {
	t.lock.Lock()
	defer t.lock.Unlock()
	n := 0
	for i := range t.procs {
		if t.procs[i].state == st {
			n++
		}
	}
	return n
}

// Caller holds t.lock
func (t *Ptable) lookup(pid Tpid) *Proc {
	for i := range t.procs {
		p := &t.procs[i]
		if p.state != UNUSED && p.pid == pid {
			return p
		}
	}
	return nil
}

// allocProc claims an UNUSED slot as EMBRYO with a fresh pid, and gives
// it a kernel stack whose top holds a zeroed trap frame and a context
// that starts at forkret.
func (t *Ptable) allocProc() (*Proc, error) {
	t.lock.Lock()
	var p *Proc
	for i := range t.procs {
		if t.procs[i].state == UNUSED {
			p = &t.procs[i]
			break
		}
	}
	if p == nil {
		t.lock.Unlock()
		return nil, kerr.NewErr(kerr.TErrNoSlot, "ptable")
	}
	p.state = EMBRYO
	p.pid = t.nextpid
	t.nextpid++
	t.lock.Unlock()

	kstack, err := t.mem.Kalloc()
	if err != nil {
		db.DPrintf(db.PROC_ERR, "allocProc %d: kstack err %v", p.pid, err)
		t.lock.Lock()
		p.state = UNUSED
		t.lock.Unlock()
		return nil, kerr.NewErrError(kerr.TErrOutOfMemory, "kstack", err)
	}
	p.kstack = kstack
	p.tf = kstackTrapframe(t.mem, kstack)
	*p.tf = Trapframe{}
	p.context = newContext(fmt.Sprintf("proc %d", p.pid), p.forkret)
	db.DPrintf(db.PROC, "allocProc %d kstack %#x", p.pid, uint64(kstack))
	return p, nil
}

// unallocProc returns an EMBRYO that never ran to UNUSED.
func (t *Ptable) unallocProc(p *Proc) {
	t.mem.Kfree(p.kstack)
	p.kstack = 0
	p.tf = nil
	p.context = nil
	t.lock.Lock()
	p.state = UNUSED
	t.lock.Unlock()
}

// freeProc reclaims a reaped ZOMBIE: its kernel stack, its page table
// and every page that table maps, and its kernel thread. Caller holds
// t.lock.
func (t *Ptable) freeProc(p *Proc) {
	if p.state != ZOMBIE {
		db.DFatalf("freeProc: %v is %v", p, p.state)
	}
	t.mem.Kfree(p.kstack)
	p.kstack = 0
	p.tf = nil
	p.pgdir.Free()
	p.pgdir = nil
	p.context.retire()
	p.context = nil
	p.pid = 0
	p.parent = nil
	p.wchan = nil
	p.killed = false
	p.sz = 0
	p.name = ""
	p.prog = nil
	p.cpu = nil
	p.state = UNUSED
}

// retireAll ends the kernel threads of every remaining process once
// the schedulers have stopped.
func (t *Ptable) retireAll() {
	t.lock.Lock()
	defer t.lock.Unlock()
	for i := range t.procs {
		p := &t.procs[i]
		if p.state == UNUSED || p.context == nil {
			continue
		}
		if p.state == RUNNING {
			db.DFatalf("retireAll: %v still running", p)
		}
		p.context.retire()
	}
}
