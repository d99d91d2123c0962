package proc

import (
	"fmt"
	"unsafe"

	db "armos/debug"
	"armos/file"
	"armos/kalloc"
	"armos/kerr"
	"armos/mmu"
	"armos/vm"
)

type Tpid int

type Tstate uint8

const (
	UNUSED Tstate = iota
	EMBRYO
	RUNNABLE
	RUNNING
	SLEEPING
	ZOMBIE
)

func (st Tstate) String() string {
	switch st {
	case UNUSED:
		return "UNUSED"
	case EMBRYO:
		return "EMBRYO"
	case RUNNABLE:
		return "RUNNABLE"
	case RUNNING:
		return "RUNNING"
	case SLEEPING:
		return "SLEEPING"
	case ZOMBIE:
		return "ZOMBIE"
	default:
		return "unknown state"
	}
}

const NOFILE = 16 // open files per process

// Program is the user-mode code of a process. It runs each time the
// process returns to user mode from its first switch; a forked child
// enters it again with its copy of the parent's trap frame, X[0] set
// to 0 and Elr at the parent's resume point. A program that returns
// exits the process.
type Program func(p *Proc)

// Trapframe holds the user registers saved on kernel entry.
type Trapframe struct {
	Spsr uint64 // SPSR_EL1
	Elr  uint64 // ELR_EL1, the user pc
	Sp   uint64 // SP_EL0
	X    [31]uint64
}

// The trap frame lives at the top of the kernel stack.
func kstackTrapframe(mem kalloc.Allocator, kstack mmu.Pa) *Trapframe {
	pg := mem.Page(kstack)
	off := mmu.PGSIZE - unsafe.Sizeof(Trapframe{})
	return (*Trapframe)(unsafe.Pointer(&pg[off]))
}

// Proc is a slot of the process table. Fields marked (t.lock) must
// only be touched with the table lock held; the rest belong to the
// process itself, or to whoever holds it in EMBRYO or ZOMBIE.
type Proc struct {
	tbl     *Ptable
	pid     Tpid   // (t.lock)
	state   Tstate // (t.lock)
	parent  *Proc  // (t.lock)
	wchan   any    // (t.lock) non-nil while SLEEPING
	killed  bool   // (t.lock)
	sz      uint64 // (t.lock) for writes; the process may read its own
	name    string // (t.lock) for writes
	cpu     *Cpu   // (t.lock) CPU it last ran on
	kstack  mmu.Pa
	context *Context
	tf      *Trapframe
	pgdir   *vm.Pgtbl
	ofile   [NOFILE]file.File
	cwd     file.Inode
	prog    Program
}

func (p *Proc) String() string {
	return fmt.Sprintf("[%d %s]", p.pid, p.name)
}

func (p *Proc) Pid() Tpid {
	return p.pid
}

func (p *Proc) Name() string {
	return p.name
}

// Size returns the process's user address-space size.
func (p *Proc) Size() uint64 {
	return p.sz
}

func (p *Proc) Pgtbl() *vm.Pgtbl {
	return p.pgdir
}

func (p *Proc) Tf() *Trapframe {
	return p.tf
}

func (p *Proc) Cwd() file.Inode {
	return p.cwd
}

func (p *Proc) Killed() bool {
	p.tbl.lock.Lock()
	defer p.tbl.lock.Unlock()
	return p.killed
}

func (p *Proc) Ofile(fd int) (file.File, error) {
	if fd < 0 || fd >= NOFILE {
		return nil, kerr.NewErr(kerr.TErrInval, fmt.Sprintf("fd %d", fd))
	}
	return p.ofile[fd], nil
}

// SetOfile installs f as descriptor fd, replacing and returning what
// was there.
func (p *Proc) SetOfile(fd int, f file.File) (file.File, error) {
	if fd < 0 || fd >= NOFILE {
		return nil, kerr.NewErr(kerr.TErrInval, fmt.Sprintf("fd %d", fd))
	}
	old := p.ofile[fd]
	p.ofile[fd] = f
	return old, nil
}

// Fdalloc installs f in the lowest free descriptor slot; the process
// takes over the caller's reference.
func (p *Proc) Fdalloc(f file.File) (int, error) {
	for fd := range p.ofile {
		if p.ofile[fd] == nil {
			p.ofile[fd] = f
			return fd, nil
		}
	}
	return -1, kerr.NewErr(kerr.TErrNoSlot, "ofile")
}

// Fdclose closes descriptor fd.
func (p *Proc) Fdclose(fd int) error {
	f, err := p.Ofile(fd)
	if err != nil {
		return err
	}
	if f == nil {
		return kerr.NewErr(kerr.TErrNotfound, fmt.Sprintf("fd %d", fd))
	}
	p.ofile[fd] = nil
	f.Close()
	return nil
}

// forkret is where a new process's thread starts. The scheduler
// switched here holding the table lock; release it and go to user
// mode.
func (p *Proc) forkret() {
	p.tbl.lock.Unlock()
	p.trapret()
}

func (p *Proc) trapret() {
	db.DPrintf(db.PROC, "%v: to user pc %#x sp %#x", p, p.tf.Elr, p.tf.Sp)
	p.prog(p)
	p.Exit()
}
