package proc

import (
	db "armos/debug"
	"armos/file"
	"armos/mmu"
	"armos/vm"
)

// UserInit creates the first process, "initcode": image is mapped at
// address 0 of a one-page address space, and the process starts at pc
// 0 with its stack at the top of that page, running prog with cwd as
// its working directory.
func (t *Ptable) UserInit(image []byte, prog Program, cwd file.Inode) *Proc {
	if prog == nil {
		db.DFatalf("userinit: no program")
	}
	p, err := t.allocProc()
	if err != nil {
		db.DFatalf("userinit: %v", err)
	}
	pgdir, err := vm.NewPgtbl(t.mem, t.ntlb)
	if err != nil {
		db.DFatalf("userinit: out of memory? %v", err)
	}
	if err := pgdir.Init(image); err != nil {
		db.DFatalf("userinit: %v", err)
	}
	p.pgdir = pgdir
	p.tf.Spsr = 0
	p.tf.Elr = 0
	p.tf.Sp = mmu.PGSIZE
	p.cwd = cwd
	p.prog = prog

	t.lock.Lock()
	p.sz = mmu.PGSIZE
	p.name = "initcode"
	t.initproc = p
	p.state = RUNNABLE
	t.lock.Unlock()

	db.DPrintf(db.PROC, "userinit %v", p)
	return p
}
