package kernel

import (
	"fmt"
	"sync"

	"armos/config"
	db "armos/debug"
	"armos/file"
	"armos/kalloc"
	"armos/proc"
)

// Kernel ties together physical memory, the file tables and the
// process table of one machine.
type Kernel struct {
	sync.Mutex
	Param        *config.Param
	mem          *kalloc.Arena
	itable       *file.Itable
	ftable       *file.Ftable
	ptable       *proc.Ptable
	cpus         sync.WaitGroup
	booted       bool
	shuttingDown bool
}

func NewKernel(p *config.Param) (*Kernel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Debug != "" {
		db.AddDebug(p.Debug)
	}
	mem, err := kalloc.NewArena(p.MemSize())
	if err != nil {
		db.DPrintf(db.KERNEL_ERR, "NewKernel: arena err %v", err)
		return nil, err
	}
	k := &Kernel{
		Param:  p,
		mem:    mem,
		itable: file.NewItable(),
		ftable: file.NewFtable(),
		ptable: proc.NewPtable(mem, p.Nproc, p.Ncpu, p.Ntlb),
	}
	db.DPrintf(db.KERNEL, "NewKernel %v mem %v", p, mem)
	return k, nil
}

func (k *Kernel) String() string {
	return fmt.Sprintf("{kernel %v %v}", k.Param, k.ptable)
}

func (k *Kernel) Mem() *kalloc.Arena {
	return k.mem
}

func (k *Kernel) Itable() *file.Itable {
	return k.itable
}

func (k *Kernel) Ftable() *file.Ftable {
	return k.ftable
}

func (k *Kernel) Ptable() *proc.Ptable {
	return k.ptable
}

// Halt stops the schedulers without waiting for them.
func (k *Kernel) Halt() {
	db.DPrintf(db.KERNEL, "Halt")
	k.ptable.Halt()
}

// Shutdown halts the machine, waits for every CPU to leave its
// scheduler, ends the remaining processes' threads and releases
// physical memory. A process that never gives up its CPU keeps
// Shutdown waiting.
func (k *Kernel) Shutdown() error {
	k.Lock()
	defer k.Unlock()

	if k.shuttingDown {
		return nil
	}
	k.shuttingDown = true
	db.DPrintf(db.KERNEL, "Shutdown")
	k.ptable.Halt()
	k.cpus.Wait()
	k.ptable.Retire()
	if err := k.mem.Close(); err != nil {
		db.DPrintf(db.KERNEL_ERR, "Shutdown: arena err %v", err)
		return err
	}
	db.DPrintf(db.KERNEL, "Shutdown done")
	return nil
}
