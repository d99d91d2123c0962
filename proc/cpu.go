package proc

import (
	"fmt"

	db "armos/debug"
	"armos/vm"
)

type Cpu struct {
	id        int
	proc      *Proc // (t.lock) running process, if any
	scheduler *Context
	ttbr0     *vm.Pgtbl // active user translation root
	ndispatch uint64    // (t.lock)
}

func newCpu(id int) *Cpu {
	return &Cpu{
		id:        id,
		scheduler: newContext(fmt.Sprintf("cpu %d scheduler", id), nil),
	}
}

func (c *Cpu) Id() int {
	return c.id
}

func (c *Cpu) String() string {
	return fmt.Sprintf("cpu %d", c.id)
}

// switchuvm installs p's page table as the user translation root and
// flushes its cached translations.
func (c *Cpu) switchuvm(p *Proc) {
	if p.pgdir == nil {
		db.DFatalf("switchuvm: %v has no page table", p)
	}
	c.ttbr0 = p.pgdir
	p.pgdir.FlushTlb()
}
