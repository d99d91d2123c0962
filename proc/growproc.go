package proc

import (
	"fmt"

	db "armos/debug"
	"armos/kerr"
	"armos/mmu"
)

// Growproc grows or shrinks p's memory by n bytes. The new size is
// rounded up to a whole page.
func (p *Proc) Growproc(n int) error {
	sz := p.sz
	if n > 0 {
		nsz, err := p.pgdir.Grow(sz, mmu.PGROUNDUP(sz+uint64(n)))
		if err != nil {
			db.DPrintf(db.PROC_ERR, "%v: growproc %d err %v", p, n, err)
			return err
		}
		sz = nsz
	} else if n < 0 {
		d := uint64(-n)
		if d > sz {
			return kerr.NewErr(kerr.TErrInval, fmt.Sprintf("shrink %d below 0", n))
		}
		sz = p.pgdir.Shrink(sz, mmu.PGROUNDUP(sz-d))
	}
	t := p.tbl
	t.lock.Lock()
	p.sz = sz
	p.cpu.switchuvm(p)
	t.lock.Unlock()
	return nil
}

// Sbrk moves p's break by n bytes and returns the old break.
func (p *Proc) Sbrk(n int) (uint64, error) {
	old := p.sz
	if err := p.Growproc(n); err != nil {
		return 0, err
	}
	return old, nil
}
