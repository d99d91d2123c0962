package vm

import (
	"github.com/hashicorp/golang-lru/v2"

	db "armos/debug"
	"armos/mmu"
)

// Tlb caches successful user translations of one page table, keyed
// by virtual page number. Only translations that Translate verified
// are cached, so growing a table never makes an entry stale; removing
// or downgrading a mapping must invalidate it.
type Tlb struct {
	n int
	c *lru.Cache[uint64, mmu.Pa]
}

func newTlb(n int) *Tlb {
	if n <= 0 {
		return nil
	}
	c, err := lru.New[uint64, mmu.Pa](n)
	if err != nil {
		db.DFatalf("newTlb err %v", err)
	}
	return &Tlb{n: n, c: c}
}

func (tlb *Tlb) size() int {
	if tlb == nil {
		return 0
	}
	return tlb.n
}

func (tlb *Tlb) lookup(va uint64) (mmu.Pa, bool) {
	if tlb == nil {
		return 0, false
	}
	pa, ok := tlb.c.Get(va >> mmu.PGSHIFT)
	if ok {
		db.DPrintf(db.TLB, "hit %#x -> %#x", va, uint64(pa))
	}
	return pa, ok
}

func (tlb *Tlb) insert(va uint64, pa mmu.Pa) {
	if tlb == nil {
		return
	}
	if evict := tlb.c.Add(va>>mmu.PGSHIFT, pa); evict {
		db.DPrintf(db.TLB, "evict for %#x", va)
	}
}

func (tlb *Tlb) invalidate(va uint64) {
	if tlb == nil {
		return
	}
	if tlb.c.Remove(va >> mmu.PGSHIFT) {
		db.DPrintf(db.TLB, "invalidate %#x", va)
	}
}

func (tlb *Tlb) Flush() {
	if tlb == nil {
		return
	}
	tlb.c.Purge()
}

func (tlb *Tlb) Len() int {
	if tlb == nil {
		return 0
	}
	return tlb.c.Len()
}

// FlushTlb drops all cached translations of pt, as installing a table
// on a CPU does.
func (pt *Pgtbl) FlushTlb() {
	pt.tlb.Flush()
}
