// Package vm builds and tears down user address spaces: a 4-level
// page table per process, whose table pages and data pages are frames
// from a kalloc.Allocator.
package vm

import (
	"fmt"
	"unsafe"

	db "armos/debug"
	"armos/kalloc"
	"armos/kerr"
	"armos/mmu"
)

// Pgtbl is a process's page table. It exclusively owns every table
// page and data frame reachable from its root.
type Pgtbl struct {
	mem  kalloc.Allocator
	root mmu.Pa
	tlb  *Tlb
}

// NewPgtbl allocates an empty root table. ntlb is the number of
// cached translations; 0 disables the cache.
func NewPgtbl(mem kalloc.Allocator, ntlb int) (*Pgtbl, error) {
	root, err := mem.Kalloc()
	if err != nil {
		return nil, err
	}
	clear(mem.Page(root))
	pt := &Pgtbl{
		mem:  mem,
		root: root,
		tlb:  newTlb(ntlb),
	}
	db.DPrintf(db.PGTBL, "NewPgtbl %v", pt)
	return pt, nil
}

func (pt *Pgtbl) String() string {
	return fmt.Sprintf("{pgtbl %#x}", uint64(pt.root))
}

func (pt *Pgtbl) Root() mmu.Pa {
	return pt.root
}

// table views the frame at pa as an array of descriptors.
func table(mem kalloc.Allocator, pa mmu.Pa) *[mmu.NPTE]mmu.Pte {
	pg := mem.Page(pa)
	return (*[mmu.NPTE]mmu.Pte)(unsafe.Pointer(&pg[0]))
}

// walk returns the level-3 slot for va. If an intermediate table is
// missing, walk allocates a zeroed one when alloc is set and fails
// with TErrNoMapping otherwise.
func (pt *Pgtbl) walk(va uint64, alloc bool) (*mmu.Pte, error) {
	if va >= mmu.MAXVA {
		db.DFatalf("walk %#x", va)
	}
	pa := pt.root
	for level := 0; level < mmu.NLEVEL-1; level++ {
		pte := &table(pt.mem, pa)[mmu.PTX(level, va)]
		if pte.Valid() {
			pa = mmu.PTE2PA(*pte)
			continue
		}
		if !alloc {
			return nil, kerr.NewErr(kerr.TErrNoMapping, fmt.Sprintf("%#x", va))
		}
		npa, err := pt.mem.Kalloc()
		if err != nil {
			return nil, kerr.NewErrError(kerr.TErrAllocFailed, fmt.Sprintf("%#x", va), err)
		}
		clear(pt.mem.Page(npa))
		*pte = mmu.PA2PTE(npa) | mmu.PTE_P | mmu.PTE_TABLE
		db.DPrintf(db.PGTBL, "%v level %d table %#x for %#x", pt, level+1, uint64(npa), va)
		pa = npa
	}
	return &table(pt.mem, pa)[mmu.PTX(mmu.NLEVEL-1, va)], nil
}

// mapRegion maps the pages covering [va, va+sz) to consecutive frames
// starting at pa. Mapping over a present entry is fatal.
func (pt *Pgtbl) mapRegion(va, sz uint64, pa mmu.Pa, perm mmu.Pte) error {
	a := mmu.PGROUNDDOWN(va)
	last := mmu.PGROUNDDOWN(va + sz - 1)
	for {
		pte, err := pt.walk(a, true)
		if err != nil {
			return err
		}
		if pte.Valid() {
			db.DFatalf("remap %#x in %v: %v", a, pt, *pte)
		}
		*pte = mmu.PA2PTE(pa) | perm | mmu.PTE_P | mmu.PTE_PAGE | mmu.PTE_ATTR(mmu.MT_NORMAL) | mmu.PTE_AF | mmu.PTE_SH
		if a == last {
			break
		}
		a += mmu.PGSIZE
		pa += mmu.PGSIZE
	}
	return nil
}

// Free returns every frame reachable from the root, including the
// root itself. pt must not be used afterwards.
func (pt *Pgtbl) Free() {
	db.DPrintf(db.PGTBL, "Free %v", pt)
	pt.freeTable(pt.root, 0)
	pt.tlb.Flush()
	pt.root = 0
}

// freeTable frees the subtree below the level-level table at pa and
// then the table page itself. Entries of a level-3 table are data
// frames; entries above are tables.
func (pt *Pgtbl) freeTable(pa mmu.Pa, level int) {
	tbl := table(pt.mem, pa)
	for _, pte := range tbl {
		if !pte.Valid() {
			continue
		}
		if level < mmu.NLEVEL-1 {
			pt.freeTable(mmu.PTE2PA(pte), level+1)
		} else {
			pt.mem.Kfree(mmu.PTE2PA(pte))
		}
	}
	pt.mem.Kfree(pa)
}
