package vm

import (
	"fmt"
	"io"

	db "armos/debug"
	"armos/kerr"
	"armos/mmu"
)

// Init loads image into a fresh zeroed page mapped at address 0. The
// bootstrap image must fit in one page.
func (pt *Pgtbl) Init(image []byte) error {
	if len(image) >= mmu.PGSIZE {
		db.DFatalf("Init: image of %d bytes is more than a page", len(image))
	}
	pa, err := pt.mem.Kalloc()
	if err != nil {
		return err
	}
	pg := pt.mem.Page(pa)
	clear(pg)
	if err := pt.mapRegion(0, mmu.PGSIZE, pa, mmu.PTE_USER|mmu.PTE_RW); err != nil {
		pt.mem.Kfree(pa)
		return err
	}
	copy(pg, image)
	db.DPrintf(db.VM, "Init %v %d bytes at %#x", pt, len(image), uint64(pa))
	return nil
}

// Grow maps zeroed user pages to extend the address space from oldsz
// to newsz and returns the new size. If a frame cannot be had, the
// pages added so far are released and the size stays oldsz.
func (pt *Pgtbl) Grow(oldsz, newsz uint64) (uint64, error) {
	if newsz >= mmu.UADDR_SZ {
		return oldsz, kerr.NewErr(kerr.TErrBadAddr, fmt.Sprintf("grow to %#x", newsz))
	}
	if newsz < oldsz {
		return oldsz, nil
	}
	for a := mmu.PGROUNDUP(oldsz); a < newsz; a += mmu.PGSIZE {
		pa, err := pt.mem.Kalloc()
		if err == nil {
			clear(pt.mem.Page(pa))
			if err = pt.mapRegion(a, mmu.PGSIZE, pa, mmu.PTE_USER); err != nil {
				pt.mem.Kfree(pa)
			}
		}
		if err != nil {
			db.DPrintf(db.VM_ERR, "Grow %v %#x -> %#x: at %#x err %v", pt, oldsz, newsz, a, err)
			pt.Shrink(newsz, oldsz)
			return oldsz, kerr.NewErrError(kerr.TErrOutOfMemory, fmt.Sprintf("grow to %#x", newsz), err)
		}
	}
	db.DPrintf(db.VM, "Grow %v %#x -> %#x", pt, oldsz, newsz)
	return newsz, nil
}

// Shrink unmaps and frees the pages of [newsz, oldsz) and returns the
// new size. Missing level-3 tables are holes and are skipped whole.
func (pt *Pgtbl) Shrink(oldsz, newsz uint64) uint64 {
	if newsz >= oldsz {
		return oldsz
	}
	for a := mmu.PGROUNDUP(newsz); a < oldsz; {
		pte, err := pt.walk(a, false)
		if err != nil {
			a = mmu.ROUNDUP(a+1, uint64(mmu.L3SPAN))
			continue
		}
		if pte.Valid() {
			pa := mmu.PTE2PA(*pte)
			if pa == 0 {
				db.DFatalf("Shrink %v: %#x maps frame 0", pt, a)
			}
			pt.mem.Kfree(pa)
			*pte = 0
			pt.tlb.invalidate(a)
		}
		a += mmu.PGSIZE
	}
	db.DPrintf(db.VM, "Shrink %v %#x -> %#x", pt, oldsz, newsz)
	return newsz
}

// Load copies sz bytes at offset off of src into the already-mapped
// pages starting at addr. addr-off must be page aligned, so only the
// first page may be filled partially.
func (pt *Pgtbl) Load(addr uint64, src io.ReaderAt, off, sz uint64) error {
	if (addr-off)%mmu.PGSIZE != 0 {
		db.DFatalf("Load: addr %#x off %#x not page aligned", addr, off)
	}
	for n := uint64(0); n < sz; {
		va := addr + n
		pte, err := pt.walk(mmu.PGROUNDDOWN(va), false)
		if err != nil || !pte.Valid() {
			db.DFatalf("Load: address %#x should exist", va)
		}
		start := va % mmu.PGSIZE
		m := min(sz-n, mmu.PGSIZE-start)
		pg := pt.mem.Page(mmu.PTE2PA(*pte))
		if k, err := src.ReadAt(pg[start:start+m], int64(off+n)); uint64(k) != m {
			db.DPrintf(db.VM_ERR, "Load %v at %#x: read %d of %d err %v", pt, va, k, m, err)
			return kerr.NewErrError(kerr.TErrTruncatedRead, fmt.Sprintf("%#x", va), err)
		}
		n += m
	}
	return nil
}

// Translate returns the kernel alias of the page backing uva, if uva
// is mapped by a user-accessible, writable leaf.
func (pt *Pgtbl) Translate(uva uint64) ([]byte, error) {
	if uva >= mmu.MAXVA {
		return nil, kerr.NewErr(kerr.TErrUnmapped, fmt.Sprintf("%#x", uva))
	}
	va := mmu.PGROUNDDOWN(uva)
	if pa, ok := pt.tlb.lookup(va); ok {
		return pt.mem.Page(pa), nil
	}
	pte, err := pt.walk(va, false)
	if err != nil || !pte.IsLeaf() || !pte.IsUser() {
		return nil, kerr.NewErr(kerr.TErrUnmapped, fmt.Sprintf("%#x", uva))
	}
	pa := mmu.PTE2PA(*pte)
	pt.tlb.insert(va, pa)
	return pt.mem.Page(pa), nil
}

// CopyOut copies buf to user address va. On TErrUnmapped the pages
// before the unmapped one have already been written.
func (pt *Pgtbl) CopyOut(va uint64, buf []byte) error {
	for len(buf) > 0 {
		va0 := mmu.PGROUNDDOWN(va)
		pg, err := pt.Translate(va0)
		if err != nil {
			return err
		}
		n := copy(pg[va-va0:], buf)
		buf = buf[n:]
		va = va0 + mmu.PGSIZE
	}
	return nil
}

// Copy returns a new page table holding a private copy of every page
// in [0, sz).
func (pt *Pgtbl) Copy(sz uint64) (*Pgtbl, error) {
	d, err := NewPgtbl(pt.mem, pt.tlb.size())
	if err != nil {
		return nil, err
	}
	for a := uint64(0); a < sz; a += mmu.PGSIZE {
		pte, err := pt.walk(a, false)
		if err != nil {
			db.DFatalf("Copy %v: pte for %#x should exist", pt, a)
		}
		if !pte.Valid() {
			db.DFatalf("Copy %v: page %#x not present", pt, a)
		}
		pa, err := pt.mem.Kalloc()
		if err == nil {
			copy(pt.mem.Page(pa), pt.mem.Page(mmu.PTE2PA(*pte)))
			if err = d.mapRegion(a, mmu.PGSIZE, pa, pte.Perm()); err != nil {
				pt.mem.Kfree(pa)
			}
		}
		if err != nil {
			db.DPrintf(db.VM_ERR, "Copy %v at %#x err %v", pt, a, err)
			d.Free()
			return nil, kerr.NewErrError(kerr.TErrOutOfMemory, fmt.Sprintf("copy %#x", sz), err)
		}
	}
	db.DPrintf(db.VM, "Copy %v -> %v sz %#x", pt, d, sz)
	return d, nil
}

// ClearUser makes the page at uva inaccessible from user mode; used
// for a stack guard page.
func (pt *Pgtbl) ClearUser(uva uint64) {
	pte, err := pt.walk(uva, false)
	if err != nil || !pte.Valid() {
		db.DFatalf("ClearUser %v: %#x not mapped", pt, uva)
	}
	*pte = (*pte &^ (mmu.PTE_USER | mmu.PTE_RO)) | mmu.PTE_RW
	pt.tlb.invalidate(mmu.PGROUNDDOWN(uva))
}
