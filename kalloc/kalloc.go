// Package kalloc hands out physical page frames. The kernel core
// only depends on the Allocator interface; Arena is the frame pool
// the kernel boots with.
package kalloc

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	db "armos/debug"
	"armos/kerr"
	"armos/mmu"
)

// Physical address of the first frame; RAM starts here on the QEMU
// virt board.
const KERNBASE mmu.Pa = 0x4000_0000

const junk = 0x1

type Allocator interface {
	Kalloc() (mmu.Pa, error)
	Kfree(pa mmu.Pa)
	// Page returns the kernel-addressable alias of the frame holding pa.
	Page(pa mmu.Pa) []byte
}

type Arena struct {
	sync.Mutex
	base  mmu.Pa
	mem   []byte
	inuse []bool
	free  []mmu.Pa
	unmap func() error
}

// NewArena reserves sz bytes (rounded down to whole frames) of
// physical memory.
func NewArena(sz uint64) (*Arena, error) {
	n := sz / mmu.PGSIZE
	if n == 0 {
		return nil, kerr.NewErr(kerr.TErrInval, fmt.Sprintf("arena size %v", sz))
	}
	mem, unmap, err := mapArena(int(n * mmu.PGSIZE))
	if err != nil {
		return nil, err
	}
	a := &Arena{
		base:  KERNBASE,
		mem:   mem,
		inuse: make([]bool, n),
		free:  make([]mmu.Pa, 0, n),
		unmap: unmap,
	}
	// Push high frames first so that allocation starts at KERNBASE.
	for i := int(n) - 1; i >= 0; i-- {
		a.free = append(a.free, a.base+mmu.Pa(i*mmu.PGSIZE))
	}
	db.DPrintf(db.KALLOC, "NewArena %v frames [%#x, %#x) %v", n, uint64(a.base), uint64(a.end()), humanize.IBytes(n*mmu.PGSIZE))
	return a, nil
}

func (a *Arena) end() mmu.Pa {
	return a.base + mmu.Pa(len(a.mem))
}

func (a *Arena) index(pa mmu.Pa) int {
	return int((pa - a.base) / mmu.PGSIZE)
}

func (a *Arena) Kalloc() (mmu.Pa, error) {
	a.Lock()
	defer a.Unlock()

	n := len(a.free) - 1
	if n < 0 {
		db.DPrintf(db.KALLOC, "Kalloc: out of frames")
		return 0, kerr.NewErr(kerr.TErrOutOfMemory, "kalloc")
	}
	pa := a.free[n]
	a.free = a.free[:n]
	a.inuse[a.index(pa)] = true
	db.DPrintf(db.KALLOC, "Kalloc %#x nfree %d", uint64(pa), len(a.free))
	return pa, nil
}

// Kfree returns the frame at pa. It fills the frame with junk to
// catch dangling references.
func (a *Arena) Kfree(pa mmu.Pa) {
	a.Lock()
	defer a.Unlock()

	if pa%mmu.PGSIZE != 0 || pa < a.base || pa >= a.end() {
		db.DFatalf("kfree %#x", uint64(pa))
	}
	i := a.index(pa)
	if !a.inuse[i] {
		db.DFatalf("kfree %#x: not allocated", uint64(pa))
	}
	a.inuse[i] = false
	pg := a.mem[i*mmu.PGSIZE : (i+1)*mmu.PGSIZE]
	for j := range pg {
		pg[j] = junk
	}
	a.free = append(a.free, pa)
	db.DPrintf(db.KALLOC, "Kfree %#x nfree %d", uint64(pa), len(a.free))
}

func (a *Arena) Page(pa mmu.Pa) []byte {
	pa = mmu.PGROUNDDOWN(pa)
	if pa < a.base || pa >= a.end() {
		db.DFatalf("Page %#x outside arena", uint64(pa))
	}
	off := int(pa - a.base)
	return a.mem[off : off+mmu.PGSIZE : off+mmu.PGSIZE]
}

func (a *Arena) NFrame() int {
	return len(a.inuse)
}

func (a *Arena) NFree() int {
	a.Lock()
	defer a.Unlock()
	return len(a.free)
}

func (a *Arena) NAlloc() int {
	return a.NFrame() - a.NFree()
}

func (a *Arena) String() string {
	a.Lock()
	defer a.Unlock()
	return fmt.Sprintf("{arena %#x %v free %d/%d}", uint64(a.base), humanize.IBytes(uint64(len(a.mem))), len(a.free), len(a.inuse))
}

// Close releases the arena's backing memory. Frames must not be used
// afterwards.
func (a *Arena) Close() error {
	if a.unmap == nil {
		return nil
	}
	err := a.unmap()
	a.unmap = nil
	a.mem = nil
	return err
}
