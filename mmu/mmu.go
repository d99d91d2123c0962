// Package mmu describes the AArch64 4KB-granule translation format
// used for user address spaces: a 4-level tree of 512-entry tables,
// indexed by successive 9-bit fields of the virtual address.
//
//	47..39 -- level-0 index
//	38..30 -- level-1 index
//	29..21 -- level-2 index
//	20..12 -- level-3 index
//	11..0  -- byte offset within the page
package mmu

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Physical address of a frame or of a byte within one.
type Pa uint64

// Pte is a hardware translation descriptor.
type Pte uint64

const (
	PGSHIFT = 12
	PGSIZE  = 1 << PGSHIFT
	NPTE    = 512 // entries per table page
	NLEVEL  = 4

	L0SHIFT = 39
	L1SHIFT = 30
	L2SHIFT = 21
	L3SHIFT = 12

	// Span of virtual memory covered by one level-3 table.
	L3SPAN = 1 << L2SHIFT

	// Lower half of a 48-bit address space; anything at or above it
	// is not a user address.
	MAXVA = 1 << (9 + 9 + 9 + 9 + PGSHIFT - 1)

	// Ceiling for the size of a user address space.
	UADDR_SZ = MAXVA
)

const (
	PTE_P     Pte = 1 << 0 // valid
	PTE_TABLE Pte = 1 << 1 // next-level table at levels 0-2
	PTE_PAGE  Pte = 1 << 1 // page descriptor at level 3
	PTE_USER  Pte = 1 << 6 // AP[1]: accessible from EL0
	PTE_RO    Pte = 1 << 7 // AP[2]: read only
	PTE_RW    Pte = 0
	PTE_SH    Pte = 3 << 8 // inner shareable
	PTE_AF    Pte = 1 << 10
	PTE_NG    Pte = 1 << 11

	// MAIR attribute indices
	MT_NORMAL = 0
	MT_DEVICE = 1

	pteAddrMask Pte = 0x0000_ffff_ffff_f000
)

func PTE_ATTR(mt int) Pte {
	return Pte(mt) << 2
}

// PTX extracts the 9-bit table index for level (0..3) from va.
func PTX(level int, va uint64) int {
	return int((va >> (L0SHIFT - 9*level)) & (NPTE - 1))
}

func PGROUNDUP[T constraints.Integer](sz T) T {
	pg := T(1) << PGSHIFT
	return (sz + pg - 1) &^ (pg - 1)
}

func PGROUNDDOWN[T constraints.Integer](a T) T {
	pg := T(1) << PGSHIFT
	return a &^ (pg - 1)
}

func ROUNDUP[T constraints.Integer](a, n T) T {
	return (a + n - 1) / n * n
}

func PTE2PA(pte Pte) Pa {
	return Pa(pte & pteAddrMask)
}

func PA2PTE(pa Pa) Pte {
	return Pte(pa) & pteAddrMask
}

func (pte Pte) Valid() bool {
	return pte&PTE_P != 0
}

// IsLeaf reports whether pte is a present level-3 page descriptor.
func (pte Pte) IsLeaf() bool {
	return pte&(PTE_P|PTE_PAGE) == PTE_P|PTE_PAGE
}

func (pte Pte) IsUser() bool {
	return pte&PTE_USER != 0 && pte&PTE_RO == 0
}

// Perm returns the access-permission bits that a copy of this page
// must carry.
func (pte Pte) Perm() Pte {
	return pte & (PTE_USER | PTE_RO)
}

func (pte Pte) String() string {
	if !pte.Valid() {
		return "{-}"
	}
	ap := "rw"
	if pte&PTE_RO != 0 {
		ap = "ro"
	}
	if pte&PTE_USER != 0 {
		ap = "u" + ap
	}
	return fmt.Sprintf("{pa %#x %v}", uint64(PTE2PA(pte)), ap)
}
