package kalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	db "armos/debug"
	"armos/kerr"
	"armos/mmu"
)

func TestKallocKfree(t *testing.T) {
	a, err := NewArena(4 * mmu.PGSIZE)
	assert.Nil(t, err)
	defer a.Close()
	assert.Equal(t, 4, a.NFree())

	pa, err := a.Kalloc()
	assert.Nil(t, err)
	assert.Equal(t, KERNBASE, pa)
	pg := a.Page(pa)
	assert.Equal(t, mmu.PGSIZE, len(pg))
	pg[0] = 7
	assert.Equal(t, byte(7), a.Page(pa + 100)[0])
	assert.Equal(t, 3, a.NFree())

	a.Kfree(pa)
	assert.Equal(t, 4, a.NFree())
	assert.Equal(t, byte(junk), a.Page(pa)[0])
}

func TestExhaustion(t *testing.T) {
	a, err := NewArena(2*mmu.PGSIZE + 100)
	assert.Nil(t, err)
	defer a.Close()
	assert.Equal(t, 2, a.NFrame())

	seen := make(map[mmu.Pa]bool)
	for i := 0; i < 2; i++ {
		pa, err := a.Kalloc()
		assert.Nil(t, err)
		assert.False(t, seen[pa])
		seen[pa] = true
	}
	_, err = a.Kalloc()
	assert.True(t, kerr.IsErrCode(err, kerr.TErrOutOfMemory))
	assert.Equal(t, 2, a.NAlloc())
}

func TestBadKfree(t *testing.T) {
	db.SetFatal(func(msg string) { panic(msg) })
	defer db.SetFatal(nil)

	a, err := NewArena(2 * mmu.PGSIZE)
	assert.Nil(t, err)
	defer a.Close()

	assert.Panics(t, func() { a.Kfree(KERNBASE + 1) })
	assert.Panics(t, func() { a.Kfree(KERNBASE) })
	assert.Panics(t, func() { a.Kfree(KERNBASE + 4*mmu.PGSIZE) })
}

func TestEmptyArena(t *testing.T) {
	_, err := NewArena(mmu.PGSIZE - 1)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrInval))
}
