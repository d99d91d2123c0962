package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"armos/kerr"
	"armos/mmu"
)

func TestInit(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	image := []byte("initcode")
	assert.Nil(t, ts.pt.Init(image))
	pg, err := ts.pt.Translate(0)
	assert.Nil(t, err)
	assert.Equal(t, image, pg[:len(image)])
	assert.Equal(t, byte(0), pg[len(image)])

	assert.Panics(t, func() { ts.pt.Init(make([]byte, mmu.PGSIZE)) })
}

func TestGrowTranslate(t *testing.T) {
	ts := newTstate(t, 64)
	defer ts.shutdown()

	const N = 10
	sz, err := ts.pt.Grow(0, N*mmu.PGSIZE-1)
	assert.Nil(t, err)
	assert.Equal(t, uint64(N*mmu.PGSIZE-1), sz)

	frames := make(map[*byte]bool)
	for va := uint64(0); va < sz; va += mmu.PGSIZE / 2 {
		pg, err := ts.pt.Translate(va)
		assert.Nil(t, err, "va %#x", va)
		assert.Equal(t, mmu.PGSIZE, len(pg))
		frames[&pg[0]] = true
	}
	assert.Equal(t, N, len(frames))
	_, err = ts.pt.Translate(N * mmu.PGSIZE)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
}

func TestGrowCeiling(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	nalloc := ts.mem.NAlloc()
	sz, err := ts.pt.Grow(0, mmu.UADDR_SZ)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrBadAddr))
	assert.Equal(t, uint64(0), sz)
	assert.Equal(t, nalloc, ts.mem.NAlloc())
}

func TestGrowSmaller(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	sz, err := ts.pt.Grow(2*mmu.PGSIZE, mmu.PGSIZE)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2*mmu.PGSIZE), sz)
}

func TestGrowOutOfMemory(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	// Build the tables for the low region first.
	sz, err := ts.pt.Grow(0, mmu.PGSIZE)
	assert.Nil(t, err)
	nfree := ts.mem.NFree()

	sz1, err := ts.pt.Grow(sz, 32*mmu.PGSIZE)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrOutOfMemory))
	assert.Equal(t, sz, sz1)
	assert.Equal(t, nfree, ts.mem.NFree())
	_, err = ts.pt.Translate(mmu.PGSIZE)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
	_, err = ts.pt.Translate(0)
	assert.Nil(t, err)
}

func TestGrowShrink(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	sz, err := ts.pt.Grow(0, 3*mmu.PGSIZE)
	assert.Nil(t, err)
	_, err = ts.pt.Translate(2 * mmu.PGSIZE)
	assert.Nil(t, err)

	nfree := ts.mem.NFree()
	sz = ts.pt.Shrink(sz, mmu.PGSIZE)
	assert.Equal(t, uint64(mmu.PGSIZE), sz)
	assert.Equal(t, nfree+2, ts.mem.NFree())

	_, err = ts.pt.Translate(2 * mmu.PGSIZE)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
	_, err = ts.pt.Translate(mmu.PGSIZE)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
	_, err = ts.pt.Translate(0)
	assert.Nil(t, err)

	assert.Equal(t, sz, ts.pt.Shrink(sz, 2*mmu.PGSIZE))
}

func TestShrinkHoles(t *testing.T) {
	ts := newTstate(t, 32)
	defer ts.shutdown()

	sz, err := ts.pt.Grow(0, mmu.PGSIZE)
	assert.Nil(t, err)
	far := uint64(5 * mmu.L3SPAN)
	pa, err := ts.mem.Kalloc()
	assert.Nil(t, err)
	assert.Nil(t, ts.pt.mapRegion(far, mmu.PGSIZE, pa, mmu.PTE_USER))
	nfree := ts.mem.NFree()

	sz = ts.pt.Shrink(far+mmu.PGSIZE, 0)
	assert.Equal(t, uint64(0), sz)
	assert.Equal(t, nfree+2, ts.mem.NFree())
	_, err = ts.pt.Translate(far)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
}

func TestTranslatePermissions(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	pa, err := ts.mem.Kalloc()
	assert.Nil(t, err)
	assert.Nil(t, ts.pt.mapRegion(0, mmu.PGSIZE, pa, mmu.PTE_RW))
	_, err = ts.pt.Translate(0)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped), "kernel-only page")

	pa, err = ts.mem.Kalloc()
	assert.Nil(t, err)
	assert.Nil(t, ts.pt.mapRegion(mmu.PGSIZE, mmu.PGSIZE, pa, mmu.PTE_USER|mmu.PTE_RO))
	_, err = ts.pt.Translate(mmu.PGSIZE)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped), "read-only page")

	_, err = ts.pt.Translate(mmu.MAXVA)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
}

func TestClearUser(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	sz, err := ts.pt.Grow(0, 2*mmu.PGSIZE)
	assert.Nil(t, err)
	_, err = ts.pt.Translate(0)
	assert.Nil(t, err)
	assert.Equal(t, 1, ts.pt.tlb.Len())

	ts.pt.ClearUser(0)
	_, err = ts.pt.Translate(0)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
	_, err = ts.pt.Translate(sz - 1)
	assert.Nil(t, err)

	assert.Panics(t, func() { ts.pt.ClearUser(4 * mmu.PGSIZE) })
}

func TestCopyOut(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	_, err := ts.pt.Grow(0, 2*mmu.PGSIZE)
	assert.Nil(t, err)

	buf := bytes.Repeat([]byte("abcdefgh"), 64)
	va := uint64(mmu.PGSIZE - 100)
	assert.Nil(t, ts.pt.CopyOut(va, buf))
	pg0, err := ts.pt.Translate(0)
	assert.Nil(t, err)
	pg1, err := ts.pt.Translate(mmu.PGSIZE)
	assert.Nil(t, err)
	assert.Equal(t, buf[:100], pg0[va:])
	assert.Equal(t, buf[100:], pg1[:len(buf)-100])

	// The tail page is unmapped; the first page is still written.
	clear(pg1)
	err = ts.pt.CopyOut(2*mmu.PGSIZE-10, buf)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrUnmapped))
	assert.Equal(t, buf[:10], pg1[mmu.PGSIZE-10:])
}

func TestCopyIndependent(t *testing.T) {
	ts := newTstate(t, 64)
	defer ts.shutdown()

	assert.Nil(t, ts.pt.Init([]byte("image")))
	sz, err := ts.pt.Grow(mmu.PGSIZE, 3*mmu.PGSIZE)
	assert.Nil(t, err)
	data := []byte("parent data")
	assert.Nil(t, ts.pt.CopyOut(2*mmu.PGSIZE+5, data))

	c, err := ts.pt.Copy(sz)
	assert.Nil(t, err)
	for va := uint64(0); va < sz; va += mmu.PGSIZE {
		ppg, err := ts.pt.Translate(va)
		assert.Nil(t, err)
		cpg, err := c.Translate(va)
		assert.Nil(t, err)
		assert.Equal(t, ppg, cpg)
		assert.NotSame(t, &ppg[0], &cpg[0])
	}

	assert.Nil(t, c.CopyOut(2*mmu.PGSIZE+5, []byte("CHILD")))
	ppg, err := ts.pt.Translate(2 * mmu.PGSIZE)
	assert.Nil(t, err)
	assert.Equal(t, data, ppg[5:5+len(data)])
	assert.Nil(t, ts.pt.CopyOut(0, []byte("IMAGE")))
	cpg, err := c.Translate(0)
	assert.Nil(t, err)
	assert.Equal(t, []byte("image"), cpg[:5])

	c.Free()
	ts.pt.Free()
	assert.Equal(t, ts.mem.NFrame(), ts.mem.NFree())
}

func TestCopyOutOfMemory(t *testing.T) {
	// root + 3 tables + 4 pages = 8; the copy needs 8 more.
	ts := newTstate(t, 13)
	defer ts.shutdown()

	sz, err := ts.pt.Grow(0, 4*mmu.PGSIZE)
	assert.Nil(t, err)
	nfree := ts.mem.NFree()
	c, err := ts.pt.Copy(sz)
	assert.Nil(t, c)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrOutOfMemory))
	assert.Equal(t, nfree, ts.mem.NFree())
}

func TestLoad(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	sz, err := ts.pt.Grow(0, 3*mmu.PGSIZE)
	assert.Nil(t, err)
	file := make([]byte, 3*mmu.PGSIZE)
	for i := range file {
		file[i] = byte(i % 251)
	}
	const off = 200
	n := uint64(2*mmu.PGSIZE + 10)
	assert.Nil(t, ts.pt.Load(off, bytes.NewReader(file), off, n))
	for va := uint64(0); va < sz; va += mmu.PGSIZE {
		pg, err := ts.pt.Translate(va)
		assert.Nil(t, err)
		for i := range pg {
			a := va + uint64(i)
			if a >= off && a < off+n {
				assert.Equal(t, file[a], pg[i], "va %#x", a)
			} else {
				assert.Equal(t, byte(0), pg[i], "va %#x", a)
			}
		}
	}
}

func TestLoadTruncated(t *testing.T) {
	ts := newTstate(t, 16)
	defer ts.shutdown()

	_, err := ts.pt.Grow(0, 2*mmu.PGSIZE)
	assert.Nil(t, err)
	src := bytes.NewReader(make([]byte, mmu.PGSIZE+10))
	err = ts.pt.Load(0, src, 0, 2*mmu.PGSIZE)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrTruncatedRead))

	assert.Panics(t, func() { ts.pt.Load(10, src, 0, 10) })
	assert.Panics(t, func() { ts.pt.Load(4*mmu.PGSIZE, src, 0, 10) })
}
