package file

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"armos/kerr"
)

func TestInodeRefs(t *testing.T) {
	it := NewItable()
	root := it.Root()
	assert.Equal(t, 1, it.Nref(ROOTINO))
	cwd := root.Dup()
	assert.Equal(t, 2, it.Nref(ROOTINO))
	cwd.Put()
	root.Put()
	assert.Equal(t, 0, it.Nref(ROOTINO))

	_, err := it.Iget(42)
	assert.True(t, kerr.IsErrCode(err, kerr.TErrNotfound))
}

func TestReadAt(t *testing.T) {
	it := NewItable()
	it.Create(2, []byte("hello world"))
	ip, err := it.Iget(2)
	assert.Nil(t, err)
	defer ip.Put()

	b := make([]byte, 5)
	n, err := ip.ReadAt(b, 6)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(b))

	n, err = ip.ReadAt(b, 8)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 3, n)
	_, err = ip.ReadAt(b, 11)
	assert.Equal(t, io.EOF, err)
}

func TestFileRefs(t *testing.T) {
	it := NewItable()
	ft := NewFtable()
	it.Create(2, []byte("x"))
	ip, err := it.Iget(2)
	assert.Nil(t, err)

	fh := ft.Open(ip, true, false)
	dup := fh.Dup()
	assert.Equal(t, 2, ft.Nref(fh.Fid()))
	fh.Close()
	assert.Equal(t, 1, ft.Nopen())
	assert.Equal(t, 1, it.Nref(2))
	dup.Close()
	assert.Equal(t, 0, ft.Nopen())
	assert.Equal(t, 0, it.Nref(2))
}
