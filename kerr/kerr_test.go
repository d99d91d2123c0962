package kerr

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrCode(t *testing.T) {
	err := NewErr(TErrUnmapped, "0x1000")
	assert.True(t, IsErrCode(err, TErrUnmapped))
	assert.False(t, IsErrCode(err, TErrNoMapping))
	assert.Equal(t, "address not mapped 0x1000", err.Error())

	wrapped := fmt.Errorf("copyout: %w", err)
	assert.True(t, IsErrCode(wrapped, TErrUnmapped))
	assert.False(t, IsErrCode(io.EOF, TErrUnmapped))
	assert.False(t, IsErrCode(nil, TErrUnmapped))
}

func TestUnwrap(t *testing.T) {
	err := NewErrError(TErrTruncatedRead, "load", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	kerr, ok := IsErr(err)
	assert.True(t, ok)
	assert.Equal(t, TErrTruncatedRead, kerr.Code())
}

func TestOutOfMemory(t *testing.T) {
	assert.True(t, NewErr(TErrAllocFailed, "walk").IsErrOutOfMemory())
	assert.True(t, NewErr(TErrOutOfMemory, "grow").IsErrOutOfMemory())
	assert.False(t, NewErr(TErrNoSlot, "alloc").IsErrOutOfMemory())
}
