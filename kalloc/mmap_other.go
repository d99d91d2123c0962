//go:build !linux

package kalloc

import (
	"unsafe"
)

// mapArena backs physical memory with a word-aligned heap slice, so
// that table pages can be read as descriptor arrays.
func mapArena(n int) ([]byte, func() error, error) {
	words := make([]uint64, n/8)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
	return mem, nil, nil
}
