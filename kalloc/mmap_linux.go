//go:build linux

package kalloc

import (
	"golang.org/x/sys/unix"

	"armos/kerr"
)

// mapArena backs physical memory with an anonymous page-aligned
// mapping outside the Go heap.
func mapArena(n int) ([]byte, func() error, error) {
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, kerr.NewErrError(kerr.TErrOutOfMemory, "mmap arena", err)
	}
	return mem, func() error { return unix.Munmap(mem) }, nil
}
