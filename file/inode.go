package file

import (
	"fmt"
	"io"
	"sync"

	db "armos/debug"
	"armos/kerr"
	"armos/util/refmap"
)

type Tinum uint32

const ROOTINO Tinum = 1

type inode struct {
	inum Tinum
	data []byte
}

func (ip *inode) String() string {
	return fmt.Sprintf("{ino %d len %d}", ip.inum, len(ip.data))
}

// Itable is the in-core inode table over a "disk" of inode contents.
type Itable struct {
	sync.Mutex
	disk map[Tinum][]byte
	refs *refmap.RefTable[Tinum, *inode]
}

func NewItable() *Itable {
	it := &Itable{
		disk: make(map[Tinum][]byte),
		refs: refmap.NewRefTable[Tinum, *inode](db.FILE),
	}
	it.disk[ROOTINO] = nil
	return it
}

// Create stores data as the contents of inode inum.
func (it *Itable) Create(inum Tinum, data []byte) {
	it.Lock()
	defer it.Unlock()
	it.disk[inum] = data
}

// Iget returns a new reference to inode inum.
func (it *Itable) Iget(inum Tinum) (*Ihandle, error) {
	it.Lock()
	defer it.Unlock()

	data, ok := it.disk[inum]
	if !ok {
		return nil, kerr.NewErr(kerr.TErrNotfound, fmt.Sprintf("inode %d", inum))
	}
	ip, _ := it.refs.Insert(inum, func() *inode { return &inode{inum: inum, data: data} })
	return &Ihandle{it: it, ip: ip}, nil
}

func (it *Itable) Root() *Ihandle {
	h, err := it.Iget(ROOTINO)
	if err != nil {
		db.DFatalf("Root: %v", err)
	}
	return h
}

func (it *Itable) Nref(inum Tinum) int {
	it.Lock()
	defer it.Unlock()
	return it.refs.Nref(inum)
}

// Ihandle is one counted reference to an in-core inode. It reads the
// inode's contents for the program loader.
type Ihandle struct {
	it *Itable
	ip *inode
}

func (h *Ihandle) Inum() Tinum {
	return h.ip.inum
}

func (h *Ihandle) Dup() Inode {
	h.it.Lock()
	defer h.it.Unlock()
	if err := h.it.refs.Incr(h.ip.inum); err != nil {
		db.DFatalf("idup %v: %v", h.ip, err)
	}
	return &Ihandle{it: h.it, ip: h.ip}
}

func (h *Ihandle) Put() {
	h.it.Lock()
	defer h.it.Unlock()
	del, err := h.it.refs.Delete(h.ip.inum)
	if err != nil {
		db.DFatalf("iput %v: %v", h.ip, err)
	}
	if del {
		db.DPrintf(db.FILE, "iput %v: last reference", h.ip)
	}
}

func (h *Ihandle) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 {
		return 0, kerr.NewErr(kerr.TErrInval, fmt.Sprintf("offset %d", off))
	}
	if off >= int64(len(h.ip.data)) {
		return 0, io.EOF
	}
	n := copy(b, h.ip.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (h *Ihandle) Size() int64 {
	return int64(len(h.ip.data))
}
