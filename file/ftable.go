package file

import (
	"fmt"
	"sync"

	db "armos/debug"
	"armos/util/refmap"
)

type Tfid uint32

type file struct {
	fid      Tfid
	ip       Inode
	readable bool
	writable bool
}

func (f *file) String() string {
	return fmt.Sprintf("{fid %d r %v w %v}", f.fid, f.readable, f.writable)
}

// Ftable is the system-wide table of open files.
type Ftable struct {
	sync.Mutex
	next Tfid
	refs *refmap.RefTable[Tfid, *file]
}

func NewFtable() *Ftable {
	return &Ftable{
		next: 1,
		refs: refmap.NewRefTable[Tfid, *file](db.FILE),
	}
}

// Open makes a new open file on ip. The open file owns the caller's
// reference to ip and puts it when the last handle is closed.
func (ft *Ftable) Open(ip Inode, readable, writable bool) *Fhandle {
	ft.Lock()
	defer ft.Unlock()

	fid := ft.next
	ft.next += 1
	f, _ := ft.refs.Insert(fid, func() *file {
		return &file{fid: fid, ip: ip, readable: readable, writable: writable}
	})
	db.DPrintf(db.FILE, "Open %v", f)
	return &Fhandle{ft: ft, f: f}
}

func (ft *Ftable) Nref(fid Tfid) int {
	ft.Lock()
	defer ft.Unlock()
	return ft.refs.Nref(fid)
}

func (ft *Ftable) Nopen() int {
	ft.Lock()
	defer ft.Unlock()
	return ft.refs.Len()
}

type Fhandle struct {
	ft *Ftable
	f  *file
}

func (fh *Fhandle) Fid() Tfid {
	return fh.f.fid
}

func (fh *Fhandle) Dup() File {
	fh.ft.Lock()
	defer fh.ft.Unlock()
	if err := fh.ft.refs.Incr(fh.f.fid); err != nil {
		db.DFatalf("filedup %v: %v", fh.f, err)
	}
	return fh
}

func (fh *Fhandle) Close() {
	fh.ft.Lock()
	del, err := fh.ft.refs.Delete(fh.f.fid)
	fh.ft.Unlock()
	if err != nil {
		db.DFatalf("fileclose %v: %v", fh.f, err)
	}
	if del {
		db.DPrintf(db.FILE, "Close %v: last reference", fh.f)
		fh.f.ip.Put()
	}
}
