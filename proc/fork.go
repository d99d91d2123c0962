package proc

import (
	db "armos/debug"
)

// Fork creates a child whose address space is a copy of p's and whose
// trap frame matches p's except that X[0] is 0, so the child sees fork
// return 0. The child shares p's open files and working directory. On
// success the child is RUNNABLE and Fork returns its pid; on failure
// nothing of the child remains.
func (p *Proc) Fork() (Tpid, error) {
	t := p.tbl
	np, err := t.allocProc()
	if err != nil {
		db.DPrintf(db.PROC_ERR, "%v: fork err %v", p, err)
		return 0, err
	}
	pgdir, err := p.pgdir.Copy(p.sz)
	if err != nil {
		db.DPrintf(db.PROC_ERR, "%v: fork copy err %v", p, err)
		t.unallocProc(np)
		return 0, err
	}
	np.pgdir = pgdir
	*np.tf = *p.tf
	np.tf.X[0] = 0
	for fd, f := range p.ofile {
		if f != nil {
			np.ofile[fd] = f.Dup()
		}
	}
	if p.cwd != nil {
		np.cwd = p.cwd.Dup()
	}
	np.prog = p.prog

	t.lock.Lock()
	pid := np.pid
	np.sz = p.sz
	np.name = p.name
	np.parent = p
	np.state = RUNNABLE
	t.lock.Unlock()

	db.DPrintf(db.FORK, "%v: fork %v", p, np)
	return pid, nil
}
