package proc

import (
	db "armos/debug"
	"armos/kerr"
)

// Kill marks process pid killed and, if it is sleeping, makes it
// RUNNABLE so it can notice.
func (t *Ptable) Kill(pid Tpid) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	p := t.lookup(pid)
	if p == nil {
		return kerr.NewErr(kerr.TErrNotfound, pid)
	}
	p.killed = true
	if p.state == SLEEPING {
		p.state = RUNNABLE
	}
	db.DPrintf(db.PROC, "kill %v", p)
	return nil
}
