package proc

import (
	db "armos/debug"
	"armos/kerr"
)

// Wait reaps a ZOMBIE child of p, freeing all of its resources, and
// returns its pid. It sleeps while p has children but none has exited.
// Each child is reaped exactly once.
func (p *Proc) Wait() (Tpid, error) {
	t := p.tbl
	t.lock.Lock()
	for {
		havekids := false
		for i := range t.procs {
			q := &t.procs[i]
			if q.parent != p {
				continue
			}
			havekids = true
			if q.state == ZOMBIE {
				pid := q.pid
				t.freeProc(q)
				t.lock.Unlock()
				db.DPrintf(db.WAIT, "%v: reaped %d", p, pid)
				return pid, nil
			}
		}
		if !havekids {
			t.lock.Unlock()
			return 0, kerr.NewErr(kerr.TErrNoChildren, p.pid)
		}
		if p.killed {
			t.lock.Unlock()
			return 0, kerr.NewErr(kerr.TErrKilled, p.pid)
		}
		p.Sleep(p, &t.lock)
	}
}
