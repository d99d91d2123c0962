package proc

import (
	db "armos/debug"
)

// Exit closes p's files, drops its working directory, hands its
// children to init and leaves p a ZOMBIE for its parent to reap. It
// does not return. The init process must never exit.
func (p *Proc) Exit() {
	t := p.tbl
	if p == t.initproc {
		db.DFatalf("exit: init exiting")
	}
	for fd := range p.ofile {
		if f := p.ofile[fd]; f != nil {
			f.Close()
			p.ofile[fd] = nil
		}
	}
	if p.cwd != nil {
		p.cwd.Put()
		p.cwd = nil
	}

	t.lock.Lock()
	// The parent might be sleeping in Wait.
	t.wakeup1(p.parent)
	for i := range t.procs {
		q := &t.procs[i]
		if q.parent == p {
			q.parent = t.initproc
			if q.state == ZOMBIE {
				t.wakeup1(t.initproc)
			}
		}
	}
	p.state = ZOMBIE
	db.DPrintf(db.EXIT, "%v: exit", p)
	t.sched(p)
	db.DFatalf("exit: zombie %v ran again", p)
}
