package proc

import (
	"sync"

	db "armos/debug"
)

// Sleep atomically releases lk and suspends p on channel ch; lk is
// held again when Sleep returns. Because the table lock is taken
// before lk is released, a Wakeup issued by someone who changed the
// condition under lk cannot be missed. ch must be comparable, and
// callers should recheck their condition in a loop: Kill also wakes
// sleepers.
func (p *Proc) Sleep(ch any, lk sync.Locker) {
	t := p.tbl
	if lk == nil {
		db.DFatalf("sleep: %v without lock", p)
	}
	if ch == nil {
		db.DFatalf("sleep: %v on nil channel", p)
	}
	tl := sync.Locker(&t.lock)
	if lk != tl {
		t.lock.Lock()
		lk.Unlock()
	}

	p.wchan = ch
	p.state = SLEEPING
	db.DPrintf(db.SLEEP, "%v: sleep on %v", p, ch)
	t.sched(p)
	p.wchan = nil

	if lk != tl {
		t.lock.Unlock()
		lk.Lock()
	}
}

// Wakeup makes every process sleeping on ch RUNNABLE.
func (t *Ptable) Wakeup(ch any) {
	t.lock.Lock()
	t.wakeup1(ch)
	t.lock.Unlock()
}

// Caller holds t.lock
func (t *Ptable) wakeup1(ch any) {
	for i := range t.procs {
		p := &t.procs[i]
		if p.state == SLEEPING && p.wchan == ch {
			db.DPrintf(db.SLEEP, "wakeup %v on %v", p, ch)
			p.state = RUNNABLE
		}
	}
}
