package kernel

import (
	db "armos/debug"
	"armos/proc"
)

// Boot creates the init process from initcode, running prog in the
// file system's root directory, and starts a scheduler on every CPU.
func (k *Kernel) Boot(initcode []byte, prog proc.Program) *proc.Proc {
	k.Lock()
	defer k.Unlock()

	if k.booted {
		db.DFatalf("Boot: already booted")
	}
	k.booted = true
	p := k.ptable.UserInit(initcode, prog, k.itable.Root())
	for i := 0; i < k.ptable.Ncpu(); i++ {
		c := k.ptable.Cpu(i)
		k.cpus.Add(1)
		go func() {
			defer k.cpus.Done()
			k.ptable.Scheduler(c)
		}()
	}
	db.DPrintf(db.KERNEL, "Boot %v ncpu %d", p, k.ptable.Ncpu())
	return p
}
