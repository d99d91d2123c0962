package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"armos/config"
	db "armos/debug"
	"armos/kernel"
	"armos/mmu"
	"armos/proc"
)

const NCHILD = 4

// Resume points of the demo init program.
const (
	START = iota
	CHILD
)

func main() {
	if len(os.Args) > 2 {
		db.DFatalf("Usage: %v [config.yml]", os.Args[0])
	}
	var param *config.Param
	var err error
	if len(os.Args) == 2 {
		param, err = config.ReadParam(os.Args[1])
	} else {
		param, err = config.ReadParamEnv()
	}
	if err != nil {
		db.DFatalf("Error param: %v", err)
	}
	k, err := kernel.NewKernel(param)
	if err != nil {
		db.DFatalf("Error NewKernel: %v", err)
	}
	db.DPrintf(db.ALWAYS, "Boot %v", k)

	done := make(chan struct{})
	k.Boot([]byte("initcode"), func(p *proc.Proc) {
		switch p.Tf().Elr {
		case START:
			p.Tf().Elr = CHILD
			for i := 0; i < NCHILD; i++ {
				if _, err := p.Fork(); err != nil {
					db.DPrintf(db.ALWAYS, "fork err %v", err)
				}
			}
			for {
				pid, err := p.Wait()
				if err != nil {
					break
				}
				db.DPrintf(db.ALWAYS, "init: reaped %d", pid)
			}
			k.Ptable().Procdump(os.Stdout)
			close(done)
			for {
				p.Yield()
			}
		case CHILD:
			n := int(p.Pid()) * mmu.PGSIZE
			old, err := p.Sbrk(n)
			if err != nil {
				db.DPrintf(db.ALWAYS, "%d: sbrk err %v", p.Pid(), err)
				return
			}
			msg := fmt.Sprintf("hello from %d", p.Pid())
			if err := p.Pgtbl().CopyOut(old, []byte(msg)); err != nil {
				db.DPrintf(db.ALWAYS, "%d: copyout err %v", p.Pid(), err)
				return
			}
			db.DPrintf(db.ALWAYS, "%d: %q at %#x, size %v", p.Pid(), msg, old, humanize.IBytes(p.Size()))
		}
	})
	<-done
	if err := k.Shutdown(); err != nil {
		db.DFatalf("Error Shutdown: %v", err)
	}
}
