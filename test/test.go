package test

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"armos/config"
	db "armos/debug"
	"armos/kernel"
	"armos/proc"
	"armos/spinlock"
)

//
// Tstate boots a small kernel for a test. DFatalf calls made by
// kernel threads are reported to the test; the faulting thread then
// stops, as a core that hit a kernel panic would.
//

const TIMEOUT = 10 * time.Second

var Ncpu int

func init() {
	flag.IntVar(&Ncpu, "ncpu", 2, "CPUs per test kernel")
}

// INITCODE stands in for the bootstrap binary mapped at address 0.
var INITCODE = []byte{0x00, 0x00, 0x00, 0xd4, 0x01, 0x00, 0x00, 0x14}

type Tstate struct {
	*testing.T
	K     *kernel.Kernel
	fatal chan string
}

func NewTstate(t *testing.T, nproc int, mem string) *Tstate {
	return NewTstateCpu(t, Ncpu, nproc, mem)
}

func NewTstateCpu(t *testing.T, ncpu, nproc int, mem string) *Tstate {
	ts := &Tstate{T: t, fatal: make(chan string, 16)}
	db.SetFatal(func(msg string) {
		ts.fatal <- msg
		select {}
	})
	p := config.NewParam()
	p.Ncpu = ncpu
	p.Nproc = nproc
	p.Mem = mem
	k, err := kernel.NewKernel(p)
	if !assert.Nil(t, err, "NewKernel") {
		t.FailNow()
	}
	ts.K = k
	return ts
}

func (ts *Tstate) Boot(prog proc.Program) *proc.Proc {
	return ts.K.Boot(INITCODE, prog)
}

// WaitDone waits for done to be closed. It fails the test on a kernel
// fatal error or a timeout.
func (ts *Tstate) WaitDone(done chan struct{}) bool {
	select {
	case <-done:
		return true
	case msg := <-ts.fatal:
		assert.Fail(ts.T, "kernel fatal", msg)
	case <-time.After(TIMEOUT):
		assert.Fail(ts.T, "timeout")
	}
	return false
}

// WaitFatal waits for a kernel thread to hit DFatalf.
func (ts *Tstate) WaitFatal() (string, bool) {
	select {
	case msg := <-ts.fatal:
		return msg, true
	case <-time.After(TIMEOUT):
		assert.Fail(ts.T, "timeout waiting for fatal")
		return "", false
	}
}

func (ts *Tstate) Shutdown() {
	err := ts.K.Shutdown()
	assert.Nil(ts.T, err, "Shutdown")
	db.SetFatal(nil)
}

// Halt stops the schedulers without waiting, for kernels with a stuck
// CPU.
func (ts *Tstate) Halt() {
	ts.K.Halt()
	db.SetFatal(nil)
}

// Park puts p to sleep for good; only Shutdown ends it.
func Park(p *proc.Proc) {
	lk := spinlock.NewSpinlock("park")
	lk.Lock()
	for {
		p.Sleep(lk, lk)
	}
}
