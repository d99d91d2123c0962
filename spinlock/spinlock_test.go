package spinlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	db "armos/debug"
)

func TestMutualExclusion(t *testing.T) {
	const (
		N    = 8
		NINC = 1000
	)
	lk := NewSpinlock("test")
	cnt := 0
	var wg sync.WaitGroup
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < NINC; j++ {
				lk.Lock()
				cnt++
				lk.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, N*NINC, cnt)
	assert.False(t, lk.Holding())
}

func TestHandOff(t *testing.T) {
	lk := NewSpinlock("handoff")
	lk.Lock()
	done := make(chan bool)
	go func() {
		assert.True(t, lk.Holding())
		lk.Unlock()
		done <- true
	}()
	<-done
	assert.True(t, lk.TryLock())
	lk.Unlock()
}

func TestReleaseUnheld(t *testing.T) {
	db.SetFatal(func(msg string) { panic(msg) })
	defer db.SetFatal(nil)
	lk := NewSpinlock("unheld")
	assert.Panics(t, func() { lk.Unlock() })
}
