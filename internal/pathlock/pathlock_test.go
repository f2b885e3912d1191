package pathlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocker_Serialises(t *testing.T) {
	locker := &Locker{}
	counter := 0
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths := []string{"b.js", "a.js"}
			if i%2 == 0 {
				paths = []string{"a.js", "b.js", "a.js"}
			}
			unlock := locker.Lock(paths...)
			counter++
			unlock()
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 50, counter)
	assert.EqualValues(t, 0, locker.Size())
}

func TestLocker_IndependentPaths(t *testing.T) {
	locker := &Locker{}
	unlockA := locker.Lock("a.js")
	done := make(chan struct{})
	go func() {
		unlock := locker.Lock("b.js")
		unlock()
		close(done)
	}()
	<-done
	assert.EqualValues(t, 1, locker.Size())
	unlockA()
	assert.EqualValues(t, 0, locker.Size())
}
