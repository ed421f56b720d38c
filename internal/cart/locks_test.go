package cart

import (
	"sync"
	"testing"
)

func TestOwnerLocksSerializePerOwner(t *testing.T) {
	locks := newOwnerLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("patient-1")
			current := counter
			counter = current + 1
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("expected lock table to drain, got %d entries", n)
	}
}

func TestOwnerLocksIndependentOwners(t *testing.T) {
	locks := newOwnerLocks()
	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()
	<-done
}
