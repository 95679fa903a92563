package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDepartmentLocks_SerializesSameDepartment(t *testing.T) {
	locks := newDepartmentLocks()

	unlock := locks.lock("h1", "d1")
	acquired := make(chan struct{})
	go func() {
		release := locks.lock("h1", "d1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired a held department lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second caller never acquired the lock")
	}
}

func TestDepartmentLocks_IndependentDepartments(t *testing.T) {
	locks := newDepartmentLocks()

	unlockA := locks.lock("h1", "d1")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		locks.lock("h1", "d2")()
		locks.lock("h2", "d1")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated departments were blocked")
	}
}

func TestDepartmentLocks_ReleasesEntries(t *testing.T) {
	locks := newDepartmentLocks()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.lock("h1", "d1")()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, locks.size())
}
