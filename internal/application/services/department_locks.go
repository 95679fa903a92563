package services

import "sync"

// departmentLocks hands out one mutex per (hospital, department) pair.
// Entries are reference counted and dropped when no caller holds or waits on them.
type departmentLocks struct {
	mu    sync.Mutex
	locks map[string]*departmentLock
}

type departmentLock struct {
	mu   sync.Mutex
	refs int
}

func newDepartmentLocks() *departmentLocks {
	return &departmentLocks{locks: make(map[string]*departmentLock)}
}

// lock blocks until the department is free and returns the matching unlock
func (l *departmentLocks) lock(hospitalID, departmentID string) func() {
	key := hospitalID + "/" + departmentID

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &departmentLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *departmentLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
