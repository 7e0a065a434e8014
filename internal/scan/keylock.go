package scan

import (
	"fmt"
	"sync"
)

// keyLocks serializes settlement per (user, merchant) key so that two
// concurrent scans cannot both observe a balance above threshold and issue
// two vouchers for one crossing. Entries are never removed; the map is
// bounded by the number of active (user, merchant) pairs in one process.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for the pair and returns its unlock function.
func (l *keyLocks) lock(userID, merchantID uint) func() {
	key := fmt.Sprintf("%d:%d", userID, merchantID)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
