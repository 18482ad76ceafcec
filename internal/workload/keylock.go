package workload

import "sync"

// keyLock serializes the ledger read-modify-write per trainer username so
// concurrent messages for the same trainer cannot lose updates. Messages for
// different trainers still proceed in parallel. Mutexes are kept for the
// process lifetime; the map is bounded by the number of distinct trainers.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyLock) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
