package services

import "sync"

// CollectionLocks hands out one mutex per (event, collection) pair so that
// load-modify-save cycles on the same collection never interleave. The
// guarantee holds within this process only.
type CollectionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCollectionLocks() *CollectionLocks {
	return &CollectionLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for the pair and returns its unlock func.
func (c *CollectionLocks) lock(event, collection string) func() {
	key := event + "\x00" + collection
	c.mu.Lock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}
