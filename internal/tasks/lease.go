package tasks

import "sync"

// Leases hands out at-most-one leases per key. The pipelines use it to reject
// a second concurrent run on the same record id.
type Leases struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLeases creates an empty lease table.
func NewLeases() *Leases {
	return &Leases{held: make(map[string]struct{})}
}

// Acquire takes the lease for key. It reports false if the lease is already held.
func (l *Leases) Acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Release frees the lease for key. Releasing an unheld lease is a no-op.
func (l *Leases) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
