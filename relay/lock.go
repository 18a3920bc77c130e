package relay

import (
	"fmt"
	"time"
)

// lockTimeout is the hard per-lock acquisition bound: a conforming
// handler never holds a state lock across a blocking collaborator or
// transport call, so any wait this long indicates a programming error
// rather than ordinary contention. Exceeding it panics rather than
// deadlocking silently.
const lockTimeout = 300 * time.Second

// timedMutex is a mutual-exclusion lock that panics instead of blocking
// forever. RelayState's pendingCompactBlocks, inflightProposals and
// pendingProposalsRequest each own one, so no handler can be stuck waiting
// on another handler's stalled critical section over those containers
// without a loud signal. The two received-item LRU caches rely on their
// own internal locking instead.
type timedMutex struct {
	ch chan struct{}
}

func newTimedMutex() *timedMutex {
	m := &timedMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

// Lock acquires the mutex or panics after lockTimeout elapses.
func (m *timedMutex) Lock() {
	select {
	case <-m.ch:
	case <-time.After(lockTimeout):
		panic(fmt.Sprintf("relay: lock acquisition timed out after %s; likely held across a blocking call", lockTimeout))
	}
}

func (m *timedMutex) Unlock() {
	select {
	case m.ch <- struct{}{}:
	default:
		panic("relay: Unlock of unlocked timedMutex")
	}
}
