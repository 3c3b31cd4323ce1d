package inventory

import "sync"

// slotLocks serializes read-validate-write sequences per slot. Every channel
// of a slot shares one lock, so the cross-channel capacity sum and the write
// that depends on it are a single atomic unit.
//
// Entries are reference counted and dropped when the last holder unlocks.
type slotLocks struct {
	mu    sync.Mutex
	locks map[SlotKey]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{locks: make(map[SlotKey]*slotLock)}
}

// lock acquires the slot and returns its release function.
func (s *slotLocks) lock(key SlotKey) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &slotLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// size reports how many slots currently have holders or waiters.
func (s *slotLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
