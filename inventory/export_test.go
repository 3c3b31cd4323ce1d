package inventory

// SlotLockCount exposes the number of live slot locks to tests.
func SlotLockCount(a *Allocations) int { return a.locks.size() }

// RevPAR exposes the RevPAR formula to tests.
var RevPAR = revPAR

// Index exposes the index formula to tests.
var Index = index
