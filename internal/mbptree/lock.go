package mbptree

import "sync/atomic"

// tryLock packs an exclusive flag and a shared reader count into one
// uint64 so both can be tested and updated with a single CAS, mirroring
// the original C engine's `union cas_mbptree_lock` in mbptree.c (a
// two-phase lock implemented as one word so __sync_bool_compare_and_swap
// can operate on it directly). The exclusive holder and shared readers
// never block: a loser returns immediately rather than spinning, leaving
// retry policy to the caller.
type tryLock struct {
	v uint64
}

func packLock(exclusive, shared uint32) uint64 {
	return uint64(exclusive)<<32 | uint64(shared)
}

func unpackLock(v uint64) (exclusive, shared uint32) {
	return uint32(v >> 32), uint32(v)
}

// tryExclusive acquires the lock for a writer. It only succeeds when
// nobody else, exclusive or shared, currently holds it.
func (l *tryLock) tryExclusive() bool {
	return atomic.CompareAndSwapUint64(&l.v, packLock(0, 0), packLock(1, 0))
}

// unlockExclusive releases a held exclusive lock. Shared readers cannot
// have changed the count while the exclusive bit was set, since their
// acquire CAS requires it to be clear, so a plain store is safe.
func (l *tryLock) unlockExclusive() {
	atomic.StoreUint64(&l.v, packLock(0, 0))
}

// trySharedAcquire increments the shared reader count, but only while no
// exclusive holder is present.
func (l *tryLock) trySharedAcquire() bool {
	for {
		old := atomic.LoadUint64(&l.v)
		exclusive, shared := unpackLock(old)
		if exclusive != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(&l.v, old, packLock(0, shared+1)) {
			return true
		}
	}
}

func (l *tryLock) unlockShared() {
	atomic.AddUint64(&l.v, ^uint64(0)) // -1, safe: shared is always >=1 here
}
