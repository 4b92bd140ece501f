package segment

import "sync/atomic"

// offsetPair packs two uint32 counters — a frame count and a byte count —
// into one uint64 so both can be advanced together with a single CAS.
// Guarding the counters with a sync.RWMutex would serialize every writer;
// a segment under concurrent writers needs the pair to move atomically
// without blocking, so it is packed the way mbptree packs its try-lock word
// instead.
type offsetPair struct {
	v uint64
}

func packPair(index, data uint32) uint64 {
	return uint64(index)<<32 | uint64(data)
}

func unpackPair(v uint64) (index, data uint32) {
	return uint32(v >> 32), uint32(v)
}

func (p *offsetPair) load() (index, data uint32) {
	return unpackPair(atomic.LoadUint64(&p.v))
}

func (p *offsetPair) store(index, data uint32) {
	atomic.StoreUint64(&p.v, packPair(index, data))
}

// cas attempts to move the pair from (oldIndex, oldData) to (newIndex,
// newData) and reports whether it won the race.
func (p *offsetPair) cas(oldIndex, oldData, newIndex, newData uint32) bool {
	return atomic.CompareAndSwapUint64(&p.v, packPair(oldIndex, oldData), packPair(newIndex, newData))
}
