package segment

import "encoding/binary"

const indexEntryWidth = 8 // one little-endian uint64 physical offset per frame

// index is the sparse offset table mapping a frame's ordinal within the
// segment to its physical byte offset in the data file. Unlike a
// binary-search index over variable-width entries guarded by a mutex,
// entries here are fixed-width and each slot is claimed exactly once by the
// writer that won the offsetPair CAS for that ordinal, so concurrent set
// calls never target the same slot and no lock is needed.
type index struct {
	data []byte // mmap region, indexEntryWidth bytes per slot
}

// maxEntries returns the number of frame slots the index can ever hold for
// a segment of the given byte size: the most frames that could fit are
// header-only (zero-payload) ones, so capacity is ceil(size/headerSize).
func maxEntries(segmentSize, headerSize int) int {
	return (segmentSize + headerSize - 1) / headerSize
}

func (x *index) set(slot uint32, physicalOffset uint32) {
	binary.LittleEndian.PutUint64(x.data[int(slot)*indexEntryWidth:], uint64(physicalOffset))
}

// get returns the physical offset stored at slot, or 0 if the slot has
// never been written. 0 is ambiguous at slot 0 (a real first frame always
// starts at physical offset 0 too); callers resolve that case separately.
func (x *index) get(slot uint32) uint32 {
	return uint32(binary.LittleEndian.Uint64(x.data[int(slot)*indexEntryWidth:]))
}
