package segment

import "github.com/seqlog/seqlog/internal/frame"

// recoverSegment rebuilds (w_index, w_data) — and, since there is nothing
// on disk to tell apart "written" from "synced" after a crash, (s_index,
// s_data) too — by scanning the index from slot 0 until it hits a slot
// that does not describe a fully published frame. There is no separate
// meta file: everything the scan can still see is, by definition, what
// survived.
func recoverSegment(s *Segment) error {
	data := s.data.buf

	firstFlags := frame.Empty
	if len(data) >= frame.HeaderSize {
		firstFlags = frame.ObserveFlags(data, 0)
	}
	if s.idx.get(0) == 0 && firstFlags != frame.Ready && firstFlags != frame.EOS {
		s.writePair.store(0, 0)
		s.syncPair.store(0, 0)
		return nil
	}

	var i uint32
	var lastEnd uint32
	for {
		phys := s.idx.get(i)
		if i > 0 && phys == 0 {
			break
		}
		if int(phys)+frame.HeaderSize > len(data) {
			break
		}
		if frame.ObserveFlags(data, int(phys)) != frame.Ready {
			break
		}
		hdr := frame.Decode(data, int(phys))
		if hdr.Size < frame.HeaderSize || int(phys)+int(hdr.Size) > len(data) {
			break
		}
		lastEnd = phys + hdr.Size
		i++
	}

	writeIndex, writeData := i, lastEnd
	if int(writeData)+frame.HeaderSize <= len(data) && frame.ObserveFlags(data, int(writeData)) == frame.EOS {
		writeData += frame.EOSFrameSize
	}

	s.writePair.store(writeIndex, writeData)
	s.syncPair.store(writeIndex, writeData)
	return nil
}
