// Package segment implements a single append-only, mmap-backed segment
// file plus its sparse offset index: claim-publish writes under a lock-free
// CAS, msync-based durability, and recovery by scanning the index and data
// on open (there is no separate metadata file to go stale).
package segment

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/seqlog/seqlog/internal/codes"
	"github.com/seqlog/seqlog/internal/frame"
	"github.com/seqlog/seqlog/internal/metrics"
)

// Segment is one fixed-size region of the log: a data file holding frames
// and an index file mapping frame ordinal to physical byte offset.
type Segment struct {
	dir        string
	baseOffset uint64
	size       int
	policy     ReadPolicy

	data    *dataFile
	idx     *index
	idxFile *os.File

	writePair offsetPair // (w_index, w_data): next frame ordinal, write cursor
	syncPair  offsetPair // (s_index, s_data): last fsynced ordinal and cursor

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Open opens or creates the segment rooted at baseOffset inside dir, sized
// to exactly size bytes of frame data. size must be a multiple of the OS
// page size, since both the data and index files are mmap'd.
func Open(dir string, baseOffset uint64, size int, policy ReadPolicy, logger *zap.Logger, m *metrics.Metrics) (*Segment, error) {
	if size <= 0 || size%pageSize() != 0 {
		return nil, codes.New(codes.NoPageMultiple)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, codes.Wrap(codes.LogDir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}

	df, err := openDataFile(logPath(dir, baseOffset), size)
	if err != nil {
		return nil, err
	}

	idxSize := maxEntries(size, frame.HeaderSize) * indexEntryWidth
	idxF, idxBuf, err := openMapped(indexPath(dir, baseOffset), idxSize)
	if err != nil {
		df.close()
		return nil, codes.Wrap(codes.IndexCreate, err)
	}

	s := &Segment{
		dir:        dir,
		baseOffset: baseOffset,
		size:       size,
		policy:     policy,
		data:       df,
		idx:        &index{data: idxBuf},
		idxFile:    idxF,
		logger:     logger,
		metrics:    m,
	}

	if err := recoverSegment(s); err != nil {
		s.Close()
		return nil, err
	}

	m.OpenSegments.Inc()
	logger.Debug("segment opened",
		zap.String("dir", dir),
		zap.Uint64("base_offset", baseOffset),
		zap.Int("size", size))
	return s, nil
}

// BaseOffset is the logical offset (frame ordinal within the log) of this
// segment's first frame.
func (s *Segment) BaseOffset() uint64 { return s.baseOffset }

// WriteIndex returns the number of indexed frames written so far, i.e. the
// count excluding any sealing EOS marker.
func (s *Segment) WriteIndex() uint32 {
	idx, _ := s.writePair.load()
	return idx
}

// Sealed reports whether this segment has been closed off with an EOS
// marker and can accept no further writes.
func (s *Segment) Sealed() bool {
	_, wData := s.writePair.load()
	return s.sealedAt(wData)
}

func (s *Segment) sealedAt(wData uint32) bool {
	if wData < frame.HeaderSize {
		return false
	}
	return frame.ObserveFlags(s.data.buf, int(wData)-frame.HeaderSize) == frame.EOS
}

// Write claims room for payload, publishes it, and records its physical
// offset in the index. It returns codes.EndOfSegment if the segment is
// already sealed or does not have room and had to seal itself, codes.Lock
// if a concurrent writer won the claim race (the caller may retry), and
// codes.NoWriteCapacity if payload could never fit in a segment this size.
func (s *Segment) Write(payload []byte) (int, error) {
	frameSize := frame.HeaderSize + len(payload)
	if frameSize+frame.EOSFrameSize > s.size {
		s.metrics.AppendsTotal.WithLabelValues("nowcp").Inc()
		return 0, codes.New(codes.NoWriteCapacity)
	}

	wIndex, wData := s.writePair.load()

	if s.sealedAt(wData) {
		s.metrics.AppendsTotal.WithLabelValues("eos").Inc()
		return 0, codes.New(codes.EndOfSegment)
	}

	if int(wData)+frameSize+frame.EOSFrameSize > s.size {
		if !s.writePair.cas(wIndex, wData, wIndex, wData+frame.EOSFrameSize) {
			s.metrics.LockContentionTotal.WithLabelValues("write").Inc()
			return 0, codes.New(codes.Lock)
		}
		frame.WriteEOS(s.data.buf, int(wData))
		s.logger.Debug("segment sealed", zap.Uint64("base_offset", s.baseOffset), zap.Uint32("frames", wIndex))
		s.metrics.AppendsTotal.WithLabelValues("eos").Inc()
		return 0, codes.New(codes.EndOfSegment)
	}

	newData := wData + uint32(frameSize)
	newIndex := wIndex + 1
	if !s.writePair.cas(wIndex, wData, newIndex, newData) {
		s.metrics.LockContentionTotal.WithLabelValues("write").Inc()
		return 0, codes.New(codes.Lock)
	}

	frame.WriteBody(s.data.buf, int(wData), payload)
	frame.Publish(s.data.buf, int(wData), frame.Ready)
	s.idx.set(wIndex, wData)

	s.metrics.AppendsTotal.WithLabelValues("ok").Inc()
	s.metrics.BytesWrittenTotal.Add(float64(len(payload)))
	return len(payload), nil
}

// Read returns the payload of the frame at relativeIndex within this
// segment. It returns codes.EndOfSegment if relativeIndex lands exactly on
// a sealed segment's boundary (the caller should retry against the next
// segment), and codes.NoRead if the slot has not been written yet.
func (s *Segment) Read(relativeIndex uint32) ([]byte, error) {
	wIndex, wData := s.writePair.load()
	boundaryIndex, boundaryData := wIndex, wData
	if s.policy == ReadCommitted {
		boundaryIndex, boundaryData = s.syncPair.load()
	}

	if relativeIndex > boundaryIndex {
		s.metrics.ReadsTotal.WithLabelValues("nord").Inc()
		return nil, codes.New(codes.NoRead)
	}
	if relativeIndex == boundaryIndex {
		if s.sealedAt(boundaryData) {
			s.metrics.ReadsTotal.WithLabelValues("eos").Inc()
			return nil, codes.New(codes.EndOfSegment)
		}
		s.metrics.ReadsTotal.WithLabelValues("nord").Inc()
		return nil, codes.New(codes.NoRead)
	}

	physicalOffset := s.idx.get(relativeIndex)
	if relativeIndex > 0 && physicalOffset == 0 {
		s.metrics.ReadsTotal.WithLabelValues("nord").Inc()
		return nil, codes.New(codes.NoRead)
	}

	switch frame.ObserveFlags(s.data.buf, int(physicalOffset)) {
	case frame.Empty:
		s.metrics.ReadsTotal.WithLabelValues("invhd").Inc()
		return nil, codes.New(codes.InvalidHeader)
	case frame.EOS:
		s.metrics.ReadsTotal.WithLabelValues("eos").Inc()
		return nil, codes.New(codes.EndOfSegment)
	}

	hdr := frame.Decode(s.data.buf, int(physicalOffset))
	payload := s.data.buf[int(physicalOffset)+frame.HeaderSize : int(physicalOffset)+int(hdr.Size)]
	s.metrics.ReadsTotal.WithLabelValues("ok").Inc()
	return payload, nil
}

// Sync flushes every frame and index entry written since the last Sync to
// disk and advances the sync offset pair. It returns the number of newly
// durable data bytes.
func (s *Segment) Sync() (int, error) {
	wIndex, wData := s.writePair.load()
	sIndex, sData := s.syncPair.load()
	if wData == sData {
		return 0, nil
	}

	start := time.Now()
	if err := msyncRange(s.data.buf, int(sData), int(wData)); err != nil {
		return 0, err
	}
	if err := msyncRange(s.idx.data, int(sIndex)*indexEntryWidth, int(wIndex)*indexEntryWidth); err != nil {
		return 0, codes.Wrap(codes.MetaSync, err)
	}
	s.syncPair.store(wIndex, wData)
	s.metrics.SyncDuration.Observe(time.Since(start).Seconds())

	synced := wData - sData
	s.metrics.SyncedBytesTotal.Add(float64(synced))
	return int(synced), nil
}

// Close syncs the segment and unmaps both files.
func (s *Segment) Close() error {
	if _, err := s.Sync(); err != nil {
		s.logger.Warn("sync on close failed", zap.Error(err), zap.Uint64("base_offset", s.baseOffset))
	}
	s.metrics.OpenSegments.Dec()

	var firstErr error
	if err := s.data.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := closeMapped(s.idxFile, s.idx.data); err != nil && firstErr == nil {
		firstErr = codes.Wrap(codes.IndexOp, err)
	}
	return firstErr
}
