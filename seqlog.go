// Package seqlog implements an embeddable, append-only message log: a
// directory of fixed-size mmap'd segments indexed by a monotonic B+ tree,
// offering lock-free single-writer append and O(1) indexed reads. Ported
// from rbruggem/mqlog (C)'s mqlog.c coordinator.
package seqlog

import (
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seqlog/seqlog/internal/codes"
	"github.com/seqlog/seqlog/internal/mbptree"
	"github.com/seqlog/seqlog/internal/metrics"
	"github.com/seqlog/seqlog/internal/segment"
)

// ReadPolicy re-exports segment.ReadPolicy so callers never need to import
// the internal package directly.
type ReadPolicy = segment.ReadPolicy

const (
	ReadDirty     = segment.ReadDirty
	ReadCommitted = segment.ReadCommitted
)

// Log is a directory of segments presented as one gap-free, monotonically
// keyed message log. A Log must not be copied after first use.
type Log struct {
	dir         string
	segmentSize int
	policy      segment.ReadPolicy

	logger  *zap.Logger
	metrics *metrics.Metrics

	// mu serializes writers the way mqlog_write in the original C engine
	// serializes behind a non-blocking pthread_mutex_trylock: a writer
	// that loses the race gets codes.Lock back immediately rather than
	// blocking, leaving retry policy to the caller.
	mu sync.Mutex

	index        *mbptree.Tree[*segment.Segment]
	segmentCount int
}

// Open opens (creating if necessary) the log rooted at dir, with every
// segment sized to exactly segmentSize bytes of frame data. segmentSize
// must be a multiple of the OS page size. Existing segment files are
// rediscovered and indexed in base-offset order; a brand new directory
// starts with no segments, and the first Write creates one at offset 0.
func Open(dir string, segmentSize int, opts ...Option) (*Log, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if segmentSize <= 0 || segmentSize%os.Getpagesize() != 0 {
		return nil, codes.New(codes.NoPageMultiple)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, codes.Wrap(codes.LogDir, err)
	}

	m := metrics.New(o.registerer)

	l := &Log{
		dir:         dir,
		segmentSize: segmentSize,
		policy:      o.readPolicy,
		logger:      o.logger,
		metrics:     m,
		index:       mbptree.Init[*segment.Segment](o.branchFactor),
	}

	if err := l.loadSegments(); err != nil {
		l.Close()
		return nil, err
	}

	l.logger.Info("log opened",
		zap.String("dir", dir),
		zap.Int("segment_size", segmentSize),
		zap.Int("segments_loaded", l.segmentCount))
	return l, nil
}

// loadSegments rediscovers every "*.log" file in l.dir, opens it (running
// recovery-by-scan), and appends it to the index in base-offset order —
// the Go analogue of mqlog.c's load_segments.
func (l *Log) loadSegments() error {
	offsets, err := segment.ListBaseOffsets(l.dir)
	if err != nil {
		return err
	}

	for _, baseOffset := range offsets {
		sgm, err := segment.Open(l.dir, baseOffset, l.segmentSize, l.policy, l.logger, l.metrics)
		if err != nil {
			return codes.Wrap(codes.LoadSegments, err)
		}
		if err := l.index.Append(baseOffset, sgm); err != nil {
			sgm.Close()
			return codes.Wrap(codes.LoadSegments, err)
		}
		l.segmentCount++
	}
	return nil
}

// createSegment opens a brand new segment at baseOffset under the log's
// directory, the Go analogue of mqlog.c's create_segment.
func (l *Log) createSegment(baseOffset uint64) (*segment.Segment, error) {
	return segment.Open(l.dir, baseOffset, l.segmentSize, l.policy, l.logger, l.metrics)
}

// Write appends payload as the next frame in the log, creating and rolling
// segments as needed. It returns the number of payload bytes written.
// An empty payload is not appended: Write returns 0 and no error, and no
// offset is consumed. Write returns codes.Lock if a concurrent Write already holds the log, and
// codes.NoWriteCapacity if payload cannot fit in any segment of this log's
// configured size.
func (l *Log) Write(payload []byte) (int, error) {
	if len(payload) == 0 {
		return 0, nil
	}
	if !l.mu.TryLock() {
		return 0, codes.New(codes.Lock)
	}
	defer l.mu.Unlock()
	return l.tryWrite(payload)
}

func (l *Log) tryWrite(payload []byte) (int, error) {
	sgm, ok := l.index.Last()
	newSegment := false
	if !ok {
		var err error
		sgm, err = l.createSegment(0)
		if err != nil {
			return 0, err
		}
		newSegment = true
	}

	written, err := sgm.Write(payload)
	if err != nil && !errors.Is(err, codes.ErrEndOfSegment) {
		return 0, err
	}

	if err != nil { // codes.EndOfSegment
		if newSegment {
			sgm.Close()
			return 0, codes.New(codes.NoWriteCapacity)
		}

		// The sealed segment is synced in full before the log moves past
		// it, so Sync only ever has to flush the active segment.
		if _, err := sgm.Sync(); err != nil {
			return 0, err
		}

		newBaseOffset := sgm.BaseOffset() + uint64(sgm.WriteIndex())
		sgm, err = l.createSegment(newBaseOffset)
		if err != nil {
			return 0, err
		}
		newSegment = true

		written, err = sgm.Write(payload)
		if err != nil {
			// Only attempted twice: a payload this large will never fit a
			// fresh segment either.
			sgm.Close()
			return 0, codes.New(codes.NoWriteCapacity)
		}
	}

	if newSegment {
		if err := l.index.Append(sgm.BaseOffset(), sgm); err != nil {
			sgm.Close()
			return 0, codes.Wrap(codes.IndexOp, err)
		}
		l.segmentCount++
		l.metrics.SegmentRollsTotal.Inc()
		l.logger.Debug("segment rolled", zap.Uint64("base_offset", sgm.BaseOffset()))
	}

	return written, nil
}

// Read returns the payload of the frame at the given logical offset
// (a frame ordinal counted from the very first frame ever written). It
// returns codes.NoRead if offset has not been written (yet, or ever), and
// codes.Lock if a concurrent Write holds the log while the index is being
// searched.
func (l *Log) Read(offset uint64) ([]byte, error) {
	if !l.mu.TryLock() {
		return nil, codes.New(codes.Lock)
	}
	it, err := l.index.Floor(offset)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !it.Valid() {
		return nil, codes.New(codes.NoRead)
	}

	// A read landing on a sealed segment's boundary is really the first
	// frame of the next segment; bounded by segmentCount so a chain of
	// sealed, never-written-to segments can't spin forever.
	for hops := 0; hops <= l.segmentCount; hops++ {
		sgm := it.Value()
		relative := offset - it.Key()

		payload, err := sgm.Read(uint32(relative))
		if err == nil {
			return payload, nil
		}
		if !errors.Is(err, codes.ErrEndOfSegment) {
			return nil, err
		}

		it = it.Next()
		if !it.Valid() {
			return nil, codes.New(codes.NoRead)
		}
	}
	return nil, codes.New(codes.NoRead)
}

// Sync flushes the currently active segment to disk and returns the number
// of newly durable bytes. Mirrors mqlog_sync, which syncs only the last
// (active) segment — earlier, sealed segments were already synced in full
// when they were sealed. Sync returns codes.Lock if a concurrent Write holds
// the log.
func (l *Log) Sync() (int64, error) {
	if !l.mu.TryLock() {
		return 0, codes.New(codes.Lock)
	}
	defer l.mu.Unlock()
	sgm, ok := l.index.Last()
	if !ok {
		return 0, nil
	}
	n, err := sgm.Sync()
	return int64(n), err
}

// Close syncs and unmaps every segment, closing them concurrently with
// errgroup since they share no state and can be closed in any order.
func (l *Log) Close() error {
	it, err := l.index.First()
	if err != nil {
		return err
	}

	var g errgroup.Group
	for it.Valid() {
		sgm := it.Value()
		g.Go(sgm.Close)
		it = it.Next()
	}
	return g.Wait()
}
