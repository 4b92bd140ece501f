package seqlog_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seqlog/seqlog"
	"github.com/seqlog/seqlog/internal/codes"
)

func TestSingleWriterReaderSingleSegment(t *testing.T) {
	dir := t.TempDir()
	log, err := seqlog.Open(dir, 4096)
	require.NoError(t, err)
	defer log.Close()

	first := []byte("Lorem ipsum dolor sit amet, etc ...")
	require.Len(t, first, 35)
	second := []byte("what's up?")
	require.Len(t, second, 10)

	_, err = log.Write(first)
	require.NoError(t, err)
	_, err = log.Write(second)
	require.NoError(t, err)

	got, err := log.Read(0)
	require.NoError(t, err)
	require.Equal(t, first, got)

	got, err = log.Read(1)
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	log, err := seqlog.Open(dir, 4096)
	require.NoError(t, err)

	intPayload := make([]byte, 4)
	binary.LittleEndian.PutUint32(intPayload, 14434)
	require.NoError(t, writeOne(log, intPayload))

	doublePayload := make([]byte, 8)
	binary.LittleEndian.PutUint64(doublePayload, math.Float64bits(45435.2445))
	require.NoError(t, writeOne(log, doublePayload))

	require.NoError(t, log.Close())

	reopened, err := seqlog.Open(dir, 4096)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Read(0)
	require.NoError(t, err)
	require.Equal(t, uint32(14434), binary.LittleEndian.Uint32(got))

	got, err = reopened.Read(1)
	require.NoError(t, err)
	require.Equal(t, math.Float64bits(45435.2445), binary.LittleEndian.Uint64(got))
}

func writeOne(log *seqlog.Log, payload []byte) error {
	_, err := log.Write(payload)
	return err
}

func TestSegmentRollover(t *testing.T) {
	dir := t.TempDir()
	log, err := seqlog.Open(dir, 4096)
	require.NoError(t, err)
	defer log.Close()

	const headerSize = 12
	payloads := []int{3012 - headerSize, 1012 - headerSize, 1112 - headerSize}

	for i, size := range payloads {
		n, err := log.Write(make([]byte, size))
		require.NoErrorf(t, err, "write %d (size %d)", i, size)
		require.Equal(t, size, n)
	}

	_, err = log.Read(0)
	require.NoError(t, err)
	_, err = log.Read(1)
	require.NoError(t, err)

	payload, err := log.Read(2)
	require.NoError(t, err)
	require.Len(t, payload, payloads[2])
}

func TestConcurrentProducersAndConsumer(t *testing.T) {
	dir := t.TempDir()
	log, err := seqlog.Open(dir, 4096)
	require.NoError(t, err)
	defer log.Close()

	const producers = 10
	const perProducer = 128
	const total = producers * perProducer

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(id)))
			for i := 0; i < perProducer; i++ {
				payload := []byte(fmt.Sprintf("p%d-%d-%d", id, i, r.Int()))
				for {
					_, err := log.Write(payload)
					if err == nil {
						break
					}
					if errors.Is(err, codes.ErrLock) {
						continue
					}
					panic(err)
				}
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[string]int, total)
	var mu sync.Mutex
	var consumerWg sync.WaitGroup
	consumerWg.Add(1)
	go func() {
		defer consumerWg.Done()
		for offset := uint64(0); offset < total; offset++ {
			for {
				payload, err := log.Read(offset)
				if err == nil {
					mu.Lock()
					seen[string(payload)]++
					mu.Unlock()
					break
				}
				if errors.Is(err, codes.ErrLock) ||
					errors.Is(err, codes.ErrInvalidHeader) ||
					errors.Is(err, codes.ErrNoRead) {
					continue
				}
				panic(err)
			}
		}
	}()
	consumerWg.Wait()

	require.Len(t, seen, total)
	for payload, count := range seen {
		require.Equalf(t, 1, count, "payload %q observed %d times", payload, count)
	}
}

// TestRebuildFromDisk writes enough frames to force the coordinator to roll
// across several segments transparently (Write auto-rolls on EndOfSegment
// rather than surfacing it to the caller), closes the log, reopens it, and
// checks that every offset still reads back correctly — proving the index
// is rebuilt purely from the directory's *.log/*.idx files on Open.
func TestRebuildFromDisk(t *testing.T) {
	dir := t.TempDir()
	log, err := seqlog.Open(dir, 4096)
	require.NoError(t, err)

	// Each 10-byte payload makes a 22-byte frame, so a 4096-byte segment
	// seals after 185 frames: 400 frames span three segments.
	const count = 400
	payloads := make([][]byte, count)
	for i := 0; i < count; i++ {
		payloads[i] = []byte(fmt.Sprintf("frame-%04d", i))
		_, err := log.Write(payloads[i])
		require.NoErrorf(t, err, "write %d", i)
	}

	require.NoError(t, log.Close())

	reopened, err := seqlog.Open(dir, 4096)
	require.NoError(t, err)
	defer reopened.Close()

	for i := 0; i < count; i++ {
		got, err := reopened.Read(uint64(i))
		require.NoErrorf(t, err, "read %d", i)
		require.Equalf(t, payloads[i], got, "offset %d", i)
	}
}
