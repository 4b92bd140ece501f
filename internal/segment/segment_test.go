package segment

import (
	"bytes"
	"errors"
	"testing"

	"github.com/seqlog/seqlog/internal/codes"
)

const testSegmentSize = 4096

func openTestSegment(t *testing.T, dir string, baseOffset uint64) *Segment {
	t.Helper()
	s, err := Open(dir, baseOffset, testSegmentSize, ReadDirty, nil, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := openTestSegment(t, dir, 0)

	payloads := [][]byte{[]byte("first"), []byte("second"), {}, []byte("fourth frame")}
	for i, p := range payloads {
		n, err := s.Write(p)
		if err != nil {
			t.Fatalf("Write(%d) error = %v", i, err)
		}
		if n != len(p) {
			t.Fatalf("Write(%d) = %d, want %d", i, n, len(p))
		}
	}

	for i, want := range payloads {
		got, err := s.Read(uint32(i))
		if err != nil {
			t.Fatalf("Read(%d) error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Read(%d) = %q, want %q", i, got, want)
		}
	}

	if got := s.WriteIndex(); got != uint32(len(payloads)) {
		t.Errorf("WriteIndex() = %d, want %d", got, len(payloads))
	}
}

func TestWriteReturnsNoWriteCapacityWhenFrameExceedsSegment(t *testing.T) {
	dir := t.TempDir()
	s := openTestSegment(t, dir, 0)

	payload := make([]byte, testSegmentSize)
	_, err := s.Write(payload)
	if !errors.Is(err, codes.ErrNoWriteCapacity) {
		t.Fatalf("Write() error = %v, want NOWCP", err)
	}
}

func TestWriteSealsSegmentOnOverflow(t *testing.T) {
	dir := t.TempDir()
	s := openTestSegment(t, dir, 0)

	payload := make([]byte, 2000) // frame size 2012; two fit, a third forces EOS

	if _, err := s.Write(payload); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	if _, err := s.Write(payload); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	_, err := s.Write(payload)
	if !errors.Is(err, codes.ErrEndOfSegment) {
		t.Fatalf("third Write() error = %v, want EOS", err)
	}
	if !s.Sealed() {
		t.Fatal("Sealed() = false after EOS write")
	}

	// the segment is sealed: any further write, even a tiny one, is EOS too.
	if _, err := s.Write([]byte("x")); !errors.Is(err, codes.ErrEndOfSegment) {
		t.Fatalf("Write() on sealed segment error = %v, want EOS", err)
	}
}

func TestReadOutOfRangeIsNoRead(t *testing.T) {
	dir := t.TempDir()
	s := openTestSegment(t, dir, 0)

	if _, err := s.Read(0); !errors.Is(err, codes.ErrNoRead) {
		t.Fatalf("Read(0) on empty segment error = %v, want NORD", err)
	}

	s.Write([]byte("only frame"))

	if _, err := s.Read(5); !errors.Is(err, codes.ErrNoRead) {
		t.Fatalf("Read(5) error = %v, want NORD", err)
	}
}

func TestReadAtSealBoundaryReturnsEOS(t *testing.T) {
	dir := t.TempDir()
	s := openTestSegment(t, dir, 0)

	payload := make([]byte, 2000)
	s.Write(payload)
	s.Write(payload)
	s.Write(payload) // seals

	boundary := s.WriteIndex()
	if _, err := s.Read(boundary); !errors.Is(err, codes.ErrEndOfSegment) {
		t.Fatalf("Read(boundary) error = %v, want EOS", err)
	}

	if got, err := s.Read(boundary - 1); err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("Read(boundary-1) = (%v, %v), want last written payload", got, err)
	}
}

func TestRecoveryAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s := openTestSegment(t, dir, 0)
	want := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}
	for _, p := range want {
		if _, err := s.Write(p); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if _, err := s.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dir, 0, testSegmentSize, ReadDirty, nil, nil)
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	defer reopened.Close()

	if got := reopened.WriteIndex(); got != uint32(len(want)) {
		t.Fatalf("reopened WriteIndex() = %d, want %d", got, len(want))
	}
	for i, w := range want {
		got, err := reopened.Read(uint32(i))
		if err != nil {
			t.Fatalf("reopened Read(%d) error = %v", i, err)
		}
		if !bytes.Equal(got, w) {
			t.Fatalf("reopened Read(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestRecoveryOfEmptySegment(t *testing.T) {
	dir := t.TempDir()
	s := openTestSegment(t, dir, 7)
	if s.BaseOffset() != 7 {
		t.Fatalf("BaseOffset() = %d, want 7", s.BaseOffset())
	}
	if s.WriteIndex() != 0 {
		t.Fatalf("WriteIndex() = %d, want 0", s.WriteIndex())
	}
	if s.Sealed() {
		t.Fatal("Sealed() = true for a fresh segment")
	}
}
