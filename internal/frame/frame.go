// Package frame implements the on-disk frame protocol shared by every
// segment: a fixed 12-byte header, a flags-based publish barrier, and a
// CRC-32 of the payload stored in the header. The layout is byte-exact with the
// original C engine's (rbruggem/mqlog) `struct header` in prot.h: a
// little-endian u16 flags, u8 version, u8 pad, u32 size, u32 crc32.
//
// Flags doubles as a lock-free publish barrier between one producer and
// many readers. Because flags, version and pad together occupy the first
// four bytes of the header, they are addressed as a single aligned u32 so
// sync/atomic can give flags acquire/release semantics without a separate
// memory-fence primitive — the Go analogue of the C header's
// `volatile uint16_t flags`.
package frame

import (
	"encoding/binary"
	"hash/crc32"
	"sync/atomic"
	"unsafe"
)

// Flags values. EMPTY means the slot has been claimed by a writer but the
// header has not been published yet; READY means the frame (header +
// payload) is fully visible; EOS marks the trailing end-of-segment marker.
type Flags uint16

const (
	Empty Flags = 0x0000
	Ready Flags = 0xBEEF
	EOS   Flags = 0xAAAA
)

const (
	Version = 0

	flagsOff   = 0
	versionOff = 2
	padOff     = 3
	sizeOff    = 4
	crcOff     = 8

	// HeaderSize is the fixed size, in bytes, of a frame header.
	HeaderSize = 12

	// EOSFrameSize is the size of a sealing end-of-segment frame: header
	// only, no payload.
	EOSFrameSize = HeaderSize
)

// Header is the decoded, in-memory view of a frame header.
type Header struct {
	Flags   Flags
	Version uint8
	Size    uint32 // total frame size, header included
	CRC32   uint32 // CRC-32 of the payload only
}

// PayloadSize returns the number of payload bytes implied by Size.
func (h Header) PayloadSize() uint32 {
	if h.Size < HeaderSize {
		return 0
	}
	return h.Size - HeaderSize
}

func firstWord(buf []byte, off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&buf[off]))
}

// ObserveFlags loads the flags field of the header at buf[off:] with
// acquire semantics: any reader that observes Ready or EOS is guaranteed
// to also observe every other header field and the full payload, because
// the writer stores the packed word last (see Publish).
func ObserveFlags(buf []byte, off int) Flags {
	word := atomic.LoadUint32(firstWord(buf, off))
	return Flags(word & 0xFFFF)
}

// WriteBody writes every header field except flags (which stays at its
// current value, normally Empty) plus the payload, without publishing the
// frame. Callers must call Publish afterwards to make the frame visible.
func WriteBody(buf []byte, off int, payload []byte) {
	copy(buf[off+HeaderSize:], payload)
	binary.LittleEndian.PutUint32(buf[off+sizeOff:], uint32(HeaderSize+len(payload)))
	binary.LittleEndian.PutUint32(buf[off+crcOff:], crc32.ChecksumIEEE(payload))
	buf[off+versionOff] = Version
	buf[off+padOff] = 0
}

// Publish stores flags into the packed (flags|version|pad) word with
// release semantics: every prior plain write to buf (the payload, size,
// crc32, version, pad) becomes visible to any reader that subsequently
// observes this flags value via ObserveFlags.
func Publish(buf []byte, off int, flags Flags) {
	word := uint32(flags) | uint32(Version)<<16 | 0<<24
	atomic.StoreUint32(firstWord(buf, off), word)
}

// WriteEOS writes and publishes a sealing end-of-segment header at off.
// An EOS frame has no payload: Size is exactly HeaderSize.
func WriteEOS(buf []byte, off int) {
	binary.LittleEndian.PutUint32(buf[off+sizeOff:], HeaderSize)
	binary.LittleEndian.PutUint32(buf[off+crcOff:], 0)
	buf[off+versionOff] = Version
	buf[off+padOff] = 0
	Publish(buf, off, EOS)
}

// Decode reads the full header at buf[off:] without checking flags. The
// caller is expected to have already validated flags via ObserveFlags.
func Decode(buf []byte, off int) Header {
	word := atomic.LoadUint32(firstWord(buf, off))
	return Header{
		Flags:   Flags(word & 0xFFFF),
		Version: uint8((word >> 16) & 0xFF),
		Size:    binary.LittleEndian.Uint32(buf[off+sizeOff:]),
		CRC32:   binary.LittleEndian.Uint32(buf[off+crcOff:]),
	}
}

// VerifyCRC reports whether payload checksums to the CRC-32 recorded in h.
func VerifyCRC(h Header, payload []byte) bool {
	return crc32.ChecksumIEEE(payload) == h.CRC32
}

// FrameSize returns the total on-disk size of a frame carrying a payload
// of payloadSize bytes, header included.
func FrameSize(payloadSize int) int {
	return HeaderSize + payloadSize
}
