package segment

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/seqlog/seqlog/internal/codes"
)

// openMapped opens (creating if necessary) the file at path, makes sure it
// is exactly size bytes, and maps it PROT_READ|PROT_WRITE/MAP_SHARED. A
// pre-existing file whose size disagrees with size is treated as FLEOP: a
// mismatched segment or index file on disk is corruption, not something to
// silently resize.
func openMapped(path string, size int) (*os.File, []byte, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, nil, codes.Wrap(codes.FileOp, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, codes.Wrap(codes.FileOp, err)
	}

	switch {
	case fi.Size() == 0:
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, nil, codes.Wrap(codes.FileOp, err)
		}
	case fi.Size() != int64(size):
		f.Close()
		return nil, nil, codes.Wrap(codes.FileOp, os.ErrInvalid)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, codes.Wrap(codes.Mmap, err)
	}

	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, nil, codes.Wrap(codes.Madvise, err)
	}

	return f, data, nil
}

func closeMapped(f *os.File, data []byte) error {
	if err := unix.Munmap(data); err != nil {
		f.Close()
		return codes.Wrap(codes.Mmap, err)
	}
	return f.Close()
}

// msyncRange flushes data[from:to] to disk, rounding from down to the
// nearest page boundary since msync requires a page-aligned address.
func msyncRange(data []byte, from, to int) error {
	if to <= from {
		return nil
	}
	pageSize := unix.Getpagesize()
	aligned := (from / pageSize) * pageSize
	if err := unix.Msync(data[aligned:to], unix.MS_SYNC); err != nil {
		return codes.Wrap(codes.DataSync, err)
	}
	return nil
}
