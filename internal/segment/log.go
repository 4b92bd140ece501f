package segment

import "os"

// dataFile is the mmap-backed region holding frames themselves. It owns no
// offset bookkeeping of its own — Segment tracks the write/sync offset
// pairs, since advancing them is inseparable from the index write that
// must accompany every successful claim.
type dataFile struct {
	file *os.File
	buf  []byte
}

func openDataFile(path string, size int) (*dataFile, error) {
	f, buf, err := openMapped(path, size)
	if err != nil {
		return nil, err
	}
	return &dataFile{file: f, buf: buf}, nil
}

func (d *dataFile) close() error {
	return closeMapped(d.file, d.buf)
}
