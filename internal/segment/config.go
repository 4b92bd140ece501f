package segment

import "golang.org/x/sys/unix"

// ReadPolicy selects whether Read is allowed to see frames that have been
// published but not yet synced to disk.
type ReadPolicy uint8

const (
	// ReadDirty permits reads up to the current write offset.
	ReadDirty ReadPolicy = iota
	// ReadCommitted restricts reads to the last synced offset.
	ReadCommitted
)

// pageSize returns the OS page size segments must size themselves to a
// multiple of.
func pageSize() int { return unix.Getpagesize() }
