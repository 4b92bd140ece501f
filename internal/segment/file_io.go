package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/seqlog/seqlog/internal/codes"
)

// Segments and their indexes are named after their base offset: the plain
// decimal ASCII representation of the logical offset, no zero padding.
// ListBaseOffsets sorts by parsed value, not filename text, so directory
// order never depends on how the number is printed.

func logPath(dir string, baseOffset uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.log", baseOffset))
}

func indexPath(dir string, baseOffset uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.idx", baseOffset))
}

// ListBaseOffsets scans dir for "*.log" segment files and returns the base
// offsets they encode, sorted ascending. A missing directory is reported as
// an empty list, not an error, so a coordinator can call this on first open
// of a brand new log directory.
func ListBaseOffsets(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, codes.Wrap(codes.LoadSegments, err)
	}

	var offsets []uint64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		prefix := strings.TrimSuffix(name, ".log")
		baseOffset, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, codes.Wrap(codes.LoadSegments, fmt.Errorf("invalid segment filename %q: %w", name, err))
		}
		offsets = append(offsets, baseOffset)
	}

	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets, nil
}
