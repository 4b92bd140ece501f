package mbptree

import (
	"errors"
	"testing"

	"github.com/seqlog/seqlog/internal/codes"
)

func TestAppendAndFloor(t *testing.T) {
	tree := Init[uint64](3)
	keys := []uint64{1, 2, 5, 6, 10, 12, 15, 20, 22}

	for _, k := range keys {
		if err := tree.Append(k, k*10); err != nil {
			t.Fatalf("Append(%d) error = %v", k, err)
		}
	}

	tests := []struct {
		query   uint64
		wantKey uint64
		wantOK  bool
	}{
		{0, 0, false},
		{1, 1, true},
		{4, 2, true},
		{5, 5, true},
		{21, 20, true},
		{100, 22, true},
	}

	for _, tt := range tests {
		it, err := tree.Floor(tt.query)
		if err != nil {
			t.Fatalf("Floor(%d) error = %v", tt.query, err)
		}
		if !tt.wantOK {
			if it.Valid() {
				t.Errorf("Floor(%d).Valid() = true, want false", tt.query)
			}
			continue
		}
		if !it.Valid() {
			t.Fatalf("Floor(%d).Valid() = false, want true", tt.query)
		}
		if it.Key() != tt.wantKey {
			t.Errorf("Floor(%d).Key() = %d, want %d", tt.query, it.Key(), tt.wantKey)
		}
		if it.Value() != tt.wantKey*10 {
			t.Errorf("Floor(%d).Value() = %d, want %d", tt.query, it.Value(), tt.wantKey*10)
		}
	}
}

func TestAppendRejectsNonMonotonicKey(t *testing.T) {
	tree := Init[uint64](3)
	for _, k := range []uint64{1, 2, 5, 6, 10, 12, 15, 20, 22} {
		if err := tree.Append(k, k); err != nil {
			t.Fatalf("Append(%d) error = %v", k, err)
		}
	}

	if err := tree.Append(8, 8); !errors.Is(err, codes.ErrIndexNonMonotonic) {
		t.Fatalf("Append(8) error = %v, want IDXNM", err)
	}
	if err := tree.Append(22, 22); !errors.Is(err, codes.ErrIndexNonMonotonic) {
		t.Fatalf("Append(22) (equal to last) error = %v, want IDXNM", err)
	}

	last, ok := tree.Last()
	if !ok || last != 22 {
		t.Fatalf("Last() = (%d, %v), want (22, true) — rejected append must not mutate the tree", last, ok)
	}
}

func TestLastOnEmptyTree(t *testing.T) {
	tree := Init[uint64](4)
	if _, ok := tree.Last(); ok {
		t.Fatal("Last() on empty tree returned ok = true")
	}
}

func TestIteratorWalksInOrder(t *testing.T) {
	tree := Init[uint64](3)
	// First() descends to the leftmost leaf, so the walk starts at the
	// smallest key (0 here, as for the first segment in production).
	keys := []uint64{0, 2, 5, 6, 10, 12, 15, 20, 22}
	for _, k := range keys {
		if err := tree.Append(k, k); err != nil {
			t.Fatalf("Append(%d) error = %v", k, err)
		}
	}

	it, err := tree.First()
	if err != nil {
		t.Fatalf("First() error = %v", err)
	}

	var got []uint64
	for it.Valid() {
		got = append(got, it.Key())
		it = it.Next()
	}

	if len(got) != len(keys) {
		t.Fatalf("walked %d keys, want %d: %v", len(got), len(keys), got)
	}
	for i, k := range keys {
		if got[i] != k {
			t.Errorf("got[%d] = %d, want %d", i, got[i], k)
		}
	}
}

func TestDumpCoversEveryNode(t *testing.T) {
	tree := Init[uint64](3)
	for _, k := range []uint64{1, 2, 5, 6, 10, 12, 15, 20, 22} {
		if err := tree.Append(k, k); err != nil {
			t.Fatalf("Append(%d) error = %v", k, err)
		}
	}

	nodes := tree.Dump()
	if len(nodes) == 0 {
		t.Fatal("Dump() returned no nodes")
	}

	var leafKeyCount int
	for _, n := range nodes {
		if n.Leaf {
			leafKeyCount += len(n.Keys)
		}
	}
	if leafKeyCount != 9 {
		t.Errorf("leaf key count across Dump() = %d, want 9", leafKeyCount)
	}
}
