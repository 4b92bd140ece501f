package mbptree

import "github.com/seqlog/seqlog/internal/codes"

// LeafIterator walks leaf entries in key order starting from a Floor
// lookup. A zero-value iterator (leaf == nil) is never Valid.
type LeafIterator[V any] struct {
	leaf *node[V]
	idx  int
}

// Floor positions an iterator at the largest key <= key, or returns an
// invalid iterator if no such key exists. It returns codes.IndexLocked if
// a concurrent exclusive writer holds the tree's try-lock.
func (t *Tree[V]) Floor(key uint64) (*LeafIterator[V], error) {
	if !t.lock.trySharedAcquire() {
		return nil, codes.New(codes.IndexLocked)
	}
	leaf := findLeaf(t.root, key)
	t.lock.unlockShared()

	idx := -1
	for i := 0; i < leaf.size; i++ {
		if leaf.keys[i] <= key {
			idx = i
		} else {
			break
		}
	}

	if idx == -1 {
		return &LeafIterator[V]{}, nil
	}
	return &LeafIterator[V]{leaf: leaf, idx: idx}, nil
}

// First positions an iterator at the smallest key in the tree.
// It returns codes.IndexLocked if a concurrent exclusive writer holds the
// tree's try-lock.
func (t *Tree[V]) First() (*LeafIterator[V], error) {
	if !t.lock.trySharedAcquire() {
		return nil, codes.New(codes.IndexLocked)
	}
	leaf := t.root
	for !leaf.leaf {
		leaf = leaf.children[0]
	}
	t.lock.unlockShared()

	if leaf.size == 0 {
		return &LeafIterator[V]{}, nil
	}
	return &LeafIterator[V]{leaf: leaf, idx: 0}, nil
}

// Valid reports whether the iterator currently addresses a real entry.
func (it *LeafIterator[V]) Valid() bool {
	if it == nil || it.leaf == nil {
		return false
	}
	return it.idx < it.leaf.size
}

// Key returns the key at the iterator's current position.
func (it *LeafIterator[V]) Key() uint64 { return it.leaf.keys[it.idx] }

// Value returns the value at the iterator's current position.
func (it *LeafIterator[V]) Value() V { return it.leaf.values[it.idx] }

// Next advances the iterator, following the leaf chain when it runs off
// the end of the current leaf.
func (it *LeafIterator[V]) Next() *LeafIterator[V] {
	next := it.idx + 1
	if next == it.leaf.size {
		it.leaf = it.leaf.next
		it.idx = 0
	} else {
		it.idx = next
	}
	return it
}
