// Package mbptree implements the monotonic, append-only B+ tree used to
// index segment base offsets: keys must be inserted in strictly increasing
// order, leaves never redistribute on split (new entries always land in a
// freshly allocated rightmost leaf), and a try-lock word lets writers and
// readers race the tree without blocking. Ported from mbptree.c in the
// original C engine (rbruggem/mqlog); node lifetime is ordinary Go garbage
// collection rather than the original's arena, since Go has no manual
// free to make a stale pointer dangerous.
package mbptree

import "github.com/seqlog/seqlog/internal/codes"

// Tree is a monotonic B+ tree keyed by uint64, holding values of type V.
type Tree[V any] struct {
	branchFactor int
	lock         tryLock
	root         *node[V]
	lastLeaf     *node[V]
}

// Init creates an empty tree with the given branch factor (maximum
// children per internal node; a node splits once it holds branchFactor-1
// keys).
func Init[V any](branchFactor int) *Tree[V] {
	root := newLeafNode[V](branchFactor, nil)
	return &Tree[V]{
		branchFactor: branchFactor,
		root:         root,
		lastLeaf:     root,
	}
}

// tryAppend is the unlocked append body, called only while the exclusive
// lock is held.
func (t *Tree[V]) tryAppend(key uint64, value V) error {
	leaf := t.lastLeaf

	if leaf.size > 0 && key <= leaf.keys[leaf.size-1] {
		return codes.New(codes.IndexNonMonotonic)
	}

	if !full(t.branchFactor, leaf) {
		leaf.keys[leaf.size] = key
		leaf.values[leaf.size] = value
		leaf.size++
		return nil
	}

	var newRoot *node[V]
	if isRoot(leaf) {
		newRoot = newInternalNode[V](t.branchFactor, nil)
		leaf.parent = newRoot
	}

	newLeaf := t.newLeafFor(leaf)
	newLeaf.keys[0] = key
	newLeaf.values[0] = value
	newLeaf.size = 1

	if newRoot != nil {
		newRoot.children[0] = leaf
		newRoot.keys[0] = newLeaf.keys[0]
		newRoot.size = 1
		newRoot.children[1] = newLeaf

		t.lastLeaf = newLeaf
		t.root = newRoot
		return nil
	}

	t.root = t.appendLeaf(newLeaf)
	return nil
}

// Append inserts (key, value) as the new rightmost entry. key must be
// strictly greater than every key already in the tree, or Append returns
// codes.IndexNonMonotonic. It returns codes.IndexLocked if a concurrent
// writer or reader currently holds the tree's try-lock.
func (t *Tree[V]) Append(key uint64, value V) error {
	if !t.lock.tryExclusive() {
		return codes.New(codes.IndexLocked)
	}
	err := t.tryAppend(key, value)
	t.lock.unlockExclusive()
	return err
}

// Last returns the most recently appended value, without taking the
// try-lock: callers that already serialize their own writes (the log
// coordinator's single-writer append and sync paths) use this for an O(1)
// read of the current segment's bookkeeping, exactly as mqlog.c's
// mbptree_last_value is used internally rather than by general readers.
func (t *Tree[V]) Last() (V, bool) {
	var zero V
	leaf := t.lastLeaf
	if leaf.size == 0 {
		return zero, false
	}
	return leaf.values[leaf.size-1], true
}
