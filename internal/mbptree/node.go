package mbptree

// node is either an internal node (keys with branching children) or a
// leaf (keys with values, chained to the next leaf for ordered iteration).
// Capacities are fixed at creation from the tree's branch factor, the same
// flat layout as the original C engine's mbptree.c `struct mbptree_node`
// (a `data[]` array sized once and never reallocated). The original packs
// a leaf value and an internal child pointer into one C union
// (`mbptree_value_t`, either a uint64 or a void*) because C has no
// generics; node is parameterized on V instead, so the log coordinator can
// store *segment.Segment values in the exact same tree type this package
// uses internally for uint64-valued trees in tests.
type node[V any] struct {
	leaf   bool
	size   int
	parent *node[V]

	keys     []uint64   // len == branchFactor-1, valid up to size
	children []*node[V] // internal only, len == branchFactor, valid up to size+1
	values   []V        // leaf only, len == branchFactor-1, valid up to size
	next     *node[V]   // leaf only: next leaf in key order, nil if last
}

func newInternalNode[V any](branchFactor int, parent *node[V]) *node[V] {
	return &node[V]{
		parent:   parent,
		keys:     make([]uint64, branchFactor-1),
		children: make([]*node[V], branchFactor),
	}
}

func newLeafNode[V any](branchFactor int, parent *node[V]) *node[V] {
	return &node[V]{
		leaf:   true,
		parent: parent,
		keys:   make([]uint64, branchFactor-1),
		values: make([]V, branchFactor-1),
	}
}

func full[V any](branchFactor int, n *node[V]) bool {
	return n.size >= branchFactor-1
}

func isRoot[V any](n *node[V]) bool { return n.parent == nil }

func midpoint(branchFactor int) int { return branchFactor >> 1 }

// findLeaf descends from n to the leaf that would hold key.
func findLeaf[V any](n *node[V], key uint64) *node[V] {
	if n.leaf {
		return n
	}
	i := 0
	for ; i < n.size; i++ {
		if key < n.keys[i] {
			return findLeaf(n.children[i], key)
		}
	}
	return findLeaf(n.children[i], key)
}

// moveHalfNode splits an internal node lhs in half into sibling rhs
// (already allocated, sharing lhs's parent), returning the key promoted to
// the parent. Both lhs and rhs must be internal nodes.
func moveHalfNode[V any](branchFactor int, lhs, rhs *node[V]) uint64 {
	mid := midpoint(branchFactor)
	midKey := lhs.keys[mid]

	for keyIdx := mid + 1; keyIdx < lhs.size; keyIdx++ {
		rhs.keys[rhs.size] = lhs.keys[keyIdx]
		rhs.size++
		lhs.keys[keyIdx] = 0
	}

	j := 0
	for valueIdx := mid + 1; valueIdx <= lhs.size; valueIdx++ {
		rhs.children[j] = lhs.children[valueIdx]
		lhs.children[valueIdx] = nil
		rhs.children[j].parent = rhs
		j++
	}

	lhs.size = mid
	return midKey
}
