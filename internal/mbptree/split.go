package mbptree

// newLeafFor allocates a fresh leaf chained after leaf, sharing leaf's
// parent, and links leaf.next to it. It does not touch the tree's
// bookkeeping (root, lastLeaf) — the caller wires those up.
func (t *Tree[V]) newLeafFor(leaf *node[V]) *node[V] {
	newLeaf := newLeafNode[V](t.branchFactor, leaf.parent)
	leaf.next = newLeaf
	return newLeaf
}

// splitRoot handles the one case where the node being split has no
// parent: a brand new root is created above it, taking root and a newly
// split-off sibling as its first two children.
func (t *Tree[V]) splitRoot(root *node[V], key uint64, child *node[V]) *node[V] {
	newRoot := newInternalNode[V](t.branchFactor, nil)
	newNode := newInternalNode[V](t.branchFactor, newRoot)
	root.parent = newRoot

	midKey := moveHalfNode(t.branchFactor, root, newNode)

	newNode.keys[newNode.size] = key
	newNode.size++
	newNode.children[newNode.size] = child
	child.parent = newNode

	newRoot.children[newRoot.size] = root
	newRoot.keys[newRoot.size] = midKey
	newRoot.size++
	newRoot.children[newRoot.size] = newNode

	t.root = newRoot
	return newRoot
}

// appendNode inserts (key, node) into node's parent, splitting ancestors
// as far up as necessary. node is never the root.
func (t *Tree[V]) appendNode(key uint64, n *node[V]) *node[V] {
	parent := n.parent

	if !full(t.branchFactor, parent) {
		parent.keys[parent.size] = key
		parent.size++
		parent.children[parent.size] = n
		return t.root
	}

	if isRoot(parent) {
		return t.splitRoot(parent, key, n)
	}
	return t.splitNode(parent, key, n)
}

// splitNode splits a full internal node, promoting the midpoint key to
// (and possibly further splitting) its own parent.
func (t *Tree[V]) splitNode(parent *node[V], key uint64, child *node[V]) *node[V] {
	newParent := newInternalNode[V](t.branchFactor, parent.parent)
	midKey := moveHalfNode(t.branchFactor, parent, newParent)

	newParent.keys[newParent.size] = key
	newParent.size++
	newParent.children[newParent.size] = child
	child.parent = newParent

	return t.appendNode(midKey, newParent)
}

// appendLeaf wires a freshly populated leaf (already holding exactly one
// entry) into its parent, splitting ancestors as needed, and advances
// lastLeaf. leaf's parent must not be the tree root — the root-leaf case
// is handled inline by tryAppend.
func (t *Tree[V]) appendLeaf(newLeaf *node[V]) *node[V] {
	parent := t.lastLeaf.parent
	root := t.root

	if !full(t.branchFactor, parent) {
		idx := parent.size
		parent.keys[idx] = newLeaf.keys[0]
		parent.children[idx+1] = newLeaf
		parent.size++
	} else if isRoot(parent) {
		root = t.splitRoot(parent, newLeaf.keys[0], newLeaf)
	} else {
		root = t.splitNode(parent, newLeaf.keys[0], newLeaf)
	}

	t.lastLeaf = newLeaf
	return root
}
