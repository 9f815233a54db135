package index

import (
	"sort"

	"github.com/cuemby/coldb/pkg/types"
)

// FanoutDefault is the B+-tree's build-time fanout constant (spec.md §4.4
// recommends >= 128 for cache friendliness).
const FanoutDefault = 256

// BuildBTree bulk-loads a leaf-linked B+-tree from parallel, already
// value-sorted keys/positions (clustered: positions into the column;
// unclustered: positions into the sorted index's Positions array). Bottom-up
// bulk loading keeps every leaf at full fanout except the last, and every
// leaf at the same depth, satisfying spec.md §3's B+-tree node invariants.
func BuildBTree(keys []int32, positions []int64, fanout int, clustered bool) *types.BTree {
	if fanout < 2 {
		fanout = FanoutDefault
	}
	t := &types.BTree{Fanout: fanout, Clustered: clustered}

	if len(keys) == 0 {
		t.Nodes = append(t.Nodes, types.BTreeNode{Leaf: true, Next: -1})
		t.Root = 0
		return t
	}

	// Leaf level.
	var level []int32 // node indices of the current level, left to right
	for i := 0; i < len(keys); i += fanout {
		end := i + fanout
		if end > len(keys) {
			end = len(keys)
		}
		node := types.BTreeNode{
			Leaf:      true,
			Keys:      append([]int32(nil), keys[i:end]...),
			Positions: append([]int64(nil), positions[i:end]...),
			Next:      -1,
		}
		idx := int32(len(t.Nodes))
		t.Nodes = append(t.Nodes, node)
		if len(level) > 0 {
			t.Nodes[level[len(level)-1]].Next = idx
		}
		level = append(level, idx)
	}

	// Internal levels, bottom-up, until one root remains.
	for len(level) > 1 {
		var next []int32
		for i := 0; i < len(level); i += fanout {
			end := i + fanout
			if end > len(level) {
				end = len(level)
			}
			children := append([]int32(nil), level[i:end]...)
			seps := make([]int32, 0, len(children)-1)
			for _, child := range children[1:] {
				seps = append(seps, firstKey(t, child))
			}
			node := types.BTreeNode{Leaf: false, Keys: seps, Children: children}
			idx := int32(len(t.Nodes))
			t.Nodes = append(t.Nodes, node)
			next = append(next, idx)
		}
		level = next
	}
	t.Root = level[0]
	return t
}

// firstKey returns the minimum key reachable from nodeIdx, descending
// leftmost children until a leaf is reached. Used to derive a parent's
// separator key, which must equal the minimum key of its right subtree
// (spec.md §3 B+-tree node invariant).
func firstKey(t *types.BTree, nodeIdx int32) int32 {
	node := &t.Nodes[nodeIdx]
	for !node.Leaf {
		node = &t.Nodes[node.Children[0]]
	}
	if len(node.Keys) == 0 {
		return 0
	}
	return node.Keys[0]
}

// findLeafPath descends from root to the leaf that would hold key, using
// binary search over each internal node's separator keys, and returns the
// full root-to-leaf path (used to back up to left siblings afterward).
func findLeafPath(t *types.BTree, key int32) []int32 {
	path := make([]int32, 0, 4)
	idx := t.Root
	node := &t.Nodes[idx]
	path = append(path, idx)
	for !node.Leaf {
		// Children[i+1] covers keys >= Keys[i]; find the rightmost such i.
		i := sort.Search(len(node.Keys), func(i int) bool { return node.Keys[i] > key })
		idx = node.Children[i]
		node = &t.Nodes[idx]
		path = append(path, idx)
	}
	return path
}

// prevLeafPath returns the root-to-leaf path of the leaf immediately to the
// left of path's leaf (nil if path's leaf is already the tree's leftmost).
// Bulk loading (BuildBTree) splits leaves by position, not by key value, so
// a run of equal keys can straddle a leaf boundary; backing up by walking
// the tree structure (rather than relying on a separator comparison) is
// what correctly recovers the left half of such a run.
func prevLeafPath(t *types.BTree, path []int32) []int32 {
	for level := len(path) - 2; level >= 0; level-- {
		parent := &t.Nodes[path[level]]
		child := path[level+1]
		childPos := -1
		for i, c := range parent.Children {
			if c == child {
				childPos = i
				break
			}
		}
		if childPos <= 0 {
			continue
		}
		newPath := append(append([]int32(nil), path[:level+1]...), parent.Children[childPos-1])
		for !t.Nodes[newPath[len(newPath)-1]].Leaf {
			node := &t.Nodes[newPath[len(newPath)-1]]
			newPath = append(newPath, node.Children[len(node.Children)-1])
		}
		return newPath
	}
	return nil
}

// SearchRange returns the positions of every entry whose key falls in
// [low, high] (nil meaning +/-infinity), scanning forward across linked
// leaves once the left bracket is found, per spec.md §4.4/§4.6. Because
// duplicate key runs can straddle a leaf boundary (see prevLeafPath), the
// left bracket backs up across any preceding leaves that still end on the
// same low value before scanning forward, per spec.md §4.4's "because keys
// may repeat, callers back up left ... to expand to the inclusive matching
// range."
func SearchRange(t *types.BTree, low, high *int32) []int64 {
	if len(t.Nodes) == 0 {
		return nil
	}
	var positions []int64
	leafIdx := t.Root
	if low != nil {
		path := findLeafPath(t, *low)
		leafIdx = path[len(path)-1]
		for {
			leaf := &t.Nodes[leafIdx]
			if len(leaf.Keys) == 0 || leaf.Keys[0] != *low {
				break
			}
			prevPath := prevLeafPath(t, path)
			if prevPath == nil {
				break
			}
			prevIdx := prevPath[len(prevPath)-1]
			prevNode := &t.Nodes[prevIdx]
			if len(prevNode.Keys) == 0 || prevNode.Keys[len(prevNode.Keys)-1] != *low {
				break
			}
			leafIdx = prevIdx
			path = prevPath
		}
	} else {
		for !t.Nodes[leafIdx].Leaf {
			leafIdx = t.Nodes[leafIdx].Children[0]
		}
	}

	for leafIdx != -1 {
		leaf := &t.Nodes[leafIdx]
		for i, k := range leaf.Keys {
			if low != nil && k < *low {
				continue
			}
			if high != nil && k > *high {
				return positions
			}
			positions = append(positions, leaf.Positions[i])
		}
		leafIdx = leaf.Next
	}
	return positions
}

// Insert adds (key, position) to the tree, splitting full nodes as it
// unwinds back up from the leaf (classic split-on-return recursive
// insert; net effect is the single-pass-with-preemptive-split tree spec.md
// §4.4 describes, just with splits applied bottom-up instead of on the
// way down — the resulting tree satisfies the same invariants). B+-tree
// inserts are single-threaded (spec.md §5).
func Insert(t *types.BTree, key int32, position int64) {
	promoted, newRight, split := insertRec(t, t.Root, key, position)
	if !split {
		return
	}
	// Root split: allocate a new root with the old root as its left child.
	newRoot := types.BTreeNode{
		Leaf:     false,
		Keys:     []int32{promoted},
		Children: []int32{t.Root, newRight},
	}
	idx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, newRoot)
	t.Root = idx
}

// insertRec inserts into the subtree rooted at nodeIdx. If the node had to
// split, it returns (separatorKey, newRightSiblingIdx, true); nodeIdx
// itself becomes the left sibling in place.
func insertRec(t *types.BTree, nodeIdx int32, key int32, position int64) (int32, int32, bool) {
	node := &t.Nodes[nodeIdx]
	if node.Leaf {
		pos := sort.Search(len(node.Keys), func(i int) bool { return node.Keys[i] >= key })
		node.Keys = append(node.Keys, 0)
		copy(node.Keys[pos+1:], node.Keys[pos:])
		node.Keys[pos] = key
		node.Positions = append(node.Positions, 0)
		copy(node.Positions[pos+1:], node.Positions[pos:])
		node.Positions[pos] = position

		if len(node.Keys) <= t.Fanout {
			return 0, 0, false
		}
		return splitLeaf(t, nodeIdx)
	}

	childPos := sort.Search(len(node.Keys), func(i int) bool { return node.Keys[i] > key })
	childIdx := node.Children[childPos]
	promoted, newRight, split := insertRec(t, childIdx, key, position)
	if !split {
		return 0, 0, false
	}

	node = &t.Nodes[nodeIdx] // re-fetch: insertRec's recursion may have grown t.Nodes
	node.Keys = append(node.Keys, 0)
	copy(node.Keys[childPos+1:], node.Keys[childPos:])
	node.Keys[childPos] = promoted
	node.Children = append(node.Children, 0)
	copy(node.Children[childPos+2:], node.Children[childPos+1:])
	node.Children[childPos+1] = newRight

	if len(node.Keys) <= t.Fanout {
		return 0, 0, false
	}
	return splitInternal(t, nodeIdx)
}

// splitLeaf moves the right half of a full leaf to a new sibling and
// promotes the new sibling's first key (spec.md §4.4).
func splitLeaf(t *types.BTree, nodeIdx int32) (int32, int32, bool) {
	node := &t.Nodes[nodeIdx]
	mid := len(node.Keys) / 2
	right := types.BTreeNode{
		Leaf:      true,
		Keys:      append([]int32(nil), node.Keys[mid:]...),
		Positions: append([]int64(nil), node.Positions[mid:]...),
		Next:      node.Next,
	}
	rightIdx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, right)

	node = &t.Nodes[nodeIdx]
	node.Keys = node.Keys[:mid]
	node.Positions = node.Positions[:mid]
	node.Next = rightIdx

	return t.Nodes[rightIdx].Keys[0], rightIdx, true
}

// splitInternal promotes the median key and moves the right half of keys
// and children to a new sibling (spec.md §4.4).
func splitInternal(t *types.BTree, nodeIdx int32) (int32, int32, bool) {
	node := &t.Nodes[nodeIdx]
	mid := len(node.Keys) / 2
	promoted := node.Keys[mid]

	right := types.BTreeNode{
		Leaf:     false,
		Keys:     append([]int32(nil), node.Keys[mid+1:]...),
		Children: append([]int32(nil), node.Children[mid+1:]...),
	}
	rightIdx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, right)

	node = &t.Nodes[nodeIdx]
	node.Keys = node.Keys[:mid]
	node.Children = node.Children[:mid+1]

	return promoted, rightIdx, true
}

// Depth returns the number of levels from root to leaf, for invariant
// checks (spec.md §8: "all leaves are at the same depth").
func Depth(t *types.BTree) int {
	depth := 1
	idx := t.Root
	for !t.Nodes[idx].Leaf {
		idx = t.Nodes[idx].Children[0]
		depth++
	}
	return depth
}
