package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cuemby/coldb/pkg/types"
)

// WriteSortedIndex persists values[N] followed by positions[N] to w, the
// <column>.idx payload of spec.md §6.2.
func WriteSortedIndex(w io.Writer, idx *types.SortedIndex) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int64(len(idx.Values))); err != nil {
		return fmt.Errorf("failed to write sorted index length: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, idx.Values); err != nil {
		return fmt.Errorf("failed to write sorted index values: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, idx.Positions); err != nil {
		return fmt.Errorf("failed to write sorted index positions: %w", err)
	}
	return bw.Flush()
}

// ReadSortedIndex reverses WriteSortedIndex.
func ReadSortedIndex(r io.Reader) (*types.SortedIndex, error) {
	br := bufio.NewReader(r)
	var n int64
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("failed to read sorted index length: %w", err)
	}
	idx := &types.SortedIndex{
		Values:    make([]int32, n),
		Positions: make([]int64, n),
	}
	if err := binary.Read(br, binary.LittleEndian, idx.Values); err != nil {
		return nil, fmt.Errorf("failed to read sorted index values: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, idx.Positions); err != nil {
		return nil, fmt.Errorf("failed to read sorted index positions: %w", err)
	}
	return idx, nil
}

// WriteBTree serializes the tree's node arena in pool order (Design Note:
// "cache-friendly persistence -> serialize pool in order"), so the stored
// child and next-leaf indices stay valid on read. Pool order is not a
// breadth-first walk from the root: BuildBTree stores the leaves first and
// the root last, and Insert appends split nodes at the end of the pool.
func WriteBTree(w io.Writer, t *types.BTree) error {
	bw := bufio.NewWriter(w)
	header := [3]int32{int32(len(t.Nodes)), t.Root, int32(t.Fanout)}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write btree header: %w", err)
	}
	clustered := int32(0)
	if t.Clustered {
		clustered = 1
	}
	if err := binary.Write(bw, binary.LittleEndian, clustered); err != nil {
		return fmt.Errorf("failed to write btree clustered flag: %w", err)
	}

	for _, n := range t.Nodes {
		leaf := int32(0)
		if n.Leaf {
			leaf = 1
		}
		if err := binary.Write(bw, binary.LittleEndian, [2]int32{leaf, int32(len(n.Keys))}); err != nil {
			return fmt.Errorf("failed to write btree node header: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, n.Keys); err != nil {
			return fmt.Errorf("failed to write btree node keys: %w", err)
		}
		if n.Leaf {
			if err := binary.Write(bw, binary.LittleEndian, n.Positions); err != nil {
				return fmt.Errorf("failed to write btree leaf positions: %w", err)
			}
			if err := binary.Write(bw, binary.LittleEndian, n.Next); err != nil {
				return fmt.Errorf("failed to write btree leaf next pointer: %w", err)
			}
		} else {
			if err := binary.Write(bw, binary.LittleEndian, n.Children); err != nil {
				return fmt.Errorf("failed to write btree node children: %w", err)
			}
		}
	}
	return bw.Flush()
}

// ReadBTree reverses WriteBTree.
func ReadBTree(r io.Reader) (*types.BTree, error) {
	br := bufio.NewReader(r)
	var header [3]int32
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read btree header: %w", err)
	}
	numNodes, root, fanout := header[0], header[1], header[2]

	var clustered int32
	if err := binary.Read(br, binary.LittleEndian, &clustered); err != nil {
		return nil, fmt.Errorf("failed to read btree clustered flag: %w", err)
	}

	t := &types.BTree{
		Nodes:     make([]types.BTreeNode, numNodes),
		Root:      root,
		Fanout:    int(fanout),
		Clustered: clustered != 0,
	}

	for i := range t.Nodes {
		var nh [2]int32
		if err := binary.Read(br, binary.LittleEndian, &nh); err != nil {
			return nil, fmt.Errorf("failed to read btree node header: %w", err)
		}
		leaf, numKeys := nh[0] != 0, nh[1]

		keys := make([]int32, numKeys)
		if err := binary.Read(br, binary.LittleEndian, keys); err != nil {
			return nil, fmt.Errorf("failed to read btree node keys: %w", err)
		}

		node := types.BTreeNode{Leaf: leaf, Keys: keys}
		if leaf {
			node.Positions = make([]int64, numKeys)
			if err := binary.Read(br, binary.LittleEndian, node.Positions); err != nil {
				return nil, fmt.Errorf("failed to read btree leaf positions: %w", err)
			}
			if err := binary.Read(br, binary.LittleEndian, &node.Next); err != nil {
				return nil, fmt.Errorf("failed to read btree leaf next pointer: %w", err)
			}
		} else {
			node.Children = make([]int32, numKeys+1)
			if err := binary.Read(br, binary.LittleEndian, node.Children); err != nil {
				return nil, fmt.Errorf("failed to read btree node children: %w", err)
			}
		}
		t.Nodes[i] = node
	}
	return t, nil
}
