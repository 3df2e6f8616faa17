package huffman

import (
	"sort"

	"github.com/emirpasic/gods/stacks/arraystack"
)

const (
	nilNode = -1

	// maxNodes is the size of a full tree over 256 leaves.
	maxNodes = 2*256 - 1
	// valueBits is the width of a serialized leaf value.
	valueBits = 8
)

// node is a tree node living in a tree arena. A node that is neither a leaf
// nor has children is pending.
type node struct {
	left, right int32
	value       byte
	leaf        bool
}

func (n *node) pending() bool {
	return !n.leaf && n.left == nilNode
}

// tree is a Huffman tree stored as an arena of nodes addressed by index.
type tree struct {
	nodes []node
	root  int32
}

func newTree() *tree {
	return &tree{nodes: make([]node, 0, maxNodes), root: nilNode}
}

// alloc appends a pending node and returns its handle.
func (t *tree) alloc() int32 {
	t.nodes = append(t.nodes, node{left: nilNode, right: nilNode})
	return int32(len(t.nodes) - 1)
}

func (t *tree) newLeaf(v byte) int32 {
	n := t.alloc()
	t.nodes[n].value = v
	t.nodes[n].leaf = true
	return n
}

func (t *tree) newInternal(left, right int32) int32 {
	n := t.alloc()
	t.nodes[n].left = left
	t.nodes[n].right = right
	return n
}

type weighted struct {
	node  int32
	count int
}

// buildTree returns the Huffman tree of src, which must not be empty.
//
// Leaves are ordered by ascending count, ties by ascending byte value. The
// two lightest entries are merged repeatedly and the result is inserted
// before the first entry with a strictly greater count, so a merged node
// sorts after every entry of equal weight. The resulting shape is part of
// the output format: changing either rule changes the compressed bytes.
func buildTree(src []byte) *tree {
	var counts [256]int
	for _, b := range src {
		counts[b]++
	}

	t := newTree()
	seq := make([]weighted, 0, 256)
	for v, c := range counts {
		if c > 0 {
			seq = append(seq, weighted{node: t.newLeaf(byte(v)), count: c})
		}
	}

	sort.SliceStable(seq, func(i, j int) bool {
		return seq[i].count < seq[j].count
	})

	for len(seq) > 1 {
		merged := weighted{
			node:  t.newInternal(seq[0].node, seq[1].node),
			count: seq[0].count + seq[1].count,
		}

		seq = seq[2:]
		i := sort.Search(len(seq), func(i int) bool {
			return seq[i].count > merged.count
		})

		seq = append(seq, weighted{})
		copy(seq[i+1:], seq[i:])
		seq[i] = merged
	}

	if len(seq) == 1 {
		t.root = seq[0].node
	}

	return t
}

// code is the root-to-leaf path of a value. The first decision is stored in
// the highest of the length bits.
type code struct {
	bits   uint64
	length uint8
}

// codes returns the code of every value present in the tree. A chunk is at
// most MaxInt32 bytes long, which bounds the depth of its tree well below
// 64.
func (t *tree) codes() [256]code {
	var table [256]code
	type step struct {
		node int32
		c    code
	}

	stack := arraystack.New()
	stack.Push(step{node: t.root})
	for !stack.Empty() {
		v, _ := stack.Pop()
		s := v.(step)
		n := t.nodes[s.node]
		if n.leaf {
			table[n.value] = s.c
			continue
		}

		stack.Push(step{n.right, code{s.c.bits<<1 | 1, s.c.length + 1}})
		stack.Push(step{n.left, code{s.c.bits << 1, s.c.length + 1}})
	}

	return table
}

// encode writes the tree in preorder: 1 for an internal node, 0 followed by
// the 8-bit value for a leaf.
func (t *tree) encode(w *BitWriter) error {
	stack := arraystack.New()
	stack.Push(t.root)
	for !stack.Empty() {
		v, _ := stack.Pop()
		n := t.nodes[v.(int32)]
		if n.leaf {
			if err := w.WriteBit(false); err != nil {
				return err
			}

			if err := w.WriteBits(uint64(n.value), valueBits); err != nil {
				return err
			}

			continue
		}

		if err := w.WriteBit(true); err != nil {
			return err
		}

		stack.Push(n.right)
		stack.Push(n.left)
	}

	return nil
}

// decodeTree reads a tree written by encode. Pending nodes are kept on a
// stack, left child on top, so they are resolved in preorder.
func decodeTree(r *BitReader) (*tree, error) {
	t := newTree()
	t.root = t.alloc()

	stack := arraystack.New()
	stack.Push(t.root)
	for !stack.Empty() {
		v, _ := stack.Pop()
		n := v.(int32)

		expand, err := r.ReadBit()
		if err != nil {
			return nil, err
		}

		if !expand {
			value, err := r.ReadBits(valueBits)
			if err != nil {
				return nil, err
			}

			t.nodes[n].value = byte(value)
			t.nodes[n].leaf = true
			continue
		}

		if len(t.nodes)+2 > maxNodes {
			return nil, ErrMalformedTree.AddDetails("more than %d nodes", maxNodes)
		}

		left, right := t.alloc(), t.alloc()
		t.nodes[n].left = left
		t.nodes[n].right = right

		stack.Push(right)
		stack.Push(left)
	}

	return t, nil
}

// decodeValue walks from the root to a leaf, reading one bit per internal
// node: 0 goes left, 1 goes right.
func (t *tree) decodeValue(r *BitReader) (byte, error) {
	n := &t.nodes[t.root]
	for !n.leaf {
		right, err := r.ReadBit()
		if err != nil {
			return 0, err
		}

		if right {
			n = &t.nodes[n.right]
		} else {
			n = &t.nodes[n.left]
		}
	}

	return n.value, nil
}
