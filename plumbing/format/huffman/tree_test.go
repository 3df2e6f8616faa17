package huffman

import (
	"bytes"

	. "gopkg.in/check.v1"
)

type TreeSuite struct{}

var _ = Suite(&TreeSuite{})

func (s *TreeSuite) TestSingleValueIsRootLeaf(c *C) {
	t := buildTree([]byte("aaaa"))
	c.Assert(t.nodes, HasLen, 1)

	root := t.nodes[t.root]
	c.Assert(root.leaf, Equals, true)
	c.Assert(root.value, Equals, byte('a'))
	c.Assert(t.codes()['a'], Equals, code{})
}

func (s *TreeSuite) TestEqualCountsSortByValue(c *C) {
	for _, input := range []string{"ab", "ba"} {
		codes := buildTree([]byte(input)).codes()
		c.Assert(codes['a'], Equals, code{bits: 0, length: 1}, Commentf("input %q", input))
		c.Assert(codes['b'], Equals, code{bits: 1, length: 1}, Commentf("input %q", input))
	}
}

func (s *TreeSuite) TestMergedNodeSortsAfterEqualCount(c *C) {
	codes := buildTree([]byte("aabc")).codes()
	c.Assert(codes['a'], Equals, code{bits: 0, length: 1})
	c.Assert(codes['b'], Equals, code{bits: 2, length: 2})
	c.Assert(codes['c'], Equals, code{bits: 3, length: 2})
}

func (s *TreeSuite) TestMergedNodesKeepInsertionOrder(c *C) {
	codes := buildTree([]byte("abcd")).codes()
	c.Assert(codes['a'], Equals, code{bits: 0, length: 2})
	c.Assert(codes['b'], Equals, code{bits: 1, length: 2})
	c.Assert(codes['c'], Equals, code{bits: 2, length: 2})
	c.Assert(codes['d'], Equals, code{bits: 3, length: 2})
}

func (s *TreeSuite) TestLightestValuesGetLongestCodes(c *C) {
	codes := buildTree([]byte("aabbc")).codes()
	c.Assert(codes['b'], Equals, code{bits: 0, length: 1})
	c.Assert(codes['c'], Equals, code{bits: 2, length: 2})
	c.Assert(codes['a'], Equals, code{bits: 3, length: 2})
}

func (s *TreeSuite) TestEveryNodeResolved(c *C) {
	t := buildTree(allValues(3))
	leaves := 0
	for i := range t.nodes {
		n := &t.nodes[i]
		c.Assert(n.pending(), Equals, false)
		if n.leaf {
			leaves++
			continue
		}

		c.Assert(n.right, Not(Equals), int32(nilNode))
	}

	c.Assert(leaves, Equals, 256)
	c.Assert(t.nodes, HasLen, maxNodes)
}

func (s *TreeSuite) TestEncodeDecode(c *C) {
	inputs := [][]byte{
		[]byte("a"),
		[]byte("ab"),
		[]byte("abracadabra"),
		allValues(1),
	}

	for i, input := range inputs {
		comment := Commentf("subtest %d", i)
		t := buildTree(input)

		buf := bytes.NewBuffer(nil)
		w := NewBitWriter(buf)
		c.Assert(t.encode(w), IsNil, comment)
		c.Assert(w.Flush(), IsNil, comment)

		decoded, err := decodeTree(NewBitReader(buf.Bytes()))
		c.Assert(err, IsNil, comment)
		c.Assert(decoded.codes(), Equals, t.codes(), comment)
	}
}

func (s *TreeSuite) TestEncodeLayout(c *C) {
	buf := bytes.NewBuffer(nil)
	w := NewBitWriter(buf)
	c.Assert(buildTree([]byte("ab")).encode(w), IsNil)
	c.Assert(w.Bits(), Equals, int64(19))
	c.Assert(w.Flush(), IsNil)

	// 1 | 0 0x61 | 0 0x62
	c.Assert(buf.Bytes(), DeepEquals, []byte{0x98, 0x4C, 0x40})
}

func (s *TreeSuite) TestDecodeTooManyNodes(c *C) {
	_, err := decodeTree(NewBitReader(bytes.Repeat([]byte{0xFF}, 64)))
	c.Assert(err, ErrorMatches, "huffman: malformed huffman tree: .*")
	c.Assert(IsFormatError(err), Equals, true)
}

func (s *TreeSuite) TestDecodeTruncated(c *C) {
	_, err := decodeTree(NewBitReader([]byte{0x80}))
	c.Assert(err, Equals, ErrTruncatedData)
}

func allValues(repeat int) []byte {
	out := make([]byte, 0, 256*repeat)
	for r := 0; r < repeat; r++ {
		for v := 0; v < 256; v++ {
			out = append(out, byte(v))
		}
	}

	return out
}
