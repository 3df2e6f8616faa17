package huffman

import (
	"bytes"

	. "gopkg.in/check.v1"
)

type BitstreamSuite struct{}

var _ = Suite(&BitstreamSuite{})

func (s *BitstreamSuite) TestSymmetry(c *C) {
	bits := []bool{
		true, false, true, true, false, false, true, false,
		true, true, false, true, true,
	}

	buf := bytes.NewBuffer(nil)
	w := NewBitWriter(buf)
	for _, b := range bits {
		c.Assert(w.WriteBit(b), IsNil)
	}

	c.Assert(w.Flush(), IsNil)
	c.Assert(w.Bits(), Equals, int64(len(bits)))
	c.Assert(buf.Bytes(), DeepEquals, []byte{0xB2, 0xD8})

	r := NewBitReader(buf.Bytes())
	for i, expected := range bits {
		b, err := r.ReadBit()
		c.Assert(err, IsNil)
		c.Assert(b, Equals, expected, Commentf("bit %d", i))
	}

	for i := 0; i < 3; i++ {
		b, err := r.ReadBit()
		c.Assert(err, IsNil)
		c.Assert(b, Equals, false, Commentf("padding bit %d", i))
	}

	_, err := r.ReadBit()
	c.Assert(err, Equals, ErrTruncatedData)
}

func (s *BitstreamSuite) TestWholeBytesNeedNoPadding(c *C) {
	buf := bytes.NewBuffer(nil)
	w := NewBitWriter(buf)
	c.Assert(w.WriteBits(0xA5, 8), IsNil)
	c.Assert(w.Flush(), IsNil)

	c.Assert(buf.Bytes(), DeepEquals, []byte{0xA5})
}

func (s *BitstreamSuite) TestWriteBitsMostSignificantFirst(c *C) {
	buf := bytes.NewBuffer(nil)
	w := NewBitWriter(buf)
	c.Assert(w.WriteBits(0x3, 2), IsNil)
	c.Assert(w.WriteBits(0, 0), IsNil)
	c.Assert(w.WriteBits(0x1, 3), IsNil)
	c.Assert(w.Flush(), IsNil)

	c.Assert(w.Bits(), Equals, int64(5))
	c.Assert(buf.Bytes(), DeepEquals, []byte{0xC8})

	r := NewBitReader(buf.Bytes())
	v, err := r.ReadBits(5)
	c.Assert(err, IsNil)
	c.Assert(v, Equals, uint64(0x19))
}

func (s *BitstreamSuite) TestReadEmpty(c *C) {
	r := NewBitReader(nil)
	_, err := r.ReadBit()
	c.Assert(err, Equals, ErrTruncatedData)

	_, err = r.ReadBits(8)
	c.Assert(err, Equals, ErrTruncatedData)
}
