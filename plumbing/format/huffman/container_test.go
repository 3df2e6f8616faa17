package huffman

import (
	"bytes"
	"encoding/binary"
	"errors"

	. "gopkg.in/check.v1"
)

type ContainerSuite struct{}

var _ = Suite(&ContainerSuite{})

func (s *ContainerSuite) TestRoundTrip(c *C) {
	inputs := [][]byte{
		nil,
		{42},
		[]byte("ab"),
		allValues(1),
		[]byte(loremIpsum),
		pseudoRandom(7, 10000),
		skewed(300000),
	}

	for _, chunkSize := range []int{1, 4, 100, DefaultChunkSize} {
		for i, input := range inputs {
			comment := Commentf("chunk size %d, subtest %d", chunkSize, i)
			data, err := Compress(input, chunkSize)
			c.Assert(err, IsNil, comment)

			out := make([]byte, len(input))
			n, err := Decompress(data, out)
			c.Assert(err, IsNil, comment)
			c.Assert(n, Equals, len(input), comment)
			c.Assert(bytes.Equal(out, input), Equals, true, comment)
		}
	}
}

func (s *ContainerSuite) TestChunkBoundary(c *C) {
	data, err := Compress([]byte("aaaabbbbc"), 4)
	c.Assert(err, IsNil)

	h, chunks, err := ReadHeader(data)
	c.Assert(err, IsNil)
	c.Assert(h.Magic, Equals, int32(Magic))
	c.Assert(h.ChunkCount, Equals, int32(3))
	c.Assert(h.ChunkSize, Equals, int32(4))
	c.Assert(h.HeaderSize, Equals, int32(HeaderSize+3*ChunkHeaderSize))
	c.Assert(chunks, HasLen, 3)
	c.Assert(chunks[0].UncompressedSize, Equals, int32(4))
	c.Assert(chunks[1].UncompressedSize, Equals, int32(4))
	c.Assert(chunks[2].UncompressedSize, Equals, int32(1))
}

func (s *ContainerSuite) TestHeaderOffsets(c *C) {
	data, err := Compress(skewed(50000), 4096)
	c.Assert(err, IsNil)

	h, chunks, err := ReadHeader(data)
	c.Assert(err, IsNil)
	c.Assert(h.ChunkCount, Equals, int32(13))
	c.Assert(int(h.HeaderSize), Equals, 16+12*len(chunks))

	offset, total := int32(0), int32(0)
	for i, ch := range chunks {
		c.Assert(ch.DataOffset, Equals, offset, Commentf("chunk %d", i))
		offset += ch.CompressedSize
		total += ch.UncompressedSize
	}

	c.Assert(total, Equals, int32(50000))
	c.Assert(len(data), Equals, int(h.HeaderSize+offset))

	n, err := DecodedLen(data)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 50000)
}

func (s *ContainerSuite) TestEncodedLayout(c *C) {
	data, err := Compress([]byte("aaaa"), 4)
	c.Assert(err, IsNil)

	c.Assert(data, DeepEquals, []byte{
		0x34, 0x12, 0, 0, // magic
		1, 0, 0, 0, // chunk count
		4, 0, 0, 0, // chunk size
		28, 0, 0, 0, // header size
		4, 0, 0, 0, // uncompressed size
		2, 0, 0, 0, // compressed size
		0, 0, 0, 0, // data offset
		0x30, 0x80,
	})
}

func (s *ContainerSuite) TestEmpty(c *C) {
	data, err := Compress(nil, DefaultChunkSize)
	c.Assert(err, IsNil)
	c.Assert(data, HasLen, HeaderSize)

	n, err := Decompress(data, nil)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 0)
}

func (s *ContainerSuite) TestWorkersDoNotChangeOutput(c *C) {
	input := skewed(100000)

	sequential := &Encoder{ChunkSize: 1000, Workers: 1}
	expected, err := sequential.Encode(input)
	c.Assert(err, IsNil)

	concurrent := &Encoder{ChunkSize: 1000, Workers: 8}
	obtained, err := concurrent.Encode(input)
	c.Assert(err, IsNil)
	c.Assert(bytes.Equal(obtained, expected), Equals, true)

	out := make([]byte, len(input))
	n, err := (&Decoder{Workers: 8}).Decode(obtained, out)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, len(input))
	c.Assert(bytes.Equal(out, input), Equals, true)
}

func (s *ContainerSuite) TestBadMagic(c *C) {
	data, err := Compress([]byte(loremIpsum), 64)
	c.Assert(err, IsNil)

	data[0], data[1] = data[1], data[0]
	_, err = Decompress(data, make([]byte, len(loremIpsum)))
	c.Assert(errors.Is(err, ErrBadMagic), Equals, true)
	c.Assert(IsFormatError(err), Equals, true)
	c.Assert(err, ErrorMatches, "huffman: bad container magic: 0x3412")
}

func (s *ContainerSuite) TestTruncatedHeader(c *C) {
	_, err := Decompress([]byte{0x34, 0x12, 0}, make([]byte, 1))
	c.Assert(errors.Is(err, ErrTruncatedHeader), Equals, true)

	data, err := Compress([]byte(loremIpsum), 64)
	c.Assert(err, IsNil)

	_, err = Decompress(data[:HeaderSize+5], make([]byte, len(loremIpsum)))
	c.Assert(errors.Is(err, ErrTruncatedHeader), Equals, true)
}

func (s *ContainerSuite) TestChunkOutOfBounds(c *C) {
	data, err := Compress([]byte(loremIpsum), 64)
	c.Assert(err, IsNil)

	last := len(data) - 1
	data = data[:last]
	_, err = Decompress(data, make([]byte, len(loremIpsum)))
	c.Assert(errors.Is(err, ErrChunkOutOfBounds), Equals, true)

	data, err = Compress([]byte(loremIpsum), 64)
	c.Assert(err, IsNil)
	binary.LittleEndian.PutUint32(data[HeaderSize+8:], 0xFFFFFFFF)
	_, err = Decompress(data, make([]byte, len(loremIpsum)))
	c.Assert(errors.Is(err, ErrChunkOutOfBounds), Equals, true)
}

func (s *ContainerSuite) TestShortBuffer(c *C) {
	data, err := Compress([]byte(loremIpsum), 64)
	c.Assert(err, IsNil)

	_, err = Decompress(data, make([]byte, len(loremIpsum)-1))
	c.Assert(errors.Is(err, ErrShortBuffer), Equals, true)
	c.Assert(IsCapacityError(err), Equals, true)
}

func (s *ContainerSuite) TestZeroCapacityReturnsEarly(c *C) {
	data, err := Compress([]byte(loremIpsum), 64)
	c.Assert(err, IsNil)

	n, err := Decompress(data, []byte{})
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 0)
}

func (s *ContainerSuite) TestCorruptChunkFailsWholeCall(c *C) {
	data, err := Compress([]byte(loremIpsum), 64)
	c.Assert(err, IsNil)

	h, chunks, err := ReadHeader(data)
	c.Assert(err, IsNil)
	c.Assert(h.ChunkCount > 2, Equals, true)

	// Declare the third chunk longer than its bitstream can describe.
	size := uint32(chunks[2].UncompressedSize * 64)
	binary.LittleEndian.PutUint32(data[8:], size)
	binary.LittleEndian.PutUint32(data[HeaderSize+2*ChunkHeaderSize:], size)
	out := make([]byte, len(loremIpsum)*64)

	_, err = Decompress(data, out)
	c.Assert(errors.Is(err, ErrTruncatedData), Equals, true)
	c.Assert(err, ErrorMatches, "huffman: truncated chunk data: chunk 2: .*")
}

func (s *ContainerSuite) TestChunkErrorDetails(c *C) {
	data := container(Header{Magic, 1, 64, HeaderSize + ChunkHeaderSize}, ChunkHeader{1, 0, 0})

	_, err := Decompress(data, make([]byte, 1))
	c.Assert(errors.Is(err, ErrTruncatedData), Equals, true)
	c.Assert(err.Error(), Equals, "huffman: truncated chunk data: chunk 0")
}

func (s *ContainerSuite) TestChunkLargerThanChunkSize(c *C) {
	data := container(Header{Magic, 1, 64, HeaderSize + ChunkHeaderSize}, ChunkHeader{1 << 30, 0, 0})

	_, err := DecodedLen(data)
	c.Assert(errors.Is(err, ErrChunkOutOfBounds), Equals, true)
	c.Assert(IsFormatError(err), Equals, true)
}

func container(h Header, chunks ...ChunkHeader) []byte {
	buf := bytes.NewBuffer(nil)
	binary.Write(buf, binary.LittleEndian, h)
	binary.Write(buf, binary.LittleEndian, chunks)
	return buf.Bytes()
}

func (s *ContainerSuite) TestStrict(c *C) {
	e := &Encoder{ChunkSize: 4, Strict: true}
	_, err := e.Encode([]byte{1, 2, 3, 4})
	c.Assert(errors.Is(err, ErrIncompressible), Equals, true)
	c.Assert(IsContractError(err), Equals, true)

	e = &Encoder{ChunkSize: 4096, Strict: true}
	data, err := e.Encode(skewed(20000))
	c.Assert(err, IsNil)
	c.Assert(len(data) < 20000, Equals, true)
}

func (s *ContainerSuite) TestInvalidChunkSize(c *C) {
	for _, size := range []int{0, -1} {
		_, err := Compress([]byte("a"), size)
		c.Assert(errors.Is(err, ErrInvalidChunkSize), Equals, true)
	}
}
