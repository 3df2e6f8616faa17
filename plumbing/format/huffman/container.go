// Package huffman implements the chunked Huffman codec used by DW_PACK and
// CPK archives.
//
// A container starts with a Header and ChunkCount ChunkHeaders, all little
// endian int32 fields without padding, followed by the compressed chunks laid
// out contiguously in order. Each chunk carries its own Huffman tree, so
// chunks are compressed and decompressed independently of each other.
package huffman

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/dwpack/go-dwpack/utils/parallel"
)

const (
	// Magic identifies a container.
	Magic = 0x1234
	// DefaultChunkSize is the nominal chunk size used by Compress callers
	// that have no better choice.
	DefaultChunkSize = 0x20000
	// HeaderSize is the encoded size of Header.
	HeaderSize = 16
	// ChunkHeaderSize is the encoded size of ChunkHeader.
	ChunkHeaderSize = 12
)

// Header is the container header.
type Header struct {
	Magic      int32
	ChunkCount int32
	ChunkSize  int32
	// HeaderSize is the offset of the first chunk payload, this is
	// HeaderSize plus ChunkCount chunk headers.
	HeaderSize int32
}

// ChunkHeader describes one compressed chunk.
type ChunkHeader struct {
	UncompressedSize int32
	CompressedSize   int32
	// DataOffset is relative to Header.HeaderSize.
	DataOffset int32
}

// Encoder compresses buffers into containers.
type Encoder struct {
	// ChunkSize is the nominal size of every chunk but the last one.
	ChunkSize int
	// Workers is the number of chunks compressed concurrently, 0 means one
	// per CPU. The output does not depend on it.
	Workers int
	// Strict makes Encode fail with ErrIncompressible when a chunk does not
	// compress to fewer bytes than its input.
	Strict bool
}

// NewEncoder returns an Encoder splitting input in chunks of chunkSize
// bytes, compressing them on every CPU.
func NewEncoder(chunkSize int) *Encoder {
	return &Encoder{ChunkSize: chunkSize}
}

// Encode compresses src into a new container.
func (e *Encoder) Encode(src []byte) ([]byte, error) {
	if e.ChunkSize <= 0 || e.ChunkSize > math.MaxInt32 {
		return nil, ErrInvalidChunkSize.AddDetails("%d", e.ChunkSize)
	}

	if len(src) > math.MaxInt32 {
		return nil, ErrTooLarge.AddDetails("%d bytes", len(src))
	}

	count := (len(src) + e.ChunkSize - 1) / e.ChunkSize
	if HeaderSize+count*ChunkHeaderSize > math.MaxInt32 {
		return nil, ErrTooLarge.AddDetails("%d chunks", count)
	}

	chunks := make([][]byte, count)
	err := parallel.ForEach(count, e.Workers, func(i int) error {
		plain := e.chunk(src, i)
		data, err := CompressChunk(plain)
		if err != nil {
			return err
		}

		if e.Strict && len(data) >= len(plain) {
			return ErrIncompressible.AddDetails(
				"chunk %d: %d bytes compressed to %d", i, len(plain), len(data),
			)
		}

		chunks[i] = data
		return nil
	})

	if err != nil {
		return nil, err
	}

	return e.assemble(src, chunks)
}

func (e *Encoder) chunk(src []byte, i int) []byte {
	start := i * e.ChunkSize
	end := start + e.ChunkSize
	if end > len(src) {
		end = len(src)
	}

	return src[start:end]
}

func (e *Encoder) assemble(src []byte, chunks [][]byte) ([]byte, error) {
	h := Header{
		Magic:      Magic,
		ChunkCount: int32(len(chunks)),
		ChunkSize:  int32(e.ChunkSize),
		HeaderSize: int32(HeaderSize + len(chunks)*ChunkHeaderSize),
	}

	size := int(h.HeaderSize)
	for _, c := range chunks {
		size += len(c)
	}

	if size > math.MaxInt32 {
		return nil, ErrTooLarge.AddDetails("%d bytes compressed", size)
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	offset := 0
	for i, c := range chunks {
		ch := ChunkHeader{
			UncompressedSize: int32(len(e.chunk(src, i))),
			CompressedSize:   int32(len(c)),
			DataOffset:       int32(offset),
		}

		if err := binary.Write(buf, binary.LittleEndian, &ch); err != nil {
			return nil, err
		}

		offset += len(c)
	}

	for _, c := range chunks {
		buf.Write(c)
	}

	return buf.Bytes(), nil
}

// Decoder decompresses containers.
type Decoder struct {
	// Workers is the number of chunks decompressed concurrently, 0 means
	// one per CPU.
	Workers int
}

// NewDecoder returns a Decoder using every CPU.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decompresses the container src into dst and returns the number of
// bytes written. The whole header is validated before any chunk is decoded;
// a failure in any chunk fails the call.
func (d *Decoder) Decode(src, dst []byte) (int, error) {
	h, err := readContainerHeader(src)
	if err != nil {
		return 0, err
	}

	if len(dst) == 0 {
		return 0, nil
	}

	chunks, err := readChunkHeaders(src, h)
	if err != nil {
		return 0, err
	}

	offsets := make([]int, len(chunks))
	total := 0
	for i, c := range chunks {
		offsets[i] = total
		total += int(c.UncompressedSize)
	}

	if total > len(dst) {
		return 0, ErrShortBuffer.AddDetails("need %d bytes, have %d", total, len(dst))
	}

	err = parallel.ForEach(len(chunks), d.Workers, func(i int) error {
		c := chunks[i]
		start := int(h.HeaderSize) + int(c.DataOffset)
		in := src[start : start+int(c.CompressedSize)]
		out := dst[offsets[i] : offsets[i]+int(c.UncompressedSize)]

		if err := DecompressChunk(in, out); err != nil {
			if e, ok := err.(*Error); ok {
				if e.details == "" {
					return e.AddDetails("chunk %d", i)
				}

				return e.AddDetails("chunk %d: %s", i, e.details)
			}

			return err
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return total, nil
}

// Compress splits src in chunks of chunkSize bytes and compresses them into
// a container. Chunks that do not shrink are accepted, see Encoder.Strict.
func Compress(src []byte, chunkSize int) ([]byte, error) {
	return NewEncoder(chunkSize).Encode(src)
}

// Decompress decompresses the container src into dst and returns the number
// of bytes written.
func Decompress(src, dst []byte) (int, error) {
	return NewDecoder().Decode(src, dst)
}

// ReadHeader validates the container and chunk headers at the start of src
// and returns them.
func ReadHeader(src []byte) (*Header, []ChunkHeader, error) {
	h, err := readContainerHeader(src)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := readChunkHeaders(src, h)
	if err != nil {
		return nil, nil, err
	}

	return h, chunks, nil
}

// DecodedLen returns the total uncompressed size declared by the container
// src. No chunk declares more than the container chunk size, so the result
// is at most ChunkCount * ChunkSize.
func DecodedLen(src []byte) (int, error) {
	_, chunks, err := ReadHeader(src)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, c := range chunks {
		total += int(c.UncompressedSize)
	}

	return total, nil
}

func readContainerHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, ErrTruncatedHeader.AddDetails("%d bytes", len(src))
	}

	h := &Header{}
	if err := binary.Read(bytes.NewReader(src), binary.LittleEndian, h); err != nil {
		return nil, err
	}

	if h.Magic != Magic {
		return nil, ErrBadMagic.AddDetails("%#x", uint32(h.Magic))
	}

	return h, nil
}

func readChunkHeaders(src []byte, h *Header) ([]ChunkHeader, error) {
	if h.ChunkCount < 0 {
		return nil, ErrTruncatedHeader.AddDetails("negative chunk count %d", h.ChunkCount)
	}

	tableEnd := int64(HeaderSize) + int64(h.ChunkCount)*ChunkHeaderSize
	if tableEnd > int64(len(src)) {
		return nil, ErrTruncatedHeader.AddDetails(
			"%d chunk headers do not fit in %d bytes", h.ChunkCount, len(src),
		)
	}

	if int64(h.HeaderSize) < tableEnd || int64(h.HeaderSize) > int64(len(src)) {
		return nil, ErrTruncatedHeader.AddDetails("header size %d", h.HeaderSize)
	}

	chunks := make([]ChunkHeader, h.ChunkCount)
	r := bytes.NewReader(src[HeaderSize:tableEnd])
	if err := binary.Read(r, binary.LittleEndian, chunks); err != nil {
		return nil, err
	}

	payload := int64(len(src)) - int64(h.HeaderSize)
	for i, c := range chunks {
		if c.UncompressedSize < 0 || c.CompressedSize < 0 || c.DataOffset < 0 {
			return nil, ErrChunkOutOfBounds.AddDetails("chunk %d: negative field", i)
		}

		if c.UncompressedSize > h.ChunkSize {
			return nil, ErrChunkOutOfBounds.AddDetails(
				"chunk %d: %d bytes, chunk size is %d", i, c.UncompressedSize, h.ChunkSize,
			)
		}

		if int64(c.DataOffset)+int64(c.CompressedSize) > payload {
			return nil, ErrChunkOutOfBounds.AddDetails(
				"chunk %d: %d bytes at %d, payload is %d bytes",
				i, c.CompressedSize, c.DataOffset, payload,
			)
		}
	}

	return chunks, nil
}
