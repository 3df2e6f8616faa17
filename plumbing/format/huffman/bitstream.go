package huffman

import (
	"bytes"
	"io"

	"github.com/icza/bitio"
)

// BitWriter packs bits into bytes, most significant bit first. A BitWriter
// serves exactly one chunk and is not safe for concurrent use.
type BitWriter struct {
	w *bitio.Writer
	n int64
}

// NewBitWriter returns a new BitWriter writing to w.
func NewBitWriter(w io.Writer) *BitWriter {
	return &BitWriter{w: bitio.NewWriter(w)}
}

// WriteBit appends a single bit. A byte is emitted every 8 bits.
func (w *BitWriter) WriteBit(b bool) error {
	w.n++
	return w.w.WriteBool(b)
}

// WriteBits appends the n lowest bits of v, highest of them first.
func (w *BitWriter) WriteBits(v uint64, n uint8) error {
	if n == 0 {
		return nil
	}

	w.n += int64(n)
	return w.w.WriteBits(v, n)
}

// Flush pads a pending partial byte with zero bits and emits it. It must be
// called once, after the last bit of the chunk was written.
func (w *BitWriter) Flush() error {
	return w.w.Close()
}

// Bits returns the number of bits written so far, padding excluded.
func (w *BitWriter) Bits() int64 {
	return w.n
}

// BitReader returns the bits of a byte buffer, most significant bit first.
type BitReader struct {
	r *bitio.Reader
}

// NewBitReader returns a new BitReader over b.
func NewBitReader(b []byte) *BitReader {
	return &BitReader{r: bitio.NewReader(bytes.NewReader(b))}
}

// ReadBit returns the next bit. ErrTruncatedData is returned once the
// buffer is exhausted.
func (r *BitReader) ReadBit() (bool, error) {
	b, err := r.r.ReadBool()
	if err != nil {
		return false, truncated(err)
	}

	return b, nil
}

// ReadBits returns the next n bits, the first of them in the highest
// position of the result.
func (r *BitReader) ReadBits(n uint8) (uint64, error) {
	v, err := r.r.ReadBits(n)
	if err != nil {
		return 0, truncated(err)
	}

	return v, nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncatedData
	}

	return err
}
