package huffman

import (
	"bytes"
)

// CompressChunk compresses src as a single chunk: the serialized tree
// followed by the code of every byte of src, sharing one bitstream.
func CompressChunk(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyChunk
	}

	t := buildTree(src)

	buf := bytes.NewBuffer(make([]byte, 0, len(src)))
	w := NewBitWriter(buf)
	if err := t.encode(w); err != nil {
		return nil, err
	}

	codes := t.codes()
	for _, b := range src {
		c := codes[b]
		if err := w.WriteBits(c.bits, c.length); err != nil {
			return nil, err
		}
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecompressChunk decodes a chunk written by CompressChunk, filling dst
// completely. The length of dst must be the uncompressed size of the chunk.
func DecompressChunk(src, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}

	r := NewBitReader(src)
	t, err := decodeTree(r)
	if err != nil {
		return err
	}

	for i := range dst {
		if dst[i], err = t.decodeValue(r); err != nil {
			return ErrTruncatedData.AddDetails("%d of %d bytes decoded", i, len(dst))
		}
	}

	return nil
}
