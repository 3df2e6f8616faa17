package cpk

import (
	"strings"

	"github.com/dwpack/go-dwpack/utils/sjis"
)

const (
	hashPoly = 0x1102100
	hashTop  = 0x1000000
)

// Hash returns the lookup table slot of an archive path: the CRC-16/XMODEM
// of its normalized Shift-JIS bytes. Paths are compared case insensitively
// and with either separator, so `Data/A.bin` and `data\a.bin` share a slot.
func Hash(path string) (uint16, error) {
	b, err := sjis.Bytes(trimPath(path))
	if err != nil {
		return 0, err
	}

	var h uint32
	for _, c := range normalizePath(b) {
		h |= uint32(c)
		h = hashRound(h)
	}

	h = hashRound(h)
	h = hashRound(h)

	return uint16(h >> 8), nil
}

func hashRound(h uint32) uint32 {
	for i := 0; i < 8; i++ {
		t := h << 1
		h = t
		if t&hashTop != 0 {
			h = t ^ hashPoly
		}
	}

	return h
}

// trimPath drops a leading "./" or ".\", then "//", then one "\" and one
// "/".
func trimPath(p string) string {
	if strings.HasPrefix(p, `.\`) || strings.HasPrefix(p, "./") {
		p = p[2:]
	}

	p = strings.TrimPrefix(p, "//")
	p = strings.TrimPrefix(p, `\`)
	return strings.TrimPrefix(p, "/")
}

// normalizePath lowercases ASCII letters, turns separators into backslashes
// and collapses doubled separators. Double byte characters are copied as is.
func normalizePath(src []byte) []byte {
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c > 0x7F:
			dst = append(dst, c)
			if i+1 < len(src) {
				i++
				dst = append(dst, src[i])
			}
		case c == '/' || c == '\\':
			if i+1 < len(src) && src[i+1] == c {
				i++
			}

			dst = append(dst, '\\')
		case c >= 'A' && c <= 'Z':
			dst = append(dst, c+'a'-'A')
		default:
			dst = append(dst, c)
		}
	}

	return dst
}
