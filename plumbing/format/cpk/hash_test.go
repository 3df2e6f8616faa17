package cpk

import (
	. "gopkg.in/check.v1"
)

type HashSuite struct{}

var _ = Suite(&HashSuite{})

func (s *HashSuite) TestHash(c *C) {
	for _, t := range []struct {
		path string
		hash uint16
	}{
		{"", 0},
		{"a", 0x7c87},
		{"123456789", 0x31c3},
		{`data\a.bin`, 54529},
		{`script\main.txt`, 11921},
		{`テスト\a.txt`, 49619},
		{"acq", 40084},
		{"paa", 40084},
	} {
		h, err := Hash(t.path)
		c.Assert(err, IsNil)
		c.Assert(h, Equals, t.hash, Commentf("%q", t.path))
	}
}

func (s *HashSuite) TestHashEquivalentPaths(c *C) {
	for _, p := range []string{
		"Data/A.bin",
		"DATA\\A.BIN",
		"./data/a.bin",
		`.\data\a.bin`,
		"//data/a.bin",
		`\data\a.bin`,
		"/data/a.bin",
		"data//a.bin",
		`data\\a.bin`,
	} {
		h, err := Hash(p)
		c.Assert(err, IsNil)
		c.Assert(h, Equals, uint16(54529), Commentf("%q", p))
	}
}

func (s *HashSuite) TestHashUnencodable(c *C) {
	_, err := Hash("\U0001F600.txt")
	c.Assert(err, NotNil)
}

func (s *HashSuite) TestTrimPath(c *C) {
	for in, out := range map[string]string{
		"./a":   "a",
		`.\a`:   "a",
		"//a":   "a",
		`\/a`:   "a",
		`\\a`:   `\a`,
		"///a":  "a",
		"a/b":   "a/b",
		"../a":  "../a",
		".//a":  "a",
		"a":     "a",
		"":      "",
		"/\\/a": `\/a`,
	} {
		c.Assert(trimPath(in), Equals, out, Commentf("%q", in))
	}
}

func (s *HashSuite) TestNormalizePath(c *C) {
	c.Assert(string(normalizePath([]byte("A//B/c"))), Equals, `a\b\c`)
	c.Assert(string(normalizePath([]byte(`a\/b`))), Equals, `a\\b`)

	// the trailing byte of a double byte character is never a separator or
	// a letter
	sjis := []byte{0x83, 0x5C, '\\', 'X', 0x83, 0x41}
	c.Assert(normalizePath(sjis), DeepEquals, []byte{0x83, 0x5C, '\\', 'x', 0x83, 0x41})
}
