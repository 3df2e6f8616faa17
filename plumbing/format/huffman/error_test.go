package huffman

import (
	"errors"
	"fmt"

	. "gopkg.in/check.v1"
)

type ErrorSuite struct{}

var _ = Suite(&ErrorSuite{})

func (s *ErrorSuite) TestAddDetails(c *C) {
	err := ErrChunkOutOfBounds.AddDetails("chunk %d", 3)
	c.Assert(err, ErrorMatches, "huffman: chunk out of bounds: chunk 3")
	c.Assert(err.Kind(), Equals, FormatError)
	c.Assert(ErrChunkOutOfBounds.Error(), Equals, "huffman: chunk out of bounds")
}

func (s *ErrorSuite) TestIs(c *C) {
	err := ErrShortBuffer.AddDetails("need %d", 10)
	c.Assert(errors.Is(err, ErrShortBuffer), Equals, true)
	c.Assert(errors.Is(err, ErrBadMagic), Equals, false)

	wrapped := fmt.Errorf("reading entry: %w", err)
	c.Assert(errors.Is(wrapped, ErrShortBuffer), Equals, true)
	c.Assert(IsCapacityError(wrapped), Equals, true)
	c.Assert(IsFormatError(wrapped), Equals, false)
	c.Assert(IsContractError(errors.New("foo")), Equals, false)
}

func (s *ErrorSuite) TestKindString(c *C) {
	c.Assert(FormatError.String(), Equals, "format error")
	c.Assert(CapacityError.String(), Equals, "capacity error")
	c.Assert(ContractError.String(), Equals, "contract error")
	c.Assert(Kind(0).String(), Equals, "unknown error")
}
