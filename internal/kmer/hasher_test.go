package kmer

import (
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type hasherSuite struct{}

var _ = check.Suite(&hasherSuite{})

func revcomp(s []byte) []byte {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}
	out := make([]byte, len(s))
	for i, b := range s {
		out[len(s)-1-i] = comp[b]
	}
	return out
}

// TestCanonicalityInvariant is testable property 1: for every 32-mer,
// hash(s) == hash(revcomp(s)).
func (s *hasherSuite) TestCanonicalityInvariant(c *check.C) {
	seqs := [][]byte{
		[]byte("ACACGTGTAACCGGTTGTGACTGACGGTAACG"),
		[]byte("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
		[]byte("TTTTTTTTTTTTTTTTTTTTTTTTTTTTTTTT"),
		[]byte("ACGTACGTACGTACGTACGTACGTACGTACGT"),
	}
	for _, seq := range seqs {
		h1, err := Canonical(seq)
		c.Assert(err, check.IsNil)
		h2, err := Canonical(revcomp(seq))
		c.Assert(err, check.IsNil)
		c.Check(h1, check.Equals, h2)
	}
}

func (s *hasherSuite) TestCanonicalIsMinimum(c *check.C) {
	seq := []byte("ACACGTGTAACCGGTTGTGACTGACGGTAACG")
	var h Hasher
	var fwdOnly uint64
	for _, b := range seq {
		fwdOnly = (fwdOnly << 2) | uint64(twobit[b])
	}
	canon, ok := func() (uint64, bool) {
		var hash uint64
		var ok bool
		for _, b := range seq {
			hash, ok = h.Push(b)
		}
		return hash, ok
	}()
	c.Assert(ok, check.Equals, true)
	c.Check(canon <= fwdOnly || canon == h.rev, check.Equals, true)
}

func (s *hasherSuite) TestNonACGTSplitsStreak(c *check.C) {
	// 31 valid bases, then N, then 32 more valid bases: only the second
	// run should ever complete a k-mer.
	seq := append([]byte("ACGTACGTACGTACGTACGTACGTACGTACG"), 'N')
	seq = append(seq, []byte("TTTTTTTTTTTTTTTTTTTTTTTTTTTTTTTT")...)
	var count int
	Each(seq, func(hash uint64, offset int) { count++ })
	c.Check(count, check.Equals, 1)
}

func (s *hasherSuite) TestEachEmitsSlidingWindow(c *check.C) {
	seq := []byte("ACGTACGTACGTACGTACGTACGTACGTACGTAC") // K+2 bases
	var offsets []int
	Each(seq, func(hash uint64, offset int) { offsets = append(offsets, offset) })
	c.Assert(offsets, check.DeepEquals, []int{0, 1, 2})
}

func (s *hasherSuite) TestIllegalBaseInExactKmer(c *check.C) {
	seq := []byte("ACGTACGTACGTACGTACGTACGTACGTACGN")
	_, err := Canonical(seq)
	c.Check(err, check.Equals, ErrIllegalBase)
}
