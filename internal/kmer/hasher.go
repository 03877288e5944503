// Package kmer implements the canonical 32-mer rolling hash described in
// the design: a single pass per sequence maintaining a forward and a
// reverse-complement 64-bit register, encoding A/C/G/T as 00/01/10/11.
package kmer

import "errors"

// K is the fixed k-mer length the engine indexes and maps reads with.
const K = 32

// mask keeps exactly 2*K bits (64 bits when K==32, so the mask is the
// all-ones uint64; kept explicit for clarity and so K could be lowered
// without touching the arithmetic).
var mask = func() uint64 {
	if K >= 32 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(2*K)) - 1
}()

// ErrIllegalBase is returned by code paths that require a validated
// ACGT base set and encounter anything else.
var ErrIllegalBase = errors.New("kmer: illegal base, only A/C/G/T permitted")

var twobit = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	t['A'], t['a'] = 0, 0
	t['C'], t['c'] = 1, 1
	t['G'], t['g'] = 2, 2
	t['T'], t['t'] = 3, 3
	return t
}()

var complement2bit = [4]uint64{3, 2, 1, 0} // complement of A,C,G,T codes

// Hasher computes the canonical hash of every maximal run of K
// consecutive A/C/G/T bases in a streamed sequence. Any other byte
// (notably 'N') ends the current run; a new run begins once K more
// valid bases have been seen, per the design's "non-ACGT splits are
// mandatory" rule.
type Hasher struct {
	fwd   uint64 // forward hash register
	rev   uint64 // reverse-complement hash register
	valid int    // number of consecutive valid bases seen since the last break
}

// Reset clears the current run, as if starting a new sequence.
func (h *Hasher) Reset() {
	h.fwd, h.rev, h.valid = 0, 0, 0
}

// Push feeds one base into the rolling hash. It returns (canonical
// hash, true) once K consecutive valid bases have been accumulated, or
// (0, false) if the run is not yet long enough (or was just broken by
// an invalid base).
func (h *Hasher) Push(base byte) (uint64, bool) {
	code := twobit[base]
	if code < 0 {
		h.Reset()
		return 0, false
	}
	c := uint64(code)
	h.fwd = ((h.fwd << 2) | c) & mask
	h.rev = (h.rev >> 2) | (complement2bit[c] << uint(2*(K-1)))
	if h.valid < K {
		h.valid++
	}
	if h.valid < K {
		return 0, false
	}
	if h.rev < h.fwd {
		return h.rev, true
	}
	return h.fwd, true
}

// Each splits seq on any non-ACGT byte into maximal runs and invokes fn
// with the canonical hash of every K-mer in every run of length > K-1,
// matching the read-mapper's and index builder's shared splitting rule.
func Each(seq []byte, fn func(hash uint64, offset int)) {
	var h Hasher
	for i, b := range seq {
		hash, ok := h.Push(b)
		if ok {
			fn(hash, i-K+1)
		}
	}
}

// Canonical computes the canonical hash of a single K-length ACGT byte
// slice directly, without streaming state. It returns ErrIllegalBase if
// seq contains anything outside A/C/G/T, and a separate length error if
// seq is not exactly K bases.
func Canonical(seq []byte) (uint64, error) {
	if len(seq) != K {
		return 0, errors.New("kmer: sequence must be exactly K bases")
	}
	var h Hasher
	var last uint64
	var ok bool
	for _, b := range seq {
		last, ok = h.Push(b)
		if twobit[b] < 0 {
			return 0, ErrIllegalBase
		}
	}
	if !ok {
		return 0, ErrIllegalBase
	}
	return last, nil
}
