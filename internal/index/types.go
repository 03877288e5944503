// Package index implements the two-level k-mer index described in the
// data model: kmer -> list<(rangeId, offset)>, and per range an ordered
// hapId list plus a bit matrix where row o is one distinct
// haplotype-set observed at that range.
package index

import "sort"

// Tuple is one (rangeId, offset) pointer stored for a kmer. The same
// kmer can appear in more than one range, hence a list of Tuples.
type Tuple struct {
	RangeID int32
	Offset  uint32
}

// RangeRows holds one reference range's haplotype-set rows: HapIDs is
// the ordered, dense-indexed haplotype list (length H_r); Rows[o] is a
// bit bitset of length H_r (packed into 64-bit words, bit h of row o set
// iff HapIDs[h] belongs to the haplotype-set row o represents).
type RangeRows struct {
	HapIDs []string
	Rows   [][]uint64 // each entry: ceil(H_r/64) words
}

func wordsFor(h int) int { return (h + 63) / 64 }

// NewRangeRows returns an empty RangeRows for the given ordered hapID
// list.
func NewRangeRows(hapIDs []string) *RangeRows {
	return &RangeRows{HapIDs: append([]string(nil), hapIDs...)}
}

// bitset is a mutable, growable-free fixed-width bit vector over
// len(HapIDs) haplotypes, used while building one row.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, wordsFor(n)) }

func (b bitset) set(i int)       { b[i/64] |= uint64(1) << uint(i%64) }
func (b bitset) test(i int) bool { return b[i/64]&(uint64(1)<<uint(i%64)) != 0 }

func (b bitset) popcount() int {
	n := 0
	for _, w := range b {
		n += popcount64(w)
	}
	return n
}

func popcount64(w uint64) int {
	n := 0
	for w != 0 {
		w &= w - 1
		n++
	}
	return n
}

func (b bitset) equal(o bitset) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// addRow deduplicates: if an identical haplotype-set row already
// exists, its offset is returned; otherwise the row is appended and its
// new offset returned.
func (rr *RangeRows) addRow(bs bitset) uint32 {
	for i, row := range rr.Rows {
		if bitset(row).equal(bs) {
			return uint32(i)
		}
	}
	rr.Rows = append(rr.Rows, append(bitset(nil), bs...))
	return uint32(len(rr.Rows) - 1)
}

// HapSet decodes row `offset` back into the sorted list of hapIds it
// represents.
func (rr *RangeRows) HapSet(offset uint32) []string {
	if int(offset) >= len(rr.Rows) {
		return nil
	}
	row := bitset(rr.Rows[offset])
	out := make([]string, 0, row.popcount())
	for h, id := range rr.HapIDs {
		if row.test(h) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Popcount returns the number of haplotypes row `offset` represents.
func (rr *RangeRows) Popcount(offset uint32) int {
	if int(offset) >= len(rr.Rows) {
		return 0
	}
	return bitset(rr.Rows[offset]).popcount()
}

// KmerIndex is the full two-level index: a kmer-to-tuple map, and one
// RangeRows per reference range (indexed by RangeID).
type KmerIndex struct {
	Kmers  map[uint64][]Tuple
	Ranges []*RangeRows // indexed by RangeID; nil entries mean "no rows for this range"
}

// New returns an empty index sized for nRanges reference ranges.
func New(nRanges int) *KmerIndex {
	return &KmerIndex{
		Kmers:  map[uint64][]Tuple{},
		Ranges: make([]*RangeRows, nRanges),
	}
}

// Lookup returns the haplotype-set for a given kmer at a given range,
// decoded from the stored tuple, or nil if the kmer has no entry at
// that range.
func (idx *KmerIndex) Lookup(hash uint64, rangeID int32) [][]string {
	var out [][]string
	for _, t := range idx.Kmers[hash] {
		if t.RangeID != rangeID {
			continue
		}
		rr := idx.Ranges[t.RangeID]
		out = append(out, rr.HapSet(t.Offset))
	}
	return out
}
