// Package mapping implements the ReadMapper: streaming, alignment-free
// assignment of reads to haplotype sets per reference range using the
// k-mer index, and the ReadMappingCounts accumulator that is its only
// persisted output.
package mapping

import (
	"sort"
	"strings"
)

// Entry is one row of ReadMappingCounts: "this many reads mapped to
// exactly this haplotype set, at some reference range."
type Entry struct {
	HapIDs []string
	Count  int
}

// Counts is the multiset over sorted haplotype-set lists described in
// the data model as ReadMappingCounts. The range each entry belongs to
// is recoverable because every hapId belongs to exactly one range; to
// avoid repeated lookups, Counts groups entries by RangeID directly.
type Counts struct {
	byRange map[int32]map[string]*Entry
}

// NewCounts returns an empty accumulator.
func NewCounts() *Counts {
	return &Counts{byRange: map[int32]map[string]*Entry{}}
}

// key renders a sorted hapID list as its canonical map key.
func key(hapIDs []string) string { return strings.Join(hapIDs, ",") }

// Add records one read's (already lexicographically sorted) haplotype
// set as evidence at rangeID.
func (c *Counts) Add(rangeID int32, hapIDs []string) {
	m, ok := c.byRange[rangeID]
	if !ok {
		m = map[string]*Entry{}
		c.byRange[rangeID] = m
	}
	k := key(hapIDs)
	e, ok := m[k]
	if !ok {
		e = &Entry{HapIDs: append([]string(nil), hapIDs...)}
		m[k] = e
	}
	e.Count++
}

// AddN records hapIDs as n reads' worth of evidence at rangeID in one
// step (used when deserializing a read-mapping file, whose rows already
// carry aggregate counts).
func (c *Counts) AddN(rangeID int32, hapIDs []string, n int) {
	m, ok := c.byRange[rangeID]
	if !ok {
		m = map[string]*Entry{}
		c.byRange[rangeID] = m
	}
	k := key(hapIDs)
	e, ok := m[k]
	if !ok {
		e = &Entry{HapIDs: append([]string(nil), hapIDs...)}
		m[k] = e
	}
	e.Count += n
}

// Ranges returns the set of reference ranges with at least one entry.
func (c *Counts) Ranges() []int32 {
	out := make([]int32, 0, len(c.byRange))
	for r := range c.byRange {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Entries returns the entries recorded at rangeID, in no particular
// order.
func (c *Counts) Entries(rangeID int32) []Entry {
	m := c.byRange[rangeID]
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, *e)
	}
	return out
}

// Total returns the total read count recorded at rangeID.
func (c *Counts) Total(rangeID int32) int {
	n := 0
	for _, e := range c.byRange[rangeID] {
		n += e.Count
	}
	return n
}
