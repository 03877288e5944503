// Package graph implements the HaplotypeGraph: the in-memory model of
// reference ranges, haplotypes, and sample-to-haplotype membership that
// every other component in the engine reads, never mutates.
package graph

import "sort"

// ReferenceRange is a half-open interval (contig, start, end) on the
// reference. Ranges are totally ordered by (contig, start) and assigned
// a dense RangeID in that sort order once the graph is built.
type ReferenceRange struct {
	Contig string
	Start  int64
	End    int64
	RangeID int32
}

// Less orders ranges by (contig, start), matching graph construction.
func (r ReferenceRange) Less(o ReferenceRange) bool {
	if r.Contig != o.Contig {
		return r.Contig < o.Contig
	}
	return r.Start < o.Start
}

func (r ReferenceRange) Length() int64 { return r.End - r.Start }

// SampleGamete identifies one chromosome copy of one sample: (sampleName,
// gameteIndex). A haploid sample has a single gamete (index 0); a
// diploid sample has two (0 and 1).
type SampleGamete struct {
	Sample      string
	GameteIndex uint8
}

func (g SampleGamete) Less(o SampleGamete) bool {
	if g.Sample != o.Sample {
		return g.Sample < o.Sample
	}
	return g.GameteIndex < o.GameteIndex
}

// rangeData holds the per-range lookup tables: which hapIds exist here,
// and which sample gamete carries which hapId.
type rangeData struct {
	hapToSamples map[string][]SampleGamete
	sampleToHap  map[SampleGamete]string
}

// HaplotypeGraph is the read-only, post-construction model described in
// the data model section: rangeId -> {hapId} and (rangeId, hapId) ->
// set<SampleGamete> are kept as exact inverses of one another.
type HaplotypeGraph struct {
	ranges        []ReferenceRange
	byRange       []rangeData // indexed by RangeID
	sampleGametes map[SampleGamete]struct{}
	checksums     map[string]string // hapId -> caller-supplied checksum, from "##ALT=<...,Checksum=...>"
}

// Checksum returns the caller-supplied checksum for hapID, if the
// haplotype-VCF metadata line carried one.
func (g *HaplotypeGraph) Checksum(hapID string) (string, bool) {
	c, ok := g.checksums[hapID]
	return c, ok
}

// Ranges returns the sorted, dense-RangeID-assigned list of reference
// ranges.
func (g *HaplotypeGraph) Ranges() []ReferenceRange {
	return g.ranges
}

// HapIDToSamples returns, for a reference range, the map from hapId to
// the sorted list of sample gametes carrying it.
func (g *HaplotypeGraph) HapIDToSamples(r ReferenceRange) map[string][]SampleGamete {
	if int(r.RangeID) >= len(g.byRange) {
		return nil
	}
	return g.byRange[r.RangeID].hapToSamples
}

// SampleToHapID returns the hapId gamete carries at range r, or ("",
// false) if the gamete is absent there (the sum-type "Absent" variant
// named in the design notes).
func (g *HaplotypeGraph) SampleToHapID(r ReferenceRange, gamete SampleGamete) (string, bool) {
	if int(r.RangeID) >= len(g.byRange) {
		return "", false
	}
	hap, ok := g.byRange[r.RangeID].sampleToHap[gamete]
	return hap, ok
}

// SampleGametesInGraph returns the graph-wide set of sample gametes.
func (g *HaplotypeGraph) SampleGametesInGraph() []SampleGamete {
	out := make([]SampleGamete, 0, len(g.sampleGametes))
	for sg := range g.sampleGametes {
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// HaplotypesAt returns the sorted list of distinct hapIds present at r.
func (g *HaplotypeGraph) HaplotypesAt(r ReferenceRange) []string {
	m := g.HapIDToSamples(r)
	out := make([]string, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// FilterMinGametes returns a copy of the graph retaining only ranges
// with at least minGametes distinct sample gametes represented (the
// "ranges with fewer gametes than a configured minimum may be filtered
// out before path finding" invariant). minGametes <= 0 means no
// filtering.
func (g *HaplotypeGraph) FilterMinGametes(minGametes int) *HaplotypeGraph {
	if minGametes <= 0 {
		return g
	}
	out := &HaplotypeGraph{sampleGametes: g.sampleGametes, checksums: g.checksums}
	for _, r := range g.ranges {
		n := 0
		for _, gametes := range g.byRange[r.RangeID].hapToSamples {
			n += len(gametes)
		}
		if n < minGametes {
			continue
		}
		nr := r
		nr.RangeID = int32(len(out.ranges))
		out.ranges = append(out.ranges, nr)
		out.byRange = append(out.byRange, g.byRange[r.RangeID])
	}
	return out
}
