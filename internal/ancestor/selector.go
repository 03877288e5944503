// Package ancestor implements the AncestorSelector: a greedy weighted
// set-cover pass that narrows a sample's candidate gamete pool down to
// the handful most likely to explain its read mapping counts, before
// the expensive per-range HMMs ever run.
package ancestor

import (
	"sort"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
)

// Pick is one record of the ordered output: the gamete chosen, how
// many new read observations it accounted for, and the cumulative
// coverage fraction after it was added.
type Pick struct {
	Gamete            graph.SampleGamete
	IncrementalReads  int
	CumulativeCoverage float64
}

// observation identifies one (rangeId, haplotype-set) occurrence in a
// sample's ReadMappingCounts, weighted by its read count.
type observation struct {
	rangeID int32
	set     string
	count   int
}

// Select runs the greedy weighted set-cover algorithm of the design:
// repeatedly pick the gamete with the highest marginal cover until
// either maxAncestors gametes are picked or cumulative coverage meets
// minCoverage, whichever comes first.
func Select(g *graph.HaplotypeGraph, counts *mapping.Counts, candidates []graph.SampleGamete, cfg config.Config) []Pick {
	obs := flatten(counts)
	total := 0
	for _, o := range obs {
		total += o.count
	}

	// Precompute which observation indices each candidate gamete covers.
	covered := make(map[graph.SampleGamete][]int, len(candidates))
	for _, gamete := range candidates {
		var idxs []int
		for i, o := range obs {
			rr := rangeByID(g, o.rangeID)
			hapID, ok := g.SampleToHapID(rr, gamete)
			if !ok {
				continue
			}
			if containsHap(o.set, hapID) {
				idxs = append(idxs, i)
			}
		}
		covered[gamete] = idxs
	}

	remaining := make([]bool, len(obs))
	for i := range remaining {
		remaining[i] = true
	}

	sortedCandidates := append([]graph.SampleGamete(nil), candidates...)
	sort.Slice(sortedCandidates, func(i, j int) bool {
		return sortedCandidates[i].Less(sortedCandidates[j])
	})

	picked := map[graph.SampleGamete]bool{}
	var out []Pick
	cumulative := 0

	for len(out) < cfg.MaxAncestors || cfg.MaxAncestors == 0 {
		if total == 0 {
			break
		}
		if float64(cumulative) >= cfg.MinCoverage*float64(total) {
			break
		}
		bestGamete := graph.SampleGamete{}
		bestMarginal := -1
		found := false
		for _, gamete := range sortedCandidates {
			if picked[gamete] {
				continue
			}
			marginal := 0
			for _, idx := range covered[gamete] {
				if remaining[idx] {
					marginal += obs[idx].count
				}
			}
			if marginal > bestMarginal {
				bestMarginal, bestGamete, found = marginal, gamete, true
			}
		}
		if !found || bestMarginal == 0 {
			break
		}
		picked[bestGamete] = true
		for _, idx := range covered[bestGamete] {
			remaining[idx] = false
		}
		cumulative += bestMarginal
		out = append(out, Pick{
			Gamete:             bestGamete,
			IncrementalReads:   bestMarginal,
			CumulativeCoverage: float64(cumulative) / float64(total),
		})
		if cfg.MaxAncestors > 0 && len(out) >= cfg.MaxAncestors {
			break
		}
	}
	return out
}

func flatten(counts *mapping.Counts) []observation {
	var out []observation
	for _, rangeID := range counts.Ranges() {
		for _, e := range counts.Entries(rangeID) {
			out = append(out, observation{rangeID: rangeID, set: setKey(e.HapIDs), count: e.Count})
		}
	}
	return out
}

func setKey(hapIDs []string) string {
	// hapIDs are already sorted by the ReadMapper contract; join for
	// cheap substring-free membership checks below.
	s := ""
	for i, h := range hapIDs {
		if i > 0 {
			s += "\x00"
		}
		s += h
	}
	return s
}

func containsHap(setStr, hapID string) bool {
	if setStr == "" {
		return false
	}
	start := 0
	for i := 0; i <= len(setStr); i++ {
		if i == len(setStr) || setStr[i] == 0 {
			if setStr[start:i] == hapID {
				return true
			}
			start = i + 1
		}
	}
	return false
}

func rangeByID(g *graph.HaplotypeGraph, rangeID int32) graph.ReferenceRange {
	for _, rr := range g.Ranges() {
		if rr.RangeID == rangeID {
			return rr
		}
	}
	return graph.ReferenceRange{}
}
