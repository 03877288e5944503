// Package haploid implements the HaploidPathFinder: a first-order
// Viterbi HMM over a single SampleGamete per reference range, using the
// O(n) self-vs-argmax predecessor reduction described in the design.
package haploid

import (
	"math"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"github.com/dirkjanvw/phg-v2/internal/path"
	"github.com/dirkjanvw/phg-v2/internal/stats"
)

// retainedRange bundles a reference range together with the read
// mapping evidence available at it, after range filtering.
type retainedRange struct {
	rr     graph.ReferenceRange
	counts *mapping.Counts
}

// FilterRanges applies the range-filtering rules of the design: a range
// is dropped (not retained) when fewer than minGametes sample gametes
// carry a haplotype there (minGametes <= 0 disables this check), its
// distinct observed haplotype-set count is below minReads, its read
// density exceeds maxReadsPerKb, or (when removeEqual is set) every
// haplotype at that range has identical read-count support.
func FilterRanges(g *graph.HaplotypeGraph, counts *mapping.Counts, cfg config.Config) []graph.ReferenceRange {
	var out []graph.ReferenceRange
	for _, rr := range g.Ranges() {
		if cfg.MinGametes > 0 {
			nGametes := 0
			for _, gametes := range g.HapIDToSamples(rr) {
				nGametes += len(gametes)
			}
			if nGametes < cfg.MinGametes {
				continue
			}
		}
		entries := counts.Entries(rr.RangeID)
		if len(entries) < cfg.MinReads {
			continue
		}
		total := counts.Total(rr.RangeID)
		if rr.Length() > 0 && float64(total)*1000/float64(rr.Length()) > cfg.MaxReadsPerKb {
			continue
		}
		if cfg.RemoveEqual && allSupportEqual(g, rr, counts) {
			continue
		}
		out = append(out, rr)
	}
	return out
}

func allSupportEqual(g *graph.HaplotypeGraph, rr graph.ReferenceRange, counts *mapping.Counts) bool {
	support := map[string]int{}
	for hapID := range g.HapIDToSamples(rr) {
		support[hapID] = 0
	}
	for _, e := range counts.Entries(rr.RangeID) {
		for _, hapID := range e.HapIDs {
			support[hapID] += e.Count
		}
	}
	if len(support) == 0 {
		return true
	}
	var first int
	init := false
	for _, n := range support {
		if !init {
			first, init = n, true
			continue
		}
		if n != first {
			return false
		}
	}
	return true
}

// emission returns the log-likelihood of gamete g's haplotype
// assignment at rr given the observed ReadMappingCounts entries there,
// per the binomial emission model: for each observed set s with count
// c_s, k_s = c_s if h_g is in s else 0, modeled as Binom(c_s; k_s,
// probCorrect).
func emission(g *graph.HaplotypeGraph, rr graph.ReferenceRange, gamete graph.SampleGamete, entries []mapping.Entry, cfg config.Config) float64 {
	hapID, _ := g.SampleToHapID(rr, gamete) // "" (absent) is a valid sentinel below
	ll := 0.0
	for _, e := range entries {
		contains := containsString(e.HapIDs, hapID) && hapID != ""
		k := 0
		if contains {
			k = e.Count
		}
		ll += stats.LogBinomial(k, e.Count, cfg.ProbCorrect)
	}
	return ll
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// FindPath runs the O(n) Viterbi reduction over the candidate gamete
// set, producing one path.Node per retained range.
func FindPath(g *graph.HaplotypeGraph, counts *mapping.Counts, candidates []graph.SampleGamete, cfg config.Config) []*path.Node {
	ranges := FilterRanges(g, counts, cfg)
	n := len(candidates)
	if n == 0 || len(ranges) == 0 {
		return nil
	}

	logSame := math.Log(cfg.ProbSameGamete)
	logSwitch := math.Inf(-1)
	if n > 1 {
		logSwitch = math.Log((1 - cfg.ProbSameGamete) / float64(n-1))
	}

	// score[i] is the best log-probability of the path ending in
	// candidates[i] at the current range; back[i] is the predecessor
	// chosen for each state, one column per retained range.
	score := make([]float64, n)
	back := make([][]int, len(ranges))

	for col, rr := range ranges {
		entries := counts.Entries(rr.RangeID)
		next := make([]float64, n)
		backCol := make([]int, n)
		if col == 0 {
			for i, gamete := range candidates {
				next[i] = emission(g, rr, gamete, entries, cfg)
				backCol[i] = -1
			}
		} else {
			argmax := stats.ArgMax(score)
			for i := range candidates {
				selfScore := score[i] + logSame
				switchScore := math.Inf(-1)
				predecessor := i
				if n > 1 {
					if argmax == i {
						// best switch-in predecessor excluding self: the
						// best of the remaining n-1 states.
						second := secondBest(score, i)
						switchScore = second + logSwitch
						predecessor = secondBestIndex(score, i)
					} else {
						switchScore = score[argmax] + logSwitch
						predecessor = argmax
					}
				}
				if selfScore >= switchScore {
					next[i] = selfScore + emission(g, rr, candidates[i], entries, cfg)
					backCol[i] = i
				} else {
					next[i] = switchScore + emission(g, rr, candidates[i], entries, cfg)
					backCol[i] = predecessor
				}
			}
		}
		score = next
		back[col] = backCol
	}

	terminal := stats.ArgMax(score)
	var tail *path.Node
	state := terminal
	var nodes []*path.Node
	for col := len(ranges) - 1; col >= 0; col-- {
		nodes = append(nodes, &path.Node{Range: ranges[col], SampleGametes: []graph.SampleGamete{candidates[state]}})
		state = back[col][state]
	}
	// nodes is tail-to-head (descending RangeID); wire Parent pointers
	// so each points at its predecessor (the next-earlier range).
	for i := 0; i < len(nodes)-1; i++ {
		nodes[i].Parent = nodes[i+1]
	}
	tail = nodes[0]
	return path.Chain(tail)
}

// secondBest returns the highest score among states other than
// exclude.
func secondBest(score []float64, exclude int) float64 {
	best := math.Inf(-1)
	for i, v := range score {
		if i != exclude && v > best {
			best = v
		}
	}
	return best
}

func secondBestIndex(score []float64, exclude int) int {
	best := math.Inf(-1)
	bestIdx := -1
	for i, v := range score {
		if i != exclude && v > best {
			best, bestIdx = v, i
		}
	}
	return bestIdx
}
