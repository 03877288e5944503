// Package diploid implements the DiploidPathFinder: a Viterbi HMM over
// unordered pairs of candidate gametes, with an inbreeding-coefficient
// -aware transition model and a multinomial emission model that
// resolves ambiguous (multi-haplotype-matching) reads by summing over
// every possible split.
package diploid

import (
	"math"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/hmm/haploid"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"github.com/dirkjanvw/phg-v2/internal/path"
	"github.com/dirkjanvw/phg-v2/internal/stats"
)

// pairState is one unordered pair of candidate indices, i <= j.
type pairState struct{ i, j int }

// states enumerates every unordered pair (including homozygous i==i)
// over n candidates, in a fixed canonical order used to index the
// transition matrix and Viterbi columns.
func states(n int) []pairState {
	var out []pairState
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out = append(out, pairState{i, j})
		}
	}
	return out
}

// multisetIntersection returns how many labels the unordered pairs
// {a,b} and {c,d} have in common, counting a shared label used by both
// coordinates of one side only once unless matched twice (e.g. {a,a}
// against {a,b} shares exactly one "a").
func multisetIntersection(a, b, c, d int) int {
	left := []int{a, b}
	right := []int{c, d}
	used := [2]bool{}
	count := 0
	for _, l := range left {
		for k, r := range right {
			if !used[k] && l == r {
				used[k] = true
				count++
				break
			}
		}
	}
	return count
}

// transitionMatrix builds the row-normalized log-space n_states x
// n_states transition matrix described in the design: homozygous
// sources follow the explicit inbreeding-coefficient-weighted rules,
// heterozygous sources follow the matching-coordinate-count rules. The
// raw combinatorial weights are not naturally self-normalizing for
// general n and f, so each row is normalized to sum to 1 before taking
// logs, which is what guarantees the log-space invariant (testable
// property 7) holds exactly rather than approximately.
func transitionMatrix(n int, cfg config.Config) [][]float64 {
	ss := states(n)
	pSame := cfg.ProbSameGamete
	q := 1 - pSame
	var sH float64
	if n > 1 {
		sH = q / float64(n-1)
	}
	f := cfg.InbreedingCoefficient

	raw := make([][]float64, len(ss))
	for si, src := range ss {
		row := make([]float64, len(ss))
		var sum float64
		for ti, tgt := range ss {
			var w float64
			if src.i == src.j {
				a := src.i
				switch {
				case tgt.i == tgt.j && tgt.i == a:
					w = pSame * pSame
				case tgt.i == tgt.j:
					w = f*pSame*sH + (1-f)*sH*sH
				case tgt.i == a || tgt.j == a:
					w = (1 - f) * pSame * sH
				default:
					w = (1 - f) * sH * sH
				}
			} else {
				m := multisetIntersection(src.i, src.j, tgt.i, tgt.j)
				switch m {
				case 2:
					w = pSame * pSame
				case 1:
					w = pSame * sH
				default:
					w = sH * sH
				}
			}
			row[ti] = w
			sum += w
		}
		if sum > 0 {
			for ti := range row {
				row[ti] /= sum
			}
		}
		raw[si] = row
	}

	logMatrix := make([][]float64, len(ss))
	for i, row := range raw {
		logMatrix[i] = make([]float64, len(row))
		for j, w := range row {
			logMatrix[i][j] = math.Log(w)
		}
	}
	return logMatrix
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// emission computes the log-likelihood of an unordered candidate pair
// (gameteA, gameteB) at rr given the observed read mapping entries.
func emission(g *graph.HaplotypeGraph, rr graph.ReferenceRange, gameteA, gameteB graph.SampleGamete, entries []mapping.Entry, cfg config.Config) float64 {
	hapA, _ := g.SampleToHapID(rr, gameteA)
	hapB, _ := g.SampleToHapID(rr, gameteB)
	if hapA == "" {
		hapA = hapB
	}
	if hapB == "" {
		hapB = hapA
	}
	if hapA == "" && hapB == "" {
		return 0 // neither gamete has a haplotype here; contributes nothing
	}
	if hapA == hapB {
		total, k := 0, 0
		for _, e := range entries {
			total += e.Count
			if containsString(e.HapIDs, hapA) {
				k += e.Count
			}
		}
		return stats.LogBinomial(k, total, cfg.ProbCorrect)
	}

	var n1only, n2only, nboth, nneither int
	for _, e := range entries {
		hasA := containsString(e.HapIDs, hapA)
		hasB := containsString(e.HapIDs, hapB)
		switch {
		case hasA && hasB:
			nboth += e.Count
		case hasA:
			n1only += e.Count
		case hasB:
			n2only += e.Count
		default:
			nneither += e.Count
		}
	}
	pc := cfg.ProbCorrect
	probs := []float64{pc / 2, pc / 2, 1 - pc}
	terms := make([]float64, nboth+1)
	for i := 0; i <= nboth; i++ {
		counts := []int{n1only + i, n2only + nboth - i, nneither}
		terms[i] = stats.LogMultinomial(counts, probs)
	}
	return stats.LogSumExp(terms...)
}

// FindPath runs the diploid Viterbi over unordered candidate pairs,
// producing two parallel SampleGametes per retained range's PathNode.
// Range filtering is identical to the haploid path finder's.
func FindPath(g *graph.HaplotypeGraph, counts *mapping.Counts, candidates []graph.SampleGamete, cfg config.Config) []*path.Node {
	ranges := haploid.FilterRanges(g, counts, cfg)
	n := len(candidates)
	if n == 0 || len(ranges) == 0 {
		return nil
	}
	ss := states(n)
	logTrans := transitionMatrix(n, cfg)

	score := make([]float64, len(ss))
	back := make([][]int, len(ranges))

	for col, rr := range ranges {
		entries := counts.Entries(rr.RangeID)
		emissions := make([]float64, len(ss))
		for si, st := range ss {
			emissions[si] = emission(g, rr, candidates[st.i], candidates[st.j], entries, cfg)
		}
		next := make([]float64, len(ss))
		backCol := make([]int, len(ss))
		if col == 0 {
			copy(next, emissions)
			for si := range backCol {
				backCol[si] = -1
			}
		} else {
			for ti := range ss {
				best := math.Inf(-1)
				bestFrom := 0
				for si := range ss {
					cand := score[si] + logTrans[si][ti]
					if cand > best {
						best, bestFrom = cand, si
					}
				}
				next[ti] = best + emissions[ti]
				backCol[ti] = bestFrom
			}
		}
		score = next
		back[col] = backCol
	}

	terminal := stats.ArgMax(score)
	var nodes []*path.Node
	state := terminal
	for col := len(ranges) - 1; col >= 0; col-- {
		st := ss[state]
		nodes = append(nodes, &path.Node{
			Range:         ranges[col],
			SampleGametes: []graph.SampleGamete{candidates[st.i], candidates[st.j]},
		})
		state = back[col][state]
	}
	for i := 0; i < len(nodes)-1; i++ {
		nodes[i].Parent = nodes[i+1]
	}
	return path.Chain(nodes[0])
}
