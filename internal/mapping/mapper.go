package mapping

import (
	"io"
	"math"
	"sort"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/index"
	"github.com/dirkjanvw/phg-v2/internal/kmer"
)

// hitTally is range -> hapID -> hit count, accumulated while streaming
// one read's k-mers.
type hitTally map[int32]map[string]int

func (t hitTally) add(rangeID int32, hapIDs []string) {
	m, ok := t[rangeID]
	if !ok {
		m = map[string]int{}
		t[rangeID] = m
	}
	for _, h := range hapIDs {
		m[h]++
	}
}

// tallyRead streams seq's k-mers through the index and returns the
// per-range, per-hapId hit tally (step 2 of the contract).
func tallyRead(seq []byte, idx *index.KmerIndex) hitTally {
	tally := hitTally{}
	kmer.Each(seq, func(hash uint64, offset int) {
		for _, t := range idx.Kmers[hash] {
			rr := idx.Ranges[t.RangeID]
			tally.add(t.RangeID, rr.HapSet(t.Offset))
		}
	})
	return tally
}

// restrictToSingleRange implements step 3: if enabled, keep only the
// range with the most kmer hits, provided it holds at least
// minSameReferenceRange of all hits; otherwise the read is dropped
// entirely (returns nil).
func restrictToSingleRange(tally hitTally, cfg config.Config) hitTally {
	if !cfg.LimitSingleRefRange || len(tally) == 0 {
		return tally
	}
	var total int
	var bestRange int32
	var bestHits int
	first := true
	for rangeID, m := range tally {
		hits := 0
		for _, n := range m {
			hits += n
		}
		total += hits
		if first || hits > bestHits || (hits == bestHits && rangeID < bestRange) {
			bestHits, bestRange, first = hits, rangeID, false
		}
	}
	if total == 0 || float64(bestHits) < cfg.MinSameReferenceRange*float64(total) {
		return nil
	}
	return hitTally{bestRange: tally[bestRange]}
}

// argmaxSets implements step 4: within each range, keep only the hapIds
// whose hit count is at least ceil(max * minProportionOfMaxCount).
func argmaxSets(tally hitTally, cfg config.Config) map[int32][]string {
	out := map[int32][]string{}
	for rangeID, m := range tally {
		if len(m) == 0 {
			continue
		}
		max := 0
		for _, n := range m {
			if n > max {
				max = n
			}
		}
		threshold := int(math.Ceil(float64(max) * cfg.MinProportionOfMaxCount))
		var set []string
		for hapID, n := range m {
			if n >= threshold {
				set = append(set, hapID)
			}
		}
		sort.Strings(set)
		out[rangeID] = set
	}
	return out
}

// setsForRead runs steps 2-4 of the read-mapping contract on one read.
func setsForRead(seq []byte, idx *index.KmerIndex, cfg config.Config) map[int32][]string {
	tally := tallyRead(seq, idx)
	tally = restrictToSingleRange(tally, cfg)
	return argmaxSets(tally, cfg)
}

func intersectSorted(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// MapReads streams every read (or read pair) from r1 (and, if non-nil,
// r2) through the k-mer index and accumulates the resulting haplotype
// sets into a Counts multiset, per the ReadMapper contract.
func MapReads(r1, r2 io.Reader, idx *index.KmerIndex, cfg config.Config) (*Counts, error) {
	counts := NewCounts()
	s1 := NewReadScanner(r1)
	var s2 *ReadScanner
	if r2 != nil {
		s2 = NewReadScanner(r2)
	}
	for {
		seq1, err, ok := s1.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		sets := setsForRead(seq1, idx, cfg)
		if s2 != nil {
			seq2, err, ok2 := s2.Next()
			if err != nil {
				return nil, err
			}
			if !ok2 {
				break // mate file exhausted; ignore dangling unpaired reads
			}
			sets2 := setsForRead(seq2, idx, cfg)
			merged := map[int32][]string{}
			for rangeID, set1 := range sets {
				set2, ok := sets2[rangeID]
				if !ok {
					continue
				}
				if inter := intersectSorted(set1, set2); len(inter) > 0 {
					merged[rangeID] = inter
				}
			}
			sets = merged
		}
		for rangeID, set := range sets {
			if len(set) == 0 {
				continue
			}
			counts.Add(rangeID, set)
		}
	}
	return counts, nil
}
