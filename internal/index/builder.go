package index

import (
	"fmt"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/kmer"
	"github.com/dirkjanvw/phg-v2/internal/phgerrors"
	"github.com/dirkjanvw/phg-v2/internal/seqprovider"
	"github.com/sirupsen/logrus"
)

// Build extracts, filters, and assembles the two-level k-mer index for
// every reference range in g, per the algorithm in the design's
// KmerIndexBuilder section. When log is non-nil, each haplotype's
// sequence is checked against its caller-supplied checksum (if any) as
// it streams past, surfacing silent upstream corruption early.
func Build(g *graph.HaplotypeGraph, seqs seqprovider.Provider, cfg config.Config, log logrus.FieldLogger) (*KmerIndex, error) {
	ranges := g.Ranges()
	idx := New(len(ranges))
	for _, r := range ranges {
		hapIDs := g.HaplotypesAt(r)
		if len(hapIDs) == 0 {
			continue
		}
		rr := NewRangeRows(hapIDs)
		hapIndex := make(map[string]int, len(hapIDs))
		for i, id := range hapIDs {
			hapIndex[id] = i
		}

		// kmer -> set of haplotype indices seen so far at this range.
		seen := map[uint64]bitset{}
		for _, hapID := range hapIDs {
			seq, err := seqs.GetSequence(hapID, r)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", phgerrors.MissingReference, err)
			}
			if log != nil {
				if checksum, ok := g.Checksum(hapID); ok {
					graph.VerifyChecksum(log, hapID, checksum, seq)
				}
			}
			hidx := hapIndex[hapID]
			kmer.Each([]byte(seq), func(hash uint64, offset int) {
				bs, ok := seen[hash]
				if !ok {
					bs = newBitset(len(hapIDs))
					seen[hash] = bs
				}
				bs.set(hidx)
			})
		}

		maxHaps := int(cfg.MaxHaplotypeProportion * float64(len(hapIDs)))
		for hash, bs := range seen {
			if bs.popcount() > maxHaps {
				continue // little discriminative power
			}
			if cfg.HashMask != 0 && (hash&cfg.HashMask) != cfg.HashFilterValue {
				continue // deterministic sub-sampling filter
			}
			offset := rr.addRow(bs)
			idx.Kmers[hash] = append(idx.Kmers[hash], Tuple{RangeID: r.RangeID, Offset: offset})
		}
		idx.Ranges[r.RangeID] = rr
	}
	return idx, nil
}
