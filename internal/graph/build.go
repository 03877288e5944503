package graph

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dirkjanvw/phg-v2/internal/phgerrors"
)

type rangeKey struct {
	contig     string
	start, end int64
}

// building accumulates per-range lookup tables while records stream in
// from possibly many files at once. Guarded by mtx: several consumer
// goroutines update it concurrently.
type building struct {
	mtx           sync.Mutex
	ranges        map[rangeKey]*rangeData
	sampleGametes map[SampleGamete]struct{}
	checksums     map[string]string
}

func newBuilding() *building {
	return &building{
		ranges:        map[rangeKey]*rangeData{},
		sampleGametes: map[SampleGamete]struct{}{},
		checksums:     map[string]string{},
	}
}

func (b *building) add(rec Record) error {
	key := rangeKey{rec.Contig, rec.Start, rec.End}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	rd, ok := b.ranges[key]
	if !ok {
		rd = &rangeData{hapToSamples: map[string][]SampleGamete{}, sampleToHap: map[SampleGamete]string{}}
		b.ranges[key] = rd
	}
	if existing, ok := rd.sampleToHap[rec.Gamete]; ok && existing != rec.HapID {
		return fmt.Errorf("%w: sample gamete %+v maps to both hapId %q and %q at %s:%d-%d",
			phgerrors.InvariantViolation, rec.Gamete, existing, rec.HapID, rec.Contig, rec.Start, rec.End)
	}
	rd.sampleToHap[rec.Gamete] = rec.HapID
	rd.hapToSamples[rec.HapID] = appendGameteSorted(rd.hapToSamples[rec.HapID], rec.Gamete)
	b.sampleGametes[rec.Gamete] = struct{}{}
	if rec.Checksum != "" {
		b.checksums[rec.HapID] = rec.Checksum
	}
	return nil
}

func appendGameteSorted(gametes []SampleGamete, g SampleGamete) []SampleGamete {
	for _, existing := range gametes {
		if existing == g {
			return gametes
		}
	}
	i := sort.Search(len(gametes), func(i int) bool { return !gametes[i].Less(g) })
	gametes = append(gametes, SampleGamete{})
	copy(gametes[i+1:], gametes[i:])
	gametes[i] = g
	return gametes
}

// Build constructs a HaplotypeGraph from a set of haplotype-VCF files,
// one (typically) per sample. Files are read by a bounded pool of
// threads goroutines; each emits Records onto a shared channel consumed
// by another pool of threads goroutines that update the shared range
// tables under a mutex, per the design notes' producer/consumer model.
// Range identifiers are assigned only after every file has been
// consumed and the range set is known, by sorting on (contig, start).
func Build(files []string, threads int) (*HaplotypeGraph, error) {
	if threads < 1 {
		threads = 1
	}
	b := newBuilding()

	type job struct{ path string }
	jobs := make(chan job)
	records := make(chan Record, 4096)
	errs := make(chan error, len(files)+threads)

	var producers sync.WaitGroup
	for i := 0; i < threads; i++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for j := range jobs {
				f, err := os.Open(j.path)
				if err != nil {
					errs <- fmt.Errorf("%w: %v", phgerrors.IOFailure, err)
					continue
				}
				err = ReadRecords(f, func(rec Record) error {
					records <- rec
					return nil
				})
				f.Close()
				if err != nil {
					errs <- err
				}
			}
		}()
	}

	var consumers sync.WaitGroup
	for i := 0; i < threads; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for rec := range records {
				if err := b.add(rec); err != nil {
					errs <- err
				}
			}
		}()
	}

	go func() {
		for _, path := range files {
			jobs <- job{path}
		}
		close(jobs)
		producers.Wait()
		close(records)
	}()
	consumers.Wait()
	close(errs)

	var firstErr error
	for err := range errs {
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return finalize(b), nil
}

// finalize sorts the accumulated ranges and assigns dense RangeIDs.
func finalize(b *building) *HaplotypeGraph {
	keys := make([]rangeKey, 0, len(b.ranges))
	for k := range b.ranges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].contig != keys[j].contig {
			return keys[i].contig < keys[j].contig
		}
		return keys[i].start < keys[j].start
	})
	g := &HaplotypeGraph{sampleGametes: b.sampleGametes, checksums: b.checksums}
	for i, k := range keys {
		g.ranges = append(g.ranges, ReferenceRange{Contig: k.contig, Start: k.start, End: k.end, RangeID: int32(i)})
		g.byRange = append(g.byRange, *b.ranges[k])
	}
	return g
}
