// Package orchestrator runs the per-sample imputation pipeline across a
// bounded worker pool: a producer feeds (sample, ReadMappingCounts)
// jobs onto a channel, workers run ancestor selection and path finding,
// and a single serializer writes completed paths to disk. The
// concurrency shape and first-error-wins behavior are adapted from the
// teacher's throttle type in throttle.go, generalized from a simple
// semaphore into the full producer/worker/sink topology the design
// calls for.
package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dirkjanvw/phg-v2/internal/ancestor"
	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/hmm/diploid"
	"github.com/dirkjanvw/phg-v2/internal/hmm/haploid"
	"github.com/dirkjanvw/phg-v2/internal/logging"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"github.com/dirkjanvw/phg-v2/internal/path"
	"github.com/dirkjanvw/phg-v2/internal/phgerrors"
	"github.com/sirupsen/logrus"
)

// Job is one unit of producer output: a sample's name and its read
// mapping counts, ready for ancestor selection and path finding.
type Job struct {
	Sample string
	Counts *mapping.Counts
}

// Result is one unit of worker output, consumed by the serializer.
type Result struct {
	Sample string
	Nodes  []*path.Node
	Err    error
}

// firstError mirrors throttle.go's err/errorOnce pair: the first
// non-nil error reported wins and is retained even as other samples
// continue to report their own (discarded) errors.
type firstError struct {
	once sync.Once
	err  error
}

func (f *firstError) report(err error) {
	if err != nil {
		f.once.Do(func() { f.err = err })
	}
}

// OutputPath returns the per-sample output file path the idempotent
// skip check and the serializer both use.
func OutputPath(outDir, sample string) string {
	return filepath.Join(outDir, sample+".path.tsv")
}

// alreadyDone reports whether sample's output already exists, making a
// re-run of the orchestrator skip it (idempotent re-runs, per the
// design).
func alreadyDone(outDir, sample string) bool {
	_, err := os.Stat(OutputPath(outDir, sample))
	return err == nil
}

// Run drives the bounded producer/worker/sink pipeline over jobs,
// writing one output file per sample into outDir. It returns the first
// error reported by any stage, if any; samples that complete
// successfully before a failing sample still have their output
// written. Cancelling ctx stops further workers from starting new jobs.
func Run(ctx context.Context, g *graph.HaplotypeGraph, jobs []Job, candidatesBySample map[string][]graph.SampleGamete, outDir string, cfg config.Config, log logrus.FieldLogger) error {
	const channelCapacity = 10

	in := make(chan Job, channelCapacity)
	out := make(chan Result, channelCapacity)
	var errs firstError

	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}

	var workers sync.WaitGroup
	for i := 0; i < threads; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for job := range in {
				select {
				case <-ctx.Done():
					out <- Result{Sample: job.Sample, Err: ctx.Err()}
					continue
				default:
				}
				out <- runSample(g, job, candidatesBySample[job.Sample], cfg, log)
			}
		}()
	}

	go func() {
		for _, job := range jobs {
			if alreadyDone(outDir, job.Sample) {
				if log != nil {
					log.WithFields(logrus.Fields{"sample": job.Sample}).Info("skipping sample, output already exists")
				}
				continue
			}
			in <- job
		}
		close(in)
		workers.Wait()
		close(out)
	}()

	var serializer sync.WaitGroup
	serializer.Add(1)
	go func() {
		defer serializer.Done()
		for res := range out {
			if res.Err != nil {
				errs.report(fmt.Errorf("sample %s: %w", res.Sample, res.Err))
				continue
			}
			if err := writePath(outDir, res.Sample, res.Nodes); err != nil {
				errs.report(fmt.Errorf("%w: sample %s: %v", phgerrors.IOFailure, res.Sample, err))
			}
		}
	}()
	serializer.Wait()

	return errs.err
}

// runSample runs ancestor selection and the configured path finder for
// one sample, recovering an InvariantViolation panic into an error so a
// single corrupted sample never takes down the rest of the run.
func runSample(g *graph.HaplotypeGraph, job Job, candidates []graph.SampleGamete, cfg config.Config, log logrus.FieldLogger) (res Result) {
	res.Sample = job.Sample
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %v", phgerrors.InvariantViolation, r)
		}
	}()

	pool := candidates
	if cfg.UseLikelyAncestors {
		stageLog := logging.Sample(log, job.Sample, "ancestor-select")
		stageLog.WithField("candidates", len(candidates)).Debug("selecting likely ancestors")
		picks := ancestor.Select(g, job.Counts, candidates, cfg)
		pool = make([]graph.SampleGamete, len(picks))
		for i, p := range picks {
			pool[i] = p.Gamete
		}
		stageLog.WithField("picked", len(pool)).Debug("ancestor selection complete")
	}

	pathLog := logging.Sample(log, job.Sample, "path-finding")
	switch cfg.PathType {
	case config.Diploid:
		res.Nodes = diploid.FindPath(g, job.Counts, pool, cfg)
	default:
		res.Nodes = haploid.FindPath(g, job.Counts, pool, cfg)
	}
	pathLog.WithField("ranges", len(res.Nodes)).Debug("path finding complete")
	return res
}

func writePath(outDir, sample string, nodes []*path.Node) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(OutputPath(outDir, sample))
	if err != nil {
		return err
	}
	defer f.Close()
	for _, n := range nodes {
		fmt.Fprintf(f, "%s\t%d\t%d", n.Range.Contig, n.Range.Start, n.Range.End)
		for _, sg := range n.SampleGametes {
			fmt.Fprintf(f, "\t%s:%d", sg.Sample, sg.GameteIndex)
		}
		fmt.Fprintln(f)
	}
	return nil
}

// ReadPath parses a path file previously written by writePath back into
// path.Nodes, recovering each range's dense RangeID from g.
func ReadPath(r io.Reader, g *graph.HaplotypeGraph) ([]*path.Node, error) {
	type coord struct {
		contig     string
		start, end int64
	}
	rangeByCoord := map[coord]graph.ReferenceRange{}
	for _, rr := range g.Ranges() {
		rangeByCoord[coord{rr.Contig, rr.Start, rr.End}] = rr
	}

	var nodes []*path.Node
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: malformed path line %q", phgerrors.MalformedInput, line)
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start in %q: %v", phgerrors.MalformedInput, line, err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end in %q: %v", phgerrors.MalformedInput, line, err)
		}
		rr, ok := rangeByCoord[coord{fields[0], start, end}]
		if !ok {
			return nil, fmt.Errorf("%w: range %s:%d-%d not found in graph", phgerrors.MalformedInput, fields[0], start, end)
		}
		var gametes []graph.SampleGamete
		for _, tok := range fields[3:] {
			kv := strings.SplitN(tok, ":", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("%w: malformed sample gamete %q", phgerrors.MalformedInput, tok)
			}
			gameteIdx, err := strconv.Atoi(kv[1])
			if err != nil {
				return nil, fmt.Errorf("%w: bad gamete index in %q: %v", phgerrors.MalformedInput, tok, err)
			}
			gametes = append(gametes, graph.SampleGamete{Sample: kv[0], GameteIndex: uint8(gameteIdx)})
		}
		nodes = append(nodes, &path.Node{Range: rr, SampleGametes: gametes})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", phgerrors.IOFailure, err)
	}
	return nodes, nil
}
