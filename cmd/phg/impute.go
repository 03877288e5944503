package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/logging"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"github.com/dirkjanvw/phg-v2/internal/orchestrator"
)

// imputeCmd runs the haploid or diploid path finder (selected by
// -path-type) over every sample's read-mapping counts file, via the
// bounded orchestrator pipeline.
type imputeCmd struct{}

func (cmd *imputeCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(stderr)
	vcfFiles := flags.String("vcf", "", "comma-separated `paths` to haplotype-VCF input files")
	mappingFiles := flags.String("read-mappings", "", "comma-separated `paths` to read-mapping files, one per sample")
	outDir := flags.String("out-dir", "./out", "output `directory`")
	pathType := flags.String("path-type", "haploid", "`haploid` or `diploid`")
	threads := flags.Int("threads", 3, "worker `count`")
	useAncestors := flags.Bool("use-likely-ancestors", false, "prune candidate gametes with AncestorSelector before path finding")
	maxAncestors := flags.Int("max-ancestors", 0, "maximum ancestors kept per sample (0 = unlimited)")
	minCoverage := flags.Float64("min-coverage", 1.0, "stop ancestor selection once this read coverage `fraction` is reached")
	probSameGamete := flags.Float64("prob-same-gamete", 0.99, "HMM self-transition `probability`")
	probCorrect := flags.Float64("prob-correct", 0.99, "binomial emission correctness `probability`")
	inbreeding := flags.Float64("inbreeding-coefficient", 0, "diploid inbreeding coefficient `f`")
	loglevel := flags.String("loglevel", "info", "log `level`")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	log := logging.New(*loglevel)

	if *vcfFiles == "" || *mappingFiles == "" {
		fmt.Fprintln(stderr, "-vcf and -read-mappings are required")
		return 2
	}

	cfg := config.Default()
	cfg.Threads = *threads
	cfg.UseLikelyAncestors = *useAncestors
	cfg.MaxAncestors = *maxAncestors
	cfg.MinCoverage = *minCoverage
	cfg.ProbSameGamete = *probSameGamete
	cfg.ProbCorrect = *probCorrect
	cfg.InbreedingCoefficient = *inbreeding
	switch *pathType {
	case "diploid":
		cfg.PathType = config.Diploid
	default:
		cfg.PathType = config.Haploid
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	g, err := graph.Build(strings.Split(*vcfFiles, ","), cfg.Threads)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var jobs []orchestrator.Job
	candidatesBySample := map[string][]graph.SampleGamete{}
	allGametes := g.SampleGametesInGraph()
	for _, path := range strings.Split(*mappingFiles, ",") {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		hdr, counts, err := mapping.Read(f, g)
		f.Close()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		jobs = append(jobs, orchestrator.Job{Sample: hdr.SampleName, Counts: counts})
		candidatesBySample[hdr.SampleName] = allGametes
	}

	if err := orchestrator.Run(context.Background(), g, jobs, candidatesBySample, *outDir, cfg, log); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
