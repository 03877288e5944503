package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/index"
	"github.com/dirkjanvw/phg-v2/internal/logging"
	"github.com/dirkjanvw/phg-v2/internal/seqprovider"
)

// indexBuildCmd builds a HaplotypeGraph from one or more haplotype-VCF
// files and writes its k-mer index to disk.
type indexBuildCmd struct{}

func (cmd *indexBuildCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(stderr)
	vcfFiles := flags.String("vcf", "", "comma-separated `paths` to haplotype-VCF input files")
	fastaFile := flags.String("fasta", "", "FASTA `file` keyed by hapId, for sequence lookup")
	outFile := flags.String("out", "index.txt", "output index `file`")
	threads := flags.Int("threads", 3, "worker `count`")
	loglevel := flags.String("loglevel", "info", "log `level`")
	maxHapProp := flags.Float64("max-haplotype-proportion", 0.75, "drop kmers present in more than this `fraction` of haplotypes")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	log := logging.New(*loglevel)

	if *vcfFiles == "" || *fastaFile == "" {
		fmt.Fprintln(stderr, "-vcf and -fasta are required")
		return 2
	}

	cfg := config.Default()
	cfg.Threads = *threads
	cfg.MaxHaplotypeProportion = *maxHapProp
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	g, err := graph.Build(strings.Split(*vcfFiles, ","), cfg.Threads)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	f, err := os.Open(*fastaFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer f.Close()
	seqs, err := seqprovider.LoadFASTA(f)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	idx, err := index.Build(g, seqs, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	out, err := os.Create(*outFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer out.Close()
	if err := index.Write(out, g.Ranges(), idx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	log.WithField("ranges", len(g.Ranges())).Info("index built")
	return 0
}
