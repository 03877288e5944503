package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/logging"
	"github.com/dirkjanvw/phg-v2/internal/matrixexport"
	"github.com/dirkjanvw/phg-v2/internal/orchestrator"
)

// exportMatrixCmd serializes a set of imputed per-sample path files
// (produced by "impute") into a numpy matrix for external numeric
// analysis.
type exportMatrixCmd struct{}

func (cmd *exportMatrixCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(stderr)
	vcfFiles := flags.String("vcf", "", "comma-separated `paths` to haplotype-VCF input files")
	pathFiles := flags.String("paths", "", "comma-separated sample=`file` path outputs from impute")
	outDir := flags.String("out-dir", "./out", "output `directory`")
	pathType := flags.String("path-type", "haploid", "`haploid` or `diploid`")
	loglevel := flags.String("loglevel", "info", "log `level`")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	log := logging.New(*loglevel)

	if *vcfFiles == "" || *pathFiles == "" {
		fmt.Fprintln(stderr, "-vcf and -paths are required")
		return 2
	}

	g, err := graph.Build(strings.Split(*vcfFiles, ","), 1)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	cfg := config.Default()
	if *pathType == "diploid" {
		cfg.PathType = config.Diploid
	}

	allGametes := g.SampleGametesInGraph()
	candidatesBySample := map[string][]graph.SampleGamete{}
	var samples []matrixexport.SamplePath
	for _, entry := range strings.Split(*pathFiles, ",") {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			fmt.Fprintf(stderr, "malformed -paths entry %q, expected sample=file\n", entry)
			return 2
		}
		sample, path := kv[0], kv[1]
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		nodes, err := orchestrator.ReadPath(f, g)
		f.Close()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		samples = append(samples, matrixexport.SamplePath{Sample: sample, Nodes: nodes})
		candidatesBySample[sample] = allGametes
	}

	if err := matrixexport.Write(*outDir, g, samples, candidatesBySample, cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	log.WithField("samples", len(samples)).Info("matrix export complete")
	return 0
}
