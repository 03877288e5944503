package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/index"
	"github.com/dirkjanvw/phg-v2/internal/logging"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"github.com/klauspost/pgzip"
)

// openMaybeGz opens fnm, transparently decompressing it if its name
// ends in ".gz" -- the same zopen idiom used for compressed genomic
// inputs throughout this codebase.
func openMaybeGz(fnm string) (io.ReadCloser, error) {
	f, err := os.Open(fnm)
	if err != nil || !strings.HasSuffix(fnm, ".gz") {
		return f, err
	}
	zrdr, err := pgzip.NewReader(bufio.NewReaderSize(f, 4*1024*1024))
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipReadCloser{zrdr, f}, nil
}

// gzipReadCloser closes both the decompressor and the underlying file.
type gzipReadCloser struct {
	io.ReadCloser
	file *os.File
}

func (g gzipReadCloser) Close() error {
	e1 := g.ReadCloser.Close()
	e2 := g.file.Close()
	if e1 != nil {
		return e1
	}
	return e2
}

// mapReadsCmd maps one sample's reads (single- or paired-end) against a
// prebuilt k-mer index, writing a read-mapping counts file.
type mapReadsCmd struct{}

func (cmd *mapReadsCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(stderr)
	indexFile := flags.String("index", "", "k-mer index `file`")
	reads1 := flags.String("reads1", "", "mate 1 FASTA/FASTQ `file`")
	reads2 := flags.String("reads2", "", "mate 2 FASTA/FASTQ `file` (optional)")
	sample := flags.String("sample", "", "sample `name`")
	out := flags.String("out", "", "output read-mapping `file`")
	limitSingle := flags.Bool("limit-single-ref-range", false, "keep only the reference range with the most kmer hits, dropping the read when that range holds less than the minimum share of hits")
	loglevel := flags.String("loglevel", "info", "log `level`")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	log := logging.New(*loglevel)

	if *indexFile == "" || *reads1 == "" || *sample == "" || *out == "" {
		fmt.Fprintln(stderr, "-index, -reads1, -sample and -out are required")
		return 2
	}

	idxFile, err := os.Open(*indexFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer idxFile.Close()
	_, idx, err := index.Read(idxFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	r1, err := openMaybeGz(*reads1)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer r1.Close()

	var r2 io.ReadCloser
	if *reads2 != "" {
		r2, err = openMaybeGz(*reads2)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer r2.Close()
	}

	cfg := config.Default()
	cfg.LimitSingleRefRange = *limitSingle
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var mateReader io.Reader
	if r2 != nil {
		mateReader = r2
	}
	counts, err := mapping.MapReads(r1, mateReader, idx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer outFile.Close()
	if err := mapping.Write(outFile, *sample, *reads1, *reads2, counts); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	log.WithField("sample", *sample).Info("read mapping complete")
	return 0
}
