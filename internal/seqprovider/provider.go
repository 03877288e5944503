// Package seqprovider defines the pluggable sequence source the k-mer
// index builder consumes. The index builder and everything downstream
// of it depends only on this interface; concrete providers are external
// collaborators per the design's scope section.
package seqprovider

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/klauspost/pgzip"
)

// Provider answers getSequence(hapId, range) -> ACGT string, as named in
// the external interfaces section.
type Provider interface {
	GetSequence(hapID string, r graph.ReferenceRange) (string, error)
}

// FASTAProvider serves sequences out of an in-memory map keyed by
// hapId, loaded from a FASTA file where each record's header is the
// hapId. Suitable for tests and small pangenomes.
type FASTAProvider struct {
	seqs map[string]string
}

// LoadFASTA reads a FASTA file into a FASTAProvider, transparently
// decompressing the input if the file's name ends in ".gz" -- the same
// zopen/gzipr idiom used elsewhere in this codebase for reading
// compressed genomic inputs.
func LoadFASTA(r *os.File) (*FASTAProvider, error) {
	var rdr io.Reader = r
	if strings.HasSuffix(r.Name(), ".gz") {
		zrdr, err := pgzip.NewReader(bufio.NewReaderSize(r, 4*1024*1024))
		if err != nil {
			return nil, fmt.Errorf("seqprovider: gzip: %w", err)
		}
		defer zrdr.Close()
		rdr = zrdr
	}

	p := &FASTAProvider{seqs: map[string]string{}}
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<16), 1<<24)
	var cur string
	var buf bytes.Buffer
	flush := func() {
		if cur != "" {
			p.seqs[cur] = buf.String()
		}
		buf.Reset()
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			cur = strings.TrimPrefix(line, ">")
			continue
		}
		buf.WriteString(strings.TrimSpace(line))
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewFASTAProvider wraps an already-loaded hapId->sequence map.
func NewFASTAProvider(seqs map[string]string) *FASTAProvider {
	return &FASTAProvider{seqs: seqs}
}

func (p *FASTAProvider) GetSequence(hapID string, r graph.ReferenceRange) (string, error) {
	seq, ok := p.seqs[hapID]
	if !ok {
		return "", fmt.Errorf("seqprovider: no sequence for hapId %q", hapID)
	}
	return seq, nil
}

// ExternalToolProvider shells out to an external compressed-genome
// query tool, matching the subprocess-invocation idiom used elsewhere
// in this codebase for collaborators that live outside the module
// (e.g. vcf2fasta's tabix/samtools calls). The command is invoked as:
//
//	<bin> <args...> <hapID> <contig> <start> <end>
//
// and must print the ACGT sequence to stdout.
type ExternalToolProvider struct {
	Bin  string
	Args []string
}

func (p *ExternalToolProvider) GetSequence(hapID string, r graph.ReferenceRange) (string, error) {
	args := append(append([]string{}, p.Args...), hapID, r.Contig, fmt.Sprint(r.Start), fmt.Sprint(r.End))
	cmd := exec.Command(p.Bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("seqprovider: %s: %w", p.Bin, err)
	}
	return strings.TrimSpace(out.String()), nil
}
