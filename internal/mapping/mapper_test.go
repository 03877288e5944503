package mapping

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/index"
	"github.com/dirkjanvw/phg-v2/internal/seqprovider"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type mapperSuite struct{}

var _ = check.Suite(&mapperSuite{})

func acgtRepeat(pattern string, n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(pattern)
	}
	return b.String()[:n]
}

func buildOneHapPerRangeGraph(c *check.C, dir string) (*graph.HaplotypeGraph, map[string]string) {
	vcf := `##ALT=<ID=h1,Sample=S,Gamete=0,Checksum=a>
##ALT=<ID=h2,Sample=S,Gamete=0,Checksum=b>
chr1	0	50	<h1>
chr1	50	100	<h2>
`
	c.Assert(os.WriteFile(dir+"/g.vcf", []byte(vcf), 0644), check.IsNil)
	g, err := graph.Build([]string{dir + "/g.vcf"}, 1)
	c.Assert(err, check.IsNil)
	seqs := map[string]string{
		"h1": acgtRepeat("ACGT", 50),
		"h2": acgtRepeat("TGCA", 50),
	}
	return g, seqs
}

// indexConfig keeps every kmer when building the index: each range of
// buildOneHapPerRangeGraph has a single haplotype, and the default
// proportion of 0.75 admits at most floor(0.75*1) = 0 haplotypes per kmer.
func indexConfig() config.Config {
	cfg := config.Default()
	cfg.MaxHaplotypeProportion = 1.0
	return cfg
}

// TestSingleRangeRestriction is based on scenario S3: a read built from
// the first 40 bases of h1 (range R1) and 10 bases of h2 (range R2). The
// 10-base tail is shorter than one kmer, so only R1 receives hits. With
// limitSingleRefRange=true the read maps to at most one range; with it
// false it maps to at least one.
func (s *mapperSuite) TestSingleRangeRestriction(c *check.C) {
	dir := c.MkDir()
	g, seqs := buildOneHapPerRangeGraph(c, dir)
	fa := seqprovider.NewFASTAProvider(seqs)
	idx, err := index.Build(g, fa, indexConfig(), nil)
	c.Assert(err, check.IsNil)

	// A long read mostly overlapping h1, with a short tail overlapping h2.
	read := seqs["h1"][:40] + seqs["h2"][40:]

	cfgRestrict := config.Default()
	cfgRestrict.LimitSingleRefRange = true
	cfgRestrict.MinSameReferenceRange = 0.9

	counts, err := MapReads(bytes.NewBufferString(">r1\n"+read+"\n"), nil, idx, cfgRestrict)
	c.Assert(err, check.IsNil)
	c.Check(len(counts.Ranges()) <= 1, check.Equals, true)

	cfgBoth := config.Default()
	cfgBoth.LimitSingleRefRange = false
	counts2, err := MapReads(bytes.NewBufferString(">r1\n"+read+"\n"), nil, idx, cfgBoth)
	c.Assert(err, check.IsNil)
	c.Check(len(counts2.Ranges()) >= 1, check.Equals, true)
}

func (s *mapperSuite) TestExactMatchIsSingletonSet(c *check.C) {
	dir := c.MkDir()
	g, seqs := buildOneHapPerRangeGraph(c, dir)
	fa := seqprovider.NewFASTAProvider(seqs)
	idx, err := index.Build(g, fa, indexConfig(), nil)
	c.Assert(err, check.IsNil)

	counts, err := MapReads(bytes.NewBufferString(">r1\n"+seqs["h1"]+"\n"), nil, idx, config.Default())
	c.Assert(err, check.IsNil)
	ranges := counts.Ranges()
	c.Assert(ranges, check.HasLen, 1)
	entries := counts.Entries(ranges[0])
	c.Assert(entries, check.HasLen, 1)
	c.Check(entries[0].HapIDs, check.DeepEquals, []string{"h1"})
}

func (s *mapperSuite) TestPairedEndIntersection(c *check.C) {
	dir := c.MkDir()
	g, seqs := buildOneHapPerRangeGraph(c, dir)
	fa := seqprovider.NewFASTAProvider(seqs)
	idx, err := index.Build(g, fa, indexConfig(), nil)
	c.Assert(err, check.IsNil)

	r1 := bytes.NewBufferString(">m1\n" + seqs["h1"] + "\n")
	r2 := bytes.NewBufferString(">m2\n" + seqs["h1"] + "\n")
	counts, err := MapReads(r1, r2, idx, config.Default())
	c.Assert(err, check.IsNil)
	ranges := counts.Ranges()
	c.Assert(ranges, check.HasLen, 1)
}

// Round-trip of the read-mapping file format.
func (s *mapperSuite) TestFormatRoundTrip(c *check.C) {
	dir := c.MkDir()
	g, _ := buildOneHapPerRangeGraph(c, dir)

	counts := NewCounts()
	counts.Add(0, []string{"h1"})
	counts.Add(0, []string{"h1"})

	var buf bytes.Buffer
	c.Assert(Write(&buf, "S", "reads.fa", "", counts), check.IsNil)

	hdr, counts2, err := Read(&buf, g)
	c.Assert(err, check.IsNil)
	c.Check(hdr.SampleName, check.Equals, "S")
	c.Check(counts2.Total(0), check.Equals, 2)
}
