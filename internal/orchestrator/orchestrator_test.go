package orchestrator

import (
	"context"
	"os"
	"testing"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type orchestratorSuite struct{}

var _ = check.Suite(&orchestratorSuite{})

func buildOneRangeGraph(c *check.C) *graph.HaplotypeGraph {
	dir := c.MkDir()
	vcf := `##ALT=<ID=ha,Sample=A,Gamete=0,Checksum=a>
##ALT=<ID=hb,Sample=B,Gamete=0,Checksum=b>
chr1	0	100	<ha>
chr1	0	100	<hb>
`
	p := dir + "/g.vcf"
	c.Assert(os.WriteFile(p, []byte(vcf), 0644), check.IsNil)
	g, err := graph.Build([]string{p}, 1)
	c.Assert(err, check.IsNil)
	return g
}

func (s *orchestratorSuite) TestRunWritesOnePerSample(c *check.C) {
	g := buildOneRangeGraph(c)
	rr := g.Ranges()[0]
	countsA := mapping.NewCounts()
	countsA.AddN(rr.RangeID, []string{"ha"}, 10)

	outDir := c.MkDir()
	candidates := map[string][]graph.SampleGamete{
		"sampleA": {{Sample: "A", GameteIndex: 0}, {Sample: "B", GameteIndex: 0}},
	}
	jobs := []Job{{Sample: "sampleA", Counts: countsA}}

	err := Run(context.Background(), g, jobs, candidates, outDir, config.Default(), nil)
	c.Assert(err, check.IsNil)

	_, statErr := os.Stat(OutputPath(outDir, "sampleA"))
	c.Assert(statErr, check.IsNil)
}

func (s *orchestratorSuite) TestIdempotentSkip(c *check.C) {
	g := buildOneRangeGraph(c)
	rr := g.Ranges()[0]
	counts := mapping.NewCounts()
	counts.AddN(rr.RangeID, []string{"ha"}, 5)

	outDir := c.MkDir()
	c.Assert(os.WriteFile(OutputPath(outDir, "sampleA"), []byte("stale\n"), 0644), check.IsNil)

	candidates := map[string][]graph.SampleGamete{
		"sampleA": {{Sample: "A", GameteIndex: 0}},
	}
	jobs := []Job{{Sample: "sampleA", Counts: counts}}

	err := Run(context.Background(), g, jobs, candidates, outDir, config.Default(), nil)
	c.Assert(err, check.IsNil)

	content, readErr := os.ReadFile(OutputPath(outDir, "sampleA"))
	c.Assert(readErr, check.IsNil)
	c.Check(string(content), check.Equals, "stale\n")
}

func (s *orchestratorSuite) TestMultipleSamplesIndependent(c *check.C) {
	g := buildOneRangeGraph(c)
	rr := g.Ranges()[0]

	outDir := c.MkDir()
	candidates := map[string][]graph.SampleGamete{
		"s1": {{Sample: "A", GameteIndex: 0}, {Sample: "B", GameteIndex: 0}},
		"s2": {{Sample: "A", GameteIndex: 0}, {Sample: "B", GameteIndex: 0}},
	}
	c1 := mapping.NewCounts()
	c1.AddN(rr.RangeID, []string{"ha"}, 5)
	c2 := mapping.NewCounts()
	c2.AddN(rr.RangeID, []string{"hb"}, 5)
	jobs := []Job{{Sample: "s1", Counts: c1}, {Sample: "s2", Counts: c2}}

	cfg := config.Default()
	cfg.Threads = 2
	err := Run(context.Background(), g, jobs, candidates, outDir, cfg, nil)
	c.Assert(err, check.IsNil)

	_, err1 := os.Stat(OutputPath(outDir, "s1"))
	_, err2 := os.Stat(OutputPath(outDir, "s2"))
	c.Check(err1, check.IsNil)
	c.Check(err2, check.IsNil)
}
