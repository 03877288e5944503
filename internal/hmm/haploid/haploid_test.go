package haploid

import (
	"os"
	"testing"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type haploidSuite struct{}

var _ = check.Suite(&haploidSuite{})

// buildTwoRangeTwoGameteGraph builds gametes X (hx1, hx2) and Y (hy1,
// hy2) across two ranges, per scenario S4.
func buildTwoRangeTwoGameteGraph(c *check.C) *graph.HaplotypeGraph {
	dir := c.MkDir()
	vcf := `##ALT=<ID=hx1,Sample=X,Gamete=0,Checksum=a>
##ALT=<ID=hy1,Sample=Y,Gamete=0,Checksum=b>
##ALT=<ID=hx2,Sample=X,Gamete=0,Checksum=c>
##ALT=<ID=hy2,Sample=Y,Gamete=0,Checksum=d>
chr1	0	100	<hx1>
chr1	0	100	<hy1>
chr1	100	200	<hx2>
chr1	100	200	<hy2>
`
	path := dir + "/g.vcf"
	c.Assert(os.WriteFile(path, []byte(vcf), 0644), check.IsNil)
	g, err := graph.Build([]string{path}, 1)
	c.Assert(err, check.IsNil)
	return g
}

// TestScenarioS4 is S4: range 1 has 10 reads to {hx1}, range 2 has 10
// reads to {hy2}; expected path [X, Y].
func (s *haploidSuite) TestScenarioS4(c *check.C) {
	g := buildTwoRangeTwoGameteGraph(c)
	ranges := g.Ranges()
	c.Assert(ranges, check.HasLen, 2)

	counts := mapping.NewCounts()
	counts.AddN(ranges[0].RangeID, []string{"hx1"}, 10)
	counts.AddN(ranges[1].RangeID, []string{"hy2"}, 10)

	cfg := config.Default()
	candidates := []graph.SampleGamete{
		{Sample: "X", GameteIndex: 0},
		{Sample: "Y", GameteIndex: 0},
	}

	result := FindPath(g, counts, candidates, cfg)
	c.Assert(result, check.HasLen, 2)
	c.Check(result[0].SampleGametes[0].Sample, check.Equals, "X")
	c.Check(result[1].SampleGametes[0].Sample, check.Equals, "Y")
	// ascending reference order
	c.Check(result[0].Range.RangeID < result[1].Range.RangeID, check.Equals, true)
}

// TestPathLengthEqualsRangeCount is testable property 4.
func (s *haploidSuite) TestPathLengthEqualsRangeCount(c *check.C) {
	g := buildTwoRangeTwoGameteGraph(c)
	ranges := g.Ranges()
	counts := mapping.NewCounts()
	counts.AddN(ranges[0].RangeID, []string{"hx1"}, 5)
	counts.AddN(ranges[1].RangeID, []string{"hy2"}, 5)

	cfg := config.Default()
	candidates := []graph.SampleGamete{
		{Sample: "X", GameteIndex: 0},
		{Sample: "Y", GameteIndex: 0},
	}
	result := FindPath(g, counts, candidates, cfg)
	c.Check(result, check.HasLen, 2)
}

func (s *haploidSuite) TestNoCandidatesYieldsEmptyPath(c *check.C) {
	g := buildTwoRangeTwoGameteGraph(c)
	counts := mapping.NewCounts()
	cfg := config.Default()
	result := FindPath(g, counts, nil, cfg)
	c.Check(result, check.HasLen, 0)
}

func (s *haploidSuite) TestMinReadsFiltersRange(c *check.C) {
	g := buildTwoRangeTwoGameteGraph(c)
	ranges := g.Ranges()
	counts := mapping.NewCounts()
	counts.AddN(ranges[0].RangeID, []string{"hx1"}, 5)
	// range 1 left with zero evidence

	cfg := config.Default()
	cfg.MinReads = 1
	candidates := []graph.SampleGamete{
		{Sample: "X", GameteIndex: 0},
		{Sample: "Y", GameteIndex: 0},
	}
	result := FindPath(g, counts, candidates, cfg)
	c.Assert(result, check.HasLen, 1)
	c.Check(result[0].Range.RangeID, check.Equals, ranges[0].RangeID)
}
