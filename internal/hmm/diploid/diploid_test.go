package diploid

import (
	"math"
	"os"
	"testing"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/mapping"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type diploidSuite struct{}

var _ = check.Suite(&diploidSuite{})

func buildTwoHapGraph(c *check.C) (*graph.HaplotypeGraph, []graph.SampleGamete) {
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
	candidates := []graph.SampleGamete{
		{Sample: "A", GameteIndex: 0},
		{Sample: "B", GameteIndex: 0},
	}
	return g, candidates
}

// TestScenarioS5 matches S5: counts {A}:5, {B}:5, {A,B}:4. Emission at
// (A,B) should exceed emission at (A,A) by more than 10 log-units.
func (s *diploidSuite) TestScenarioS5(c *check.C) {
	g, candidates := buildTwoHapGraph(c)
	rr := g.Ranges()[0]
	entries := []mapping.Entry{
		{HapIDs: []string{"ha"}, Count: 5},
		{HapIDs: []string{"hb"}, Count: 5},
		{HapIDs: []string{"ha", "hb"}, Count: 4},
	}
	cfg := config.Default()
	cfg.ProbCorrect = 0.99

	emAB := emission(g, rr, candidates[0], candidates[1], entries, cfg)
	emAA := emission(g, rr, candidates[0], candidates[0], entries, cfg)
	c.Check(emAB-emAA > 10, check.Equals, true)
}

// TestExchangeSymmetry is testable property 6.
func (s *diploidSuite) TestExchangeSymmetry(c *check.C) {
	g, candidates := buildTwoHapGraph(c)
	rr := g.Ranges()[0]
	entries := []mapping.Entry{
		{HapIDs: []string{"ha"}, Count: 3},
		{HapIDs: []string{"hb"}, Count: 2},
		{HapIDs: []string{"ha", "hb"}, Count: 1},
	}
	cfg := config.Default()
	ab := emission(g, rr, candidates[0], candidates[1], entries, cfg)
	ba := emission(g, rr, candidates[1], candidates[0], entries, cfg)
	c.Check(math.Abs(ab-ba) < 1e-9, check.Equals, true)
}

// TestLogSpaceCorrectness is testable property 7: every row of the
// transition matrix sums to 1 in linear space.
func (s *diploidSuite) TestLogSpaceCorrectness(c *check.C) {
	for _, n := range []int{1, 2, 3, 5} {
		for _, f := range []float64{0, 0.5, 1} {
			cfg := config.Default()
			cfg.InbreedingCoefficient = f
			m := transitionMatrix(n, cfg)
			for _, row := range m {
				total := 0.0
				for _, logp := range row {
					total += math.Exp(logp)
				}
				c.Check(math.Abs(total-1) < 1e-9, check.Equals, true)
			}
		}
	}
}

func (s *diploidSuite) TestFindPathLengthEqualsRangeCount(c *check.C) {
	g, candidates := buildTwoHapGraph(c)
	rr := g.Ranges()[0]
	counts := mapping.NewCounts()
	counts.AddN(rr.RangeID, []string{"ha"}, 5)
	counts.AddN(rr.RangeID, []string{"hb"}, 5)

	cfg := config.Default()
	result := FindPath(g, counts, candidates, cfg)
	c.Assert(result, check.HasLen, 1)
	c.Check(result[0].SampleGametes, check.HasLen, 2)
}
