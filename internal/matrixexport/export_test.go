package matrixexport

import (
	"os"
	"testing"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/path"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type exportSuite struct{}

var _ = check.Suite(&exportSuite{})

func buildGraph(c *check.C) *graph.HaplotypeGraph {
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

func (s *exportSuite) TestWriteHaploidProducesOneFile(c *check.C) {
	g := buildGraph(c)
	rr := g.Ranges()[0]
	candidates := []graph.SampleGamete{{Sample: "A", GameteIndex: 0}, {Sample: "B", GameteIndex: 0}}
	samples := []SamplePath{
		{Sample: "s1", Nodes: []*path.Node{{Range: rr, SampleGametes: []graph.SampleGamete{candidates[0]}}}},
	}
	outDir := c.MkDir()
	cfg := config.Default()
	err := Write(outDir, g, samples, map[string][]graph.SampleGamete{"s1": candidates}, cfg)
	c.Assert(err, check.IsNil)

	info, statErr := os.Stat(outDir + "/matrix.npy")
	c.Assert(statErr, check.IsNil)
	c.Check(info.Size() > 0, check.Equals, true)
}

func (s *exportSuite) TestWriteDiploidProducesTwoPlanes(c *check.C) {
	g := buildGraph(c)
	rr := g.Ranges()[0]
	candidates := []graph.SampleGamete{{Sample: "A", GameteIndex: 0}, {Sample: "B", GameteIndex: 0}}
	samples := []SamplePath{
		{Sample: "s1", Nodes: []*path.Node{{Range: rr, SampleGametes: []graph.SampleGamete{candidates[0], candidates[1]}}}},
	}
	outDir := c.MkDir()
	cfg := config.Default()
	cfg.PathType = config.Diploid
	err := Write(outDir, g, samples, map[string][]graph.SampleGamete{"s1": candidates}, cfg)
	c.Assert(err, check.IsNil)

	_, err0 := os.Stat(outDir + "/matrix.0.npy")
	_, err1 := os.Stat(outDir + "/matrix.1.npy")
	c.Check(err0, check.IsNil)
	c.Check(err1, check.IsNil)
}

func (s *exportSuite) TestEmptyPathStillWritesMatrix(c *check.C) {
	g := buildGraph(c)
	candidates := []graph.SampleGamete{{Sample: "A", GameteIndex: 0}}
	samples := []SamplePath{{Sample: "s1", Nodes: nil}}
	outDir := c.MkDir()
	err := Write(outDir, g, samples, map[string][]graph.SampleGamete{"s1": candidates}, config.Default())
	c.Assert(err, check.IsNil)
	_, statErr := os.Stat(outDir + "/matrix.npy")
	c.Assert(statErr, check.IsNil)
}
