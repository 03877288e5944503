package graph

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type graphSuite struct{}

var _ = check.Suite(&graphSuite{})

const sampleAVCF = `##ALT=<ID=h1,Sample=A,Gamete=0,Checksum=aaa>
##ALT=<ID=h2,Sample=A,Gamete=1,Checksum=bbb>
chr1	0	100	<h1>
chr1	100	200	<h2>
`

const sampleBVCF = `##ALT=<ID=h3,Sample=B,Gamete=0,Checksum=ccc>
chr1	0	100	<h3>
`

func writeTemp(c *check.C, dir, name, content string) string {
	p := filepath.Join(dir, name)
	err := os.WriteFile(p, []byte(content), 0644)
	c.Assert(err, check.IsNil)
	return p
}

func (s *graphSuite) TestBuildAssignsDenseRangeIDsInOrder(c *check.C) {
	dir := c.MkDir()
	fA := writeTemp(c, dir, "a.vcf", sampleAVCF)
	fB := writeTemp(c, dir, "b.vcf", sampleBVCF)

	g, err := Build([]string{fA, fB}, 2)
	c.Assert(err, check.IsNil)

	ranges := g.Ranges()
	c.Assert(ranges, check.HasLen, 2)
	c.Check(ranges[0].RangeID, check.Equals, int32(0))
	c.Check(ranges[1].RangeID, check.Equals, int32(1))
	c.Check(ranges[0].Start, check.Equals, int64(0))
	c.Check(ranges[1].Start, check.Equals, int64(100))

	r0 := ranges[0]
	hapToSamples := g.HapIDToSamples(r0)
	c.Check(hapToSamples["h1"], check.DeepEquals, []SampleGamete{{"A", 0}})
	c.Check(hapToSamples["h3"], check.DeepEquals, []SampleGamete{{"B", 0}})

	hap, ok := g.SampleToHapID(r0, SampleGamete{"A", 0})
	c.Assert(ok, check.Equals, true)
	c.Check(hap, check.Equals, "h1")

	_, ok = g.SampleToHapID(r0, SampleGamete{"A", 1})
	c.Check(ok, check.Equals, false)

	gametes := g.SampleGametesInGraph()
	c.Assert(gametes, check.HasLen, 3)
}

func (s *graphSuite) TestBuildRejectsConflictingHaplotype(c *check.C) {
	dir := c.MkDir()
	f := writeTemp(c, dir, "bad.vcf", `##ALT=<ID=h1,Sample=A,Gamete=0,Checksum=aaa>
##ALT=<ID=h2,Sample=A,Gamete=0,Checksum=bbb>
chr1	0	100	<h1>
chr1	0	100	<h2>
`)
	_, err := Build([]string{f}, 1)
	c.Assert(err, check.NotNil)
}

func (s *graphSuite) TestFilterMinGametes(c *check.C) {
	dir := c.MkDir()
	fA := writeTemp(c, dir, "a.vcf", sampleAVCF)
	fB := writeTemp(c, dir, "b.vcf", sampleBVCF)
	g, err := Build([]string{fA, fB}, 1)
	c.Assert(err, check.IsNil)

	filtered := g.FilterMinGametes(2)
	c.Assert(filtered.Ranges(), check.HasLen, 1)
	c.Check(filtered.Ranges()[0].Start, check.Equals, int64(0))
}
