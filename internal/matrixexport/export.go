// Package matrixexport serializes imputed paths to a numeric matrix
// file for downstream tools (PCA, association testing) that this
// module does not itself perform. One row per sample, one column per
// reference range, each cell the 0-based index of the called gamete(s)
// within that sample's candidate list, or -1 for "no call" — grounded
// in the teacher's exportnumpy.go, which serializes tile-variant calls
// the same way with github.com/kshedden/gonpy.
package matrixexport

import (
	"fmt"
	"io"
	"os"

	"github.com/dirkjanvw/phg-v2/internal/config"
	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/path"
	"github.com/kshedden/gonpy"
)

// nopCloser wraps a Writer so gonpy's internal Close (which it calls
// unconditionally) doesn't close the underlying file before the caller
// is ready, matching exportnumpy.go's identical wrapper.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// SamplePath is one sample's imputed path, keyed by sample name for
// the row ordering in the output matrix.
type SamplePath struct {
	Sample string
	Nodes  []*path.Node
}

// planeCount is 1 for a haploid path (one gamete per range) and 2 for
// diploid (two parallel planes).
func planeCount(pathType config.PathType) int {
	if pathType == config.Diploid {
		return 2
	}
	return 1
}

// Write lays out samples x ranges x planes as an int16 matrix (one
// .npy file per plane) and writes it with gonpy, matching the teacher's
// per-chunk numpy writer shape.
func Write(outDir string, g *graph.HaplotypeGraph, samples []SamplePath, candidatesBySample map[string][]graph.SampleGamete, cfg config.Config) error {
	ranges := g.Ranges()
	planes := planeCount(cfg.PathType)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	for plane := 0; plane < planes; plane++ {
		data := make([]int16, len(samples)*len(ranges))
		for row, sp := range samples {
			candidates := candidatesBySample[sp.Sample]
			byRange := indexByRange(sp.Nodes)
			for col, rr := range ranges {
				idx := int16(-1)
				if n, ok := byRange[rr.RangeID]; ok && plane < len(n.SampleGametes) {
					idx = int16(candidateIndex(candidates, n.SampleGametes[plane]))
				}
				data[row*len(ranges)+col] = idx
			}
		}

		fnm := fmt.Sprintf("%s/matrix.npy", outDir)
		if planes > 1 {
			fnm = fmt.Sprintf("%s/matrix.%d.npy", outDir, plane)
		}
		if err := writeNpy(fnm, data, len(samples), len(ranges)); err != nil {
			return err
		}
	}
	return nil
}

func writeNpy(fnm string, data []int16, rows, cols int) error {
	f, err := os.OpenFile(fnm, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	npw, err := gonpy.NewWriter(nopCloser{f})
	if err != nil {
		return err
	}
	npw.Shape = []int{rows, cols}
	if err := npw.WriteInt16(data); err != nil {
		return err
	}
	return f.Close()
}

func indexByRange(nodes []*path.Node) map[int32]*path.Node {
	m := make(map[int32]*path.Node, len(nodes))
	for _, n := range nodes {
		m[n.Range.RangeID] = n
	}
	return m
}

func candidateIndex(candidates []graph.SampleGamete, gamete graph.SampleGamete) int {
	for i, g := range candidates {
		if g == gamete {
			return i
		}
	}
	return -1
}
