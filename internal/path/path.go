// Package path defines PathNode, the shared backtracking chain produced
// by both the haploid and diploid path finders.
package path

import "github.com/dirkjanvw/phg-v2/internal/graph"

// Node is one link in an imputed path: the reference range it was
// assigned at, the sample gametes chosen there (one for a haploid path,
// two for a diploid path), and a pointer to the predecessor chosen by
// Viterbi backtracking.
type Node struct {
	Range         graph.ReferenceRange
	SampleGametes []graph.SampleGamete
	Parent        *Node
}

// Chain walks parent pointers from tail back to the first node and
// returns the path in reference order (ascending RangeID).
func Chain(tail *Node) []*Node {
	var reversed []*Node
	for n := tail; n != nil; n = n.Parent {
		reversed = append(reversed, n)
	}
	out := make([]*Node, len(reversed))
	for i, n := range reversed {
		out[len(reversed)-1-i] = n
	}
	return out
}
