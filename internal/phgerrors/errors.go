// Package phgerrors defines the error kinds the imputation engine
// distinguishes when deciding whether to abort a sample, skip it
// silently, or treat a condition as fatal to the whole run.
package phgerrors

import "errors"

// Kind is a sentinel identifying one of the error categories in the
// design's error handling section. Wrap it with fmt.Errorf("%w: ...", Kind)
// so callers can still errors.Is against the category.
type Kind error

var (
	// MalformedInput means a k-mer index, read-mapping, or haplotype-VCF
	// file violates its format contract. The sample is aborted; the
	// orchestrator continues with the next one.
	MalformedInput Kind = errors.New("malformed input")

	// MissingReference means the graph names a hapId with no sequence
	// source, or a sequence contains a base outside A/C/G/T where ACGT
	// was required. The sample is aborted.
	MissingReference Kind = errors.New("missing reference data")

	// DegenerateHMM means no reference range survived filtering, or the
	// sample has zero reads. This is not an error: callers should emit an
	// empty path and move on.
	DegenerateHMM Kind = errors.New("degenerate hmm: no usable ranges")

	// InvariantViolation means the graph itself is corrupt, e.g. a sample
	// gamete maps to more than one hapId at a single range. Fatal.
	InvariantViolation Kind = errors.New("invariant violation")

	// IOFailure covers I/O errors while reading or writing a sample's
	// files. The sample is aborted; a retry of the whole sample is the
	// recovery mechanism.
	IOFailure Kind = errors.New("i/o failure")
)

// Is reports whether err was produced by wrapping kind with fmt.Errorf's
// %w verb (or is kind itself).
func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}
