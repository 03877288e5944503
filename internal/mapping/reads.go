package mapping

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dirkjanvw/phg-v2/internal/phgerrors"
)

// ReadScanner streams one read's sequence bytes at a time from a FASTA
// or FASTQ file (auto-detected from the first record's leading byte),
// matching the line-oriented scanning style used throughout this
// codebase for sequence files.
type ReadScanner struct {
	sc      *bufio.Scanner
	fastq   bool
	started bool
	pending []byte // a header line already read, awaiting the next call
	atEOF   bool
}

// NewReadScanner wraps an io.Reader of FASTA or FASTQ reads.
func NewReadScanner(r io.Reader) *ReadScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<16), 1<<24)
	return &ReadScanner{sc: sc}
}

// Next returns the next read's sequence, or ok==false at EOF (err nil)
// or on error (err non-nil).
func (s *ReadScanner) Next() (seq []byte, err error, ok bool) {
	if s.atEOF {
		return nil, nil, false
	}
	if !s.started {
		s.started = true
		if !s.sc.Scan() {
			s.atEOF = true
			return nil, s.sc.Err(), false
		}
		first := s.sc.Bytes()
		if len(first) == 0 {
			s.atEOF = true
			return nil, fmt.Errorf("%w: empty first line", phgerrors.MalformedInput), false
		}
		s.fastq = first[0] == '@'
		s.pending = append([]byte(nil), first...)
	}
	if s.fastq {
		return s.readFastqRecord()
	}
	return s.readFastaRecord()
}

func (s *ReadScanner) readFastqRecord() ([]byte, error, bool) {
	if s.pending != nil {
		s.pending = nil // first header, already consumed by format detection
	} else if !s.sc.Scan() { // header
		s.atEOF = true
		return nil, s.sc.Err(), false
	}
	if !s.sc.Scan() {
		s.atEOF = true
		return nil, fmt.Errorf("%w: truncated fastq record", phgerrors.MalformedInput), false
	}
	seq := append([]byte(nil), s.sc.Bytes()...)
	if !s.sc.Scan() || len(s.sc.Bytes()) == 0 || s.sc.Bytes()[0] != '+' {
		s.atEOF = true
		return nil, fmt.Errorf("%w: expected '+' separator", phgerrors.MalformedInput), false
	}
	if !s.sc.Scan() {
		s.atEOF = true
		return nil, fmt.Errorf("%w: truncated fastq quality line", phgerrors.MalformedInput), false
	}
	return seq, nil, true
}

func (s *ReadScanner) readFastaRecord() ([]byte, error, bool) {
	if len(s.pending) == 0 {
		s.atEOF = true
		return nil, nil, false
	}
	s.pending = nil // the header itself carries no sequence data
	var seq []byte
	for s.sc.Scan() {
		line := s.sc.Bytes()
		if len(line) > 0 && line[0] == '>' {
			s.pending = append([]byte(nil), line...)
			break
		}
		seq = append(seq, line...)
	}
	if s.pending == nil {
		// reached EOF while reading this record's sequence lines; mark
		// done for the call after this one returns.
		if err := s.sc.Err(); err != nil {
			s.atEOF = true
			return nil, err, false
		}
	}
	if len(seq) == 0 {
		s.atEOF = true
		return nil, nil, false
	}
	if s.pending == nil {
		s.atEOF = true // no further '>' header seen; this was the last record
	}
	return seq, nil, true
}
