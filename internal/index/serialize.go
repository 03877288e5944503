package index

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/phgerrors"
)

// Write serializes idx as a stream of per-range three-line groups, per
// the external interfaces section: a header line identifying the
// range, a packed row matrix line, and a (kmer,offset) list line. Range
// ids are implied by file order, ascending, matching the orchestrator's
// ordering guarantee.
func Write(w io.Writer, ranges []graph.ReferenceRange, idx *KmerIndex) error {
	bw := bufio.NewWriter(w)
	for _, r := range ranges {
		rr := idx.Ranges[r.RangeID]
		if rr == nil {
			rr = NewRangeRows(nil)
		}
		fmt.Fprintf(bw, ">%s:%d-%d\tH=%d\tids=%s\n", r.Contig, r.Start, r.End, len(rr.HapIDs), strings.Join(rr.HapIDs, ","))

		words := make([]string, 0, len(rr.Rows)*wordsFor(len(rr.HapIDs)))
		for _, row := range rr.Rows {
			for _, word := range row {
				words = append(words, strconv.FormatUint(word, 10))
			}
		}
		bw.WriteString(strings.Join(words, ","))
		bw.WriteByte('\n')

		var pairs []string
		for hash, tuples := range idx.Kmers {
			for _, t := range tuples {
				if t.RangeID != r.RangeID {
					continue
				}
				pairs = append(pairs, fmt.Sprintf("%d@%d", int64(hash), t.Offset))
			}
		}
		bw.WriteString(strings.Join(pairs, ","))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Read parses the three-line-group format back into a KmerIndex and
// the ordered ReferenceRange list it describes (with RangeIDs assigned
// in file order, per the inter-range encoding rule). Consumers must
// tolerate any consistent ordering; this implementation assigns
// RangeIDs 0..N-1 in the order groups appear.
func Read(r io.Reader) ([]graph.ReferenceRange, *KmerIndex, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<16), 1<<28)

	var ranges []graph.ReferenceRange
	idx := New(0)
	rangeID := int32(0)
	for {
		if !sc.Scan() {
			break
		}
		header := sc.Text()
		if header == "" {
			continue
		}
		rr0, hapIDs, err := parseHeader(header)
		if err != nil {
			return nil, nil, err
		}
		rr0.RangeID = rangeID

		if !sc.Scan() {
			return nil, nil, fmt.Errorf("%w: missing row-matrix line for range %s", phgerrors.MalformedInput, header)
		}
		rows, err := parseRows(sc.Text(), len(hapIDs))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", phgerrors.MalformedInput, err)
		}

		if !sc.Scan() {
			return nil, nil, fmt.Errorf("%w: missing kmer list line for range %s", phgerrors.MalformedInput, header)
		}
		pairs, err := parsePairs(sc.Text())
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", phgerrors.MalformedInput, err)
		}

		rr := &RangeRows{HapIDs: hapIDs, Rows: rows}
		idx.Ranges = append(idx.Ranges, rr)
		for _, p := range pairs {
			idx.Kmers[p.hash] = append(idx.Kmers[p.hash], Tuple{RangeID: rangeID, Offset: p.offset})
		}
		ranges = append(ranges, rr0)
		rangeID++
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", phgerrors.IOFailure, err)
	}
	return ranges, idx, nil
}

func parseHeader(line string) (graph.ReferenceRange, []string, error) {
	if !strings.HasPrefix(line, ">") {
		return graph.ReferenceRange{}, nil, fmt.Errorf("%w: header line must start with '>': %q", phgerrors.MalformedInput, line)
	}
	parts := strings.Split(strings.TrimPrefix(line, ">"), "\t")
	if len(parts) != 3 {
		return graph.ReferenceRange{}, nil, fmt.Errorf("%w: malformed header line %q", phgerrors.MalformedInput, line)
	}
	contigRange := parts[0]
	sep := strings.LastIndex(contigRange, ":")
	if sep < 0 {
		return graph.ReferenceRange{}, nil, fmt.Errorf("%w: malformed range %q", phgerrors.MalformedInput, contigRange)
	}
	contig := contigRange[:sep]
	startEnd := strings.SplitN(contigRange[sep+1:], "-", 2)
	if len(startEnd) != 2 {
		return graph.ReferenceRange{}, nil, fmt.Errorf("%w: malformed range %q", phgerrors.MalformedInput, contigRange)
	}
	start, err := strconv.ParseInt(startEnd[0], 10, 64)
	if err != nil {
		return graph.ReferenceRange{}, nil, fmt.Errorf("%w: bad start in %q: %v", phgerrors.MalformedInput, contigRange, err)
	}
	end, err := strconv.ParseInt(startEnd[1], 10, 64)
	if err != nil {
		return graph.ReferenceRange{}, nil, fmt.Errorf("%w: bad end in %q: %v", phgerrors.MalformedInput, contigRange, err)
	}

	var hapIDs []string
	if idsField := strings.TrimPrefix(parts[2], "ids="); idsField != "" {
		hapIDs = strings.Split(idsField, ",")
	}
	return graph.ReferenceRange{Contig: contig, Start: start, End: end}, hapIDs, nil
}

func parseRows(line string, nHaps int) ([][]uint64, error) {
	if line == "" {
		return nil, nil
	}
	fields := strings.Split(line, ",")
	words := make([]uint64, len(fields))
	for i, f := range fields {
		w, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad row word %q: %v", f, err)
		}
		words[i] = w
	}
	perRow := wordsFor(nHaps)
	if perRow == 0 || len(words)%perRow != 0 {
		return nil, fmt.Errorf("row matrix has %d words, not a multiple of %d words/row", len(words), perRow)
	}
	nRows := len(words) / perRow
	rows := make([][]uint64, nRows)
	for i := 0; i < nRows; i++ {
		rows[i] = words[i*perRow : (i+1)*perRow]
	}
	return rows, nil
}

type kmerOffset struct {
	hash   uint64
	offset uint32
}

func parsePairs(line string) ([]kmerOffset, error) {
	if line == "" {
		return nil, nil
	}
	fields := strings.Split(line, ",")
	out := make([]kmerOffset, len(fields))
	for i, f := range fields {
		at := strings.IndexByte(f, '@')
		if at < 0 {
			return nil, fmt.Errorf("malformed hash@offset pair %q", f)
		}
		hashSigned, err := strconv.ParseInt(f[:at], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad hash in %q: %v", f, err)
		}
		offset, err := strconv.ParseUint(f[at+1:], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad offset in %q: %v", f, err)
		}
		out[i] = kmerOffset{hash: uint64(hashSigned), offset: uint32(offset)}
	}
	return out, nil
}
