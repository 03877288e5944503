package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/graph"
	"github.com/dirkjanvw/phg-v2/internal/phgerrors"
)

// Write serializes counts as a read-mapping file per the external
// interfaces section: "#" header lines carrying sampleName/filename1/
// filename2, then a tab-separated body with a "HapIds\tcount" header.
func Write(w io.Writer, sampleName, filename1, filename2 string, counts *Counts) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#sampleName=%s\n", sampleName)
	fmt.Fprintf(bw, "#filename1=%s\n", filename1)
	if filename2 != "" {
		fmt.Fprintf(bw, "#filename2=%s\n", filename2)
	}
	bw.WriteString("HapIds\tcount\n")
	for _, rangeID := range counts.Ranges() {
		for _, e := range counts.Entries(rangeID) {
			fmt.Fprintf(bw, "%s\t%d\n", strings.Join(e.HapIDs, ","), e.Count)
		}
	}
	return bw.Flush()
}

// Header carries the metadata lines of a read-mapping file.
type Header struct {
	SampleName string
	Filename1  string
	Filename2  string
}

// Read parses a read-mapping file back into a Header and Counts. The
// graph is required to recover which reference range each row's
// haplotype set belongs to (every hapId belongs to exactly one range).
func Read(r io.Reader, g *graph.HaplotypeGraph) (Header, *Counts, error) {
	hapToRange := map[string]int32{}
	for _, rr := range g.Ranges() {
		for hapID := range g.HapIDToSamples(rr) {
			hapToRange[hapID] = rr.RangeID
		}
	}

	var hdr Header
	counts := NewCounts()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<16), 1<<24)
	sawBodyHeader := false
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			kv := strings.SplitN(strings.TrimPrefix(line, "#"), "=", 2)
			if len(kv) != 2 {
				return hdr, nil, fmt.Errorf("%w: malformed header line %q", phgerrors.MalformedInput, line)
			}
			switch kv[0] {
			case "sampleName":
				hdr.SampleName = kv[1]
			case "filename1":
				hdr.Filename1 = kv[1]
			case "filename2":
				hdr.Filename2 = kv[1]
			}
			continue
		}
		if !sawBodyHeader {
			if line != "HapIds\tcount" {
				return hdr, nil, fmt.Errorf("%w: expected body header %q, got %q", phgerrors.MalformedInput, "HapIds\tcount", line)
			}
			sawBodyHeader = true
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return hdr, nil, fmt.Errorf("%w: malformed row %q", phgerrors.MalformedInput, line)
		}
		hapIDs := strings.Split(fields[0], ",")
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			return hdr, nil, fmt.Errorf("%w: bad count in %q: %v", phgerrors.MalformedInput, line, err)
		}
		rangeID, ok := hapToRange[hapIDs[0]]
		if !ok {
			return hdr, nil, fmt.Errorf("%w: hapId %q not found in graph", phgerrors.MalformedInput, hapIDs[0])
		}
		counts.AddN(rangeID, hapIDs, count)
	}
	if err := sc.Err(); err != nil {
		return hdr, nil, fmt.Errorf("%w: %v", phgerrors.IOFailure, err)
	}
	if !sawBodyHeader {
		return hdr, nil, fmt.Errorf("%w: missing body header", phgerrors.MalformedInput)
	}
	return hdr, counts, nil
}
