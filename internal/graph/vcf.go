package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dirkjanvw/phg-v2/internal/phgerrors"
)

// Record is one (contig, start, end, sampleGamete, hapId, checksum)
// tuple streamed out of a haplotype-VCF file, per the external
// interfaces section. The core depends on no other semantics of the
// source format.
type Record struct {
	Contig   string
	Start    int64
	End      int64
	Gamete   SampleGamete
	HapID    string
	Checksum string
}

// hapMeta is the per-hapId metadata carried by a "##ALT=<...>" line:
// which sample and gamete index it belongs to, and its checksum.
type hapMeta struct {
	sample   string
	gamete   uint8
	checksum string
}

// ReadRecords streams Records out of a single per-sample haplotype-VCF
// file. Metadata lines ("##ALT=<ID=...,Sample=...,Gamete=...,Checksum=...>")
// must precede the body records that reference them. Malformed lines
// produce a phgerrors.MalformedInput error and stop the stream.
func ReadRecords(r io.Reader, emit func(Record) error) error {
	meta := map[string]hapMeta{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<24)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "##ALT=") {
			id, m, err := parseAltMeta(line)
			if err != nil {
				return fmt.Errorf("%w: line %d: %v", phgerrors.MalformedInput, lineno, err)
			}
			meta[id] = m
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return fmt.Errorf("%w: line %d: expected at least 4 tab-separated fields, got %d", phgerrors.MalformedInput, lineno, len(fields))
		}
		contig := fields[0]
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: bad start %q: %v", phgerrors.MalformedInput, lineno, fields[1], err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: bad end %q: %v", phgerrors.MalformedInput, lineno, fields[2], err)
		}
		hapID := strings.TrimSuffix(strings.TrimPrefix(fields[3], "<"), ">")
		m, ok := meta[hapID]
		if !ok {
			return fmt.Errorf("%w: line %d: hapId %q has no ##ALT metadata", phgerrors.MalformedInput, lineno, hapID)
		}
		err = emit(Record{
			Contig:   contig,
			Start:    start,
			End:      end,
			Gamete:   SampleGamete{Sample: m.sample, GameteIndex: m.gamete},
			HapID:    hapID,
			Checksum: m.checksum,
		})
		if err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", phgerrors.IOFailure, err)
	}
	return nil
}

// parseAltMeta parses a "##ALT=<ID=h1,Sample=S1,Gamete=0,Checksum=abc>"
// line into its hapId and metadata.
func parseAltMeta(line string) (id string, m hapMeta, err error) {
	body := strings.TrimPrefix(line, "##ALT=")
	body = strings.TrimSuffix(strings.TrimPrefix(body, "<"), ">")
	for _, kv := range strings.Split(body, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return "", hapMeta{}, fmt.Errorf("malformed key=value %q", kv)
		}
		key, val := parts[0], parts[1]
		switch key {
		case "ID":
			id = val
		case "Sample":
			m.sample = val
		case "Gamete":
			g, perr := strconv.Atoi(val)
			if perr != nil {
				return "", hapMeta{}, fmt.Errorf("bad Gamete %q: %v", val, perr)
			}
			m.gamete = uint8(g)
		case "Checksum":
			m.checksum = val
		}
	}
	if id == "" {
		return "", hapMeta{}, fmt.Errorf("missing ID")
	}
	if m.sample == "" {
		return "", hapMeta{}, fmt.Errorf("missing Sample")
	}
	return id, m, nil
}
