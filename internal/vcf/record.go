package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a single VCF data line.
type Record struct {
	Chrom       string            // chromosome name as written in the file
	Pos         int64             // 1-based genomic position
	ID          string            // variant identifier, "." when absent
	Ref         string            // reference allele
	Alt         string            // comma-joined alternate alleles, "." when absent
	Qual        float64           // quality score, valid only when HasQual
	HasQual     bool              // false when the QUAL column is "."
	Filter      string            // raw FILTER column
	Info        map[string]string // INFO key-value pairs; flag keys map to ""
	Raw         string            // the unmodified source line
	SampleBlock string            // FORMAT plus sample columns, tab-joined
}

// AltAlleles returns the individual alternate alleles, or nil when the
// ALT column is absent.
func (r *Record) AltAlleles() []string {
	if r.Alt == "" || r.Alt == "." {
		return nil
	}
	return strings.Split(r.Alt, ",")
}

// AlleleCount returns the total allele count: the reference allele
// plus every alternate.
func (r *Record) AlleleCount() int {
	return 1 + len(r.AltAlleles())
}

// HasID reports whether the record carries a variant identifier.
func (r *Record) HasID() bool {
	return r.ID != "" && r.ID != "."
}

// parseRecord parses a single VCF data line.
func parseRecord(line string, lineNumber int) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	rec := &Record{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    fields[4],
		Filter: fields[6],
		Info:   parseInfo(fields[7]),
		Raw:    line,
	}

	if fields[5] != "." {
		q, err := strconv.ParseFloat(fields[5], 64)
		if err == nil {
			rec.Qual = q
			rec.HasQual = true
		}
	}

	if len(fields) > 8 {
		rec.SampleBlock = strings.Join(fields[8:], "\t")
	}

	return rec, nil
}

// parseInfo parses the INFO column into a map. Flag-type keys map to "".
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "." || info == "" {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			result[parts[0]] = ""
		}
	}

	return result
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
