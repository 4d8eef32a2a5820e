// Package region parses genomic region strings.
package region

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxEnd is the end coordinate a bare chromosome region expands to.
const MaxEnd = int64(math.MaxInt64)

// Region is a typed region descriptor. A bare chromosome name covers
// [0, MaxEnd]; a single coordinate sets IsPoint with Start == End.
type Region struct {
	Chrom   string
	Start   int64
	End     int64
	IsPoint bool
}

func (r Region) String() string {
	switch {
	case r.IsPoint:
		return fmt.Sprintf("%s:%d", r.Chrom, r.Start)
	case r.Start == 0 && r.End == MaxEnd:
		return r.Chrom
	default:
		return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
	}
}

// Contains reports whether the 1-based position pos on chrom falls
// inside the region, boundaries inclusive.
func (r Region) Contains(chrom string, pos int64) bool {
	return chrom == r.Chrom && pos >= r.Start && pos <= r.End
}

// Parse parses a comma-separated list of regions. Accepted forms are
// CHROM, CHROM:POS and CHROM:START-END. Chromosome names are not
// validated here; unknown names simply match nothing at query time.
func Parse(s string) ([]Region, error) {
	if strings.TrimSpace(s) == "" {
		return nil, &ParseError{Token: s, Message: "empty region string"}
	}

	var regions []Region
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		r, err := parseOne(tok)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	if len(regions) == 0 {
		return nil, &ParseError{Token: s, Message: "no regions in string"}
	}
	return regions, nil
}

// parseOne parses a single region token.
func parseOne(tok string) (Region, error) {
	colon := strings.LastIndex(tok, ":")
	if colon < 0 {
		return Region{Chrom: tok, Start: 0, End: MaxEnd}, nil
	}

	chrom := tok[:colon]
	if chrom == "" {
		return Region{}, &ParseError{Token: tok, Message: "missing chromosome name"}
	}
	span := tok[colon+1:]

	dash := strings.Index(span, "-")
	if dash < 0 {
		pos, err := parseCoord(tok, span)
		if err != nil {
			return Region{}, err
		}
		return Region{Chrom: chrom, Start: pos, End: pos, IsPoint: true}, nil
	}

	start, err := parseCoord(tok, span[:dash])
	if err != nil {
		return Region{}, err
	}
	end, err := parseCoord(tok, span[dash+1:])
	if err != nil {
		return Region{}, err
	}
	if end < start {
		return Region{}, &ParseError{Token: tok, Message: fmt.Sprintf("inverted range %d-%d", start, end)}
	}
	return Region{Chrom: chrom, Start: start, End: end}, nil
}

func parseCoord(tok, s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &ParseError{Token: tok, Message: fmt.Sprintf("invalid coordinate %q", s)}
	}
	if v < 0 {
		return 0, &ParseError{Token: tok, Message: fmt.Sprintf("negative coordinate %d", v)}
	}
	return v, nil
}

// ParseError reports a malformed region token.
type ParseError struct {
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("region parse error in %q: %s", e.Token, e.Message)
}
