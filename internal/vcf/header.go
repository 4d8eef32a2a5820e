package vcf

import (
	"io"
	"strings"
)

// InfoField describes one ##INFO meta-line from the header.
type InfoField struct {
	ID          string
	Number      string
	Type        string
	Description string
}

// Header holds the parsed VCF header: raw meta-lines, sample names,
// declared contigs and INFO field descriptions.
type Header struct {
	Lines   []string
	Samples []string

	contigs []string
	infos   map[string]InfoField
}

// SampleCount returns the number of samples declared in the #CHROM line.
func (h *Header) SampleCount() int {
	return len(h.Samples)
}

// Contigs returns the contig names declared by ##contig lines, in
// declaration order. Sources without contig lines return nil; record
// chromosome names are authoritative either way.
func (h *Header) Contigs() []string {
	return h.contigs
}

// Info returns the INFO field description for id.
func (h *Header) Info(id string) (InfoField, bool) {
	f, ok := h.infos[id]
	return f, ok
}

// InfoIDs returns the declared INFO field IDs in declaration order.
func (h *Header) InfoIDs() []string {
	ids := make([]string, 0, len(h.infos))
	seen := make(map[string]bool, len(h.infos))
	for _, line := range h.Lines {
		if !strings.HasPrefix(line, "##INFO=") {
			continue
		}
		id := metaValue(line, "ID")
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// parseHeader consumes header lines from r up to and including the
// #CHROM line.
func parseHeader(r *Reader) (*Header, error) {
	h := &Header{infos: make(map[string]InfoField)}

	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, &ParseError{Line: r.lineNumber, Message: "read header: " + err.Error()}
		}

		if strings.HasPrefix(line, "##") {
			h.Lines = append(h.Lines, line)
			switch {
			case strings.HasPrefix(line, "##INFO="):
				if f, ok := parseInfoLine(line); ok {
					h.infos[f.ID] = f
				}
			case strings.HasPrefix(line, "##contig="):
				if id := metaValue(line, "ID"); id != "" {
					h.contigs = append(h.contigs, id)
				}
			}
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			h.Lines = append(h.Lines, line)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				h.Samples = fields[9:]
			}
			return h, nil
		}

		return nil, &ParseError{Line: r.lineNumber, Message: "expected #CHROM header line"}
	}

	return nil, &ParseError{Line: r.lineNumber, Message: "no #CHROM header line found"}
}

// parseInfoLine parses ##INFO=<ID=...,Number=...,Type=...,Description="...">.
func parseInfoLine(line string) (InfoField, bool) {
	f := InfoField{
		ID:          metaValue(line, "ID"),
		Number:      metaValue(line, "Number"),
		Type:        metaValue(line, "Type"),
		Description: metaValue(line, "Description"),
	}
	return f, f.ID != ""
}

// metaValue extracts the value of key from a ##KEY=<...> meta-line.
// Quoted values may contain commas and escaped quotes.
func metaValue(line, key string) string {
	start := strings.Index(line, "<")
	end := strings.LastIndex(line, ">")
	if start < 0 || end < start {
		return ""
	}
	body := line[start+1 : end]

	for len(body) > 0 {
		eq := strings.Index(body, "=")
		if eq < 0 {
			return ""
		}
		k := strings.TrimSpace(body[:eq])
		body = body[eq+1:]

		var v string
		if strings.HasPrefix(body, `"`) {
			v, body = readQuoted(body)
		} else {
			if comma := strings.Index(body, ","); comma >= 0 {
				v, body = body[:comma], body[comma+1:]
			} else {
				v, body = body, ""
			}
		}
		if k == key {
			return v
		}
	}
	return ""
}

// readQuoted consumes a double-quoted value from the front of s and
// returns it with the remainder after any trailing comma.
func readQuoted(s string) (value, rest string) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			sb.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '"' {
			i++
			break
		}
		sb.WriteByte(c)
		i++
	}
	rest = s[i:]
	rest = strings.TrimPrefix(rest, ",")
	return sb.String(), rest
}
