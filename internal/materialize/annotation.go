package materialize

import (
	"strings"

	"github.com/sounkou-bioinfo/vbi/internal/vcf"
)

// Well-known annotation INFO keys, tried in order before falling back
// to any INFO field whose description declares a Format list.
var preferredAnnotationKeys = []string{"CSQ", "ANN", "BCSQ"}

// AnnotationFormat describes a multi-valued annotation INFO field
// whose header description names its pipe-delimited sub-fields, e.g.
//
//	##INFO=<ID=CSQ,...,Description="Consequence annotations from
//	Ensembl VEP. Format: Allele|Consequence|IMPACT|SYMBOL">
type AnnotationFormat struct {
	Key    string
	Fields []string
}

// Annotation is the decoded sub-table for one record: one row per
// comma-separated annotation group, one cell per declared sub-field.
type Annotation struct {
	Key    string
	Fields []string
	Rows   [][]string
}

// detectAnnotationFormat scans the header's INFO descriptions for a
// "Format:" marker followed by a pipe-delimited field-name list.
// It returns nil when the header declares no such field.
func detectAnnotationFormat(h *vcf.Header) *AnnotationFormat {
	for _, key := range preferredAnnotationKeys {
		if f, ok := h.Info(key); ok {
			if fields := parseFormatFields(f.Description); fields != nil {
				return &AnnotationFormat{Key: key, Fields: fields}
			}
		}
	}
	for _, id := range h.InfoIDs() {
		f, _ := h.Info(id)
		if fields := parseFormatFields(f.Description); fields != nil {
			return &AnnotationFormat{Key: id, Fields: fields}
		}
	}
	return nil
}

// parseFormatFields extracts the sub-field names from a description
// containing a "Format:" marker. A single name without any pipe is
// not a sub-field list.
func parseFormatFields(desc string) []string {
	marker := strings.Index(desc, "Format:")
	if marker < 0 {
		return nil
	}
	list := desc[marker+len("Format:"):]
	list = strings.Trim(list, ` "'`)
	if !strings.Contains(list, "|") {
		return nil
	}

	parts := strings.Split(list, "|")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, ` "'`)
		if p != "" {
			fields = append(fields, p)
		}
	}
	if len(fields) < 2 {
		return nil
	}
	return fields
}

// decode splits a raw annotation value into its sub-table: first by
// comma (one row per overlapping annotation), then by pipe (one cell
// per declared sub-field). Short rows are padded so every row has one
// cell per field.
func (f *AnnotationFormat) decode(raw string) *Annotation {
	ann := &Annotation{Key: f.Key, Fields: f.Fields}
	for _, group := range strings.Split(raw, ",") {
		cells := strings.Split(group, "|")
		if len(cells) < len(f.Fields) {
			padded := make([]string, len(f.Fields))
			copy(padded, cells)
			cells = padded
		}
		ann.Rows = append(ann.Rows, cells)
	}
	return ann
}
