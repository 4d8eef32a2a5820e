// Package materialize re-reads full records from a VCF source using
// the seek tokens stored in a variant block index.
package materialize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sounkou-bioinfo/vbi/internal/vbi"
	"github.com/sounkou-bioinfo/vbi/internal/vcf"
)

// Row is one materialized record. A row whose Missing flag is set
// stands in for an ordinal whose seek or read failed; its other
// fields are zero values.
type Row struct {
	Ordinal     int
	Chrom       string
	Pos         int64
	ID          string  // "" when the record has no identifier
	Ref         string
	Alt         string  // comma-joined alternate alleles, "." when none
	Qual        float64 // valid only when QualMissing is false
	QualMissing bool
	Filter      string // semicolon-joined, "PASS" when none set
	AlleleCount int
	Raw         string // the record line as read from the source
	Missing     bool
	Annotation  *Annotation // nil when the record lacks the key
}

// Result is a materialization batch. Format is nil when the source
// header declares no annotation field, which is distinct from a
// record-level nil Annotation.
type Result struct {
	Rows   []Row
	Format *AnnotationFormat
}

// Materializer re-materializes records by ordinal. Every call opens
// its own source handle and closes it before returning, so concurrent
// calls never share reader state.
type Materializer struct {
	threads int
	logger  *zap.Logger
}

// New returns a materializer with a no-op logger.
func New() *Materializer {
	return &Materializer{threads: 1, logger: zap.NewNop()}
}

// SetThreads sets the decompression-worker hint for the source reader.
func (m *Materializer) SetThreads(n int) {
	m.threads = n
}

// SetLogger sets the logger for per-ordinal failure messages.
func (m *Materializer) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Rows seeks to each ordinal's stored token in a freshly opened source
// and decodes exactly one record per ordinal. A failed seek or read
// yields a sentinel row and the batch continues; failure to open the
// source or read its header aborts the whole call.
func (m *Materializer) Rows(sourcePath string, x *vbi.Index, ordinals []int) (*Result, error) {
	r, err := vcf.Open(sourcePath, m.threads)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	res := &Result{
		Rows:   make([]Row, 0, len(ordinals)),
		Format: detectAnnotationFormat(r.Header()),
	}

	for _, ord := range ordinals {
		rec, ok := m.readAt(r, x, ord)
		if !ok {
			res.Rows = append(res.Rows, Row{Ordinal: ord, Missing: true})
			continue
		}
		res.Rows = append(res.Rows, decodeRow(rec, ord, res.Format))
	}

	return res, nil
}

// readAt seeks to ordinal ord and reads one record.
func (m *Materializer) readAt(r *vcf.Reader, x *vbi.Index, ord int) (*vcf.Record, bool) {
	if ord < 0 || ord >= x.MarkerCount() {
		m.logger.Warn("ordinal out of range", zap.Int("ordinal", ord), zap.Int("markers", x.MarkerCount()))
		return nil, false
	}
	if err := r.Seek(x.Offset(ord)); err != nil {
		m.logger.Warn("seek failed", zap.Int("ordinal", ord), zap.Error(err))
		return nil, false
	}
	rec, err := r.Next()
	if err != nil || rec == nil {
		m.logger.Warn("record read failed", zap.Int("ordinal", ord), zap.Error(err))
		return nil, false
	}
	return rec, true
}

// decodeRow maps a parsed record to a materialized row, substituting
// sentinels for absent ID and quality and normalizing ALT and FILTER.
func decodeRow(rec *vcf.Record, ord int, format *AnnotationFormat) Row {
	row := Row{
		Ordinal:     ord,
		Chrom:       rec.Chrom,
		Pos:         rec.Pos,
		Ref:         rec.Ref,
		Qual:        rec.Qual,
		QualMissing: !rec.HasQual,
		AlleleCount: rec.AlleleCount(),
		Raw:         rec.Raw,
	}

	if rec.HasID() {
		row.ID = rec.ID
	}

	alts := rec.AltAlleles()
	if len(alts) == 0 {
		row.Alt = "."
	} else {
		row.Alt = strings.Join(alts, ",")
	}

	if rec.Filter == "" || rec.Filter == "." {
		row.Filter = "PASS"
	} else {
		row.Filter = rec.Filter
	}

	if format != nil {
		if raw, ok := rec.Info[format.Key]; ok {
			row.Annotation = format.decode(raw)
		}
	}

	return row
}
