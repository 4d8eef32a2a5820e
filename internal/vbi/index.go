// Package vbi implements the variant block index: a secondary index
// over sorted VCF files mapping genomic positions to codec-specific
// seek tokens, queryable by region or by scan ordinal.
package vbi

import (
	"github.com/sounkou-bioinfo/vbi/internal/interval"
)

// Index is a loaded variant block index. It is immutable after Load
// and safe for concurrent queries; it never touches the source file.
type Index struct {
	sampleCount int64
	chromNames  []string // distinct chromosome names, first-seen order
	chromIDs    []int32  // per record: index into chromNames
	positions   []int64  // per record: 1-based genomic coordinate
	offsets     []int64  // per record: codec-specific seek token
	points      *interval.PointIndex
}

// SampleCount returns the number of samples in the source header.
func (x *Index) SampleCount() int64 {
	return x.sampleCount
}

// MarkerCount returns the number of indexed records.
func (x *Index) MarkerCount() int {
	return len(x.positions)
}

// ChromNames returns the chromosome dictionary in first-seen order.
func (x *Index) ChromNames() []string {
	return x.chromNames
}

// Chrom returns the chromosome name of the record at ordinal i.
func (x *Index) Chrom(i int) string {
	return x.chromNames[x.chromIDs[i]]
}

// Position returns the 1-based position of the record at ordinal i.
func (x *Index) Position(i int) int64 {
	return x.positions[i]
}

// Offset returns the stored seek token of the record at ordinal i.
// The token is only meaningful against a reader opened on the same
// source file the index was built from.
func (x *Index) Offset(i int) int64 {
	return x.offsets[i]
}

// OffsetsFor returns the stored seek tokens for the given ordinals.
func (x *Index) OffsetsFor(ordinals []int) []int64 {
	out := make([]int64, len(ordinals))
	for i, ord := range ordinals {
		out[i] = x.offsets[ord]
	}
	return out
}

// Range is one indexed record as a zero-length interval.
type Range struct {
	Chrom   string
	Start   int64
	End     int64
	Ordinal int
}

// ExtractRanges returns the indexed records in original scan order as
// (chrom, pos, pos, ordinal) tuples. A limit <= 0 returns all records.
func (x *Index) ExtractRanges(limit int) []Range {
	n := x.MarkerCount()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Range, n)
	for i := 0; i < n; i++ {
		out[i] = Range{
			Chrom:   x.Chrom(i),
			Start:   x.positions[i],
			End:     x.positions[i],
			Ordinal: i,
		}
	}
	return out
}

// MemoryUsage reports the estimated heap footprint of the index.
type MemoryUsage struct {
	IndexBytes         int64
	IntervalIndexBytes int64
}

// MemoryUsage estimates the memory held by the parallel arrays and the
// derived point-interval index.
func (x *Index) MemoryUsage() MemoryUsage {
	var m MemoryUsage
	m.IndexBytes = int64(cap(x.chromIDs))*4 +
		int64(cap(x.positions))*8 +
		int64(cap(x.offsets))*8
	for _, name := range x.chromNames {
		m.IndexBytes += int64(len(name))
	}
	if x.points != nil {
		m.IntervalIndexBytes = x.points.MemoryBytes()
	}
	return m
}
