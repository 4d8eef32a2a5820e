// Package interval provides an immutable point-interval index with
// O(log n + k) overlap queries, built in two phases: all intervals are
// added first, then Index seals the structure for querying.
package interval

import "sort"

type state int

const (
	building state = iota
	finalized
)

// PointIndex maps zero-length genomic intervals to integer payloads,
// grouped by chromosome. Add is only legal before Index, Query only
// after; violating the order is a call-sequencing bug and panics.
type PointIndex struct {
	state  state
	chroms map[string]*chromSet
	count  int
}

type chromSet struct {
	intervals []entry
	maxEnd    []int64 // maxEnd[i] = max(end) over intervals[:i+1]
}

type entry struct {
	start int64
	end   int64
	value int
}

// New returns an empty index in the building phase.
func New() *PointIndex {
	return &PointIndex{chroms: make(map[string]*chromSet)}
}

// Add records the interval [start, end] on chrom with an integer payload.
func (x *PointIndex) Add(chrom string, start, end int64, value int) {
	if x.state != building {
		panic("interval: Add after Index")
	}
	cs := x.chroms[chrom]
	if cs == nil {
		cs = &chromSet{}
		x.chroms[chrom] = cs
	}
	cs.intervals = append(cs.intervals, entry{start: start, end: end, value: value})
	x.count++
}

// Index finalizes the structure. No intervals may be added afterwards.
func (x *PointIndex) Index() {
	if x.state != building {
		panic("interval: Index called twice")
	}
	for _, cs := range x.chroms {
		sort.Slice(cs.intervals, func(i, j int) bool {
			if cs.intervals[i].start != cs.intervals[j].start {
				return cs.intervals[i].start < cs.intervals[j].start
			}
			return cs.intervals[i].value < cs.intervals[j].value
		})

		cs.maxEnd = make([]int64, len(cs.intervals))
		for i, iv := range cs.intervals {
			cs.maxEnd[i] = iv.end
			if i > 0 && cs.maxEnd[i-1] > cs.maxEnd[i] {
				cs.maxEnd[i] = cs.maxEnd[i-1]
			}
		}
	}
	x.state = finalized
}

// Query returns the payloads of all intervals on chrom overlapping
// [start, end], in ascending payload order.
func (x *PointIndex) Query(chrom string, start, end int64) []int {
	if x.state != finalized {
		panic("interval: Query before Index")
	}
	cs := x.chroms[chrom]
	if cs == nil {
		return nil
	}

	// Candidates are intervals with start <= end; of those, keep the
	// ones whose end reaches back to start. The running max of ends
	// over the prefix bounds how far down the scan must go.
	hi := sort.Search(len(cs.intervals), func(i int) bool {
		return cs.intervals[i].start > end
	})

	var hits []int
	for i := hi - 1; i >= 0; i-- {
		if cs.maxEnd[i] < start {
			break
		}
		if cs.intervals[i].end >= start {
			hits = append(hits, cs.intervals[i].value)
		}
	}

	sort.Ints(hits)
	return hits
}

// Len returns the number of intervals held.
func (x *PointIndex) Len() int {
	return x.count
}

// MemoryBytes estimates the heap footprint of the finalized structure.
func (x *PointIndex) MemoryBytes() int64 {
	var total int64
	for chrom, cs := range x.chroms {
		total += int64(len(chrom))
		total += int64(cap(cs.intervals)) * 24 // two int64 bounds plus payload
		total += int64(cap(cs.maxEnd)) * 8
	}
	return total
}
