package vbi

import (
	"github.com/sounkou-bioinfo/vbi/internal/region"
)

// QueryRegion returns the ordinals of all records falling inside any
// of the comma-separated regions, by scanning every record linearly.
// Each record is reported at most once, in scan order. This is the
// ground-truth path; QueryRegionIndexed must return the same set.
func (x *Index) QueryRegion(regionStr string) ([]int, error) {
	regions, err := region.Parse(regionStr)
	if err != nil {
		return nil, err
	}

	var hits []int
	for i := 0; i < x.MarkerCount(); i++ {
		chrom := x.Chrom(i)
		pos := x.positions[i]
		for _, r := range regions {
			if r.Contains(chrom, pos) {
				hits = append(hits, i)
				break
			}
		}
	}
	return hits, nil
}

// QueryRegionIndexed answers the same query through the point-interval
// index: one overlap lookup per region descriptor instead of a full
// scan. Ordinals within one descriptor's hits are in scan order; no
// ordering is guaranteed across descriptors. Records matched by more
// than one descriptor are reported once.
func (x *Index) QueryRegionIndexed(regionStr string) ([]int, error) {
	regions, err := region.Parse(regionStr)
	if err != nil {
		return nil, err
	}

	var hits []int
	seen := make(map[int]struct{})
	for _, r := range regions {
		for _, ord := range x.points.Query(r.Chrom, r.Start, r.End) {
			if _, dup := seen[ord]; dup {
				continue
			}
			seen[ord] = struct{}{}
			hits = append(hits, ord)
		}
	}
	return hits, nil
}

// QueryIndexRange returns the ordinals for the inclusive 1-based
// record range [start, end]. Out-of-bounds ends are clamped to the
// valid range; an inverted range after clamping yields no ordinals.
func (x *Index) QueryIndexRange(start, end int) []int {
	if start < 1 {
		start = 1
	}
	if n := x.MarkerCount(); end > n {
		end = n
	}
	if end < start {
		return nil
	}

	ordinals := make([]int, 0, end-start+1)
	for i := start - 1; i <= end-1; i++ {
		ordinals = append(ordinals, i)
	}
	return ordinals
}
