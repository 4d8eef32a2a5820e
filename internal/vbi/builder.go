package vbi

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sounkou-bioinfo/vbi/internal/vcf"
)

// Builder creates a variant block index from a single streaming pass
// over a VCF source. Array mutation is strictly single-threaded; the
// thread hint only widens BGZF block decompression inside the reader.
type Builder struct {
	threads int
	logger  *zap.Logger
}

// NewBuilder returns a builder with a no-op logger.
func NewBuilder() *Builder {
	return &Builder{threads: 1, logger: zap.NewNop()}
}

// SetThreads sets the decompression-worker hint. It never changes the
// index content or record ordering.
func (b *Builder) SetThreads(n int) {
	b.threads = n
}

// SetLogger sets the logger for progress messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// BuildStats summarizes a completed build.
type BuildStats struct {
	Samples int64
	Markers int
	Chroms  int
	Codec   string
}

// Build scans sourcePath once and writes the index to indexPath.
// The index file is written to a temporary name in the destination
// directory and renamed into place, so a concurrent loader never
// observes a torn file.
func (b *Builder) Build(sourcePath, indexPath string) (*BuildStats, error) {
	r, err := vcf.Open(sourcePath, b.threads)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	x := &Index{sampleCount: int64(r.Header().SampleCount())}
	chromLookup := make(map[string]int32)

	for {
		// The seek token must be captured before the record read so it
		// points at the record's first byte.
		offset := r.Tell()
		rec, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", sourcePath, err)
		}
		if rec == nil {
			break
		}

		id, ok := chromLookup[rec.Chrom]
		if !ok {
			id = int32(len(x.chromNames))
			chromLookup[rec.Chrom] = id
			x.chromNames = append(x.chromNames, rec.Chrom)
		}
		x.chromIDs = append(x.chromIDs, id)
		x.positions = append(x.positions, rec.Pos)
		x.offsets = append(x.offsets, offset)
	}

	if err := writeAtomic(x, indexPath); err != nil {
		return nil, err
	}

	stats := &BuildStats{
		Samples: x.sampleCount,
		Markers: x.MarkerCount(),
		Chroms:  len(x.chromNames),
		Codec:   r.Codec().String(),
	}
	b.logger.Info("indexing finished",
		zap.Int64("samples", stats.Samples),
		zap.Int("markers", stats.Markers),
		zap.Int("chromosomes", stats.Chroms),
		zap.String("index", indexPath))
	return stats, nil
}

// writeAtomic serializes x next to indexPath and renames it into place.
func writeAtomic(x *Index, indexPath string) error {
	dir := filepath.Dir(indexPath)
	tmp, err := os.CreateTemp(dir, filepath.Base(indexPath)+".tmp*")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := x.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), indexPath); err != nil {
		return fmt.Errorf("rename index into place: %w", err)
	}
	return nil
}
