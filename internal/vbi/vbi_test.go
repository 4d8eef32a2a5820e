package vbi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

// testSource describes one synthetic VCF record.
type testSource struct {
	chrom string
	pos   int64
}

// makeVCF renders a small VCF with two samples and the given records.
func makeVCF(records []testSource) string {
	var sb strings.Builder
	sb.WriteString("##fileformat=VCFv4.2\n")
	sb.WriteString("##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Total depth\">\n")
	sb.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2\n")
	for i, r := range records {
		fmt.Fprintf(&sb, "%s\t%d\trs%d\tA\tG\t30\tPASS\tDP=%d\tGT\t0/1\t0/0\n",
			r.chrom, r.pos, i, i+1)
	}
	return sb.String()
}

// twoChromRecords is the standard fixture: interleaved-length contigs,
// coordinate sorted within each chromosome.
func twoChromRecords() []testSource {
	var records []testSource
	for i := 0; i < 20; i++ {
		records = append(records, testSource{chrom: "chr1", pos: int64(1000 + 10*i)})
	}
	for i := 0; i < 15; i++ {
		records = append(records, testSource{chrom: "chr21", pos: int64(5030000 + i)})
	}
	return records
}

func writeSource(t *testing.T, content string, compress bool) string {
	t.Helper()
	dir := t.TempDir()
	if !compress {
		path := filepath.Join(dir, "test.vcf")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	path := filepath.Join(dir, "test.vcf.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	bw := bgzf.NewWriter(f, 1)
	_, err = bw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	require.NoError(t, f.Close())
	return path
}

func buildAndLoad(t *testing.T, records []testSource, compress bool) (*Index, string) {
	t.Helper()
	src := writeSource(t, makeVCF(records), compress)
	idxPath := filepath.Join(filepath.Dir(src), "test.vbi")

	b := NewBuilder()
	b.SetLogger(zap.NewNop())
	stats, err := b.Build(src, idxPath)
	require.NoError(t, err)
	require.Equal(t, len(records), stats.Markers)
	require.Equal(t, int64(2), stats.Samples)

	x, err := Load(idxPath)
	require.NoError(t, err)
	return x, src
}

func TestBuildLoad_RoundTrip(t *testing.T) {
	records := twoChromRecords()
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "bgzf"
		}
		t.Run(name, func(t *testing.T) {
			x, _ := buildAndLoad(t, records, compress)

			require.Equal(t, len(records), x.MarkerCount())
			require.Equal(t, int64(2), x.SampleCount())
			require.Equal(t, []string{"chr1", "chr21"}, x.ChromNames())

			ranges := x.ExtractRanges(0)
			require.Len(t, ranges, len(records))
			for i, rng := range ranges {
				assert.Equal(t, i, rng.Ordinal)
				assert.Equal(t, records[i].chrom, rng.Chrom)
				assert.Equal(t, records[i].pos, rng.Start)
				assert.Equal(t, records[i].pos, rng.End)
			}
		})
	}
}

func TestExtractRanges_Limit(t *testing.T) {
	x, _ := buildAndLoad(t, twoChromRecords(), false)
	assert.Len(t, x.ExtractRanges(5), 5)
	assert.Len(t, x.ExtractRanges(0), x.MarkerCount())
	assert.Len(t, x.ExtractRanges(10000), x.MarkerCount())
}

func TestQueryIndexRange(t *testing.T) {
	x, _ := buildAndLoad(t, twoChromRecords(), false)
	n := x.MarkerCount()

	full := x.QueryIndexRange(1, n)
	require.Len(t, full, n)
	assert.Equal(t, 0, full[0])
	assert.Equal(t, n-1, full[n-1])

	for k := 1; k <= n; k++ {
		assert.Equal(t, []int{k - 1}, x.QueryIndexRange(k, k))
	}

	assert.Equal(t, x.QueryIndexRange(1, 3), x.QueryIndexRange(-5, 3), "low clamp")
	assert.Equal(t, x.QueryIndexRange(n, n), x.QueryIndexRange(n, n+100), "high clamp")
	assert.Empty(t, x.QueryIndexRange(10, 5), "inverted range")
	assert.Empty(t, x.QueryIndexRange(n+1, n+10), "past the end")
}

func TestQueryRegion_LinearAndIndexedAgree(t *testing.T) {
	x, _ := buildAndLoad(t, twoChromRecords(), false)

	queries := []string{
		"chr1",
		"chr21",
		"chr1:1000-1100",
		"chr1:1005-1005",
		"chr21:5030000-5030005",
		"chr1:1000-1050,chr21:5030010-5030012",
		"chr1:900-950",
		"chrX",
		"chr1,chr1:1000-1100",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			linear, err := x.QueryRegion(q)
			require.NoError(t, err)
			indexed, err := x.QueryRegionIndexed(q)
			require.NoError(t, err)
			assert.ElementsMatch(t, linear, indexed)
		})
	}
}

func TestQueryRegion_MalformedFails(t *testing.T) {
	x, _ := buildAndLoad(t, twoChromRecords(), false)
	_, err := x.QueryRegion("chr1:abc-def")
	require.Error(t, err)
	_, err = x.QueryRegionIndexed("chr1:abc-def")
	require.Error(t, err)
}

// Scenario A: region query over a 1000-record chromosome equals a
// hand-rolled linear scan over the same bounds.
func TestQueryRegion_ScenarioA(t *testing.T) {
	var records []testSource
	for i := 0; i < 1000; i++ {
		records = append(records, testSource{chrom: "chr21", pos: int64(5029900 + i)})
	}
	x, _ := buildAndLoad(t, records, true)

	hits, err := x.QueryRegion("chr21:5030082-5030356")
	require.NoError(t, err)

	var want []int
	for i, r := range records {
		if r.pos >= 5030082 && r.pos <= 5030356 {
			want = append(want, i)
		}
	}
	assert.Equal(t, want, hits)

	indexed, err := x.QueryRegionIndexed("chr21:5030082-5030356")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, indexed)
}

// Scenario B: an ordinal range reaching past the marker count returns
// markers up to N only.
func TestQueryIndexRange_ScenarioB(t *testing.T) {
	var records []testSource
	for i := 0; i < 600; i++ {
		records = append(records, testSource{chrom: "chr1", pos: int64(100 + i)})
	}
	x, _ := buildAndLoad(t, records, false)

	hits := x.QueryIndexRange(554, 10000)
	require.Len(t, hits, 600-554+1)
	assert.Equal(t, 553, hits[0])
	assert.Equal(t, 599, hits[len(hits)-1])
}

// Scenario C: a point region matches only records at that exact position.
func TestQueryRegion_ScenarioC(t *testing.T) {
	records := []testSource{
		{chrom: "chr1", pos: 99},
		{chrom: "chr1", pos: 100},
		{chrom: "chr1", pos: 100},
		{chrom: "chr1", pos: 101},
		{chrom: "chr2", pos: 100},
	}
	x, _ := buildAndLoad(t, records, false)

	for _, query := range []func(string) ([]int, error){x.QueryRegion, x.QueryRegionIndexed} {
		hits, err := query("chr1:100")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, hits)
	}
}

func TestOffsetsFor(t *testing.T) {
	x, _ := buildAndLoad(t, twoChromRecords(), false)
	offsets := x.OffsetsFor([]int{0, 5, 10})
	require.Len(t, offsets, 3)
	assert.Equal(t, x.Offset(0), offsets[0])
	assert.Equal(t, x.Offset(5), offsets[1])
	assert.Equal(t, x.Offset(10), offsets[2])
}

func TestMemoryUsage(t *testing.T) {
	x, _ := buildAndLoad(t, twoChromRecords(), false)
	mem := x.MemoryUsage()
	assert.Greater(t, mem.IndexBytes, int64(0))
	assert.Greater(t, mem.IntervalIndexBytes, int64(0))
}

func TestBuild_MissingSource(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build(filepath.Join(t.TempDir(), "nope.vcf"), filepath.Join(t.TempDir(), "out.vbi"))
	require.Error(t, err)
}

func TestBuild_UnwritableDestination(t *testing.T) {
	src := writeSource(t, makeVCF(twoChromRecords()), false)
	b := NewBuilder()
	_, err := b.Build(src, filepath.Join(t.TempDir(), "missing", "out.vbi"))
	require.Error(t, err)
}

func TestLoad_Truncated(t *testing.T) {
	records := twoChromRecords()
	src := writeSource(t, makeVCF(records), false)
	idxPath := filepath.Join(filepath.Dir(src), "test.vbi")
	b := NewBuilder()
	_, err := b.Build(src, idxPath)
	require.NoError(t, err)

	data, err := os.ReadFile(idxPath)
	require.NoError(t, err)

	for _, cut := range []int{1, 4, 8, 20, len(data) / 2, len(data) - 1} {
		trunc := filepath.Join(t.TempDir(), "trunc.vbi")
		require.NoError(t, os.WriteFile(trunc, data[:cut], 0644))
		_, err := Load(trunc)
		require.Error(t, err, "cut at %d", cut)
		var ferr *FormatError
		assert.ErrorAs(t, err, &ferr, "cut at %d", cut)
	}
}

// Counts read from the file drive allocations, so a crafted header
// with a valid magic but absurd counts must fail cleanly rather than
// panic or exhaust memory.
func TestLoad_ImplausibleCounts(t *testing.T) {
	writeHeader := func(markers int64, chroms int32) string {
		var buf bytes.Buffer
		buf.Write([]byte{'V', 'B', 'I', 0x01})
		for _, v := range []any{uint32(1), int64(2), markers, chroms} {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
		}
		path := filepath.Join(t.TempDir(), "crafted.vbi")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
		return path
	}

	cases := map[string]string{
		"huge marker count":     writeHeader(1<<60, 0),
		"huge chromosome count": writeHeader(0, 1<<30),
		"empty file with count": writeHeader(1000, 1),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(path)
			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
		})
	}
}

func TestLoad_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vbi")
	require.NoError(t, os.WriteFile(path, []byte("not a vbi index at all"), 0644))
	_, err := Load(path)
	var ferr *FormatError
	require.ErrorAs(t, err, &ferr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.vbi"))
	require.Error(t, err)
	var ferr *FormatError
	assert.False(t, errors.As(err, &ferr), "missing file is an I/O error, not a format error")
}
