package vcf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

const testVCF = `##fileformat=VCFv4.2
##contig=<ID=chr1,length=248956422>
##contig=<ID=chr21,length=46709983>
##INFO=<ID=DP,Number=1,Type=Integer,Description="Total depth">
##INFO=<ID=CSQ,Number=.,Type=String,Description="Consequence annotations from Ensembl VEP. Format: Allele|Consequence|IMPACT|SYMBOL">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	NA00001	NA00002
chr1	100	rs1	A	T	29.5	PASS	DP=10	GT	0/1	0/0
chr1	250	.	G	C,CA	.	q10;s50	DP=7;CSQ=C|missense_variant|MODERATE|KRAS,CA|frameshift_variant|HIGH|KRAS	GT	0/1	1/1
chr21	5030082	rs3	T	G	11	.	DP=3	GT	0/0	0/1
`

func writePlainVCF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.vcf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeGzipVCF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.vcf.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())
	return path
}

func writeBGZFVCF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.vcf.bgz")
	f, err := os.Create(path)
	require.NoError(t, err)
	bw := bgzf.NewWriter(f, 1)
	_, err = bw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDetectCodec(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		codec Codec
	}{
		{"plain", writePlainVCF(t, testVCF), CodecPlain},
		{"gzip", writeGzipVCF(t, testVCF), CodecGzip},
		{"bgzf", writeBGZFVCF(t, testVCF), CodecBGZF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Open(tc.path, 1)
			require.NoError(t, err)
			defer r.Close()
			require.Equal(t, tc.codec, r.Codec())
		})
	}
}

// Sources shorter than the 18-byte probe must still classify without
// error.
func TestDetectCodec_ShortInput(t *testing.T) {
	cases := []struct {
		name    string
		content string
		codec   Codec
	}{
		{"empty", "", CodecPlain},
		{"short text", "#C", CodecPlain},
		{"bare gzip magic", "\x1f\x8b", CodecGzip},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := os.Open(writePlainVCF(t, tc.content))
			require.NoError(t, err)
			defer f.Close()

			codec, err := detectCodec(f)
			require.NoError(t, err)
			require.Equal(t, tc.codec, codec)
		})
	}
}

func TestReader_Header(t *testing.T) {
	r, err := Open(writePlainVCF(t, testVCF), 1)
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	require.Equal(t, 2, h.SampleCount())
	require.Equal(t, []string{"NA00001", "NA00002"}, h.Samples)
	require.Equal(t, []string{"chr1", "chr21"}, h.Contigs())

	dp, ok := h.Info("DP")
	require.True(t, ok)
	require.Equal(t, "Total depth", dp.Description)
	require.Equal(t, "Integer", dp.Type)

	csq, ok := h.Info("CSQ")
	require.True(t, ok)
	require.Contains(t, csq.Description, "Format: Allele|Consequence|IMPACT|SYMBOL")

	require.Equal(t, []string{"DP", "CSQ"}, h.InfoIDs())
}

func TestReader_Records(t *testing.T) {
	r, err := Open(writePlainVCF(t, testVCF), 1)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "chr1", rec.Chrom)
	require.Equal(t, int64(100), rec.Pos)
	require.True(t, rec.HasID())
	require.True(t, rec.HasQual)
	require.Equal(t, 29.5, rec.Qual)
	require.Equal(t, 2, rec.AlleleCount())
	require.Equal(t, "10", rec.Info["DP"])

	rec, err = r.Next()
	require.NoError(t, err)
	require.False(t, rec.HasID())
	require.False(t, rec.HasQual)
	require.Equal(t, []string{"C", "CA"}, rec.AltAlleles())
	require.Equal(t, 3, rec.AlleleCount())
	require.Equal(t, "q10;s50", rec.Filter)

	rec, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "chr21", rec.Chrom)

	rec, err = r.Next()
	require.NoError(t, err)
	require.Nil(t, rec, "expected end of stream")
}

// Offsets captured before each record must seek back to that record,
// whatever the codec.
func TestReader_TellSeek(t *testing.T) {
	paths := map[string]string{
		"plain": writePlainVCF(t, testVCF),
		"gzip":  writeGzipVCF(t, testVCF),
		"bgzf":  writeBGZFVCF(t, testVCF),
	}
	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			r, err := Open(path, 1)
			require.NoError(t, err)
			defer r.Close()

			var offsets []int64
			var positions []int64
			for {
				off := r.Tell()
				rec, err := r.Next()
				require.NoError(t, err)
				if rec == nil {
					break
				}
				offsets = append(offsets, off)
				positions = append(positions, rec.Pos)
			}
			require.Len(t, offsets, 3)

			// Revisit in reverse order.
			for i := len(offsets) - 1; i >= 0; i-- {
				require.NoError(t, r.Seek(offsets[i]))
				rec, err := r.Next()
				require.NoError(t, err)
				require.NotNil(t, rec)
				require.Equal(t, positions[i], rec.Pos)
			}
		})
	}
}

func TestReader_MissingHeader(t *testing.T) {
	_, err := Open(writePlainVCF(t, "chr1\t100\trs1\tA\tT\t.\t.\tDP=1\n"), 1)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestMetaValue_QuotedCommas(t *testing.T) {
	line := `##INFO=<ID=ANN,Number=.,Type=String,Description="Functional annotations, Format: Allele|Annotation|Gene_Name">`
	require.Equal(t, "ANN", metaValue(line, "ID"))
	require.Equal(t, "Functional annotations, Format: Allele|Annotation|Gene_Name",
		metaValue(line, "Description"))
}
