package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sounkou-bioinfo/vbi/internal/materialize"
	"github.com/sounkou-bioinfo/vbi/internal/vbi"
)

func newQueryCmd() *cobra.Command {
	var (
		vcfPath   string
		vbiPath   string
		indexed   bool
		rangeSpec string
		threads   int
		listOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "query [flags] <region1>[,<region2>...]",
		Short: "Query indexed records by region or by ordinal range",
		Long: `Query a variant block index and print the matching records.

Region forms: chr, chr:pos, chr:start-end; several regions may be
joined with commas. --range N:M selects records by their 1-based scan
ordinals instead (out-of-bounds ends are clamped). Matching records
are re-read from the source file through the stored seek tokens.`,
		Example: `  vbi query --vcf calls.vcf.gz --vbi calls.vbi chr21:5030082-5030356
  vbi query --vcf calls.vcf.gz --vbi calls.vbi --indexed 1:1000-2000,2:500-800
  vbi query --vcf calls.vcf.gz --vbi calls.vbi --range 554:10000`,
		Args: func(cmd *cobra.Command, args []string) error {
			if rangeSpec == "" && len(args) != 1 {
				return fmt.Errorf("a region argument is required unless --range is given")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			x, err := vbi.Load(vbiPath)
			if err != nil {
				return err
			}

			var ordinals []int
			switch {
			case rangeSpec != "":
				start, end, err := parseOrdinalRange(rangeSpec)
				if err != nil {
					return err
				}
				ordinals = x.QueryIndexRange(start, end)
			case indexed:
				ordinals, err = x.QueryRegionIndexed(args[0])
			default:
				ordinals, err = x.QueryRegion(args[0])
			}
			if err != nil {
				return err
			}

			if listOnly {
				for _, ord := range ordinals {
					fmt.Println(ord)
				}
				return nil
			}

			if vcfPath == "" {
				return fmt.Errorf("--vcf is required to print records (use --ordinals to list hits only)")
			}

			m := materialize.New()
			m.SetThreads(threads)
			m.SetLogger(logger)
			res, err := m.Rows(vcfPath, x, ordinals)
			if err != nil {
				return err
			}

			out := bufio.NewWriter(os.Stdout)
			defer out.Flush()
			for _, row := range res.Rows {
				if row.Missing {
					logger.Warn("skipping unreadable record", zap.Int("ordinal", row.Ordinal))
					continue
				}
				fmt.Fprintln(out, row.Raw)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vcfPath, "vcf", "", "source VCF file the index was built from")
	cmd.Flags().StringVar(&vbiPath, "vbi", "", "variant block index file")
	cmd.Flags().BoolVar(&indexed, "indexed", false, "use the point-interval index instead of a linear scan")
	cmd.Flags().StringVar(&rangeSpec, "range", "", "1-based inclusive ordinal range N:M")
	cmd.Flags().IntVar(&threads, "threads", 1, "BGZF decompression workers for record reads")
	cmd.Flags().BoolVar(&listOnly, "ordinals", false, "print matching ordinals instead of records")
	cmd.MarkFlagRequired("vbi")

	return cmd
}

// parseOrdinalRange parses "N:M" (also accepting "N-M").
func parseOrdinalRange(spec string) (int, int, error) {
	sep := ":"
	if !strings.Contains(spec, sep) {
		sep = "-"
	}
	parts := strings.SplitN(spec, sep, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid ordinal range %q, want N:M", spec)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q", parts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q", parts[1])
	}
	return start, end, nil
}
