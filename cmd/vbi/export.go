package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sounkou-bioinfo/vbi/internal/duckdb"
	"github.com/sounkou-bioinfo/vbi/internal/materialize"
	"github.com/sounkou-bioinfo/vbi/internal/vbi"
)

func newExportCmd() *cobra.Command {
	var (
		vbiPath string
		vcfPath string
		dbPath  string
		rows    bool
		threads int
	)

	cmd := &cobra.Command{
		Use:   "export --vbi <index.vbi> --db <out.duckdb>",
		Short: "Export index contents to a DuckDB database",
		Long: `Export the (chrom, pos, offset) tuples of a variant block index
into a DuckDB database for ad hoc SQL. With --rows, every record is
also materialized from the source VCF and stored with its decoded
fields.`,
		Example: `  vbi export --vbi calls.vbi --db calls.duckdb
  vbi export --vbi calls.vbi --db calls.duckdb --rows --vcf calls.vcf.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			if rows && vcfPath == "" {
				return fmt.Errorf("--rows requires --vcf")
			}

			x, err := vbi.Load(vbiPath)
			if err != nil {
				return err
			}

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ExportIndex(vbiPath, x); err != nil {
				return err
			}
			fmt.Printf("Exported %d index entries to %s\n", x.MarkerCount(), dbPath)

			if rows {
				m := materialize.New()
				m.SetThreads(threads)
				m.SetLogger(logger)
				res, err := m.Rows(vcfPath, x, x.QueryIndexRange(1, x.MarkerCount()))
				if err != nil {
					return err
				}
				if err := store.ExportRows(vbiPath, res.Rows); err != nil {
					return err
				}
				fmt.Printf("Exported %d materialized rows to %s\n", len(res.Rows), dbPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vbiPath, "vbi", "", "variant block index file")
	cmd.Flags().StringVar(&dbPath, "db", "", "output DuckDB database path")
	cmd.Flags().StringVar(&vcfPath, "vcf", "", "source VCF file (required with --rows)")
	cmd.Flags().BoolVar(&rows, "rows", false, "also materialize and export decoded records")
	cmd.Flags().IntVar(&threads, "threads", 1, "BGZF decompression workers for record reads")
	cmd.MarkFlagRequired("vbi")
	cmd.MarkFlagRequired("db")

	return cmd
}
