package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sounkou-bioinfo/vbi/internal/vbi"
)

func newViewCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "view <index.vbi>",
		Short: "Print index entries in original scan order",
		Long: `Print the (chromosome, position, ordinal, seek token) tuples held
by a variant block index, in the order the records were scanned.`,
		Example: `  vbi view calls.vbi
  vbi view -n 10 calls.vbi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := vbi.Load(args[0])
			if err != nil {
				return err
			}

			out := bufio.NewWriter(os.Stdout)
			defer out.Flush()

			fmt.Fprintf(out, "# markers: %d\n", x.MarkerCount())
			for _, rng := range x.ExtractRanges(limit) {
				fmt.Fprintf(out, "%d\t%s\t%d\toffset=%d\n",
					rng.Ordinal+1, rng.Chrom, rng.Start, x.Offset(rng.Ordinal))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most n entries (0 = all)")

	return cmd
}
