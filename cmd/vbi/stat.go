package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sounkou-bioinfo/vbi/internal/vbi"
)

func newStatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stat <index.vbi>",
		Short: "Show index summary and memory usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := vbi.Load(args[0])
			if err != nil {
				return err
			}

			mem := x.MemoryUsage()
			fmt.Printf("samples:              %d\n", x.SampleCount())
			fmt.Printf("markers:              %d\n", x.MarkerCount())
			fmt.Printf("chromosomes:          %d (%s)\n",
				len(x.ChromNames()), strings.Join(x.ChromNames(), ","))
			fmt.Printf("index bytes:          %d\n", mem.IndexBytes)
			fmt.Printf("interval index bytes: %d\n", mem.IntervalIndexBytes)
			return nil
		},
	}

	return cmd
}
