package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/dnload/intro"
	"github.com/sliverarmory/dnload/sdbm"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "List the built-in import table in binding order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		bad := 0
		for i, s := range intro.Slots() {
			mark := ""
			if s.Hash != sdbm.Sum(s.Name) {
				mark = "MISMATCH"
				bad++
			}
			fmt.Fprintf(w, "%d\t0x%08x\t%s\t%s\t%s\n", i, s.Hash, s.Name, s.Signature, mark)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if bad > 0 {
			return fmt.Errorf("%d slots do not match their name hash", bad)
		}
		return nil
	},
}
