package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/dnload/sdbm"
)

var hashCmd = &cobra.Command{
	Use:   "hash NAME...",
	Short: "Print the SDBM hash of each symbol name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "0x%08x %s\n", sdbm.Sum(name), name)
		}
		return nil
	},
}
