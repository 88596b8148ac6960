package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/dnload"
	"github.com/sliverarmory/dnload/intro"
)

var compareDirect bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [NAME...]",
	Short: "Resolve symbols by hash in a live process (default: the built-in table)",
	RunE: func(cmd *cobra.Command, args []string) error {
		slots := intro.Slots()
		if len(args) > 0 {
			slots = slots[:0]
			for _, name := range args {
				slots = append(slots, dnload.SlotOf(name))
			}
		}
		if compareDirect && targetPid != 0 {
			return fmt.Errorf("--compare only works on this process")
		}

		r, release, err := openResolver()
		if err != nil {
			return err
		}
		defer release()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		failed := 0
		for _, s := range slots {
			addr, err := r.Resolve(s.Hash)
			if err != nil {
				log.Debugw("resolve failed", "name", s.Name, "error", err)
				fmt.Fprintf(w, "0x%08x\t%s\tnot found\n", s.Hash, s.Name)
				failed++
				continue
			}
			if !compareDirect {
				fmt.Fprintf(w, "0x%08x\t%s\t0x%x\n", s.Hash, s.Name, addr)
				continue
			}
			want, err := dnload.Direct{}.Bind(s)
			switch {
			case err != nil:
				fmt.Fprintf(w, "0x%08x\t%s\t0x%x\tdlsym: %v\n", s.Hash, s.Name, addr, err)
			case want != addr:
				fmt.Fprintf(w, "0x%08x\t%s\t0x%x\tdlsym 0x%x\n", s.Hash, s.Name, addr, want)
				failed++
			default:
				fmt.Fprintf(w, "0x%08x\t%s\t0x%x\tok\n", s.Hash, s.Name, addr)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d symbols failed", failed, len(slots))
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&compareDirect, "compare", false, "Check each address against dlsym")
	addTargetFlags(resolveCmd.Flags())
}
