package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sliverarmory/dnload"
	"github.com/sliverarmory/dnload/elfmem"
	"github.com/sliverarmory/dnload/linkmap"
	"github.com/sliverarmory/dnload/symscan"
)

var (
	verbose bool
	log     = zap.NewNop().Sugar()

	targetPid   int
	useVM       bool
	locatorKind = newEnum("auxv", "auxv", "fixed-address", "fixed-debug")
	boundsKind  = newEnum("safe", "safe", "adjacent")
	fixedBase   uint64
	rdebugAddr  uint64
)

var rootCmd = &cobra.Command{
	Use:          "dnload",
	Short:        "Resolve dynamic symbols by the hash of their name",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		log = logger.Sugar()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log lookups to stderr")
	rootCmd.AddCommand(hashCmd, tableCmd, resolveCmd, checkCmd)
}

// addTargetFlags registers the flags that select and read a process image.
func addTargetFlags(fs *pflag.FlagSet) {
	fs.IntVar(&targetPid, "pid", 0, "Process to inspect (default: this process)")
	fs.BoolVar(&useVM, "vm", false, "Read remote memory with process_vm_readv instead of /proc/<pid>/mem")
	fs.Var(locatorKind, "locator", "How to find the link map: "+locatorKind.choices())
	fs.Var(boundsKind, "bounds", "How to delimit symbol tables: "+boundsKind.choices())
	fs.Uint64Var(&fixedBase, "base", 0, "ELF header address for --locator=fixed-address (default: platform base)")
	fs.Uint64Var(&rdebugAddr, "rdebug", 0, "struct r_debug address for --locator=fixed-debug")
}

// openResolver builds a resolver for the selected process. The returned
// function releases it along with any memory opened for a remote process.
func openResolver() (*dnload.Resolver, func(), error) {
	p, err := linkmap.Current()
	if err != nil {
		return nil, nil, err
	}
	opts := []dnload.Option{dnload.WithLogger(log), dnload.WithPlatform(p)}

	switch boundsKind.value {
	case "adjacent":
		opts = append(opts, dnload.WithBounds(symscan.Adjacent{}))
	default:
		opts = append(opts, dnload.WithBounds(symscan.Safe{}))
	}

	remote := targetPid != 0 && targetPid != os.Getpid()
	var mem *elfmem.ProcessMemory
	release := func() {
		if mem != nil {
			_ = mem.Close()
		}
	}
	if remote {
		checkPtrace(targetPid)
		if useVM {
			opts = append(opts, dnload.WithMemory(elfmem.ProcessVM{Pid: targetPid}))
		} else {
			mem, err = elfmem.OpenProcess(targetPid)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, dnload.WithMemory(mem))
		}
	}

	switch locatorKind.value {
	case "fixed-address":
		base := fixedBase
		if base == 0 {
			base = p.FixedBase
		}
		opts = append(opts, dnload.WithLocator(linkmap.FixedAddress{Base: base, Machine: p.Machine}))
	case "fixed-debug":
		if rdebugAddr == 0 {
			release()
			return nil, nil, errors.New("--locator=fixed-debug needs --rdebug")
		}
		opts = append(opts, dnload.WithLocator(linkmap.FixedDebug{RDebug: rdebugAddr}))
	default:
		if remote {
			auxv, err := linkmap.ProcessAuxv(targetPid, p)
			if err != nil {
				release()
				return nil, nil, err
			}
			opts = append(opts, dnload.WithLocator(auxv))
		}
	}

	r, err := dnload.NewResolver(opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return r, func() {
		_ = r.Close()
		release()
	}, nil
}

// enumValue is a pflag.Value restricted to a fixed set of strings.
type enumValue struct {
	value   string
	allowed []string
}

func newEnum(def string, allowed ...string) *enumValue {
	return &enumValue{value: def, allowed: allowed}
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(s string) error {
	for _, a := range e.allowed {
		if s == a {
			e.value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", e.choices())
}

func (e *enumValue) Type() string { return "string" }

func (e *enumValue) choices() string { return strings.Join(e.allowed, "|") }
