// Command cmdgen generates C command tables and documentation from a
// declarative XML description of a command-line suite.
//
// The op selects the artifact: "h" emits the declarations header, "c" the
// parser/dispatcher translation unit with embedded help text, and "pod" the
// POD manual. Output goes to stdout.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/cmdgen/cmdspec"
	"go.jacobcolvin.com/cmdgen/cmdspec/cgen"
	"go.jacobcolvin.com/cmdgen/cmdspec/poddoc"
	"go.jacobcolvin.com/cmdgen/log"
	"go.jacobcolvin.com/cmdgen/profile"
	"go.jacobcolvin.com/cmdgen/version"
)

func main() {
	genCfg := cmdspec.NewConfig()
	logCfg := log.NewConfig()
	profCfg := profile.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "cmdgen [flags] <op> <commands-file>",
		Short: "Generate C command tables from a declarations file",
		Long: `cmdgen reads a declarative XML description of a command suite and emits one
of three artifacts: a header declaring the parsed-argument structures (op
"h"), the implementation with parser tables, dispatchers, and embedded help
text (op "c"), or a POD manual ready for man-page rendering (op "pod").`,
		Args:          cobra.ExactArgs(2),
		Version:       version.Revision,
		SilenceErrors: true,
		SilenceUsage:  true,
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return cmdspec.Ops(), cobra.ShellCompDirectiveNoFileComp
			}

			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if genCfg.Debug {
				logCfg.Level = "debug"
			}

			handler, err := logCfg.NewHandler(os.Stderr)
			if err != nil {
				return err
			}

			slog.SetDefault(slog.New(handler))

			prof := profCfg.NewProfiler()

			err = prof.Start()
			if err != nil {
				return err
			}

			defer func() {
				stopErr := prof.Stop()
				if stopErr != nil {
					slog.Error("stopping profiler", slog.Any("error", stopErr))
				}
			}()

			return run(cmd.Context(), genCfg, args[0], args[1], os.Stdout, poddoc.Pod2Text{})
		},
	}

	genCfg.RegisterFlags(rootCmd.Flags())
	logCfg.RegisterFlags(rootCmd.Flags())
	profCfg.RegisterFlags(rootCmd.Flags())

	for _, register := range []func(*cobra.Command) error{
		genCfg.RegisterCompletions,
		logCfg.RegisterCompletions,
		profCfg.RegisterCompletions,
	} {
		completionErr := register(rootCmd)
		if completionErr != nil {
			fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
		}
	}

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *cmdspec.Config, op, path string, out io.Writer, f cgen.Formatter) error {
	if err := cmdspec.CheckOp(op); err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", cmdspec.ErrReadSource, err)
	}

	return generate(ctx, out, op, src, cfg.Defines, f)
}

// generate runs the ingest pass and the selected emitter. The "c" op adds
// the implicit DOC definition and drives the documentation walker twice:
// once inlining optgroup sections into each command's help blob, once plain
// for the man-page document.
func generate(ctx context.Context, out io.Writer, op string, src []byte, defs []string, f cgen.Formatter) error {
	suite, err := cmdspec.Slurp(src, defs)
	if err != nil {
		return err
	}

	slog.Debug("slurped declarations",
		slog.Int("commands", len(suite.Commands)),
		slog.Int("optgroups", len(suite.OptGroups)),
	)

	switch op {
	case cmdspec.OpHeader:
		return cgen.EmitHeader(out, suite)

	case cmdspec.OpImpl:
		docDefs := append(slices.Clone(defs), "DOC")

		full := poddoc.NewWalker(suite, io.Discard, poddoc.WithFullOptGroups(true))
		if err := full.Run(src, docDefs); err != nil {
			return err
		}

		var manual bytes.Buffer

		if err := poddoc.NewWalker(suite, &manual).Run(src, docDefs); err != nil {
			return err
		}

		return cgen.EmitImpl(ctx, out, cgen.ImplInput{
			Suite:    suite,
			Sections: full.Sections(),
			Manual:   manual.String(),
		}, f)

	case cmdspec.OpPod:
		return poddoc.NewWalker(suite, out).Run(src, defs)
	}

	return cmdspec.CheckOp(op)
}
