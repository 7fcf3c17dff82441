package cgen

import (
	"io"

	"go.jacobcolvin.com/cmdgen/cmdspec"
)

// EmitHeader writes the declarations header for the suite: one record type
// per optgroup, one per command, entry-point prototypes, and the registry
// declaration. Field order within each record is fixed: accumulator lists,
// then argument-bearing options, then single-bit flags.
func EmitHeader(out io.Writer, suite *cmdspec.Suite) error {
	w := NewWriter(out)

	w.Linef("#pragma once")
	w.Include("util.h")
	w.Include("cmd.h")
	w.Include("argv.h")
	w.Linef("")

	for _, g := range suite.OptGroups {
		w.StructDef(g.StructName(), func() {
			for _, acc := range g.Accumulations() {
				w.Linef("const struct strlist* %s;", acc)
			}

			for _, o := range g.Options {
				if o.Arg != "" && o.Accumulate == "" {
					w.Linef("const char* %s;", o.Symbol)
				}
			}

			for _, o := range g.Options {
				if o.Arg == "" && o.Accumulate == "" {
					w.Linef("unsigned %s : 1;", o.Symbol)
				}
			}
		})

		if g.ExportEmitArgs {
			w.Prototype(g.EmitArgsFunc(), false)
		}

		w.Linef("")
	}

	for _, c := range suite.Commands {
		w.StructDef(c.StructName(), func() {
			for _, g := range c.OptGroups {
				w.Linef("struct %s %s;", g.StructName(), g.Symbol)
			}

			for _, a := range c.Arguments {
				if a.Repeat {
					w.Linef("const char** %s;", a.Symbol)
				} else {
					w.Linef("const char* %s;", a.Symbol)
				}
			}
		})

		w.Prototype(c.MakeArgsFunc(), false)
		w.Prototype(c.MainFunc(), false)

		if c.ExportParseArgs {
			w.Prototype(c.ParseArgsFunc(), false)
		}

		w.Linef("")
	}

	w.Linef("extern const struct cmd autocmds[];")

	return w.Err()
}
