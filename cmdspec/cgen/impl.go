package cgen

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"go.jacobcolvin.com/cmdgen/cmdspec"
	"go.jacobcolvin.com/cmdgen/cmdspec/poddoc"
)

// Formatter renders POD markup to plain text. [poddoc.Pod2Text] is the
// production implementation; tests substitute a stub.
type Formatter interface {
	Format(ctx context.Context, pod string, indent int, addEncoding bool) (string, error)
}

// ImplInput carries the IR and the two documentation-pass results the
// implementation emitter embeds.
type ImplInput struct {
	Suite *cmdspec.Suite
	// Sections is the section-contents map from the full-optgroups pass;
	// per-command entries become the embedded usage strings.
	Sections map[string]string
	// Manual is the POD man-page document from the plain pass, embedded as
	// full_usage after text formatting.
	Manual string
}

// EmitImpl writes the implementation translation unit: the formatted program
// manual, per-optgroup re-serializers, per-command parsers and dispatchers,
// and the command registry.
func EmitImpl(ctx context.Context, out io.Writer, in ImplInput, f Formatter) error {
	w := NewWriter(out)

	w.SysInclude("getopt.h")
	w.SysInclude("stdlib.h")
	w.SysInclude("string.h")
	w.Include("util.h")
	w.Include("autocmd.h")

	// The walker already emitted the encoding declaration into the manual.
	manual, err := f.Format(ctx, in.Manual, 4, false)
	if err != nil {
		return err
	}

	w.Linef("const char full_usage[] = %s;", QuoteString(manual))

	for _, g := range in.Suite.OptGroups {
		w.Prototype(g.EmitArgsFunc(), !g.ExportEmitArgs)
	}

	for _, c := range in.Suite.Commands {
		w.Prototype(c.ParseArgsFunc(), !c.ExportParseArgs)
	}

	for _, g := range in.Suite.OptGroups {
		emitEmitArgs(w, g)
	}

	for _, c := range in.Suite.Commands {
		doc, ok := in.Sections[poddoc.CommandSectionTitle(c)]

		c.HasDoc = ok
		if ok {
			usage, err := f.Format(ctx, doc, 0, true)
			if err != nil {
				return err
			}

			w.Linef("static const char %s_usage[] = %s;", c.Symbol, QuoteString(usage))
		}

		emitMakeArgs(w, c)
		emitParseArgs(w, c)
		emitDispatch(w, c)
	}

	w.Linef("const struct cmd autocmds[] = {")
	w.Indented("};", func() {
		for _, c := range in.Suite.Commands {
			for _, name := range c.AllNames() {
				w.Linef("{")
				w.Indented("},", func() {
					w.Linef(".name = %s,", QuoteString(name))
					w.Linef(".main = %s,", c.DispatchFunc().Name)
				})
			}
		}

		w.Linef("{0}")
	})

	return w.Err()
}

// emitEmitArgs writes the optgroup re-serializer: accumulations first, in
// sorted order, then each plain option guarded by its presence test.
func emitEmitArgs(w *Writer, g *cmdspec.OptGroup) {
	w.FuncDef(g.EmitArgsFunc(), func() {
		for _, acc := range g.Accumulations() {
			w.If(fmt.Sprintf("info->%s != NULL", acc), func() {
				w.Linef("append_argv_accumulation(dest, info->%s);", acc)
			})
		}

		for _, o := range g.Options {
			if o.Accumulate != "" {
				continue
			}

			cond := fmt.Sprintf("info->%s != 0", o.Symbol)
			if o.Arg != "" {
				cond = fmt.Sprintf("info->%s != NULL", o.Symbol)
			}

			w.If(cond, func() {
				flag := o.Short
				if flag == "" {
					flag = "-" + o.Long
				}

				w.Linef("strlist_append(dest, \"-%s\");", flag)

				if o.Arg != "" {
					w.Linef("strlist_append(dest, info->%s);", o.Symbol)
				}
			})
		}
	})
}

// emitMakeArgs writes the command re-serializer, gating each optgroup on the
// forwarding bit chosen by the group and the positional tail on the
// forwarded bit.
func emitMakeArgs(w *Writer, c *cmdspec.Command) {
	w.FuncDef(c.MakeArgsFunc(), func() {
		w.Linef("struct strlist* dest = strlist_new();")

		for _, g := range c.OptGroups {
			flag := "CMD_ARG_NON_FORWARDED"
			if g.Forward {
				flag = "CMD_ARG_FORWARDED"
			}

			w.If("which & "+flag, func() {
				w.Linef("%s(dest, &info->%s);", g.EmitArgsFunc().Name, g.Symbol)
			})
		}

		// Arguments, unlike options, are always forwarded.
		w.If("which & CMD_ARG_FORWARDED", func() {
			w.Linef("strlist_append(dest, \"--\");")
		})

		for _, a := range c.Arguments {
			w.If("which & CMD_ARG_FORWARDED", func() {
				if a.Repeat {
					w.Linef("strlist_extend_argv(dest, info->%s);", a.Symbol)
				} else {
					w.Linef("strlist_append(dest, info->%s);", a.Symbol)
				}
			})
		}

		w.Linef("return dest;")
	})
}

// emitRecordOption writes the store for one matched option.
func emitRecordOption(w *Writer, o *cmdspec.Option) {
	if o.Accumulate != "" {
		optarg := "NULL"
		if o.Arg != "" {
			optarg = "optarg"
		}

		w.Linef("accumulate_option((struct strlist**)&ret->%s.%s, %s, %s);",
			o.Group.Symbol, o.Accumulate, QuoteString(o.Long), optarg)

		return
	}

	if o.Arg == "" {
		w.Linef("ret->%s.%s = 1;", o.Group.Symbol, o.Symbol)
	} else {
		w.Linef("ret->%s.%s = optarg;", o.Group.Symbol, o.Symbol)
	}
}

// emitParseArgs writes the command's getopt_long driver and positional
// capture. The long-option table covers every option in declaration order;
// long-only options dispatch by table index on a return value of zero.
func emitParseArgs(w *Writer, c *cmdspec.Command) {
	opts := c.Options()

	shortSpec := "+:"
	needLongOnly := false

	for _, o := range opts {
		if o.Short == "" {
			needLongOnly = true

			continue
		}

		shortSpec += o.Short
		if o.Arg != "" {
			shortSpec += ":"
		}
	}

	w.FuncDef(c.ParseArgsFunc(), func() {
		w.Linef("optind = 1;")
		w.Linef("static const struct option long_opts[] = {")
		w.Indented("};", func() {
			for _, o := range opts {
				hasArg := "no_argument"
				if o.Arg != "" {
					hasArg = "required_argument"
				}

				val := "0"
				if o.Short != "" {
					val = QuoteChar(o.Short[0])
				}

				w.Linef("{%s, %s, NULL, %s},", QuoteString(o.Long), hasArg, val)
			}

			w.Linef("{0}")
		})
		w.Linef("static const char short_opts[] = %s;", QuoteString(shortSpec))

		w.While("1", func() {
			w.Linef("int long_idx = -1; (void) long_idx;")

			longIdxArg := "NULL"
			if needLongOnly {
				longIdxArg = "&long_idx"
			}

			w.Linef("int c = getopt_long(argc, (char**) argv, short_opts, long_opts, %s);", longIdxArg)
			w.If("c == -1", func() {
				w.Linef("break;")
			})
			w.Switch("c", func(s *SwitchWriter) {
				for _, o := range opts {
					if o.Short == "" {
						continue
					}

					s.Case(QuoteChar(o.Short[0]), func() {
						emitRecordOption(w, o)
					})
				}

				if needLongOnly {
					s.Case("0", func() {
						w.Switch("long_idx", func(ls *SwitchWriter) {
							for i, o := range opts {
								if o.Short != "" {
									continue
								}

								ls.Case(strconv.Itoa(i), func() {
									emitRecordOption(w, o)
								})
							}
						})
					})
				}

				s.Default(func() {
					usage := "NULL"
					if c.HasDoc {
						usage = c.Symbol + "_usage"
					}

					w.Linef("default_getopt(c, argv, %s);", usage)
				})
			})
		})

		w.Linef("argv += optind;")

		capture := func(a *cmdspec.Argument) {
			if a.Repeat {
				w.Linef("ret->%s = argv;", a.Symbol)
			} else {
				w.Linef("ret->%s = *argv++;", a.Symbol)
			}
		}

		sawRepeat := false

		for _, a := range c.Arguments {
			if a.Repeat {
				sawRepeat = true
			}

			if !a.Optional {
				w.If("*argv == NULL", func() {
					w.Linef("usage_error(\"argument %%s not present\", %s);", QuoteString(a.Name))
				})
			}

			if a.Optional && !a.Repeat {
				w.If("*argv != NULL", func() {
					capture(a)
				})
			} else {
				capture(a)
			}
		}

		if !sawRepeat {
			w.If("*argv != NULL", func() {
				w.Linef("usage_error(\"too many arguments\");")
			})
		}
	})
}

// emitDispatch writes the registry entry point: zero the info record, parse,
// tail-call the business-logic entry.
func emitDispatch(w *Writer, c *cmdspec.Command) {
	w.Prototype(c.DispatchFunc(), true)
	w.FuncDef(c.DispatchFunc(), func() {
		w.Linef("struct %s info;", c.StructName())
		w.Linef("memset(&info, 0, sizeof(info));")
		w.Linef("%s(&info, argc, argv);", c.ParseArgsFunc().Name)
		w.Linef("return %s(&info);", c.MainFunc().Name)
	})
}
