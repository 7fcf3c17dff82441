package poddoc

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.jacobcolvin.com/cmdgen/cmdspec"
)

// ErrUnknownCommand indicates the documentation pass encountered a command
// element the ingest pass did not record, typically because the element is
// gated behind a definition only one of the passes carries.
var ErrUnknownCommand = errors.New("unknown command")

var (
	wsRuns     = regexp.MustCompile(`[ \t\r\n\v]+`)
	podEscaper = strings.NewReplacer(
		"<", "E<lt>",
		">", "E<gt>",
		"|", "E<verbar>",
		"/", "E<sol>",
	)
)

// CommandSectionTitle is the section-contents key for a command's
// documentation.
func CommandSectionTitle(c *cmdspec.Command) string {
	return c.Name + " command"
}

// OptGroupSectionTitle is the section-contents key for a shared optgroup's
// documentation.
func OptGroupSectionTitle(g *cmdspec.OptGroup) string {
	human := g.Human
	if human == "" {
		human = g.Name
	}

	return strings.ToUpper(human + " options")
}

// Walker re-parses a declarations file with markup handlers active and
// serializes the documentation as POD. Section bodies are buffered as they
// are written so they can be recorded under their titles and, when the
// full-optgroups mode is on, re-injected at each optgroup reference.
type Walker struct {
	suite    *cmdspec.Suite
	out      *bufferingWriter
	sections map[string]string

	paragraph    []string
	sectionTitle string
	inSection    bool
	preDepth     int
	current      *cmdspec.Command

	fullOptGroups bool
}

// WalkerOption configures a [Walker].
type WalkerOption func(*Walker)

// WithFullOptGroups controls inline expansion of optgroup references: off
// for man-page output (the back-reference sentence at the end of each
// command section points at the shared sections instead), on for the pass
// that produces self-contained per-command help blobs.
func WithFullOptGroups(on bool) WalkerOption {
	return func(w *Walker) {
		w.fullOptGroups = on
	}
}

// NewWalker creates a [Walker] over the slurped suite, writing POD to out.
func NewWalker(suite *cmdspec.Suite, out io.Writer, opts ...WalkerOption) *Walker {
	w := &Walker{
		suite:    suite,
		out:      &bufferingWriter{out: out},
		sections: make(map[string]string),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Sections returns the per-section POD bodies captured during [Walker.Run],
// keyed by section title. Bodies exclude their own =head1 line.
func (w *Walker) Sections() map[string]string {
	return w.sections
}

// Run walks src under the given definitions set and serializes the
// documentation. The document always opens with an encoding declaration.
func (w *Walker) Run(src []byte, defs []string) error {
	w.commandf("=encoding utf8")

	table := cmdspec.NewHandlerTable()
	table.CharData(func(text string) error {
		w.onCData(text)

		return nil
	})

	table.Element("command", cmdspec.ElementHandlers{Start: w.commandStart, End: w.commandEnd})
	table.Element("optgroup", cmdspec.ElementHandlers{Start: w.optgroupStart, End: w.optgroupEnd})
	table.Element("option", cmdspec.ElementHandlers{Start: w.optionStart, End: w.optionEnd})
	table.Element("argument", cmdspec.ElementHandlers{Start: w.argumentStart, End: w.argumentEnd})
	table.Element("optgroup-reference", cmdspec.ElementHandlers{Start: w.optgroupRefStart})
	table.Element("usage", cmdspec.ElementHandlers{Start: w.usageStart, End: w.usageEnd})
	table.Element("synopsis", cmdspec.ElementHandlers{Start: w.synopsisStart})
	table.Element("section", cmdspec.ElementHandlers{Start: w.sectionStart, End: w.sectionEnd})

	table.Element("b", w.inline("B<"))
	table.Element("i", w.inline("I<"))
	table.Element("tt", w.inline("C<"))
	table.Element("ul", w.listHandlers())
	table.Element("li", cmdspec.ElementHandlers{Start: func(*cmdspec.Attrs) error {
		w.commandf("=item *")

		return nil
	}})
	table.Element("dl", w.listHandlers())
	table.Element("dt", cmdspec.ElementHandlers{
		Start: func(*cmdspec.Attrs) error {
			w.flushParagraph()
			w.spool("=item B<")

			return nil
		},
		End: func() error {
			w.spool(">")
			w.flushParagraph()

			return nil
		},
	})
	table.Element("dd", cmdspec.ElementHandlers{
		Start: func(*cmdspec.Attrs) error {
			w.flushParagraph()

			return nil
		},
		End: func() error {
			w.flushParagraph()

			return nil
		},
	})
	table.Element("vspace", cmdspec.ElementHandlers{Start: func(*cmdspec.Attrs) error {
		w.flushParagraph()
		w.out.write("Z<>\n\n")

		return nil
	}})
	table.Element("pre", cmdspec.ElementHandlers{
		Start: func(*cmdspec.Attrs) error {
			w.flushParagraph()
			w.preDepth++

			return nil
		},
		End: func() error {
			w.flushParagraph()
			w.preDepth--

			return nil
		},
	})

	if err := cmdspec.NewReader(defs, table).Parse(src); err != nil {
		return err
	}

	w.flushSection()

	return w.out.err
}

// inline builds the handlers for a B/I/C formatting code.
func (w *Walker) inline(open string) cmdspec.ElementHandlers {
	return cmdspec.ElementHandlers{
		Start: func(*cmdspec.Attrs) error {
			w.spool(open)

			return nil
		},
		End: func() error {
			w.spool(">")

			return nil
		},
	}
}

// listHandlers builds the =over/=back bracket shared by ul and dl.
func (w *Walker) listHandlers() cmdspec.ElementHandlers {
	return cmdspec.ElementHandlers{
		Start: func(*cmdspec.Attrs) error {
			w.commandf("=over")

			return nil
		},
		End: func() error {
			w.commandf("=back")

			return nil
		},
	}
}

// quote escapes the POD special characters outside preformatted blocks.
func (w *Walker) quote(text string) string {
	if w.preDepth > 0 {
		return text
	}

	return podEscaper.Replace(text)
}

func (w *Walker) spool(part string) {
	w.paragraph = append(w.paragraph, part)
}

// onCData accumulates character data into the current paragraph. Outside
// pre blocks whitespace runs collapse and a paragraph that opens with text
// gets a zero-width marker so a leading "=" cannot be mistaken for a POD
// command.
func (w *Walker) onCData(text string) {
	if w.preDepth > 0 {
		w.spool(text)

		return
	}

	text = w.quote(text)
	text = wsRuns.ReplaceAllString(text, " ")

	if len(w.paragraph) == 0 {
		text = strings.TrimLeft(text, " ")
		if text == "" {
			return
		}

		w.spool("Z<>")
	}

	w.spool(text)
}

// flushParagraph writes the accumulated paragraph and clears it. A paragraph
// consisting solely of the zero-width marker is dropped. Preformatted
// paragraphs keep their whitespace and are indented into a POD verbatim
// block.
func (w *Walker) flushParagraph() {
	text := strings.Join(w.paragraph, "")
	w.paragraph = w.paragraph[:0]

	if w.preDepth > 0 {
		text = strings.Trim(text, "\n")
		if text == "" {
			return
		}

		for line := range strings.SplitSeq(text, "\n") {
			w.out.write(" " + line + "\n")
		}

		w.out.write("\n")

		return
	}

	text = wsRuns.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if text != "" && text != "Z<>" {
		w.out.write(text)
		w.out.write("\n\n")
	}
}

// commandf emits a POD command as its own paragraph.
func (w *Walker) commandf(format string, a ...any) {
	w.flushParagraph()
	w.spool(fmt.Sprintf(format, a...))
	w.flushParagraph()
}

// head1 closes the open section, emits the uppercased header, and starts
// buffering the new section under its unmodified title.
func (w *Walker) head1(title string) {
	w.flushSection()
	w.commandf("=head1 %s", strings.ToUpper(w.quote(title)))

	w.sectionTitle = title
	w.inSection = true
	w.out.start()
}

// flushSection flushes the paragraph and records the open section's body.
func (w *Walker) flushSection() {
	w.flushParagraph()

	if w.inSection {
		contents := w.out.endFlush()
		w.sections[w.sectionTitle] = contents
		w.inSection = false
	}
}

func (w *Walker) usageStart(attrs *cmdspec.Attrs) error {
	program, err := attrs.Require("program")
	if err != nil {
		return err
	}

	summary, err := attrs.Require("summary")
	if err != nil {
		return err
	}

	w.head1("Name")
	w.onCData(program + " - " + summary)
	w.flushParagraph()

	return nil
}

func (w *Walker) usageEnd() error {
	w.flushParagraph()
	w.flushSection()

	return nil
}

func (w *Walker) sectionStart(attrs *cmdspec.Attrs) error {
	name, err := attrs.Require("name")
	if err != nil {
		return err
	}

	w.head1(name)

	return nil
}

func (w *Walker) sectionEnd() error {
	w.flushParagraph()

	return nil
}

func (w *Walker) synopsisStart(*cmdspec.Attrs) error {
	for _, c := range w.suite.Commands {
		w.writeSynopsis(c, false)
	}

	w.commandf("See command-specific sections below for details.")

	return nil
}

// writeSynopsis emits one synopsis line for c. The terse form used by the
// program synopsis reduces options to a bracketed placeholder; the verbose
// form opening a command section lists every option, bundling the no-arg
// short flags first and then re-stating each option individually.
func (w *Walker) writeSynopsis(c *cmdspec.Command, verbose bool) {
	var sb strings.Builder

	if w.suite.Program != "" {
		fmt.Fprintf(&sb, "B<%s %s> ", w.quote(w.suite.Program), w.quote(c.Name))
	} else {
		fmt.Fprintf(&sb, "B<%s> ", w.quote(c.Name))
	}

	if !verbose {
		if len(c.OptGroups) > 0 {
			sb.WriteString(" [options]")
		}
	} else {
		var bundle []string

		for _, o := range c.Options() {
			if o.Short != "" && o.Arg == "" {
				bundle = append(bundle, o.Short)
			}
		}

		if len(bundle) > 0 {
			fmt.Fprintf(&sb, "[B<-%s>] ", w.quote(strings.Join(bundle, "")))
		}

		for _, o := range c.Options() {
			if o.Short != "" {
				argPart := ""
				if o.Arg != "" {
					argPart = "I<" + w.quote(o.Arg) + ">"
				}

				fmt.Fprintf(&sb, " [B<-%s>%s]", w.quote(o.Short), argPart)
			}

			argPart := ""
			if o.Arg != "" {
				argPart = "=I<" + w.quote(o.Arg) + ">"
			}

			fmt.Fprintf(&sb, " S<[B<--%s>%s]>", w.quote(o.Long), argPart)
		}
	}

	optDepth := 0

	for _, a := range c.Arguments {
		name := a.Name
		if a.Repeat {
			name += "..."
		}

		argS := "I<" + w.quote(name) + ">"
		if a.Optional {
			argS = "[" + argS
			optDepth++
		}

		sb.WriteString(" " + argS)
	}

	sb.WriteString(strings.Repeat("]", optDepth))

	w.commandf("%s", sb.String())
}

func (w *Walker) commandStart(attrs *cmdspec.Attrs) error {
	namesAttr, err := attrs.Require("names")
	if err != nil {
		return err
	}

	name := strings.TrimSpace(strings.Split(namesAttr, ",")[0])

	c := w.suite.Command(name)
	if c == nil {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	w.current = c
	w.head1(CommandSectionTitle(c))
	w.writeSynopsis(c, true)

	return nil
}

func (w *Walker) commandEnd() error {
	w.flushParagraph()

	type backref struct {
		group *cmdspec.OptGroup
		flag  string
	}

	var refs []backref

	for _, g := range w.current.OptGroups {
		if g.Private {
			continue
		}

		for _, o := range g.Options {
			if o.Short != "" {
				refs = append(refs, backref{g, "-" + o.Short})
			}

			refs = append(refs, backref{g, "--" + o.Long})
		}
	}

	fmtRef := func(r backref) string {
		return fmt.Sprintf("L<B<%s>|/%s>", w.quote(r.flag), OptGroupSectionTitle(r.group))
	}

	switch {
	case w.fullOptGroups:
		// Shared sections are inlined at the reference site instead.
	case len(refs) == 1:
		w.commandf("The %s option is described above.", fmtRef(refs[0]))

	case len(refs) > 1:
		parts := make([]string, 0, len(refs)-1)
		for _, r := range refs[:len(refs)-1] {
			parts = append(parts, fmtRef(r))
		}

		w.commandf("The %s, and %s options are described above.",
			strings.Join(parts, ", "), fmtRef(refs[len(refs)-1]))
	}

	w.current = nil

	return nil
}

func (w *Walker) optgroupStart(attrs *cmdspec.Attrs) error {
	name, err := attrs.Require("name")
	if err != nil {
		return err
	}

	g := w.suite.OptGroup(name)
	if g == nil {
		return fmt.Errorf("%w: %q", cmdspec.ErrUnknownOptGroup, name)
	}

	if !g.Private {
		w.head1(OptGroupSectionTitle(g))
	}

	w.commandf("=over")

	return nil
}

func (w *Walker) optgroupEnd() error {
	w.commandf("=back")

	return nil
}

func (w *Walker) optionStart(attrs *cmdspec.Attrs) error {
	long, err := attrs.Require("long")
	if err != nil {
		return err
	}

	short := attrs.String("short", "")
	arg := attrs.String("arg", "")

	var label string

	switch {
	case arg == "" && short == "":
		label = fmt.Sprintf("B<--%s>", w.quote(long))
	case arg == "":
		label = fmt.Sprintf("B<-%s>, B<--%s>", w.quote(short), w.quote(long))
	case short == "":
		label = fmt.Sprintf("B<--%s>=I<%s>", w.quote(long), w.quote(arg))
	default:
		label = fmt.Sprintf("B<-%s>I<%s>, B<--%s>=I<%s>",
			w.quote(short), w.quote(arg), w.quote(long), w.quote(arg))
	}

	w.commandf("=item %s", label)

	return nil
}

func (w *Walker) optionEnd() error {
	w.flushParagraph()

	return nil
}

func (w *Walker) argumentStart(attrs *cmdspec.Attrs) error {
	name, err := attrs.Require("name")
	if err != nil {
		return err
	}

	w.flushParagraph()
	w.commandf("=over")
	w.commandf("=item I<%s>", w.quote(name))

	return nil
}

func (w *Walker) argumentEnd() error {
	w.commandf("=back")

	return nil
}

func (w *Walker) optgroupRefStart(attrs *cmdspec.Attrs) error {
	if !w.fullOptGroups {
		return nil
	}

	name, err := attrs.Require("name")
	if err != nil {
		return err
	}

	g := w.suite.OptGroup(name)
	if g == nil {
		return fmt.Errorf("%w: %q", cmdspec.ErrUnknownOptGroup, name)
	}

	contents, ok := w.sections[OptGroupSectionTitle(g)]
	if !ok {
		return fmt.Errorf("%w: %q has no documentation section", cmdspec.ErrUnknownOptGroup, name)
	}

	w.out.write(contents)

	return nil
}
