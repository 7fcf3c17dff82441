package cgen

import (
	"fmt"
	"io"
	"strings"

	"go.jacobcolvin.com/cmdgen/cmdspec"
)

// Writer emits C source to a single append-only stream, tracking the current
// indentation. Write errors are sticky; check [Writer.Err] once after
// emission instead of on every line.
type Writer struct {
	w      io.Writer
	err    error
	indent int
}

// NewWriter creates a [Writer] over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first write error encountered, if any.
func (w *Writer) Err() error {
	return w.err
}

// Linef writes one line at the current indentation, two spaces per level.
func (w *Writer) Linef(format string, a ...any) {
	if w.err != nil {
		return
	}

	_, err := fmt.Fprintf(w.w, "%s%s\n", strings.Repeat("  ", w.indent), fmt.Sprintf(format, a...))
	if err != nil {
		w.err = err
	}
}

// Indented runs body one level deeper, then writes after when non-empty.
func (w *Writer) Indented(after string, body func()) {
	w.indent++
	body()
	w.indent--

	if after != "" {
		w.Linef("%s", after)
	}
}

// If writes an if block around body. cond is emitted verbatim.
func (w *Writer) If(cond string, body func()) {
	w.Linef("if (%s) {", cond)
	w.Indented("}", body)
}

// While writes a while loop around body.
func (w *Writer) While(cond string, body func()) {
	w.Linef("while (%s) {", cond)
	w.Indented("}", body)
}

// Switch writes a switch statement, passing body a [SwitchWriter] for its
// cases.
func (w *Writer) Switch(expr string, body func(s *SwitchWriter)) {
	w.Linef("switch (%s) {", expr)
	w.Indented("}", func() {
		body(&SwitchWriter{w: w})
	})
}

// SwitchWriter emits the cases of one switch statement.
type SwitchWriter struct {
	w *Writer
}

// Case writes one case block; every case breaks.
func (s *SwitchWriter) Case(value string, body func()) {
	s.w.Linef("case %s: {", value)
	s.w.Indented("}", func() {
		body()
		s.w.Linef("break;")
	})
}

// Default writes the default block; it breaks like every case.
func (s *SwitchWriter) Default(body func()) {
	s.w.Linef("default: {")
	s.w.Indented("}", func() {
		body()
		s.w.Linef("break;")
	})
}

// StructDef writes a struct definition around body.
func (w *Writer) StructDef(name string, body func()) {
	w.Linef("struct %s {", name)
	w.Indented("};", body)
}

// FuncDef writes a function definition around body, return type on its own
// line.
func (w *Writer) FuncDef(sig cmdspec.FuncSig, body func()) {
	w.Linef("%s", sig.Ret)
	w.Linef("%s(%s)", sig.Name, sig.ParamList())
	w.Linef("{")
	w.Indented("}", body)
}

// Prototype writes a function prototype, optionally static.
func (w *Writer) Prototype(sig cmdspec.FuncSig, static bool) {
	qual := ""
	if static {
		qual = "static "
	}

	w.Linef("%s%s %s(%s);", qual, sig.Ret, sig.Name, sig.ParamList())
}

// SysInclude writes an angle-bracket include.
func (w *Writer) SysInclude(header string) {
	w.Linef("#include <%s>", header)
}

// Include writes a quoted include.
func (w *Writer) Include(header string) {
	w.Linef("#include \"%s\"", header)
}

// charLiteral escapes one byte for a C literal delimited by quote. The
// backslash and the active quote take the one-character escape; control
// bytes and DEL take a three-digit octal escape; everything else passes
// through verbatim.
func charLiteral(c, quote byte) string {
	if c == quote || c == '\\' {
		return "\\" + string(c)
	}

	if c <= 0x1f || c == 0x7f {
		return fmt.Sprintf("\\%03o", c)
	}

	return string([]byte{c})
}

// QuoteChar renders a C character literal.
func QuoteChar(c byte) string {
	return "'" + charLiteral(c, '\'') + "'"
}

// QuoteString renders a C string literal for the bytes of s.
func QuoteString(s string) string {
	var sb strings.Builder

	sb.WriteByte('"')

	for i := range len(s) {
		sb.WriteString(charLiteral(s[i], '"'))
	}

	sb.WriteByte('"')

	return sb.String()
}
