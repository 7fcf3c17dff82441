package cmdspec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Sentinel errors returned by the reader layer.
var (
	ErrBadConditional     = errors.New("badly formed ifdef")
	ErrUnknownInstruction = errors.New("unknown processing instruction")
	ErrUnknownElement     = errors.New("unknown element")
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrMissingAttribute   = errors.New("missing attribute")
	ErrReadSource         = errors.New("read source")
)

// MarkupTags lists the documentation elements that may appear anywhere in a
// declarations file. The ingest pass ignores them; the documentation pass
// installs active handlers for each.
var MarkupTags = []string{
	"b", "i", "tt", "section", "ul", "li",
	"dl", "dt", "dd", "usage", "synopsis",
	"vspace", "pre",
}

// Attrs is the attribute set of one element, with dashes in attribute names
// already mapped to underscores. Accessors consume keys so that [Attrs.Close]
// can reject attributes the element does not declare.
type Attrs struct {
	m map[string]string
}

func newAttrs(xmlAttrs []xml.Attr) *Attrs {
	m := make(map[string]string, len(xmlAttrs))
	for _, a := range xmlAttrs {
		m[strings.ReplaceAll(a.Name.Local, "-", "_")] = a.Value
	}

	return &Attrs{m: m}
}

// String consumes key and returns its value, or def when absent.
func (a *Attrs) String(key, def string) string {
	if v, ok := a.m[key]; ok {
		delete(a.m, key)

		return v
	}

	return def
}

// Require consumes key and returns its value, failing when absent.
func (a *Attrs) Require(key string) (string, error) {
	v, ok := a.m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}

	delete(a.m, key)

	return v, nil
}

// Bool consumes key and parses it as a schema boolean, returning def when
// absent.
func (a *Attrs) Bool(key string, def bool) (bool, error) {
	v, ok := a.m[key]
	if !ok {
		return def, nil
	}

	delete(a.m, key)

	b, err := ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}

	return b, nil
}

// Close fails if any attribute was left unconsumed.
func (a *Attrs) Close() error {
	if len(a.m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return fmt.Errorf("%w: %s", ErrUnknownAttribute, strings.Join(keys, ", "))
}

// ElementHandlers holds the start and end callbacks for one element kind.
// Either callback may be nil.
type ElementHandlers struct {
	Start func(attrs *Attrs) error
	End   func() error
}

// HandlerTable maps element names to handlers plus an optional character-data
// callback. The ingest pass and the documentation pass share one reader type
// and differ only in the table they install.
type HandlerTable struct {
	elements map[string]ElementHandlers
	cdata    func(text string) error
}

// NewHandlerTable returns an empty table.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{elements: make(map[string]ElementHandlers)}
}

// Element registers handlers for name, replacing any previous registration.
func (t *HandlerTable) Element(name string, h ElementHandlers) {
	t.elements[name] = h
}

// CharData registers the character-data callback.
func (t *HandlerTable) CharData(fn func(text string) error) {
	t.cdata = fn
}

// IgnoreMarkup registers no-op handlers for every markup tag. Passes that
// only care about declarations install this first and the markup events
// vanish; the documentation pass overrides the entries it needs.
func (t *HandlerTable) IgnoreMarkup() {
	for _, tag := range MarkupTags {
		t.elements[tag] = ElementHandlers{}
	}
}

// condFrame is one ifdef/ifndef conditional, recording the element depth at
// which it opened so the matching endif can be checked.
type condFrame struct {
	enabled bool
	level   int
}

// Reader drives a handler table over a declarations file. It evaluates
// ifdef/ifndef/endif processing instructions against the definitions set and
// suppresses element and character events inside disabled regions, while
// element-depth counting continues.
type Reader struct {
	defs  map[string]struct{}
	table *HandlerTable
}

// NewReader builds a reader over the given definitions set and handler table.
func NewReader(defs []string, table *HandlerTable) *Reader {
	ds := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		ds[d] = struct{}{}
	}

	return &Reader{defs: ds, table: table}
}

// Parse walks src, dispatching events through the handler table.
func (r *Reader) Parse(src []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(src))

	var (
		frames []condFrame
		level  int
	)

	enabled := func() bool {
		for _, f := range frames {
			if !f.enabled {
				return false
			}
		}

		return true
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadSource, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			level++

			if !enabled() {
				continue
			}

			h, ok := r.table.elements[t.Name.Local]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownElement, t.Name.Local)
			}

			if h.Start != nil {
				if err := h.Start(newAttrs(t.Attr)); err != nil {
					return fmt.Errorf("<%s>: %w", t.Name.Local, err)
				}
			}

		case xml.EndElement:
			if enabled() {
				h, ok := r.table.elements[t.Name.Local]
				if ok && h.End != nil {
					if err := h.End(); err != nil {
						return fmt.Errorf("</%s>: %w", t.Name.Local, err)
					}
				}
			}

			level--

		case xml.CharData:
			if enabled() && r.table.cdata != nil {
				if err := r.table.cdata(string(t)); err != nil {
					return err
				}
			}

		case xml.ProcInst:
			frames, err = r.instruction(t, frames, level)
			if err != nil {
				return err
			}
		}
	}

	if len(frames) > 0 {
		return fmt.Errorf("%w: unterminated ifdef", ErrBadConditional)
	}

	return nil
}

// instruction evaluates one processing instruction against the conditional
// stack. Instructions are processed even inside disabled regions so that
// nested conditionals pair up.
func (r *Reader) instruction(pi xml.ProcInst, frames []condFrame, level int) ([]condFrame, error) {
	args := strings.Fields(string(pi.Inst))

	switch pi.Target {
	case "xml":
		// The XML declaration arrives as a processing instruction.
		return frames, nil

	case "ifdef", "ifndef":
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: no ifdef condition supplied", ErrBadConditional)
		}

		if len(args) > 1 {
			return nil, fmt.Errorf("%w: ifdef syntax error", ErrBadConditional)
		}

		_, defined := r.defs[args[0]]
		enable := defined == (pi.Target == "ifdef")

		return append(frames, condFrame{enabled: enable, level: level}), nil

	case "endif":
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: invalid endif syntax", ErrBadConditional)
		}

		if len(frames) == 0 {
			return nil, fmt.Errorf("%w: unmatched endif", ErrBadConditional)
		}

		top := frames[len(frames)-1]
		if top.level != level {
			return nil, fmt.Errorf("%w: levels do not match", ErrBadConditional)
		}

		return frames[:len(frames)-1], nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownInstruction, pi.Target)
}
