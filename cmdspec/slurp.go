package cmdspec

import (
	"fmt"
	"log/slog"
	"strings"
)

// scopeKind identifies the declaration element a scope frame belongs to.
type scopeKind int

const (
	scopeCommand scopeKind = iota
	scopeOptGroup
	scopeOption
	scopeArgument
	scopeOptGroupRef
)

func (k scopeKind) String() string {
	switch k {
	case scopeCommand:
		return "command"
	case scopeOptGroup:
		return "optgroup"
	case scopeOption:
		return "option"
	case scopeArgument:
		return "argument"
	case scopeOptGroupRef:
		return "optgroup-reference"
	}

	return "unknown"
}

// scopeFrame is one open declaration element and the partially built entity
// it carries.
type scopeFrame struct {
	kind     scopeKind
	command  *Command
	group    *OptGroup
	option   *Option
	argument *Argument
	ref      *OptGroup
}

// slurper builds the IR from the declaration elements of a source file,
// ignoring all markup.
type slurper struct {
	suite         *Suite
	stack         []scopeFrame
	knownCommands map[string]struct{}
}

// Slurp parses src with the given definitions set and returns the IR.
// Markup elements are ignored except that the usage element contributes the
// program identity used later by the documentation walker.
func Slurp(src []byte, defs []string) (*Suite, error) {
	s := &slurper{
		suite:         &Suite{},
		knownCommands: make(map[string]struct{}),
	}

	table := NewHandlerTable()
	table.IgnoreMarkup()
	table.Element("command", ElementHandlers{Start: s.commandStart, End: s.commandEnd})
	table.Element("optgroup", ElementHandlers{Start: s.optgroupStart, End: s.optgroupEnd})
	table.Element("option", ElementHandlers{Start: s.optionStart, End: s.optionEnd})
	table.Element("argument", ElementHandlers{Start: s.argumentStart, End: s.argumentEnd})
	table.Element("optgroup-reference", ElementHandlers{Start: s.optgroupRefStart, End: s.optgroupRefEnd})
	table.Element("usage", ElementHandlers{Start: s.usageStart})

	if err := NewReader(defs, table).Parse(src); err != nil {
		return nil, err
	}

	return s.suite, nil
}

func (s *slurper) top() *scopeFrame {
	if len(s.stack) == 0 {
		return nil
	}

	return &s.stack[len(s.stack)-1]
}

func (s *slurper) push(f scopeFrame) {
	s.stack = append(s.stack, f)
}

func (s *slurper) pop() scopeFrame {
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	return f
}

// openCommand returns the command frame enclosing the current scope, or nil.
func (s *slurper) openCommand() *Command {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].kind == scopeCommand {
			return s.stack[i].command
		}
	}

	return nil
}

func (s *slurper) requireTop(kind scopeKind, element string) (*scopeFrame, error) {
	top := s.top()
	if top == nil || top.kind != kind {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContext, element)
	}

	return top, nil
}

func (s *slurper) commandStart(attrs *Attrs) error {
	if len(s.stack) != 0 {
		return fmt.Errorf("%w: command", ErrInvalidContext)
	}

	namesAttr, err := attrs.Require("names")
	if err != nil {
		return err
	}

	exportParseArgs, err := attrs.Bool("export_parse_args", false)
	if err != nil {
		return err
	}

	if err := attrs.Close(); err != nil {
		return err
	}

	names := strings.Split(namesAttr, ",")

	cmd, err := NewCommand(names, exportParseArgs)
	if err != nil {
		return err
	}

	// The symbol joins the name set: an alias of another command may not
	// collide with it either.
	nameset := append(cmd.AllNames(), cmd.Symbol)

	var dups []string

	seen := make(map[string]struct{})

	for _, n := range nameset {
		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}

		if _, ok := s.knownCommands[n]; ok {
			dups = append(dups, n)
		}
	}

	if len(dups) > 0 {
		return fmt.Errorf("%w: duplicate command names: %s", ErrDuplicateName, strings.Join(dups, ", "))
	}

	for n := range seen {
		s.knownCommands[n] = struct{}{}
	}

	s.push(scopeFrame{kind: scopeCommand, command: cmd})

	return nil
}

func (s *slurper) commandEnd() error {
	f := s.pop()
	s.suite.Commands = append(s.suite.Commands, f.command)
	slog.Debug("added command", slog.String("name", f.command.Name))

	return nil
}

func (s *slurper) optgroupStart(attrs *Attrs) error {
	if top := s.top(); top != nil && top.kind != scopeCommand {
		return fmt.Errorf("%w: optgroup", ErrInvalidContext)
	}

	name, err := attrs.Require("name")
	if err != nil {
		return err
	}

	forward, err := attrs.Bool("forward", true)
	if err != nil {
		return err
	}

	exportEmitArgs, err := attrs.Bool("export_emit_args", false)
	if err != nil {
		return err
	}

	human := attrs.String("human", "")

	if err := attrs.Close(); err != nil {
		return err
	}

	g, err := NewOptGroup(name, forward, exportEmitArgs, human)
	if err != nil {
		return err
	}

	g.Private = s.openCommand() != nil

	s.push(scopeFrame{kind: scopeOptGroup, group: g})

	return nil
}

func (s *slurper) optgroupEnd() error {
	f := s.pop()
	s.suite.OptGroups = append(s.suite.OptGroups, f.group)
	slog.Debug("added optgroup", slog.String("name", f.group.Name))

	if cmd := s.openCommand(); cmd != nil {
		return cmd.AddOptGroup(f.group)
	}

	return nil
}

func (s *slurper) optionStart(attrs *Attrs) error {
	if _, err := s.requireTop(scopeOptGroup, "option"); err != nil {
		return err
	}

	long, err := attrs.Require("long")
	if err != nil {
		return err
	}

	short := attrs.String("short", "")
	arg := attrs.String("arg", "")
	typ := attrs.String("type", "")
	accumulate := attrs.String("accumulate", "")

	if err := attrs.Close(); err != nil {
		return err
	}

	o, err := NewOption(short, long, arg, typ, accumulate)
	if err != nil {
		return err
	}

	s.push(scopeFrame{kind: scopeOption, option: o})

	return nil
}

func (s *slurper) optionEnd() error {
	f := s.pop()

	top, err := s.requireTop(scopeOptGroup, "option")
	if err != nil {
		return err
	}

	if err := top.group.AddOption(f.option); err != nil {
		return err
	}

	slog.Debug("added option", slog.String("long", f.option.Long))

	return nil
}

func (s *slurper) argumentStart(attrs *Attrs) error {
	if _, err := s.requireTop(scopeCommand, "argument"); err != nil {
		return err
	}

	name, err := attrs.Require("name")
	if err != nil {
		return err
	}

	optional, err := attrs.Bool("optional", false)
	if err != nil {
		return err
	}

	repeat, err := attrs.Bool("repeat", false)
	if err != nil {
		return err
	}

	typ := attrs.String("type", "string")

	if err := attrs.Close(); err != nil {
		return err
	}

	a, err := NewArgument(name, typ, optional, repeat)
	if err != nil {
		return err
	}

	s.push(scopeFrame{kind: scopeArgument, argument: a})

	return nil
}

func (s *slurper) argumentEnd() error {
	f := s.pop()

	top, err := s.requireTop(scopeCommand, "argument")
	if err != nil {
		return err
	}

	return top.command.AddArgument(f.argument)
}

func (s *slurper) optgroupRefStart(attrs *Attrs) error {
	if _, err := s.requireTop(scopeCommand, "optgroup-reference"); err != nil {
		return err
	}

	name, err := attrs.Require("name")
	if err != nil {
		return err
	}

	if err := attrs.Close(); err != nil {
		return err
	}

	// First declaration wins, matching slurp order.
	for _, g := range s.suite.OptGroups {
		if g.Name == name {
			s.push(scopeFrame{kind: scopeOptGroupRef, ref: g})

			return nil
		}
	}

	return fmt.Errorf("%w: no optgroup called %q", ErrUnknownOptGroup, name)
}

func (s *slurper) optgroupRefEnd() error {
	f := s.pop()

	top, err := s.requireTop(scopeCommand, "optgroup-reference")
	if err != nil {
		return err
	}

	return top.command.AddOptGroup(f.ref)
}

// usageStart records the program identity for the documentation walker.
// The usage element is otherwise markup and contributes nothing to the IR.
func (s *slurper) usageStart(attrs *Attrs) error {
	s.suite.Program = attrs.String("program", "")
	s.suite.Summary = attrs.String("summary", "")

	return nil
}
