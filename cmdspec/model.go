package cmdspec

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Sentinel errors returned during ingest and IR validation.
var (
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidBool        = errors.New("invalid bool value")
	ErrInvalidOption      = errors.New("invalid option")
	ErrConflictingOptions = errors.New("conflicting options")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrArgumentOrder      = errors.New("argument order")
	ErrInvalidContext     = errors.New("invalid context")
	ErrUnknownOptGroup    = errors.New("unknown optgroup")
)

var (
	idPattern     = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	idDashPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)
)

// CheckID validates a plain identifier.
func CheckID(s string) error {
	if !idPattern.MatchString(s) {
		return fmt.Errorf("%w: invalid ID %q", ErrInvalidName, s)
	}

	return nil
}

// CheckIDDash validates an identifier that may contain interior dashes.
func CheckIDDash(s string) error {
	if !idDashPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidName, s)
	}

	return nil
}

// ParseBool parses the boolean attribute forms accepted by the declarations
// schema: yes/true/1 and no/false/0.
func ParseBool(s string) (bool, error) {
	switch s {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	}

	return false, fmt.Errorf("%w: %q", ErrInvalidBool, s)
}

// symbolize maps a dash-identifier to its C symbol form.
func symbolize(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Param is one parameter of a generated C function.
type Param struct {
	Type string
	Name string
}

// FuncSig describes the signature of a generated C function.
type FuncSig struct {
	Ret    string
	Name   string
	Params []Param
}

// ParamList renders the comma-separated C parameter list.
func (f FuncSig) ParamList() string {
	parts := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		parts = append(parts, p.Type+" "+p.Name)
	}

	return strings.Join(parts, ", ")
}

// Option is a single long (and optionally short) command-line option.
//
// Group is set when the option is added to an [OptGroup].
type Option struct {
	Group      *OptGroup
	Short      string
	Long       string
	Symbol     string
	Arg        string
	Type       string
	Accumulate string
}

// NewOption validates the option attributes and builds an [Option].
// Empty strings stand for absent attributes.
func NewOption(short, long, arg, typ, accumulate string) (*Option, error) {
	if short != "" && len(short) != 1 {
		return nil, fmt.Errorf("%w: illegal short option name %q", ErrInvalidOption, short)
	}

	if arg == "" && typ != "" {
		return nil, fmt.Errorf("%w: cannot specify type without arg", ErrInvalidOption)
	}

	if err := CheckIDDash(long); err != nil {
		return nil, err
	}

	symbol := symbolize(long)
	if err := CheckID(symbol); err != nil {
		return nil, err
	}

	if accumulate != "" {
		if err := CheckID(accumulate); err != nil {
			return nil, err
		}
	}

	return &Option{
		Short:      short,
		Long:       long,
		Symbol:     symbol,
		Arg:        arg,
		Type:       typ,
		Accumulate: accumulate,
	}, nil
}

// OptGroup is a named, ordered collection of options that commands attach by
// reference. Private groups are declared inline within a command body.
type OptGroup struct {
	Name           string
	Symbol         string
	Human          string
	Options        []*Option
	Forward        bool
	ExportEmitArgs bool
	Private        bool

	known         map[string]struct{}
	accumulations map[string]struct{}
}

// NewOptGroup validates the group attributes and builds an empty [OptGroup].
func NewOptGroup(name string, forward, exportEmitArgs bool, human string) (*OptGroup, error) {
	if err := CheckID(name); err != nil {
		return nil, err
	}

	return &OptGroup{
		Name:           name,
		Symbol:         name,
		Human:          human,
		Forward:        forward,
		ExportEmitArgs: exportEmitArgs,
		known:          make(map[string]struct{}),
		accumulations:  make(map[string]struct{}),
	}, nil
}

// AddOption appends o to the group after checking that its long name, short
// name, and symbol are all unused within the group.
func (g *OptGroup) AddOption(o *Option) error {
	keys := []string{"long:" + o.Long, "symbol:" + o.Symbol}
	if o.Short != "" {
		keys = append(keys, "short:"+o.Short)
	}

	var conflicts []string

	for _, k := range keys {
		if _, ok := g.known[k]; ok {
			conflicts = append(conflicts, k)
		}
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)

		return fmt.Errorf("%w: %s", ErrConflictingOptions, strings.Join(conflicts, ", "))
	}

	for _, k := range keys {
		g.known[k] = struct{}{}
	}

	o.Group = g
	g.Options = append(g.Options, o)

	if o.Accumulate != "" {
		g.accumulations[o.Accumulate] = struct{}{}
	}

	return nil
}

// Accumulations returns the accumulator identifiers declared by the group's
// options, sorted for deterministic emission.
func (g *OptGroup) Accumulations() []string {
	accs := make([]string, 0, len(g.accumulations))
	for a := range g.accumulations {
		accs = append(accs, a)
	}

	sort.Strings(accs)

	return accs
}

// conflictsWith returns the option keys shared between g and other, sorted.
func (g *OptGroup) conflictsWith(other *OptGroup) []string {
	var shared []string

	for k := range g.known {
		if _, ok := other.known[k]; ok {
			shared = append(shared, k)
		}
	}

	sort.Strings(shared)

	return shared
}

// StructName is the C record type holding the group's parsed options.
func (g *OptGroup) StructName() string {
	return g.Name + "_opts"
}

// EmitArgsFunc is the signature of the group's argv re-serializer.
func (g *OptGroup) EmitArgsFunc() FuncSig {
	return FuncSig{
		Ret:  "void",
		Name: "emit_args_" + g.Name + "_opts",
		Params: []Param{
			{"struct strlist*", "dest"},
			{"const struct " + g.StructName() + "*", "info"},
		},
	}
}

// Argument is a positional argument of a command.
type Argument struct {
	Name     string
	Symbol   string
	Type     string
	Optional bool
	Repeat   bool
}

// NewArgument validates the argument attributes and builds an [Argument].
func NewArgument(name, typ string, optional, repeat bool) (*Argument, error) {
	if err := CheckIDDash(name); err != nil {
		return nil, err
	}

	symbol := symbolize(name)
	if err := CheckID(symbol); err != nil {
		return nil, err
	}

	return &Argument{
		Name:     name,
		Symbol:   symbol,
		Type:     typ,
		Optional: optional,
		Repeat:   repeat,
	}, nil
}

// Command is a subcommand of the generated program. It accumulates optgroup
// references and arguments while its declaration scope is open; HasDoc is
// attached late, after documentation extraction.
type Command struct {
	Name            string
	Symbol          string
	AltNames        []string
	OptGroups       []*OptGroup
	Arguments       []*Argument
	ExportParseArgs bool
	HasDoc          bool

	knownArguments map[string]struct{}
}

// NewCommand validates the command names and builds an empty [Command].
// The first name is primary; the rest become aliases.
func NewCommand(names []string, exportParseArgs bool) (*Command, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no names given", ErrInvalidName)
	}

	for _, n := range names {
		if err := CheckIDDash(n); err != nil {
			return nil, err
		}
	}

	symbol := symbolize(names[0])
	if err := CheckID(symbol); err != nil {
		return nil, err
	}

	return &Command{
		Name:            names[0],
		Symbol:          symbol,
		AltNames:        slices.Clone(names[1:]),
		ExportParseArgs: exportParseArgs,
		knownArguments:  make(map[string]struct{}),
	}, nil
}

// AllNames returns the primary name followed by the aliases.
func (c *Command) AllNames() []string {
	return append([]string{c.Name}, c.AltNames...)
}

// Options returns every option of every attached group, in declaration order.
func (c *Command) Options() []*Option {
	var opts []*Option
	for _, g := range c.OptGroups {
		opts = append(opts, g.Options...)
	}

	return opts
}

// AddOptGroup attaches g after checking that its option keys are disjoint
// from every group already attached.
func (c *Command) AddOptGroup(g *OptGroup) error {
	for _, existing := range c.OptGroups {
		if shared := existing.conflictsWith(g); len(shared) > 0 {
			return fmt.Errorf("%w: optgroup %s conflicts with optgroup %s: %s",
				ErrConflictingOptions, g.Name, existing.Name, strings.Join(shared, ", "))
		}
	}

	c.OptGroups = append(c.OptGroups, g)

	return nil
}

// AddArgument appends a to the argument list after checking name uniqueness
// and ordering: no mandatory argument after an optional one, and a repeated
// argument must be last.
func (c *Command) AddArgument(a *Argument) error {
	if _, ok := c.knownArguments[a.Name]; ok {
		return fmt.Errorf("%w: duplicate argument name %q", ErrDuplicateName, a.Name)
	}

	if len(c.Arguments) > 0 {
		last := c.Arguments[len(c.Arguments)-1]
		if last.Optional && !a.Optional {
			return fmt.Errorf("%w: mandatory argument follows optional argument", ErrArgumentOrder)
		}

		if last.Repeat {
			return fmt.Errorf("%w: if argument is repeated, it must be last", ErrArgumentOrder)
		}
	}

	c.Arguments = append(c.Arguments, a)
	c.knownArguments[a.Name] = struct{}{}

	return nil
}

// StructName is the C record type holding the command's parsed arguments.
func (c *Command) StructName() string {
	return "cmd_" + c.Name + "_info"
}

// DispatchFunc is the signature of the command's registry entry point.
func (c *Command) DispatchFunc() FuncSig {
	return FuncSig{
		Ret:  "int",
		Name: c.Symbol + "_dispatch",
		Params: []Param{
			{"int", "argc"},
			{"const char**", "argv"},
		},
	}
}

// MainFunc is the signature of the command's business-logic entry point.
func (c *Command) MainFunc() FuncSig {
	return FuncSig{
		Ret:  "int",
		Name: c.Symbol + "_main",
		Params: []Param{
			{"const struct cmd_" + c.Symbol + "_info*", "info"},
		},
	}
}

// MakeArgsFunc is the signature of the command's argv re-serializer.
func (c *Command) MakeArgsFunc() FuncSig {
	return FuncSig{
		Ret:  "struct strlist*",
		Name: "make_args_cmd_" + c.Name,
		Params: []Param{
			{"unsigned", "which"},
			{"const struct cmd_" + c.Symbol + "_info*", "info"},
		},
	}
}

// ParseArgsFunc is the signature of the command's argument parser.
func (c *Command) ParseArgsFunc() FuncSig {
	return FuncSig{
		Ret:  "void",
		Name: "parse_args_cmd_" + c.Symbol,
		Params: []Param{
			{"struct " + c.StructName() + "*", "ret"},
			{"int", "argc"},
			{"const char**", "argv"},
		},
	}
}

// Suite is the intermediate representation produced by ingest: every optgroup
// (shared and private) and every command, in declaration order, plus the
// program identity captured from the usage element.
type Suite struct {
	Program   string
	Summary   string
	OptGroups []*OptGroup
	Commands  []*Command
}

// Command returns the command with the given primary name, or nil.
func (s *Suite) Command(name string) *Command {
	for _, c := range s.Commands {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// OptGroup returns the last-declared optgroup with the given name, or nil.
// Last-declared wins when private groups reuse a name; optgroup-reference
// elements resolve to the first declaration during ingest instead.
func (s *Suite) OptGroup(name string) *OptGroup {
	for i := len(s.OptGroups) - 1; i >= 0; i-- {
		if s.OptGroups[i].Name == name {
			return s.OptGroups[i]
		}
	}

	return nil
}
