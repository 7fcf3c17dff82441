package cmdspec

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Output modes accepted by the generator.
const (
	OpHeader = "h"
	OpImpl   = "c"
	OpPod    = "pod"
)

// Ops lists every valid output mode, sorted.
func Ops() []string {
	return []string{OpImpl, OpHeader, OpPod}
}

// CheckOp validates an output mode selector.
func CheckOp(op string) error {
	for _, known := range Ops() {
		if op == known {
			return nil
		}
	}

	return fmt.Errorf("%w: unknown op %q", ErrInvalidName, op)
}

// Flags holds CLI flag names for generator configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Define   string
	Includes string
	Debug    string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds CLI flag values for generator configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags].
type Config struct {
	Flags Flags

	// Defines seeds the definitions set consulted by ifdef conditionals.
	Defines []string
	// Includes is accepted for compatibility with existing build scripts
	// and does not affect output.
	Includes string
	// Debug raises the log level to debug.
	Debug bool
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Define:   "define",
		Includes: "includes",
		Debug:    "debug",
	}

	return f.NewConfig()
}

// RegisterFlags adds generator flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&c.Defines, c.Flags.Define, "D", nil,
		"define MACRO for ifdef conditionals (repeatable)")
	flags.StringVar(&c.Includes, c.Flags.Includes, "",
		"include file list (reserved)")
	flags.BoolVar(&c.Debug, c.Flags.Debug, false,
		"enable debugging output")
}

// RegisterCompletions registers shell completions for generator flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	err := cmd.RegisterFlagCompletionFunc(c.Flags.Define, noFileComp)
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Define, err)
	}

	return nil
}
