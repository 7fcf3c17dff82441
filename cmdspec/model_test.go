package cmdspec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/cmdgen/cmdspec"
)

func TestCheckID(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		ok    bool
	}{
		"plain":             {input: "foo", ok: true},
		"underscore prefix": {input: "_foo", ok: true},
		"digits":            {input: "foo2", ok: true},
		"dash":              {input: "foo-bar", ok: false},
		"leading digit":     {input: "2foo", ok: false},
		"empty":             {input: "", ok: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := cmdspec.CheckID(tc.input)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.ErrorIs(t, err, cmdspec.ErrInvalidName)
			}
		})
	}
}

func TestCheckIDDash(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		ok    bool
	}{
		"plain":         {input: "foo", ok: true},
		"dash":          {input: "foo-bar", ok: true},
		"leading dash":  {input: "-foo", ok: false},
		"leading digit": {input: "2foo", ok: false},
		"space":         {input: "foo bar", ok: false},
		"empty":         {input: "", ok: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := cmdspec.CheckIDDash(tc.input)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.ErrorIs(t, err, cmdspec.ErrInvalidName)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input       string
		want        bool
		expectError bool
	}{
		"yes":   {input: "yes", want: true},
		"true":  {input: "true", want: true},
		"one":   {input: "1", want: true},
		"no":    {input: "no", want: false},
		"false": {input: "false", want: false},
		"zero":  {input: "0", want: false},
		"caps":  {input: "YES", expectError: true},
		"junk":  {input: "maybe", expectError: true},
		"empty": {input: "", expectError: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := cmdspec.ParseBool(tc.input)
			if tc.expectError {
				require.ErrorIs(t, err, cmdspec.ErrInvalidBool)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewOption(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		short       string
		long        string
		arg         string
		typ         string
		accumulate  string
		wantSymbol  string
		expectError error
	}{
		"long only": {
			long:       "verbose",
			wantSymbol: "verbose",
		},
		"dashed long": {
			long:       "dry-run",
			wantSymbol: "dry_run",
		},
		"short and arg": {
			short:      "l",
			long:       "lang",
			arg:        "LANG",
			wantSymbol: "lang",
		},
		"accumulated": {
			long:       "include",
			arg:        "PATH",
			accumulate: "includes",
			wantSymbol: "include",
		},
		"multichar short": {
			short:       "vv",
			long:        "verbose",
			expectError: cmdspec.ErrInvalidOption,
		},
		"type without arg": {
			long:        "verbose",
			typ:         "string",
			expectError: cmdspec.ErrInvalidOption,
		},
		"bad long": {
			long:        "2fast",
			expectError: cmdspec.ErrInvalidName,
		},
		"bad accumulate": {
			long:        "include",
			arg:         "PATH",
			accumulate:  "in-cludes",
			expectError: cmdspec.ErrInvalidName,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			o, err := cmdspec.NewOption(tc.short, tc.long, tc.arg, tc.typ, tc.accumulate)
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantSymbol, o.Symbol)
		})
	}
}

func mustOption(t *testing.T, short, long, arg, accumulate string) *cmdspec.Option {
	t.Helper()

	o, err := cmdspec.NewOption(short, long, arg, "", accumulate)
	require.NoError(t, err)

	return o
}

func TestOptGroupAddOption(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		first  *cmdspec.Option
		second *cmdspec.Option
		ok     bool
	}{
		"distinct": {
			first:  &cmdspec.Option{Short: "a", Long: "alpha", Symbol: "alpha"},
			second: &cmdspec.Option{Short: "b", Long: "beta", Symbol: "beta"},
			ok:     true,
		},
		"same long": {
			first:  &cmdspec.Option{Long: "alpha", Symbol: "alpha"},
			second: &cmdspec.Option{Long: "alpha", Symbol: "alpha2"},
		},
		"same short": {
			first:  &cmdspec.Option{Short: "a", Long: "alpha", Symbol: "alpha"},
			second: &cmdspec.Option{Short: "a", Long: "all", Symbol: "all"},
		},
		"symbol collision through dash mapping": {
			first:  &cmdspec.Option{Long: "dry-run", Symbol: "dry_run"},
			second: &cmdspec.Option{Long: "dry_run", Symbol: "dry_run"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g, err := cmdspec.NewOptGroup("g", true, false, "")
			require.NoError(t, err)

			require.NoError(t, g.AddOption(tc.first))

			err = g.AddOption(tc.second)
			if tc.ok {
				require.NoError(t, err)
				assert.Same(t, g, tc.second.Group)
			} else {
				require.ErrorIs(t, err, cmdspec.ErrConflictingOptions)
			}
		})
	}
}

func TestOptGroupAccumulations(t *testing.T) {
	t.Parallel()

	g, err := cmdspec.NewOptGroup("xfer", true, false, "")
	require.NoError(t, err)

	require.NoError(t, g.AddOption(mustOption(t, "", "include", "PATH", "zincludes")))
	require.NoError(t, g.AddOption(mustOption(t, "", "exclude", "PATH", "excludes")))
	require.NoError(t, g.AddOption(mustOption(t, "v", "verbose", "", "")))

	assert.Equal(t, []string{"excludes", "zincludes"}, g.Accumulations())
}

func TestCommandAddArgument(t *testing.T) {
	t.Parallel()

	arg := func(name string, optional, repeat bool) *cmdspec.Argument {
		a, err := cmdspec.NewArgument(name, "string", optional, repeat)
		require.NoError(t, err)

		return a
	}

	tcs := map[string]struct {
		args        []*cmdspec.Argument
		expectError error
	}{
		"mandatory then optional then repeat": {
			args: []*cmdspec.Argument{
				arg("src", false, false),
				arg("dst", true, false),
				arg("rest", true, true),
			},
		},
		"duplicate name": {
			args: []*cmdspec.Argument{
				arg("src", false, false),
				arg("src", false, false),
			},
			expectError: cmdspec.ErrDuplicateName,
		},
		"mandatory after optional": {
			args: []*cmdspec.Argument{
				arg("dst", true, false),
				arg("src", false, false),
			},
			expectError: cmdspec.ErrArgumentOrder,
		},
		"argument after repeat": {
			args: []*cmdspec.Argument{
				arg("rest", true, true),
				arg("more", true, false),
			},
			expectError: cmdspec.ErrArgumentOrder,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := cmdspec.NewCommand([]string{"cp"}, false)
			require.NoError(t, err)

			for i, a := range tc.args {
				addErr := c.AddArgument(a)
				if i < len(tc.args)-1 {
					require.NoError(t, addErr)

					continue
				}

				err = addErr
			}

			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCommandAddOptGroupDisjoint(t *testing.T) {
	t.Parallel()

	g1, err := cmdspec.NewOptGroup("one", true, false, "")
	require.NoError(t, err)
	require.NoError(t, g1.AddOption(mustOption(t, "v", "verbose", "", "")))

	g2, err := cmdspec.NewOptGroup("two", true, false, "")
	require.NoError(t, err)
	require.NoError(t, g2.AddOption(mustOption(t, "", "verbose", "", "")))

	g3, err := cmdspec.NewOptGroup("three", true, false, "")
	require.NoError(t, err)
	require.NoError(t, g3.AddOption(mustOption(t, "", "quiet", "", "")))

	c, err := cmdspec.NewCommand([]string{"run"}, false)
	require.NoError(t, err)

	require.NoError(t, c.AddOptGroup(g1))
	require.NoError(t, c.AddOptGroup(g3))
	require.ErrorIs(t, c.AddOptGroup(g2), cmdspec.ErrConflictingOptions)
}

func TestCommandNames(t *testing.T) {
	t.Parallel()

	c, err := cmdspec.NewCommand([]string{"start-server", "ss", "daemon"}, true)
	require.NoError(t, err)

	assert.Equal(t, "start-server", c.Name)
	assert.Equal(t, "start_server", c.Symbol)
	assert.Equal(t, []string{"ss", "daemon"}, c.AltNames)
	assert.Equal(t, []string{"start-server", "ss", "daemon"}, c.AllNames())
	assert.True(t, c.ExportParseArgs)
}

func TestGeneratedSignatures(t *testing.T) {
	t.Parallel()

	c, err := cmdspec.NewCommand([]string{"start-server"}, false)
	require.NoError(t, err)

	assert.Equal(t, "cmd_start-server_info", c.StructName())
	assert.Equal(t, "start_server_dispatch", c.DispatchFunc().Name)
	assert.Equal(t, "start_server_main", c.MainFunc().Name)
	assert.Equal(t, "make_args_cmd_start-server", c.MakeArgsFunc().Name)
	assert.Equal(t, "parse_args_cmd_start_server", c.ParseArgsFunc().Name)
	assert.Equal(t,
		"struct cmd_start-server_info* ret, int argc, const char** argv",
		c.ParseArgsFunc().ParamList())

	g, err := cmdspec.NewOptGroup("common", true, false, "")
	require.NoError(t, err)

	assert.Equal(t, "common_opts", g.StructName())
	assert.Equal(t, "emit_args_common_opts", g.EmitArgsFunc().Name)
	assert.Equal(t,
		"struct strlist* dest, const struct common_opts* info",
		g.EmitArgsFunc().ParamList())
}
