package cmdspec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/cmdgen/cmdspec"
)

// recorder collects reader events for assertions.
type recorder struct {
	events []string
}

func (r *recorder) table(t *testing.T) *cmdspec.HandlerTable {
	t.Helper()

	table := cmdspec.NewHandlerTable()
	table.IgnoreMarkup()

	for _, name := range []string{"r", "item", "nested"} {
		table.Element(name, cmdspec.ElementHandlers{
			Start: func(attrs *cmdspec.Attrs) error {
				r.events = append(r.events, "<"+name+" id="+attrs.String("id", "")+">")

				return nil
			},
			End: func() error {
				r.events = append(r.events, "</"+name+">")

				return nil
			},
		})
	}

	table.CharData(func(text string) error {
		r.events = append(r.events, "text:"+text)

		return nil
	})

	return table
}

func TestReaderConditionals(t *testing.T) {
	t.Parallel()

	const src = `<r>
<?ifdef A?><item id="a"/><?endif?>
<?ifndef A?><item id="not-a"/><?endif?>
<?ifdef A?><?ifdef B?><item id="ab"/><?endif?><?endif?>
</r>`

	tcs := map[string]struct {
		defs []string
		want []string
	}{
		"nothing defined": {
			defs: nil,
			want: []string{"not-a"},
		},
		"A defined": {
			defs: []string{"A"},
			want: []string{"a"},
		},
		"A and B defined": {
			defs: []string{"A", "B"},
			want: []string{"a", "ab"},
		},
		"B alone stays dark": {
			defs: []string{"B"},
			want: []string{"not-a"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			table := rec.table(t)

			err := cmdspec.NewReader(tc.defs, table).Parse([]byte(src))
			require.NoError(t, err)

			var items []string

			for _, ev := range rec.events {
				if len(ev) > 10 && ev[:9] == "<item id=" {
					items = append(items, ev[9:len(ev)-1])
				}
			}

			assert.Equal(t, tc.want, items)
		})
	}
}

func TestReaderConditionalErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		src         string
		expectError error
	}{
		"unmatched endif": {
			src:         `<r><?endif?></r>`,
			expectError: cmdspec.ErrBadConditional,
		},
		"unterminated ifdef": {
			src:         `<r><?ifdef A?></r>`,
			expectError: cmdspec.ErrBadConditional,
		},
		"depth mismatch": {
			src:         `<r><item><?ifdef A?></item><?endif?></r>`,
			expectError: cmdspec.ErrBadConditional,
		},
		"ifdef without condition": {
			src:         `<r><?ifdef?></r>`,
			expectError: cmdspec.ErrBadConditional,
		},
		"ifdef with two conditions": {
			src:         `<r><?ifdef A B?></r>`,
			expectError: cmdspec.ErrBadConditional,
		},
		"endif with argument": {
			src:         `<r><?ifdef A?><?endif A?></r>`,
			expectError: cmdspec.ErrBadConditional,
		},
		"unknown instruction": {
			src:         `<r><?pragma x?></r>`,
			expectError: cmdspec.ErrUnknownInstruction,
		},
		"unknown element": {
			src:         `<r><mystery/></r>`,
			expectError: cmdspec.ErrUnknownElement,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			table := rec.table(t)

			err := cmdspec.NewReader(nil, table).Parse([]byte(tc.src))
			require.ErrorIs(t, err, tc.expectError)
		})
	}
}

func TestReaderXMLDeclaration(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	table := rec.table(t)

	err := cmdspec.NewReader(nil, table).Parse([]byte(`<?xml version="1.0"?><r/>`))
	require.NoError(t, err)
}

func TestReaderSuppressesDisabledRegions(t *testing.T) {
	t.Parallel()

	// The disabled region contains an element the table does not know;
	// suppression must win over the unknown-element check.
	const src = `<r><?ifdef NOPE?><mystery><item/></mystery><?endif?><item id="x"/></r>`

	rec := &recorder{}
	table := rec.table(t)

	err := cmdspec.NewReader(nil, table).Parse([]byte(src))
	require.NoError(t, err)

	assert.Contains(t, rec.events, `<item id=x>`)
	assert.NotContains(t, rec.events, `<mystery id=>`)
}

func TestReaderAttributeNormalization(t *testing.T) {
	t.Parallel()

	table := cmdspec.NewHandlerTable()

	var got string

	table.Element("r", cmdspec.ElementHandlers{
		Start: func(attrs *cmdspec.Attrs) error {
			got = attrs.String("export_parse_args", "")

			return attrs.Close()
		},
	})

	err := cmdspec.NewReader(nil, table).Parse([]byte(`<r export-parse-args="yes"/>`))
	require.NoError(t, err)
	assert.Equal(t, "yes", got)
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	table := cmdspec.NewHandlerTable()

	var handlerErr error

	table.Element("r", cmdspec.ElementHandlers{
		Start: func(attrs *cmdspec.Attrs) error {
			if _, err := attrs.Require("missing"); err != nil {
				handlerErr = err

				return err
			}

			return nil
		},
	})

	err := cmdspec.NewReader(nil, table).Parse([]byte(`<r/>`))
	require.ErrorIs(t, err, cmdspec.ErrMissingAttribute)
	require.ErrorIs(t, handlerErr, cmdspec.ErrMissingAttribute)
}

func TestAttrsClose(t *testing.T) {
	t.Parallel()

	table := cmdspec.NewHandlerTable()
	table.Element("r", cmdspec.ElementHandlers{
		Start: func(attrs *cmdspec.Attrs) error {
			attrs.String("known", "")

			return attrs.Close()
		},
	})

	err := cmdspec.NewReader(nil, table).Parse([]byte(`<r known="1" surprise="2"/>`))
	require.ErrorIs(t, err, cmdspec.ErrUnknownAttribute)
	assert.ErrorContains(t, err, "surprise")
}

func TestAttrsBool(t *testing.T) {
	t.Parallel()

	table := cmdspec.NewHandlerTable()

	var forward, missing bool

	table.Element("r", cmdspec.ElementHandlers{
		Start: func(attrs *cmdspec.Attrs) error {
			var err error

			forward, err = attrs.Bool("forward", true)
			if err != nil {
				return err
			}

			missing, err = attrs.Bool("absent", true)

			return err
		},
	})

	err := cmdspec.NewReader(nil, table).Parse([]byte(`<r forward="no"/>`))
	require.NoError(t, err)
	assert.False(t, forward)
	assert.True(t, missing)

	err = cmdspec.NewReader(nil, table).Parse([]byte(`<r forward="banana"/>`))
	require.ErrorIs(t, err, cmdspec.ErrInvalidBool)
}
