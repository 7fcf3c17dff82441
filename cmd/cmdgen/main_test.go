package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

// manifest drives the end-to-end golden cases in testdata/cases.yaml.
type manifest struct {
	Cases []goldenCase `yaml:"cases"`
}

type goldenCase struct {
	Name    string   `yaml:"name"`
	Op      string   `yaml:"op"`
	Input   string   `yaml:"input"`
	Defines []string `yaml:"defines"`
	Golden  string   `yaml:"golden"`
	WantErr string   `yaml:"wantErr"`
}

// stubFormatter stands in for pod2text so the tests never shell out.
type stubFormatter struct{}

func (stubFormatter) Format(_ context.Context, _ string, indent int, addEncoding bool) (string, error) {
	return fmt.Sprintf("[doc i%d enc%t]", indent, addEncoding), nil
}

func TestGenerateGolden(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "cases.yaml"))
	require.NoError(t, err)

	var m manifest

	require.NoError(t, yaml.Unmarshal(data, &m))
	require.NotEmpty(t, m.Cases)

	for _, tc := range m.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			src, err := os.ReadFile(filepath.Join("testdata", tc.Input))
			require.NoError(t, err)

			var buf bytes.Buffer

			genErr := generate(t.Context(), &buf, tc.Op, src, tc.Defines, stubFormatter{})

			if tc.WantErr != "" {
				require.Error(t, genErr)
				assert.ErrorContains(t, genErr, tc.WantErr)

				return
			}

			require.NoError(t, genErr)

			goldenPath := filepath.Join("testdata", tc.Golden)

			if *update {
				require.NoError(t, os.WriteFile(goldenPath, buf.Bytes(), 0o644))

				return
			}

			want, err := os.ReadFile(goldenPath)
			require.NoError(t, err, "golden file %s not found; run with -update to create", goldenPath)

			assert.Equal(t, string(want), buf.String())
		})
	}
}
