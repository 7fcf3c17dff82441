package poddoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrFormatter indicates the external text formatter failed or could not be
// spawned.
var ErrFormatter = errors.New("text formatter")

// Pod2Text renders POD markup to plain text by launching the pod2text
// program once per payload, writing the document to its standard input and
// consuming the result from its standard output.
type Pod2Text struct {
	// Path locates the formatter binary; empty means "pod2text" on PATH.
	Path string
}

// Format runs the formatter with capture-column mode and the given indent.
// When addEncoding is set an utf8 encoding header is prepended, for payloads
// extracted from a larger document that already declared one.
func (p Pod2Text) Format(ctx context.Context, pod string, indent int, addEncoding bool) (string, error) {
	path := p.Path
	if path == "" {
		path = "pod2text"
	}

	if addEncoding {
		pod = "=encoding utf8\n\n" + pod
	}

	cmd := exec.CommandContext(ctx, path, "-c", fmt.Sprintf("-i%d", indent))
	cmd.Stdin = strings.NewReader(pod)
	cmd.Stderr = os.Stderr

	var out bytes.Buffer

	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFormatter, err)
	}

	return out.String(), nil
}
