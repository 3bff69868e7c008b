package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/darkcfg/internal/cli"
	"github.com/specialistvlad/darkcfg/internal/diag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "net.cfg")
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0600), "failed to set up test file")
	return filePath
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	filePath := writeConfig(t, "[net]\nwidth=8\nheight=8\nchannels=1\n[maxpool]\nsize=2\nstride=2\n")
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, errOut, []string{"-format", "yaml", filePath})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "type: maxpool")
	require.Contains(t, out.String(), "output: {w: 4, h: 4, c: 1}")
	require.Contains(t, errOut.String(), "Network compiled.")
}

func TestRun_CompileError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A shortcut whose source does not exist must fail with the line of from=.
	filePath := writeConfig(t, "[net]\nwidth=8\nheight=8\nchannels=1\n[shortcut]\nfrom=-3\n")
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, errOut, []string{filePath})

	// --- Assert ---
	require.Error(t, err)
	require.ErrorIs(t, err, diag.KindReference)
	require.Contains(t, err.Error(), "[shortcut] at line 6")

	var exitErr *cli.ExitError
	require.NotErrorAs(t, err, &exitErr, "compile errors exit with the generic code")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should see `shouldExit=true` and return a nil error.
	err := run(context.Background(), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should propagate the error from cli.Parse.
	err := run(context.Background(), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
}
