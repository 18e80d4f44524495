package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vdparikh/radix"
	"github.com/vdparikh/radix/internal/catalog"
	"github.com/vdparikh/radix/internal/cli"
)

func noEnv(string) string { return "" }

func runCapture(t *testing.T, args []string, getenv func(string) string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, args, getenv)
	return out.String(), err
}

func TestRun_EncodeDecode(t *testing.T) {
	t.Parallel()

	out, err := runCapture(t, []string{"-system", "hex_upper", "encode", "255", "-255", "0"}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "FF\n-FF\n0\n", out)

	out, err = runCapture(t, []string{"-digits", "👎👍", "decode", "👍👎👍", "-👍"}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "5\n-1\n", out)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	_, err := runCapture(t, []string{"-system", "binary", "decode", "102"}, noEnv)
	require.ErrorIs(t, err, radix.ErrInvalidDigit)

	_, err = runCapture(t, []string{"encode", "9007199254740992"}, noEnv)
	require.ErrorIs(t, err, radix.ErrOutOfRange)

	_, err = runCapture(t, []string{"-system", "missing", "encode", "1"}, noEnv)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = runCapture(t, []string{"bogus"}, noEnv)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_SealOpenWithConfig(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "radix.hcl")
	src := `
system "crockford" {
  digits = "0123456789abcdefghjkmnpqrstvwxyz"
}

token "orders" {
  system = "crockford"
  tweak  = "orders.v1"
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0600), "failed to set up test file")
	env := func(k string) string {
		if k == "RADIX_TOKEN_KEY" {
			return strings.Repeat("0f", 32)
		}
		return ""
	}

	// --- Act ---
	sealed, err := runCapture(t, []string{"-config", path, "-token", "orders", "seal", "42", "-42"}, env)
	require.NoError(t, err)
	tokens := strings.Fields(sealed)
	require.Len(t, tokens, 2)

	opened, err := runCapture(t, append([]string{"-config", path, "-token", "orders", "open"}, tokens...), env)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "42\n-42\n", opened)

	_, err = runCapture(t, []string{"-config", path, "systems"}, noEnv)
	require.Error(t, err, "tokens without a key should fail")
}

func TestRun_Systems(t *testing.T) {
	t.Parallel()

	out, err := runCapture(t, []string{"systems"}, noEnv)
	require.NoError(t, err)
	assert.Contains(t, out, "decimal\t10\t0123456789\n")
	assert.Contains(t, out, "binary_emoji\t2\t👎👍\n")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out, err := runCapture(t, []string{"-h"}, noEnv)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestRun_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, &bytes.Buffer{}, &bytes.Buffer{}, []string{"-addr", "127.0.0.1:0", "serve"}, noEnv)
	require.NoError(t, err)
}
