package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"geosite/internal/compiler"
	"geosite/pkg/serrors"

	"github.com/stretchr/testify/require"
)

// fakeSingBox writes an executable shell script standing in for sing-box.
// It records its arguments and copies the source file to the output path.
func fakeSingBox(t *testing.T, body string) (bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}

	dir := t.TempDir()
	bin = filepath.Join(dir, "sing-box")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + argsFile + "'\n" + body + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755)) //nolint: gosec

	return bin, argsFile
}

func TestArgs(t *testing.T) {
	require.Equal(t,
		[]string{"rule-set", "compile", "--output", "rule-set/geosite-direct.srs", "rule-set/geosite-direct.json"},
		compiler.Args("rule-set/geosite-direct.json", "rule-set/geosite-direct.srs"))
}

func TestSingBox_Compile_Success(t *testing.T) {
	bin, argsFile := fakeSingBox(t, `cp "$5" "$4"`)
	dir := t.TempDir()
	text := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.srs")
	require.NoError(t, os.WriteFile(text, []byte(`{"version":3}`), 0o600))

	err := compiler.NewSingBox(bin, time.Minute).Compile(context.Background(), text, out)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, `{"version":3}`, string(b))

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, strings.Join(compiler.Args(text, out), "\n")+"\n", string(args))
}

func TestSingBox_Compile_NonZeroExit(t *testing.T) {
	bin, _ := fakeSingBox(t, "echo 'FATAL decode source rule-set' >&2\nexit 3")

	err := compiler.NewSingBox(bin, 0).Compile(context.Background(), "in.json", "out.srs")
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrCompile)
	require.Contains(t, err.Error(), "FATAL decode source rule-set")
}

func TestSingBox_Compile_MissingBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "does-not-exist")

	err := compiler.NewSingBox(bin, 0).Compile(context.Background(), "in.json", "out.srs")
	require.ErrorIs(t, err, serrors.ErrCompile)
}

func TestSingBox_Compile_Timeout(t *testing.T) {
	bin, _ := fakeSingBox(t, "exec sleep 5")

	err := compiler.NewSingBox(bin, 50*time.Millisecond).Compile(context.Background(), "in.json", "out.srs")
	require.ErrorIs(t, err, serrors.ErrCompile)
	require.ErrorIs(t, err, serrors.ErrTimeout)
}

func TestSingBox_Version(t *testing.T) {
	bin, _ := fakeSingBox(t, "echo 'sing-box version 1.12.0'\necho 'Environment: go1.25'")

	v, err := compiler.NewSingBox(bin, 0).Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sing-box version 1.12.0", v)
}
