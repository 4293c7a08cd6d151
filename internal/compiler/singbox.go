package compiler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"geosite/pkg/logger"
	"geosite/pkg/serrors"

	"go.uber.org/zap"
)

// DefaultBinary is looked up in PATH when no explicit binary is configured.
const DefaultBinary = "sing-box"

// SingBox invokes `sing-box rule-set compile`.
type SingBox struct {
	binary  string
	timeout time.Duration
}

// NewSingBox returns a SingBox running binary. A zero timeout means the
// invocation is bounded only by the caller's context.
func NewSingBox(binary string, timeout time.Duration) *SingBox {
	if binary == "" {
		binary = DefaultBinary
	}

	return &SingBox{binary: binary, timeout: timeout}
}

// Args returns the command-line arguments passed to the binary.
func Args(textPath, binaryPath string) []string {
	return []string{"rule-set", "compile", "--output", binaryPath, textPath}
}

// Compile runs the compiler and fails with ErrCompile on a non-zero exit or
// when the binary cannot be started.
func (s *SingBox) Compile(ctx context.Context, textPath, binaryPath string) error {
	out, err := s.run(ctx, Args(textPath, binaryPath)...)
	if err != nil {
		return serrors.Wrap(serrors.ErrCompile, err, "%s rule-set compile failed: %s", s.binary, out)
	}
	if out != "" {
		logger.Debug(ctx, "compiler output", zap.String("output", out))
	}

	return nil
}

// Version returns the first line of `<binary> version`.
func (s *SingBox) Version(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "version")
	if err != nil {
		return "", serrors.Wrap(serrors.ErrCompile, err, "%s version failed: %s", s.binary, out)
	}

	line, _, _ := strings.Cut(out, "\n")

	return strings.TrimSpace(line), nil
}

func (s *SingBox) run(ctx context.Context, args ...string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = serrors.Wrap(serrors.ErrTimeout, err, "timed out after %s", s.timeout)
	}

	return tail(buf.String()), err
}

// tail keeps the last lines of compiler output, enough to explain a failure.
func tail(out string) string {
	const maxLines = 20

	var lines []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) > maxLines {
			lines = lines[1:]
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var _ Compiler = (*SingBox)(nil)
