package generator

import (
	"fmt"
	"path/filepath"

	"geosite/internal/config"
	"geosite/pkg/serrors"
)

// Mode selects when the text artifact is rewritten and recompiled.
type Mode string

const (
	// ModeAlways rewrites the JSON and recompiles on every run, so a changed
	// compiler never leaves a stale .srs behind.
	ModeAlways Mode = "always"
	// ModeOnChange writes and compiles only when the generated JSON differs
	// from the persisted one, or the .srs is missing.
	ModeOnChange Mode = "on-change"
)

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAlways, ModeOnChange:
		return m, nil
	default:
		return "", serrors.With(serrors.ErrInvalidConfig, "unknown mode %q, want %q or %q", s, ModeAlways, ModeOnChange)
	}
}

// Options configure where artifacts are written and how they are validated.
type Options struct {
	// OutputDir holds both artifacts. Created when missing.
	OutputDir string
	// TextName is the JSON artifact's file name.
	TextName string
	// BinaryName is the compiled artifact's file name.
	BinaryName string
	// Mode selects always-recompile or skip-on-no-change.
	Mode Mode
	// MinTextSize is the size in bytes the JSON artifact must exceed.
	MinTextSize int64
	// MinBinarySize is the size in bytes the compiled artifact must exceed.
	MinBinarySize int64
	// ExtraDomains are appended to the built-in reserved suffixes.
	ExtraDomains []string
}

// DefaultOptions mirror the production layout: ./rule-set/geosite-direct.{json,srs}.
func DefaultOptions() Options {
	return Options{
		OutputDir:     "./rule-set",
		TextName:      "geosite-direct.json",
		BinaryName:    "geosite-direct.srs",
		Mode:          ModeAlways,
		MinTextSize:   1000,
		MinBinarySize: 100,
	}
}

// NewOptions constructs Options from the application config.
func NewOptions(cfg *config.Config) (Options, error) {
	mode, err := ParseMode(cfg.Output.Mode)
	if err != nil {
		return Options{}, fmt.Errorf("could not parse output mode: %w", err)
	}

	return Options{
		OutputDir:     cfg.Output.Dir,
		TextName:      cfg.Output.TextName,
		BinaryName:    cfg.Output.BinaryName,
		Mode:          mode,
		MinTextSize:   cfg.Output.MinTextSize,
		MinBinarySize: cfg.Output.MinBinarySize,
		ExtraDomains:  cfg.Output.ExtraDomains,
	}, nil
}

// TextPath is the JSON artifact's path.
func (o Options) TextPath() string { return filepath.Join(o.OutputDir, o.TextName) }

// BinaryPath is the compiled artifact's path.
func (o Options) BinaryPath() string { return filepath.Join(o.OutputDir, o.BinaryName) }
