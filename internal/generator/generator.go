// Package generator runs the rule-set pipeline: fetch the upstream dnsmasq
// list, parse and aggregate its domains, write the JSON rule-set, compile it
// and validate both artifacts. Every failure aborts the run; nothing is
// retried and artifacts already on disk are left as they are.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"geosite/internal/compiler"
	"geosite/internal/dnsmasq"
	"geosite/internal/ruleset"
	"geosite/pkg/blocklist"
	"geosite/pkg/logger"
	"geosite/pkg/metrics"
	"geosite/pkg/serrors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "geosite/internal/generator"

// maxLintSamples caps how many malformed domains are logged per run.
const maxLintSamples = 5

// Generator produces the JSON and binary rule-set artifacts.
type Generator struct {
	source   blocklist.Source
	compiler compiler.Compiler
	options  Options
	metrics  *metrics.Pipeline

	tracer trace.Tracer
	lines  metric.Int64Counter
}

// New constructs a Generator. m may be nil.
func New(source blocklist.Source, c compiler.Compiler, options Options, m *metrics.Pipeline) (*Generator, error) {
	lines, err := otel.Meter(instrumentationName).Int64Counter("geosite.parse.lines",
		metric.WithDescription("Upstream list lines by classification."))
	if err != nil {
		return nil, fmt.Errorf("could not create lines counter: %w", err)
	}

	return &Generator{
		source:   source,
		compiler: c,
		options:  options,
		metrics:  m,
		tracer:   otel.Tracer(instrumentationName),
		lines:    lines,
	}, nil
}

// Run executes one generation. The returned Result is filled as far as the
// run got, also when an error is returned.
func (g *Generator) Run(ctx context.Context) (Result, error) {
	res := Result{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Phase:     PhaseStart,
		Source:    g.source.Location(),
	}

	ctx = logger.WithFields(ctx, zap.String("runID", res.RunID.String()))
	ctx, span := g.tracer.Start(ctx, "generate", trace.WithAttributes(
		attribute.String("source", res.Source),
		attribute.String("mode", string(g.options.Mode)),
	))
	defer span.End()

	logger.Info(ctx, "starting rule-set generation",
		zap.String("source", res.Source),
		zap.String("mode", string(g.options.Mode)),
		zap.String("json", g.options.TextPath()),
		zap.String("srs", g.options.BinaryPath()))

	if v, err := g.compiler.Version(ctx); err != nil {
		logger.Warn(ctx, "could not get compiler version", zap.Error(err))
	} else {
		res.CompilerVersion = v
		logger.Info(ctx, "using compiler", zap.String("version", v))
	}

	err := g.run(ctx, &res)
	res.Duration = time.Since(res.StartedAt)
	g.metrics.ObserveRun(serrors.Label(err), time.Now())

	if err != nil {
		res.Phase = PhaseAbort
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "rule-set generation aborted",
			zap.String("phase", string(res.FailedPhase)),
			zap.Duration("took", res.Duration),
			zap.Error(err))

		return res, fmt.Errorf("%s: %w", res.FailedPhase, err)
	}

	res.Phase = PhaseDone
	g.metrics.SetDomains(res.Domains)
	g.metrics.SetArtifactSize("json", res.TextSize)
	g.metrics.SetArtifactSize("srs", res.BinarySize)
	logger.Info(ctx, "rule-set generation finished",
		zap.Int("domains", res.Domains),
		zap.Int64("jsonBytes", res.TextSize),
		zap.Int64("srsBytes", res.BinarySize),
		zap.Bool("changed", res.Changed),
		zap.Bool("compiled", res.Compiled),
		zap.Duration("took", res.Duration))

	return res, nil
}

func (g *Generator) run(ctx context.Context, res *Result) error {
	var (
		body    []byte
		parsed  []string
		domains []string
		text    []byte
		skip    bool
	)

	if err := g.step(ctx, res, PhaseFetch, func(ctx context.Context) (err error) {
		body, err = g.source.Fetch(ctx)
		if err == nil {
			logger.Info(ctx, "fetched upstream list", zap.Int("bytes", len(body)))
		}

		return err
	}); err != nil {
		return err
	}

	if err := g.step(ctx, res, PhaseParse, func(ctx context.Context) (err error) {
		parsed, res.Parse, err = dnsmasq.ParseBytes(body)
		if err != nil {
			return serrors.Wrap(serrors.ErrParse, err, "could not parse upstream list")
		}
		g.recordParse(ctx, res.Parse)

		return nil
	}); err != nil {
		return err
	}

	if err := g.step(ctx, res, PhaseAggregate, func(ctx context.Context) (err error) {
		domains, err = aggregate(parsed, g.builtin())
		if err != nil {
			return err
		}
		res.Domains = len(domains)
		logger.Info(ctx, "domains processed", zap.Int("count", res.Domains))

		if bad := ruleset.Lint(domains); len(bad) > 0 {
			res.Invalid = len(bad)
			logger.Warn(ctx, "rule-set contains malformed domain names",
				zap.Int("count", len(bad)),
				zap.Strings("samples", bad[:min(len(bad), maxLintSamples)]))
		}

		return nil
	}); err != nil {
		return err
	}

	if err := g.step(ctx, res, PhaseSerialize, func(context.Context) error {
		text = ruleset.Marshal(ruleset.NewDocument(domains))

		return nil
	}); err != nil {
		return err
	}

	if err := g.step(ctx, res, PhaseWriteText, func(ctx context.Context) (err error) {
		skip, err = g.writeText(ctx, res, text)

		return err
	}); err != nil {
		return err
	}
	if skip {
		logger.Info(ctx, "no changes detected, skip update")

		return nil
	}

	if err := g.step(ctx, res, PhaseValidateTextSize, func(context.Context) (err error) {
		res.TextSize, err = checkSize(g.options.TextPath(), g.options.MinTextSize, "json")

		return err
	}); err != nil {
		return err
	}

	if err := g.step(ctx, res, PhaseCompile, func(ctx context.Context) error {
		if err := g.compiler.Compile(ctx, g.options.TextPath(), g.options.BinaryPath()); err != nil {
			if serrors.KindOf(err) == nil {
				return serrors.Wrap(serrors.ErrCompile, err, "could not compile rule-set")
			}

			return err
		}
		res.Compiled = true

		return nil
	}); err != nil {
		return err
	}

	return g.step(ctx, res, PhaseValidateBinarySize, func(context.Context) (err error) {
		res.BinarySize, err = checkSize(g.options.BinaryPath(), g.options.MinBinarySize, "srs")

		return err
	})
}

// step runs fn as phase: traced, timed and recorded as the failed phase on error.
func (g *Generator) step(ctx context.Context, res *Result, phase Phase, fn func(ctx context.Context) error) error {
	ctx, span := g.tracer.Start(ctx, string(phase))
	defer span.End()

	res.Phase = phase
	start := time.Now()
	err := fn(ctx)
	took := time.Since(start)
	g.metrics.ObservePhase(string(phase), took)

	if err != nil {
		res.FailedPhase = phase
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}
	logger.Debug(ctx, "phase completed", zap.String("phase", string(phase)), zap.Duration("took", took))

	return nil
}

func (g *Generator) builtin() []string {
	out := ruleset.BuiltinDomains()
	for _, d := range g.options.ExtraDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			out = append(out, d)
		}
	}

	return out
}

func (g *Generator) recordParse(ctx context.Context, s dnsmasq.Stats) {
	for class, n := range map[string]int{
		"blank":   s.Blank,
		"comment": s.Comments,
		"skipped": s.Skipped,
		"matched": s.Matched,
	} {
		g.lines.Add(ctx, int64(n), metric.WithAttributes(attribute.String("class", class)))
	}

	logger.Info(ctx, "parsed upstream list",
		zap.Int("lines", s.Lines),
		zap.Int("matched", s.Matched),
		zap.Int("skipped", s.Skipped),
		zap.Int("comments", s.Comments))
}

// writeText persists text. It reports skip=true when the run can stop early:
// on-change mode, identical content and a compiled artifact already present.
func (g *Generator) writeText(ctx context.Context, res *Result, text []byte) (bool, error) {
	path := g.options.TextPath()

	old, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, serrors.Wrap(serrors.ErrIO, err, "could not read %s", path)
	}
	res.Changed = !bytes.Equal(old, text)

	if g.options.Mode == ModeOnChange && !res.Changed {
		info, err := os.Stat(g.options.BinaryPath())
		if err == nil {
			res.TextSize = int64(len(text))
			res.BinarySize = info.Size()

			return true, nil
		}
		logger.Info(ctx, "json unchanged but srs is missing, recompiling", zap.Error(err))

		return false, nil
	}
	if !res.Changed {
		logger.Info(ctx, "json content unchanged, rewriting and recompiling anyway")
	}

	if err := os.MkdirAll(g.options.OutputDir, 0o755); err != nil { //nolint: gosec
		return false, serrors.Wrap(serrors.ErrIO, err, "could not create output directory")
	}
	if err := os.WriteFile(path, text, 0o644); err != nil { //nolint: gosec
		return false, serrors.Wrap(serrors.ErrIO, err, "could not write %s", path)
	}

	return false, nil
}

// aggregate merges and sorts the domains and rejects an empty result.
func aggregate(parsed, builtin []string) ([]string, error) {
	domains := ruleset.Aggregate(parsed, builtin)
	if len(domains) == 0 {
		return nil, serrors.With(serrors.ErrEmptyRuleSet, "no domains to write")
	}

	return domains, nil
}

// checkSize returns the size of path, which must exist and exceed minSize.
func checkSize(path string, minSize int64, artifact string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, serrors.With(serrors.ErrArtifactMissing, "%s not generated: %s", artifact, path)
	}
	if err != nil {
		return 0, serrors.Wrap(serrors.ErrIO, err, "could not stat %s", path)
	}

	if info.Size() <= minSize {
		return info.Size(), serrors.With(serrors.ErrArtifactTooSmall,
			"%s too small: %d bytes, want more than %d", artifact, info.Size(), minSize)
	}

	return info.Size(), nil
}
