package generator

import (
	"context"
	"fmt"
	"os"
	"time"

	"geosite/internal/ruleset"
	"geosite/pkg/logger"
	"geosite/pkg/serrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Check validates the artifacts already on disk without fetching or
// compiling. The JSON must exceed MinTextSize and decode to a version 3
// document with a non-empty, sorted, duplicate-free domain list; the srs must
// exist and exceed MinBinarySize.
func Check(ctx context.Context, options Options) (Result, error) {
	res := Result{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Phase:     PhaseStart,
		Source:    options.TextPath(),
	}
	ctx = logger.WithFields(ctx, zap.String("runID", res.RunID.String()))

	err := check(&res, options)
	res.Duration = time.Since(res.StartedAt)
	if err != nil {
		res.Phase = PhaseAbort
		logger.Error(ctx, "rule-set check failed",
			zap.String("phase", string(res.FailedPhase)),
			zap.Error(err))

		return res, fmt.Errorf("%s: %w", res.FailedPhase, err)
	}

	res.Phase = PhaseDone
	logger.Info(ctx, "rule-set artifacts are valid",
		zap.Int("domains", res.Domains),
		zap.Int("invalid", res.Invalid),
		zap.Int64("jsonBytes", res.TextSize),
		zap.Int64("srsBytes", res.BinarySize))

	return res, nil
}

func check(res *Result, options Options) (err error) {
	fail := func(phase Phase, e error) error {
		res.Phase, res.FailedPhase = phase, phase

		return e
	}

	res.Phase = PhaseValidateTextSize
	if res.TextSize, err = checkSize(options.TextPath(), options.MinTextSize, "json"); err != nil {
		return fail(PhaseValidateTextSize, err)
	}

	res.Phase = PhaseVerifyText
	domains, err := readDomains(options.TextPath())
	if err != nil {
		return fail(PhaseVerifyText, err)
	}
	res.Domains = len(domains)
	res.Invalid = len(ruleset.Lint(domains))

	res.Phase = PhaseValidateBinarySize
	if res.BinarySize, err = checkSize(options.BinaryPath(), options.MinBinarySize, "srs"); err != nil {
		return fail(PhaseValidateBinarySize, err)
	}

	return nil
}

// readDomains decodes the rule-set at path and returns its domains, which
// must be what a run would have written.
func readDomains(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrIO, err, "could not read %s", path)
	}

	doc, err := ruleset.Unmarshal(b)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrParse, err, "could not decode %s", path)
	}
	if doc.Version != ruleset.Version {
		return nil, serrors.With(serrors.ErrParse, "unsupported rule-set version %d, want %d", doc.Version, ruleset.Version)
	}

	domains := doc.Domains()
	if len(domains) == 0 {
		return nil, serrors.With(serrors.ErrEmptyRuleSet, "%s has no domains", path)
	}
	for i := 1; i < len(domains); i++ {
		if domains[i-1] >= domains[i] {
			return nil, serrors.With(serrors.ErrParse, "domains not sorted or not unique at %q after %q",
				domains[i], domains[i-1])
		}
	}

	return domains, nil
}
