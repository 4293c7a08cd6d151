package generator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"geosite/internal/generator"
	"geosite/internal/ruleset"
	"geosite/pkg/serrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// manyDomains returns n sorted domains, enough to pass the default text size.
func manyDomains(n int) []string {
	out := make([]string, 0, n)
	for i := range n {
		out = append(out, "domain-"+string(rune('a'+i/26))+string(rune('a'+i%26))+".cn")
	}

	return out
}

func writeArtifacts(t *testing.T, opts generator.Options, doc []byte, binarySize int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(opts.TextPath(), doc, 0o600))
	if binarySize >= 0 {
		require.NoError(t, os.WriteFile(opts.BinaryPath(), make([]byte, binarySize), 0o600))
	}
}

func checkOptions(t *testing.T) generator.Options {
	t.Helper()

	opts := generator.DefaultOptions()
	opts.OutputDir = filepath.Join(t.TempDir(), "rule-set")

	return opts
}

func TestCheck_ArtifactsFromRun(t *testing.T) {
	f := newFixture(t, nil)
	f.src.EXPECT().Fetch(gomock.Any()).Return(upstream(100), nil)
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(compileWrites(2048))

	run, err := f.gen.Run(context.Background())
	require.NoError(t, err)

	res, err := generator.Check(context.Background(), f.opts)
	require.NoError(t, err)
	require.Equal(t, generator.PhaseDone, res.Phase)
	require.Equal(t, run.Domains, res.Domains)
	require.Equal(t, run.TextSize, res.TextSize)
	require.Equal(t, int64(2048), res.BinarySize)
}

func TestCheck_Failures(t *testing.T) {
	valid := ruleset.Marshal(ruleset.NewDocument(manyDomains(100)))

	unsorted := manyDomains(100)
	unsorted[10], unsorted[11] = unsorted[11], unsorted[10]

	duplicated := manyDomains(100)
	duplicated[11] = duplicated[10]

	cases := []struct {
		name       string
		doc        []byte
		binarySize int
		kind       serrors.Kind
		phase      generator.Phase
	}{
		{
			name: "unsorted", doc: ruleset.Marshal(ruleset.NewDocument(unsorted)), binarySize: 1024,
			kind: serrors.ErrParse, phase: generator.PhaseVerifyText,
		},
		{
			name: "duplicated", doc: ruleset.Marshal(ruleset.NewDocument(duplicated)), binarySize: 1024,
			kind: serrors.ErrParse, phase: generator.PhaseVerifyText,
		},
		{
			name: "wrong version", doc: ruleset.Marshal(ruleset.Document{Version: 2, Rules: []ruleset.Rule{{DomainSuffix: manyDomains(100)}}}),
			binarySize: 1024, kind: serrors.ErrParse, phase: generator.PhaseVerifyText,
		},
		{
			name: "undersized json", doc: ruleset.Marshal(ruleset.NewDocument(manyDomains(3))), binarySize: 1024,
			kind: serrors.ErrArtifactTooSmall, phase: generator.PhaseValidateTextSize,
		},
		{
			name: "undersized srs", doc: valid, binarySize: 100,
			kind: serrors.ErrArtifactTooSmall, phase: generator.PhaseValidateBinarySize,
		},
		{
			name: "missing srs", doc: valid, binarySize: -1,
			kind: serrors.ErrArtifactMissing, phase: generator.PhaseValidateBinarySize,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := checkOptions(t)
			writeArtifacts(t, opts, tc.doc, tc.binarySize)

			res, err := generator.Check(context.Background(), opts)
			require.ErrorIs(t, err, tc.kind)
			require.Equal(t, generator.PhaseAbort, res.Phase)
			require.Equal(t, tc.phase, res.FailedPhase)
		})
	}
}

func TestCheck_EmptyDocument(t *testing.T) {
	opts := checkOptions(t)
	opts.MinTextSize = 0
	writeArtifacts(t, opts, ruleset.Marshal(ruleset.NewDocument(nil)), 1024)

	_, err := generator.Check(context.Background(), opts)
	require.ErrorIs(t, err, serrors.ErrEmptyRuleSet)
}

func TestCheck_MissingJSON(t *testing.T) {
	_, err := generator.Check(context.Background(), checkOptions(t))
	require.ErrorIs(t, err, serrors.ErrArtifactMissing)
	require.Contains(t, err.Error(), "json not generated")
}
