package generator

import (
	"time"

	"geosite/internal/dnsmasq"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

// Result describes one generation run.
type Result struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	// Phase is PhaseDone or PhaseAbort once the run returns.
	Phase Phase
	// FailedPhase is the phase that aborted the run, empty on success.
	FailedPhase Phase
	// Source is where the list was read from.
	Source string
	// CompilerVersion is empty when the compiler could not report it.
	CompilerVersion string

	Parse   dnsmasq.Stats
	Domains int
	// Invalid counts domains that are not well-formed DNS names.
	Invalid int

	TextSize   int64
	BinarySize int64
	// Changed is false only in on-change mode when the JSON was already up to date.
	Changed bool
	// Compiled reports whether the compiler ran.
	Compiled bool
}

// Encode writes r as a JSON object.
func (r Result) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("runId", func(e *jx.Encoder) { e.Str(r.RunID.String()) })
		e.Field("startedAt", func(e *jx.Encoder) { e.Str(r.StartedAt.UTC().Format(time.RFC3339)) })
		e.Field("durationSeconds", func(e *jx.Encoder) { e.Float64(r.Duration.Seconds()) })
		e.Field("phase", func(e *jx.Encoder) { e.Str(string(r.Phase)) })
		if r.FailedPhase != "" {
			e.Field("failedPhase", func(e *jx.Encoder) { e.Str(string(r.FailedPhase)) })
		}
		e.Field("source", func(e *jx.Encoder) { e.Str(r.Source) })
		if r.CompilerVersion != "" {
			e.Field("compilerVersion", func(e *jx.Encoder) { e.Str(r.CompilerVersion) })
		}
		e.Field("lines", func(e *jx.Encoder) { e.Int(r.Parse.Lines) })
		e.Field("matched", func(e *jx.Encoder) { e.Int(r.Parse.Matched) })
		e.Field("domains", func(e *jx.Encoder) { e.Int(r.Domains) })
		e.Field("invalid", func(e *jx.Encoder) { e.Int(r.Invalid) })
		e.Field("textSize", func(e *jx.Encoder) { e.Int64(r.TextSize) })
		e.Field("binarySize", func(e *jx.Encoder) { e.Int64(r.BinarySize) })
		e.Field("changed", func(e *jx.Encoder) { e.Bool(r.Changed) })
		e.Field("compiled", func(e *jx.Encoder) { e.Bool(r.Compiled) })
	})
}
