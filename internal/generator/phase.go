package generator

// Phase is a step of a generation run. A run walks the phases in order and
// ends in PhaseDone, or in PhaseAbort as soon as any step fails.
type Phase string

const (
	PhaseStart              Phase = "start"
	PhaseFetch              Phase = "fetch"
	PhaseParse              Phase = "parse"
	PhaseAggregate          Phase = "aggregate"
	PhaseSerialize          Phase = "serialize"
	PhaseWriteText          Phase = "write_text"
	PhaseValidateTextSize   Phase = "validate_text_size"
	PhaseCompile            Phase = "compile"
	PhaseValidateBinarySize Phase = "validate_binary_size"
	PhaseDone               Phase = "done"
	PhaseAbort              Phase = "abort"
)

// PhaseVerifyText is the content check of a persisted JSON rule-set, only
// walked by Check.
const PhaseVerifyText Phase = "verify_text"
