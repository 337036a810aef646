package research

import "strings"

// Stage is one step of the research fallback sequence
type Stage int

const (
	StageValidate Stage = iota
	StageConfiguredLLM
	StageLocalLLM
	StageFallbackSearch
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageConfiguredLLM:
		return "configured_llm"
	case StageLocalLLM:
		return "local_llm"
	case StageFallbackSearch:
		return "fallback_search"
	default:
		return "unknown"
	}
}

// Outcome is the result of one stage attempt
type Outcome struct {
	Stage  Stage
	Report string
	Err    error
}

func Success(stage Stage, report string) Outcome {
	return Outcome{Stage: stage, Report: report}
}

func Failure(stage Stage, err error) Outcome {
	return Outcome{Stage: stage, Err: err}
}

// OK reports whether the outcome ends the research with its report
func (o Outcome) OK() bool {
	return o.Err == nil && strings.TrimSpace(o.Report) != ""
}
