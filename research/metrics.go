package research

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

var (
	StageOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_stage_outcomes_total",
			Help: "Total number of research stage attempts by result",
		},
		[]string{"stage", "result"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_stage_duration_seconds",
			Help:    "Duration of research stage attempts",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 0.01s to ~164s
		},
		[]string{"stage"},
	)
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultSkipped = "skipped"
)

// StageStats counts the attempts of one stage
type StageStats struct {
	Attempts  int64 `json:"attempts"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
	Skipped   int64 `json:"skipped"`
}

// Stats is a snapshot of the orchestrator counters
type Stats struct {
	Queries int64                 `json:"queries"`
	Invalid int64                 `json:"invalid"`
	ByStage map[string]StageStats `json:"by_stage"`
}

type stageCounters struct {
	attempts  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	skipped   atomic.Int64
}

type counters struct {
	queries atomic.Int64
	invalid atomic.Int64
	stages  [StageFallbackSearch + 1]stageCounters
}

func (c *counters) record(o Outcome) {
	sc := &c.stages[o.Stage]
	sc.attempts.Inc()
	if o.OK() {
		sc.successes.Inc()
		StageOutcomesTotal.WithLabelValues(o.Stage.String(), resultSuccess).Inc()
		return
	}
	sc.failures.Inc()
	StageOutcomesTotal.WithLabelValues(o.Stage.String(), resultFailure).Inc()
}

func (c *counters) skip(stage Stage) {
	c.stages[stage].skipped.Inc()
	StageOutcomesTotal.WithLabelValues(stage.String(), resultSkipped).Inc()
}

func (c *counters) snapshot() Stats {
	ret := Stats{
		Queries: c.queries.Load(),
		Invalid: c.invalid.Load(),
		ByStage: make(map[string]StageStats, len(c.stages)),
	}
	for idx := range c.stages {
		sc := &c.stages[idx]
		ret.ByStage[Stage(idx).String()] = StageStats{
			Attempts:  sc.attempts.Load(),
			Successes: sc.successes.Load(),
			Failures:  sc.failures.Load(),
			Skipped:   sc.skipped.Load(),
		}
	}
	return ret
}
