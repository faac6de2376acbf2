package run

import "time"

// Metrics is a running aggregate over all results seen so far.
// It is mutated exactly once per result, by the orchestrator only.
type Metrics struct {
	TotalDuration  time.Duration `json:"total_duration"`
	TotalCost      float64       `json:"total_cost"`
	TotalTokens    int           `json:"total_tokens"`
	StepsConfigured int          `json:"steps_configured"`
	StepsCompleted  int          `json:"steps_completed"`
	StepsFailed     int          `json:"steps_failed"`
	StepsSkipped    int          `json:"steps_skipped"`
	// AvgQuality is the running mean over results that carry a score.
	AvgQuality     float64 `json:"avg_quality"`
	QualitySamples int     `json:"quality_samples"`
}

// Record folds one result into the aggregate. Duration, cost and token
// accumulation is order-independent; the quality mean is updated
// incrementally with new = (old*(n-1) + score)/n.
func (m *Metrics) Record(r Result) {
	m.TotalDuration += r.Duration
	m.TotalCost += r.Cost
	m.TotalTokens += r.Tokens

	switch r.Status {
	case StepCompleted:
		m.StepsCompleted++
	case StepFailed:
		m.StepsFailed++
	case StepSkipped:
		m.StepsSkipped++
	}

	if r.Quality != nil {
		m.QualitySamples++
		n := float64(m.QualitySamples)
		m.AvgQuality = (m.AvgQuality*(n-1) + *r.Quality) / n
	}
}

// FailureRate returns failed/(failed+completed), or 0 before any
// terminal result has been recorded.
func (m *Metrics) FailureRate() float64 {
	settled := m.StepsCompleted + m.StepsFailed
	if settled == 0 {
		return 0
	}
	return float64(m.StepsFailed) / float64(settled)
}
