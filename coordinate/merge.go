package coordinate

import (
	"fmt"

	"github.com/google/uuid"
)

// Merge thresholds. Spread is the maximum tolerated gap between the
// most and least confident successful workers; recommendation counts
// beyond the overload threshold suggest the workers disagree on what
// matters.
const (
	conflictConfidenceSpread = 0.5
	recommendationOverload   = 10
	// maxMerged bounds the merged findings and recommendations lists.
	maxMerged = 20
)

// ConflictSeverity ranks how strongly a conflict undermines the merged
// result.
type ConflictSeverity string

const (
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// Conflict flags a disagreement detected while merging outcomes.
type Conflict struct {
	Kind        string           `json:"kind"`
	Severity    ConflictSeverity `json:"severity"`
	Description string           `json:"description"`
	Workers     []string         `json:"workers,omitempty"`
}

// Quality scores the merged result along three axes plus a weighted
// overall score.
type Quality struct {
	// Completeness is the fraction of configured workers that succeeded.
	Completeness float64 `json:"completeness"`
	// Consistency degrades by 0.1 per detected conflict, floored at 0.
	Consistency float64 `json:"consistency"`
	// Confidence is the mean confidence of successful workers.
	Confidence float64 `json:"confidence"`
	// Overall weights completeness 0.4, consistency 0.3, confidence 0.3.
	Overall float64 `json:"overall"`
}

// Result is the merged product of one coordination round.
type Result struct {
	ID              string     `json:"id"`
	Outcomes        []Outcome  `json:"outcomes"`
	Findings        []string   `json:"findings"`
	Recommendations []string   `json:"recommendations"`
	Confidence      float64    `json:"confidence"`
	Conflicts       []Conflict `json:"conflicts,omitempty"`
	Quality         Quality    `json:"quality"`
}

// merge folds worker outcomes into a single result. Findings and
// recommendations are deduplicated in outcome order and capped at
// maxMerged; the cap is applied after conflict detection so an
// overload still registers.
func merge(workers []Worker, outcomes []Outcome) *Result {
	res := &Result{
		ID:       uuid.NewString(),
		Outcomes: outcomes,
	}

	successes := 0
	confidenceSum := 0.0
	seenFindings := make(map[string]bool)
	seenRecs := make(map[string]bool)

	for _, out := range outcomes {
		if !out.Success || out.Analysis == nil {
			continue
		}
		successes++
		confidenceSum += out.Analysis.Confidence

		for _, f := range out.Analysis.Findings {
			if !seenFindings[f] {
				seenFindings[f] = true
				res.Findings = append(res.Findings, f)
			}
		}
		for _, r := range out.Analysis.Recommendations {
			if !seenRecs[r] {
				seenRecs[r] = true
				res.Recommendations = append(res.Recommendations, r)
			}
		}
	}

	if successes > 0 {
		res.Confidence = confidenceSum / float64(successes)
	}

	res.Conflicts = detectConflicts(outcomes, len(res.Recommendations))
	if len(res.Findings) > maxMerged {
		res.Findings = res.Findings[:maxMerged]
	}
	if len(res.Recommendations) > maxMerged {
		res.Recommendations = res.Recommendations[:maxMerged]
	}

	res.Quality = scoreQuality(len(workers), successes, len(res.Conflicts), res.Confidence)
	return res
}

// detectConflicts applies the merge-time disagreement rules.
func detectConflicts(outcomes []Outcome, recommendations int) []Conflict {
	var conflicts []Conflict

	var minW, maxW string
	minC, maxC := 2.0, -1.0
	for _, out := range outcomes {
		if !out.Success || out.Analysis == nil {
			continue
		}
		if out.Analysis.Confidence < minC {
			minC = out.Analysis.Confidence
			minW = out.Worker
		}
		if out.Analysis.Confidence > maxC {
			maxC = out.Analysis.Confidence
			maxW = out.Worker
		}
	}
	if maxC >= 0 && maxC-minC > conflictConfidenceSpread {
		conflicts = append(conflicts, Conflict{
			Kind:     "confidence_discrepancy",
			Severity: SeverityHigh,
			Description: fmt.Sprintf("confidence spread %.2f between %s (%.2f) and %s (%.2f)",
				maxC-minC, maxW, maxC, minW, minC),
			Workers: []string{maxW, minW},
		})
	}

	if recommendations > recommendationOverload {
		conflicts = append(conflicts, Conflict{
			Kind:     "recommendation_overload",
			Severity: SeverityMedium,
			Description: fmt.Sprintf("%d merged recommendations exceed the overload threshold of %d",
				recommendations, recommendationOverload),
		})
	}

	return conflicts
}

// scoreQuality computes the merged quality block.
func scoreQuality(configured, successes, conflicts int, confidence float64) Quality {
	q := Quality{Confidence: confidence}
	if configured > 0 {
		q.Completeness = float64(successes) / float64(configured)
	}
	q.Consistency = 1.0 - 0.1*float64(conflicts)
	if q.Consistency < 0 {
		q.Consistency = 0
	}
	q.Overall = 0.4*q.Completeness + 0.3*q.Consistency + 0.3*q.Confidence
	return q
}
