package extraction

import "github.com/custodia-labs/pickup-core/internal/core/domain"

const (
	StartingConfidence   = 95
	StartingQualityScore = 90
	ReviewFieldCost      = 5
	MinQualityScore      = 70
)

// Summary is the aggregate of one extraction pass.
type Summary struct {
	Confidence     int
	QualityScore   int
	NeedsReview    []string
	ReviewRequired bool
}

// Aggregate folds per-field outcomes into confidence and quality scores.
// needsReview keeps the first occurrence of each field, in outcome order.
func Aggregate(outcomes []domain.FieldOutcome) Summary {
	confidence := StartingConfidence
	needsReview := []string{}
	seen := make(map[string]bool)

	for _, o := range outcomes {
		confidence -= o.Penalty
		if o.Review && !seen[o.Field] {
			seen[o.Field] = true
			needsReview = append(needsReview, o.Field)
		}
	}

	quality := clamp(StartingQualityScore - ReviewFieldCost*len(needsReview))
	return Summary{
		Confidence:     clamp(confidence),
		QualityScore:   quality,
		NeedsReview:    needsReview,
		ReviewRequired: quality < MinQualityScore || len(needsReview) > 0,
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
