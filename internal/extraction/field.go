package extraction

import "github.com/custodia-labs/pickup-core/internal/core/domain"

// Strategy tries to recover one field value from the scan.
// It may read fields already assigned to data but must not modify it.
type Strategy func(scan *Scan, data *domain.ExtractedData) (string, bool)

// Step is a named strategy in a field's fallback chain.
// A degraded step is a positional guess rather than a labelled match.
type Step struct {
	Name     string
	Run      Strategy
	Degraded bool
}

// Field is an ordered strategy chain for one document field.
type Field struct {
	Name            string
	Steps           []Step
	MissingPenalty  int
	DegradedPenalty int
	ReviewOnMissing bool
	// Assign stores value and reports whether it was accepted.
	// A rejected value falls through to the next step.
	Assign          func(data *domain.ExtractedData, value string) bool
}

// run evaluates the chain, first success wins, and assigns the value.
func (f Field) run(scan *Scan, data *domain.ExtractedData) domain.FieldOutcome {
	for i, step := range f.Steps {
		value, ok := step.Run(scan, data)
		if !ok {
			continue
		}
		if !f.Assign(data, value) {
			continue
		}
		outcome := domain.FieldOutcome{Field: f.Name, Status: domain.FieldFound, Strategy: i}
		if step.Degraded {
			outcome.Status = domain.FieldDegraded
			outcome.Penalty = f.DegradedPenalty
		}
		return outcome
	}
	return domain.FieldOutcome{
		Field:    f.Name,
		Status:   domain.FieldMissing,
		Strategy: -1,
		Penalty:  f.MissingPenalty,
		Review:   f.ReviewOnMissing,
	}
}
