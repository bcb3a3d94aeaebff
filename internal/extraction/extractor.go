package extraction

import (
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// Extractor turns normalized document text into structured pickup order data.
// It is safe for concurrent use.
type Extractor struct {
	fields []Field
	now    func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for the default issue date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithFields replaces the default field chains.
func WithFields(fields []Field) Option {
	return func(e *Extractor) { e.fields = fields }
}

// New creates an extractor with the default field chains.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		fields: DefaultFields(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the full pipeline over decoded page texts.
func (e *Extractor) Extract(pages []string) domain.ExtractionResult {
	return e.ExtractText(Normalize(pages))
}

// ExtractText extracts from already concatenated text. The text is normalized
// again, which is a no-op for normalized input.
// An unmatched issue date stays at today's date without penalty.
func (e *Extractor) ExtractText(text string) domain.ExtractionResult {
	text = NormalizeText(text)
	scan := NewScan(text)

	data := domain.ExtractedData{
		IssueDate: domain.DateOf(e.now()),
		RawText:   text,
	}

	outcomes := make([]domain.FieldOutcome, 0, len(e.fields))
	for _, f := range e.fields {
		outcomes = append(outcomes, f.run(scan, &data))
	}

	summary := Aggregate(outcomes)
	data.Confidence = summary.Confidence

	return domain.ExtractionResult{
		Data:           data,
		Confidence:     summary.Confidence,
		QualityScore:   summary.QualityScore,
		NeedsReview:    summary.NeedsReview,
		ReviewRequired: summary.ReviewRequired,
		Outcomes:       outcomes,
	}
}
