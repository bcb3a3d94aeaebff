package domain

import "time"

// IntakeStatus is the lifecycle state of a processed upload.
type IntakeStatus string

const (
	IntakeExtracted     IntakeStatus = "EXTRACTED"
	IntakeHeldForReview IntakeStatus = "HELD_FOR_REVIEW"
	IntakeCreated       IntakeStatus = "CREATED"
	IntakeRejected      IntakeStatus = "REJECTED"
	IntakeFailed        IntakeStatus = "FAILED"
)

// IsValid checks if the status is known
func (s IntakeStatus) IsValid() bool {
	switch s {
	case IntakeExtracted, IntakeHeldForReview, IntakeCreated, IntakeRejected, IntakeFailed:
		return true
	}
	return false
}

// InReviewQueue reports whether an operator still has to act on the intake.
func (s IntakeStatus) InReviewQueue() bool {
	return s == IntakeExtracted || s == IntakeHeldForReview
}

// Intake is one uploaded document together with its extraction and creation history.
type Intake struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	PageCount  int              `json:"pageCount"`
	Extraction ExtractionResult `json:"extraction"`
	Status     IntakeStatus     `json:"status"`
	Message    string           `json:"message,omitempty"`
	OrderID    string           `json:"orderId,omitempty"`
	OperatorID string           `json:"operatorId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// NewIntake creates an intake in the EXTRACTED state.
func NewIntake(id, filename string, pageCount int, result ExtractionResult, operator *Operator, now time.Time) *Intake {
	intake := &Intake{
		ID:         id,
		Filename:   filename,
		PageCount:  pageCount,
		Extraction: result,
		Status:     IntakeExtracted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if operator != nil {
		intake.OperatorID = operator.ID
	}
	return intake
}

// ApplyCreation records the outcome of a creation attempt.
func (i *Intake) ApplyCreation(result *CreationResult, now time.Time) {
	i.Message = result.Message
	i.UpdatedAt = now

	switch result.State {
	case CreationDone:
		i.Status = IntakeCreated
		if result.CreatedRecord != nil {
			i.OrderID = result.CreatedRecord.ID
		}
	case CreationHeldForReview:
		i.Status = IntakeHeldForReview
	case CreationRejected:
		i.Status = IntakeRejected
	default:
		i.Status = IntakeFailed
	}
}

// IntakeFilter selects intakes for listing.
type IntakeFilter struct {
	Status IntakeStatus
	Limit  int
	Offset int
}

// DefaultIntakeLimit and MaxIntakeLimit bound list pages.
const (
	DefaultIntakeLimit = 50
	MaxIntakeLimit     = 500
)

// Normalize clamps paging values.
func (f IntakeFilter) Normalize() IntakeFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultIntakeLimit
	}
	if f.Limit > MaxIntakeLimit {
		f.Limit = MaxIntakeLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
