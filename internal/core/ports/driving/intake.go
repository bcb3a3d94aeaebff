package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// UploadRequest is one document submitted for extraction.
type UploadRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	Operator    *domain.Operator // nil when auth is disabled
}

// IntakeService handles document intake and pickup order creation.
type IntakeService interface {
	// Upload validates, decodes and extracts a document, then stores the intake
	Upload(ctx context.Context, req UploadRequest) (*domain.Intake, error)

	// Get retrieves an intake by ID
	Get(ctx context.Context, id string) (*domain.Intake, error)

	// List retrieves intakes, newest first
	List(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error)

	// CreateOrder runs a creation attempt on a stored intake and records the outcome
	CreateOrder(ctx context.Context, intakeID string, corrections domain.Corrections, forceCreate bool) (*domain.CreationResult, error)

	// CreateOrderFromData runs a creation attempt on caller-supplied data
	CreateOrderFromData(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error)

	// Resolve matches extracted data against the registry without creating anything
	Resolve(ctx context.Context, data domain.ExtractedData) domain.MatchingResults

	// ExportReviewQueue writes every intake awaiting an operator to w
	ExportReviewQueue(ctx context.Context, w io.Writer) error

	// ExportContentType is the MIME type written by ExportReviewQueue
	ExportContentType() string
}

// CreationOrchestrator turns extracted data into a registry pickup order.
type CreationOrchestrator interface {
	// Create always returns a terminal result; failures are reported in it
	Create(ctx context.Context, req domain.CreationRequest) *domain.CreationResult
}

// EntityResolver matches extracted names against registry records.
type EntityResolver interface {
	// Resolve never fails; an unreachable registry yields an all-new result
	Resolve(ctx context.Context, data domain.ExtractedData) domain.MatchingResults
}
