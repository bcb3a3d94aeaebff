package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// IntakeStore persists processed uploads.
type IntakeStore interface {
	// Save creates or updates an intake
	Save(ctx context.Context, intake *domain.Intake) error

	// Get retrieves an intake by ID
	Get(ctx context.Context, id string) (*domain.Intake, error)

	// List retrieves intakes matching the filter, newest first
	List(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error)

	// DeleteOlderThan removes intakes created before the cutoff and returns how many were removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
