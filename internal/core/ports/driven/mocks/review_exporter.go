package mocks

import (
	"io"
	"sync"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

var _ driven.ReviewExporter = (*MockReviewExporter)(nil)

// MockReviewExporter writes one line per intake ID.
type MockReviewExporter struct {
	mu       sync.Mutex
	exported []*domain.Intake
}

// NewMockReviewExporter creates a new MockReviewExporter
func NewMockReviewExporter() *MockReviewExporter {
	return &MockReviewExporter{}
}

func (m *MockReviewExporter) ContentType() string {
	return "text/plain"
}

func (m *MockReviewExporter) Export(w io.Writer, intakes []*domain.Intake) error {
	m.mu.Lock()
	m.exported = append([]*domain.Intake(nil), intakes...)
	m.mu.Unlock()

	for _, intake := range intakes {
		if _, err := io.WriteString(w, intake.ID+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Exported returns the intakes passed to the last Export call
func (m *MockReviewExporter) Exported() []*domain.Intake {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Intake(nil), m.exported...)
}
