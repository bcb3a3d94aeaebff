package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

var _ driven.IntakeStore = (*MockIntakeStore)(nil)

// MockIntakeStore is a mock implementation of IntakeStore for testing
type MockIntakeStore struct {
	mu      sync.RWMutex
	intakes map[string]*domain.Intake

	SaveErr error
}

// NewMockIntakeStore creates a new MockIntakeStore
func NewMockIntakeStore() *MockIntakeStore {
	return &MockIntakeStore{
		intakes: make(map[string]*domain.Intake),
	}
}

func (m *MockIntakeStore) Save(ctx context.Context, intake *domain.Intake) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *intake
	m.intakes[intake.ID] = &cp
	return nil
}

func (m *MockIntakeStore) Get(ctx context.Context, id string) (*domain.Intake, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	intake, ok := m.intakes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *intake
	return &cp, nil
}

func (m *MockIntakeStore) List(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error) {
	filter = filter.Normalize()

	m.mu.RLock()
	all := make([]*domain.Intake, 0, len(m.intakes))
	for _, intake := range m.intakes {
		if filter.Status != "" && intake.Status != filter.Status {
			continue
		}
		cp := *intake
		all = append(all, &cp)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if filter.Offset >= len(all) {
		return []*domain.Intake{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (m *MockIntakeStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, intake := range m.intakes {
		if intake.CreatedAt.Before(cutoff) {
			delete(m.intakes, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored intakes
func (m *MockIntakeStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.intakes)
}
