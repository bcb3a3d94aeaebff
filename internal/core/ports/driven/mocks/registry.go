package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

var _ driven.Registry = (*MockRegistry)(nil)

// MockRegistry is an in-memory registry for testing.
// Suggestions returns every entity registered for the role and flags
// case-insensitive name equality as an exact match.
type MockRegistry struct {
	mu       sync.RWMutex
	entities map[domain.Role][]domain.Suggestion
	clients  []domain.Client
	basins   []domain.Basin
	created  []domain.NewLogisticEntity
	orders   []domain.PickupOrderPayload
	nextID   int

	// Optional hooks
	SuggestionsFn  func(role domain.Role, name string) ([]domain.Suggestion, error)
	ListClientsFn  func() ([]domain.Client, error)
	ListBasinsFn   func() ([]domain.Basin, error)
	CreateEntityFn func(entity domain.NewLogisticEntity) (string, error)
	CreateOrderFn  func(payload domain.PickupOrderPayload) (*domain.PickupOrder, error)
}

// NewMockRegistry creates a new MockRegistry
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		entities: make(map[domain.Role][]domain.Suggestion),
	}
}

// AddEntity registers a logistic entity for a role.
func (m *MockRegistry) AddEntity(role domain.Role, id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[role] = append(m.entities[role], domain.Suggestion{ID: id, Name: name})
}

// AddClient registers a client.
func (m *MockRegistry) AddClient(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = append(m.clients, domain.Client{ID: id, Name: name})
}

// AddBasin registers a basin.
func (m *MockRegistry) AddBasin(basin domain.Basin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.basins = append(m.basins, basin)
}

func (m *MockRegistry) Suggestions(ctx context.Context, role domain.Role, name string) ([]domain.Suggestion, error) {
	if m.SuggestionsFn != nil {
		return m.SuggestionsFn(role, name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.Suggestion, 0, len(m.entities[role]))
	for _, s := range m.entities[role] {
		s.IsExactMatch = strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name))
		result = append(result, s)
	}
	return result, nil
}

func (m *MockRegistry) ListClients(ctx context.Context) ([]domain.Client, error) {
	if m.ListClientsFn != nil {
		return m.ListClientsFn()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Client(nil), m.clients...), nil
}

func (m *MockRegistry) ListBasins(ctx context.Context) ([]domain.Basin, error) {
	if m.ListBasinsFn != nil {
		return m.ListBasinsFn()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Basin(nil), m.basins...), nil
}

func (m *MockRegistry) CreateLogisticEntity(ctx context.Context, entity domain.NewLogisticEntity) (string, error) {
	m.mu.Lock()
	m.created = append(m.created, entity)
	m.mu.Unlock()

	if m.CreateEntityFn != nil {
		return m.CreateEntityFn(entity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("%s-new-%d", entity.Role, m.nextID)
	m.entities[entity.Role] = append(m.entities[entity.Role], domain.Suggestion{ID: id, Name: entity.Name})
	return id, nil
}

func (m *MockRegistry) CreatePickupOrder(ctx context.Context, payload domain.PickupOrderPayload) (*domain.PickupOrder, error) {
	m.mu.Lock()
	m.orders = append(m.orders, payload)
	m.mu.Unlock()

	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return &domain.PickupOrder{
		ID:          fmt.Sprintf("order-%d", m.nextID),
		OrderNumber: payload.OrderNumber,
		Status:      payload.Status,
		CreatedAt:   time.Now(),
	}, nil
}

// CreatedEntities returns every entity creation attempt, including failed ones.
func (m *MockRegistry) CreatedEntities() []domain.NewLogisticEntity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.NewLogisticEntity(nil), m.created...)
}

// Orders returns every order creation attempt, including failed ones.
func (m *MockRegistry) Orders() []domain.PickupOrderPayload {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.PickupOrderPayload(nil), m.orders...)
}

// Writes returns the number of write calls received.
func (m *MockRegistry) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.created) + len(m.orders)
}
