package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

var _ driven.DocumentDecoder = (*MockDecoder)(nil)

// MockDecoder returns preset pages for every document.
type MockDecoder struct {
	mu    sync.Mutex
	pages []string
	err   error
	calls int
}

// NewMockDecoder creates a decoder returning the given pages
func NewMockDecoder(pages ...string) *MockDecoder {
	return &MockDecoder{pages: pages}
}

// SetError makes every Decode call fail with err
func (m *MockDecoder) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockDecoder) Decode(ctx context.Context, data []byte) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.pages...), nil
}

// Calls returns how many times Decode was invoked
func (m *MockDecoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
