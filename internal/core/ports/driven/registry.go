package driven

import (
	"context"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// RegistryReader is the read side of the business registry API.
// All methods are independent reads and may be called concurrently.
type RegistryReader interface {
	// Suggestions returns logistic entity candidates for a role and name.
	// The registry may flag candidates it considers exact matches.
	Suggestions(ctx context.Context, role domain.Role, name string) ([]domain.Suggestion, error)

	// ListClients returns every client.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// ListBasins returns every basin.
	ListBasins(ctx context.Context) ([]domain.Basin, error)
}

// RegistryWriter is the write side of the business registry API.
type RegistryWriter interface {
	// CreateLogisticEntity creates a sender, recipient or transporter and returns its ID.
	CreateLogisticEntity(ctx context.Context, entity domain.NewLogisticEntity) (string, error)

	// CreatePickupOrder persists the final pickup order record.
	CreatePickupOrder(ctx context.Context, payload domain.PickupOrderPayload) (*domain.PickupOrder, error)
}

// Registry combines both sides of the registry API.
type Registry interface {
	RegistryReader
	RegistryWriter
}
