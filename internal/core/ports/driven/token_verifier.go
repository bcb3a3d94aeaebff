package driven

import "github.com/custodia-labs/pickup-core/internal/core/domain"

// TokenVerifier validates operator bearer tokens issued by an external identity provider.
type TokenVerifier interface {
	// Verify returns the operator encoded in the token.
	// Returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
	Verify(token string) (*domain.Operator, error)
}
