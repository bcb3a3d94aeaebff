// Package auth verifies operator tokens issued by the identity provider.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

// Ensure Verifier implements TokenVerifier
var _ driven.TokenVerifier = (*Verifier)(nil)

// operatorClaims are the claims read from an operator token.
type operatorClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Config holds verifier configuration.
type Config struct {
	Secret string
	Issuer string        // checked when set
	Leeway time.Duration // clock skew tolerance (default: 30s)
}

// Verifier validates HS256 operator tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a new token verifier.
func NewVerifier(cfg Config) *Verifier {
	if cfg.Leeway <= 0 {
		cfg.Leeway = 30 * time.Second
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify validates the token and returns the operator it names.
func (v *Verifier) Verify(tokenString string) (*domain.Operator, error) {
	var claims operatorClaims
	token, err := v.parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenInvalid)
	}

	return &domain.Operator{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}
