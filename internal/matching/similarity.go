// Package matching scores how closely extracted names match registry names.
package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// Acceptance thresholds are inclusive.
const (
	LogisticThreshold = 0.6
	ClientThreshold   = 0.6
	BasinThreshold    = 0.8

	// AlternateFloor is the exclusive lower bound for alternate suggestions.
	AlternateFloor = 0.3
	MaxAlternates  = 5
)

// Similarity returns the normalized Levenshtein similarity of a and b,
// case-insensitively, in [0,1]. Two empty strings are identical.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(longest-dist) / float64(longest)
}

// ThresholdFor returns the acceptance threshold of a role.
func ThresholdFor(role domain.Role) float64 {
	switch role {
	case domain.RoleBasin:
		return BasinThreshold
	case domain.RoleClient:
		return ClientThreshold
	default:
		return LogisticThreshold
	}
}

// Accepted reports whether score clears the role's threshold.
func Accepted(role domain.Role, score float64) bool {
	return score >= ThresholdFor(role)
}
