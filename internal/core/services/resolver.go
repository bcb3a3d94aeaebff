package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driving"
	"github.com/custodia-labs/pickup-core/internal/matching"
)

// Ensure Resolver implements EntityResolver
var _ driving.EntityResolver = (*Resolver)(nil)

// candidate is a registry record reduced to what scoring needs.
type candidate struct {
	id    string
	name  string
	exact bool
}

// Resolver matches extracted entity names against the registry.
type Resolver struct {
	registry driven.RegistryReader
	timeout  time.Duration
	logger   *slog.Logger
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	Registry driven.RegistryReader
	Timeout  time.Duration // Bound on all registry reads of one resolution (default: 10s)
	Logger   *slog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		registry: cfg.Registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Resolve matches every role that has an extracted value.
// It never fails: if any registry read errors or times out, every role is
// reported as new with zero similarity.
func (r *Resolver) Resolve(ctx context.Context, data domain.ExtractedData) domain.MatchingResults {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	values := roleValues(data)
	g, gctx := errgroup.WithContext(ctx)

	logistic := make([][]domain.Suggestion, len(domain.LogisticRoles))
	for i, role := range domain.LogisticRoles {
		if values[role] == "" {
			continue
		}
		g.Go(func() error {
			suggestions, err := r.registry.Suggestions(gctx, role, values[role])
			if err != nil {
				return fmt.Errorf("suggestions for %s: %w", role, err)
			}
			logistic[i] = suggestions
			return nil
		})
	}

	var clients []domain.Client
	if values[domain.RoleClient] != "" {
		g.Go(func() error {
			var err error
			if clients, err = r.registry.ListClients(gctx); err != nil {
				return fmt.Errorf("list clients: %w", err)
			}
			return nil
		})
	}

	var basins []domain.Basin
	if values[domain.RoleBasin] != "" {
		g.Go(func() error {
			var err error
			if basins, err = r.registry.ListBasins(gctx); err != nil {
				return fmt.Errorf("list basins: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Warn("registry unreachable, marking every role as new", "error", err)
		return UnreachableResults(data)
	}

	results := domain.NewMatchingResults()
	for i, role := range domain.LogisticRoles {
		if values[role] == "" {
			continue
		}
		cands := make([]candidate, len(logistic[i]))
		for j, s := range logistic[i] {
			cands[j] = candidate{id: s.ID, name: s.Name, exact: s.IsExactMatch}
		}
		results.Matches[role], results.Alternates[role] = selectByName(role, values[role], cands)
	}

	if value := values[domain.RoleClient]; value != "" {
		cands := make([]candidate, len(clients))
		for j, c := range clients {
			cands[j] = candidate{id: c.ID, name: c.Name}
		}
		results.Matches[domain.RoleClient], results.Alternates[domain.RoleClient] = selectByName(domain.RoleClient, value, cands)
	}

	if values[domain.RoleBasin] != "" {
		results.Matches[domain.RoleBasin], results.Alternates[domain.RoleBasin] = selectBasin(data, basins)
	}

	results.Finalize()
	return results
}

// UnreachableResults is the degraded result used when the registry cannot be read.
func UnreachableResults(data domain.ExtractedData) domain.MatchingResults {
	values := roleValues(data)
	results := domain.NewMatchingResults()
	for _, role := range domain.AllRoles {
		results.Matches[role] = newEntity(role, values[role])
	}
	results.Finalize()
	return results
}

func roleValues(data domain.ExtractedData) map[domain.Role]string {
	basin := data.BasinCode
	if strings.TrimSpace(basin) == "" {
		basin = data.BasinDescription
	}
	values := map[domain.Role]string{
		domain.RoleSender:      data.SenderName,
		domain.RoleRecipient:   data.RecipientName,
		domain.RoleTransporter: data.TransporterValue(),
		domain.RoleClient:      data.ClientValue(),
		domain.RoleBasin:       basin,
	}
	for role, v := range values {
		values[role] = strings.TrimSpace(v)
	}
	return values
}

func newEntity(role domain.Role, value string) *domain.MatchResult {
	return &domain.MatchResult{Role: role, ExtractedValue: value, IsNew: true}
}

// selectByName picks the best-scoring candidate above the role threshold.
// A candidate the registry flags as exact wins outright.
func selectByName(role domain.Role, value string, cands []candidate) (*domain.MatchResult, []domain.Alternate) {
	for _, c := range cands {
		if c.exact {
			return &domain.MatchResult{
				Role:           role,
				ExtractedValue: value,
				MatchedID:      c.id,
				MatchedName:    c.name,
				Similarity:     1.0,
				IsExactMatch:   true,
			}, nil
		}
	}

	scores := make([]float64, len(cands))
	best := -1
	for i, c := range cands {
		scores[i] = matching.Similarity(value, c.name)
		if best < 0 || scores[i] > scores[best] {
			best = i
		}
	}

	if best < 0 || !matching.Accepted(role, scores[best]) {
		return newEntity(role, value), alternates(cands, scores, "")
	}

	match := &domain.MatchResult{
		Role:           role,
		ExtractedValue: value,
		MatchedID:      cands[best].id,
		MatchedName:    cands[best].name,
		Similarity:     scores[best],
	}
	return match, alternates(cands, scores, match.MatchedID)
}

// selectBasin matches by exact code first, then by description similarity.
func selectBasin(data domain.ExtractedData, basins []domain.Basin) (*domain.MatchResult, []domain.Alternate) {
	code := strings.TrimSpace(data.BasinCode)
	value := code
	if value == "" {
		value = strings.TrimSpace(data.BasinDescription)
	}

	if code != "" {
		for _, b := range basins {
			if strings.TrimSpace(b.Code) == code {
				return &domain.MatchResult{
					Role:           domain.RoleBasin,
					ExtractedValue: value,
					MatchedID:      b.ID,
					MatchedName:    b.Description,
					Similarity:     1.0,
					IsExactMatch:   true,
				}, nil
			}
		}
	}

	description := strings.TrimSpace(data.BasinDescription)
	if description == "" {
		return newEntity(domain.RoleBasin, value), nil
	}

	cands := make([]candidate, len(basins))
	for i, b := range basins {
		cands[i] = candidate{id: b.ID, name: b.Description}
	}
	match, alts := selectByName(domain.RoleBasin, description, cands)
	match.ExtractedValue = value
	return match, alts
}

// alternates returns candidates scoring above the floor, best first,
// excluding the selected ID.
func alternates(cands []candidate, scores []float64, selectedID string) []domain.Alternate {
	var out []domain.Alternate
	for i, c := range cands {
		if c.id == selectedID && selectedID != "" {
			continue
		}
		if scores[i] > matching.AlternateFloor {
			out = append(out, domain.Alternate{ID: c.id, Name: c.name, Similarity: scores[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > matching.MaxAlternates {
		out = out[:matching.MaxAlternates]
	}
	return out
}
