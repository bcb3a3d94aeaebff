package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven/mocks"
)

func newTestResolver(registry *mocks.MockRegistry) *Resolver {
	return NewResolver(ResolverConfig{Registry: registry, Timeout: time.Second})
}

// scripted returns fixed candidates without exact flags.
func scripted(names ...string) func(domain.Role, string) ([]domain.Suggestion, error) {
	return func(role domain.Role, _ string) ([]domain.Suggestion, error) {
		out := make([]domain.Suggestion, len(names))
		for i, n := range names {
			out[i] = domain.Suggestion{ID: fmt.Sprintf("%s-%d", role, i), Name: n}
		}
		return out, nil
	}
}

func TestResolver_NoCandidatesIsNew(t *testing.T) {
	registry := mocks.NewMockRegistry()
	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName: "NUOVA DITTA SRL",
	})

	m := results.Match(domain.RoleSender)
	if m == nil {
		t.Fatal("expected sender match")
	}
	if !m.IsNew || m.Similarity != 0 || m.IsExactMatch || m.MatchedID != "" {
		t.Errorf("unexpected match %+v", m)
	}
	if m.ExtractedValue != "NUOVA DITTA SRL" {
		t.Errorf("expected extracted value to be kept, got %q", m.ExtractedValue)
	}
	if !results.NeedsReview {
		t.Error("expected needsReview")
	}
}

func TestResolver_BasinCodeWinsOverDescription(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.AddBasin(domain.Basin{ID: "b1", Code: "1234567", Description: "DEPOSITO CENTRALE", ClientID: "c1"})
	registry.AddBasin(domain.Basin{ID: "b2", Code: "7654321", Description: "ZONA INDUSTRIALE"})

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		BasinCode:        "1234567",
		BasinDescription: "ZONA INDUSTRIALE",
	})

	m := results.Match(domain.RoleBasin)
	if m == nil {
		t.Fatal("expected basin match")
	}
	if m.MatchedID != "b1" || m.Similarity != 1.0 || !m.IsExactMatch || m.IsNew {
		t.Errorf("unexpected basin match %+v", m)
	}
	if m.ExtractedValue != "1234567" {
		t.Errorf("expected code as extracted value, got %q", m.ExtractedValue)
	}
}

func TestResolver_BasinDescriptionFallback(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.AddBasin(domain.Basin{ID: "b1", Code: "1234567", Description: "DEPOSITO NORD"})

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		BasinCode:        "9999999",
		BasinDescription: "deposito nord",
	})

	m := results.Match(domain.RoleBasin)
	if m.MatchedID != "b1" || m.Similarity != 1.0 || m.IsExactMatch {
		t.Errorf("unexpected basin match %+v", m)
	}
}

func TestResolver_RegistryExactMatchShortCircuits(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.AddEntity(domain.RoleSender, "s1", "ACME RICICLI SRL")
	registry.AddEntity(domain.RoleSender, "s2", "ACME RICICLI")

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName: "acme ricicli srl",
	})

	m := results.Match(domain.RoleSender)
	if m.MatchedID != "s1" || !m.IsExactMatch || m.Similarity != 1.0 {
		t.Errorf("unexpected match %+v", m)
	}
	if len(results.Alternates[domain.RoleSender]) != 0 {
		t.Errorf("expected no alternates after exact match, got %v", results.Alternates[domain.RoleSender])
	}
}

func TestResolver_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		wantNew   bool
	}{
		{"at 0.6 accepted", "abcxy", false},
		{"below 0.6 rejected", "abxyz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockRegistry()
			registry.SuggestionsFn = scripted(tt.candidate)

			results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
				SenderName: "abcde",
			})
			m := results.Match(domain.RoleSender)
			if m.IsNew != tt.wantNew {
				t.Errorf("IsNew = %v, want %v (similarity %v)", m.IsNew, tt.wantNew, m.Similarity)
			}
			if tt.wantNew && (m.Similarity != 0 || m.MatchedID != "") {
				t.Errorf("rejected match must have no ID and zero similarity: %+v", m)
			}
		})
	}
}

func TestResolver_BasinThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantNew     bool
	}{
		{"at 0.8 accepted", "abcdx", false},
		{"0.6 rejected for basins", "abcxy", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockRegistry()
			registry.AddBasin(domain.Basin{ID: "b1", Code: "1111111", Description: tt.description})

			results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
				BasinDescription: "abcde",
			})
			if m := results.Match(domain.RoleBasin); m.IsNew != tt.wantNew {
				t.Errorf("IsNew = %v, want %v", m.IsNew, tt.wantNew)
			}
		})
	}
}

func TestResolver_Alternates(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.SuggestionsFn = scripted(
		"abcdexxxxx", // 0.5
		"abcdefghix", // 0.9, selected
		"abxxxxxxxx", // 0.2, below floor
		"abcdefghxx", // 0.8
		"abcdefgxxx", // 0.7
	)

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName: "abcdefghij",
	})

	m := results.Match(domain.RoleSender)
	if m.MatchedName != "abcdefghix" || math.Abs(m.Similarity-0.9) > 1e-9 {
		t.Fatalf("unexpected match %+v", m)
	}

	alts := results.Alternates[domain.RoleSender]
	want := []string{"abcdefghxx", "abcdefgxxx", "abcdexxxxx"}
	if len(alts) != len(want) {
		t.Fatalf("expected %d alternates, got %v", len(want), alts)
	}
	for i, name := range want {
		if alts[i].Name != name {
			t.Errorf("alternate %d = %q, want %q", i, alts[i].Name, name)
		}
	}
}

func TestResolver_AlternatesTruncated(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.SuggestionsFn = scripted("aaaa1", "aaaa2", "aaaa3", "aaaa4", "aaaa5", "aaaa6", "aaaa7")

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName: "aaaa",
	})

	if got := len(results.Alternates[domain.RoleSender]); got != 5 {
		t.Errorf("expected 5 alternates, got %d", got)
	}
}

func TestResolver_RejectedBestStillSuggested(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.SuggestionsFn = scripted("abcdexxxxx")

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName: "abcdefghij",
	})

	if !results.Match(domain.RoleSender).IsNew {
		t.Fatal("expected sender to be new")
	}
	alts := results.Alternates[domain.RoleSender]
	if len(alts) != 1 || alts[0].Name != "abcdexxxxx" {
		t.Errorf("expected rejected candidate as alternate, got %v", alts)
	}
}

func TestResolver_SkipsEmptyRoles(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.AddEntity(domain.RoleSender, "s1", "ACME")
	registry.AddClient("c1", "ACME")

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName: "ACME",
	})

	// The client falls back to the sender name.
	if len(results.Matches) != 2 {
		t.Fatalf("expected sender and client matches, got %v", results.Matches)
	}
	if results.Match(domain.RoleRecipient) != nil || results.Match(domain.RoleBasin) != nil {
		t.Error("roles without values must not be resolved")
	}
	if c := results.Match(domain.RoleClient); c.MatchedID != "c1" || c.Similarity != 1.0 {
		t.Errorf("unexpected client match %+v", c)
	}
	if results.Confidence != 1.0 || results.NeedsReview {
		t.Errorf("expected full confidence without review, got %v / %v", results.Confidence, results.NeedsReview)
	}
}

func TestResolver_ConfidenceIsMeanSimilarity(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.AddEntity(domain.RoleSender, "s1", "ACME")
	registry.AddEntity(domain.RoleRecipient, "r1", "abcxy")
	registry.AddClient("c1", "ACME")

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName:    "ACME",
		RecipientName: "abcde",
	})

	want := (1.0 + 0.6 + 1.0) / 3
	if math.Abs(results.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", results.Confidence, want)
	}
	if results.NeedsReview {
		t.Error("mean above 0.8 with no new roles should not need review")
	}
}

func TestResolver_RegistryUnreachable(t *testing.T) {
	registry := mocks.NewMockRegistry()
	registry.AddEntity(domain.RoleSender, "s1", "ACME")
	registry.ListBasinsFn = func() ([]domain.Basin, error) {
		return nil, errors.New("connection refused")
	}

	results := newTestResolver(registry).Resolve(context.Background(), domain.ExtractedData{
		SenderName: "ACME",
		BasinCode:  "1234567",
	})

	assertAllNew(t, results)
}

// blockingRegistry never answers until the context ends.
type blockingRegistry struct{}

func (blockingRegistry) Suggestions(ctx context.Context, _ domain.Role, _ string) ([]domain.Suggestion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingRegistry) ListClients(ctx context.Context) ([]domain.Client, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingRegistry) ListBasins(ctx context.Context) ([]domain.Basin, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolver_TimeoutTreatedAsUnreachable(t *testing.T) {
	r := NewResolver(ResolverConfig{Registry: blockingRegistry{}, Timeout: 20 * time.Millisecond})

	start := time.Now()
	results := r.Resolve(context.Background(), domain.ExtractedData{SenderName: "ACME"})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("resolve took %v", elapsed)
	}

	assertAllNew(t, results)
}

func assertAllNew(t *testing.T, results domain.MatchingResults) {
	t.Helper()
	if len(results.Matches) != len(domain.AllRoles) {
		t.Fatalf("expected every role, got %d", len(results.Matches))
	}
	for _, role := range domain.AllRoles {
		m := results.Match(role)
		if !m.IsNew || m.Similarity != 0 || m.MatchedID != "" {
			t.Errorf("%s: expected new with zero similarity, got %+v", role, m)
		}
	}
	if !results.NeedsReview || results.Confidence != 0 {
		t.Errorf("expected needsReview with zero confidence, got %v / %v", results.NeedsReview, results.Confidence)
	}
}
