package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driving"
)

// Ensure Orchestrator implements CreationOrchestrator
var _ driving.CreationOrchestrator = (*Orchestrator)(nil)

// Orchestrator drives one creation attempt from extracted data to a registry record.
type Orchestrator struct {
	registry      driven.Registry
	resolver      driving.EntityResolver
	initialStatus string
	logger        *slog.Logger
}

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	Registry      driven.Registry
	Resolver      driving.EntityResolver // Optional: defaults to a Resolver over Registry
	InitialStatus string                 // Status of created orders (default: domain.DefaultOrderStatus)
	Logger        *slog.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(ResolverConfig{Registry: cfg.Registry, Logger: logger})
	}
	status := cfg.InitialStatus
	if status == "" {
		status = domain.DefaultOrderStatus
	}
	return &Orchestrator{
		registry:      cfg.Registry,
		resolver:      resolver,
		initialStatus: status,
		logger:        logger,
	}
}

// Create runs validation, resolution, provisioning and record creation.
// Every outcome, including I/O failures, is reported in the returned result.
func (o *Orchestrator) Create(ctx context.Context, req domain.CreationRequest) *domain.CreationResult {
	data := domain.Merge(req.Extracted, req.Corrections)

	if errs := ValidateMandatory(data); len(errs) > 0 {
		return &domain.CreationResult{
			State:           domain.CreationRejected,
			MatchingResults: domain.PlaceholderMatchingResults(),
			Message:         "validation failed",
			Errors:          errs,
		}
	}

	matches := o.resolver.Resolve(ctx, data)
	if matches.NeedsReview && !req.ForceCreate {
		return &domain.CreationResult{
			State:           domain.CreationHeldForReview,
			MatchingResults: matches,
			Message:         fmt.Sprintf("manual review required: resolution confidence %d%%", percent(matches.Confidence)),
		}
	}

	basin, err := o.pickBasin(ctx, data, matches)
	if err != nil {
		return failed(matches, err)
	}

	created, ids, err := o.provision(ctx, data, matches)
	if err != nil {
		return failed(matches, err)
	}

	payload := o.payload(data, matches, basin, ids)
	record, err := o.registry.CreatePickupOrder(ctx, payload)
	if err != nil {
		return failed(matches, fmt.Errorf("create pickup order: %w", err))
	}

	o.logger.Info("pickup order created",
		"order_number", data.OrderNumber,
		"record_id", record.ID,
		"confidence", matches.Confidence,
		"forced", req.ForceCreate,
	)

	return &domain.CreationResult{
		Success:         true,
		State:           domain.CreationDone,
		CreatedRecord:   record,
		MatchingResults: matches,
		Message:         fmt.Sprintf("pickup order %s created", data.OrderNumber),
		CreatedEntities: created,
	}
}

// ValidateMandatory returns one message per missing mandatory field.
func ValidateMandatory(data domain.ExtractedData) []string {
	var errs []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{domain.FieldOrderNumber, data.OrderNumber},
		{domain.FieldSenderName, data.SenderName},
		{domain.FieldRecipientName, data.RecipientName},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, f.name+" is required")
		}
	}
	return errs
}

// pickBasin prefers a code match, then the resolver's choice, then any basin.
func (o *Orchestrator) pickBasin(ctx context.Context, data domain.ExtractedData, matches domain.MatchingResults) (domain.Basin, error) {
	basins, err := o.registry.ListBasins(ctx)
	if err != nil {
		return domain.Basin{}, fmt.Errorf("list basins: %w", err)
	}
	if len(basins) == 0 {
		return domain.Basin{}, domain.ErrNoBasins
	}

	if code := strings.TrimSpace(data.BasinCode); code != "" {
		for _, b := range basins {
			if strings.TrimSpace(b.Code) == code {
				return b, nil
			}
		}
	}
	if m := matches.Match(domain.RoleBasin); m != nil && !m.IsNew {
		for _, b := range basins {
			if b.ID == m.MatchedID {
				return b, nil
			}
		}
	}

	o.logger.Warn("basin not found, falling back to first registry basin",
		"basin_code", data.BasinCode,
		"fallback_basin", basins[0].ID,
	)
	return basins[0], nil
}

type provisionOutcome struct {
	id  string
	err error
}

// provision creates every new logistic entity concurrently.
// Outcomes are independent; only a missing sender or recipient is fatal.
func (o *Orchestrator) provision(ctx context.Context, data domain.ExtractedData, matches domain.MatchingResults) (map[domain.Role]string, map[domain.Role]string, error) {
	ids := make(map[domain.Role]string)
	outcomes := make([]provisionOutcome, len(domain.LogisticRoles))

	var wg sync.WaitGroup
	for i, role := range domain.LogisticRoles {
		m := matches.Match(role)
		if m == nil {
			continue
		}
		if !m.IsNew {
			ids[role] = m.MatchedID
			continue
		}
		name := strings.TrimSpace(m.ExtractedValue)
		if name == "" {
			o.logger.Warn("skipping auto-creation of entity without a name", "role", role)
			continue
		}

		entity := domain.NewLogisticEntity{Role: role, Name: name, Contact: contactFor(role, data)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := o.registry.CreateLogisticEntity(ctx, entity)
			outcomes[i] = provisionOutcome{id: id, err: err}
		}()
	}
	wg.Wait()

	created := make(map[domain.Role]string)
	for i, role := range domain.LogisticRoles {
		out := outcomes[i]
		if out.err != nil {
			if role == domain.RoleSender || role == domain.RoleRecipient {
				return created, ids, fmt.Errorf("create %s: %w", role, out.err)
			}
			o.logger.Warn("auto-creation failed for optional entity", "role", role, "error", out.err)
			continue
		}
		if out.id != "" {
			ids[role] = out.id
			created[role] = out.id
		}
	}

	for _, role := range []domain.Role{domain.RoleSender, domain.RoleRecipient} {
		if ids[role] == "" {
			return created, ids, fmt.Errorf("%s: %w", role, domain.ErrMissingEntityID)
		}
	}
	return created, ids, nil
}

func contactFor(role domain.Role, data domain.ExtractedData) domain.Contact {
	switch role {
	case domain.RoleSender:
		return data.SenderContact
	case domain.RoleRecipient:
		return data.RecipientContact
	}
	return domain.Contact{}
}

func (o *Orchestrator) payload(data domain.ExtractedData, matches domain.MatchingResults, basin domain.Basin, ids map[domain.Role]string) domain.PickupOrderPayload {
	clientID := basin.ClientID
	if m := matches.Match(domain.RoleClient); m != nil && !m.IsNew {
		clientID = m.MatchedID
	}
	flow := data.FlowType
	if flow == "" {
		flow = basin.FlowType
	}

	var distance *float64
	if data.DistanceKm != nil {
		v := *data.DistanceKm
		distance = &v
	}

	return domain.PickupOrderPayload{
		OrderNumber:      strings.TrimSpace(data.OrderNumber),
		IssueDate:        data.IssueDate.String(),
		LoadingDate:      dateString(data.LoadingDate),
		UnloadingDate:    dateString(data.UnloadingDate),
		AvailabilityDate: dateString(data.AvailabilityDate),
		ScheduledDate:    dateString(data.ScheduledDate),
		SenderID:         ids[domain.RoleSender],
		RecipientID:      ids[domain.RoleRecipient],
		TransporterID:    ids[domain.RoleTransporter],
		ClientID:         clientID,
		BasinID:          basin.ID,
		FlowType:         flow,
		DistanceKm:       distance,
		TransportType:    data.TransportType,
		Status:           o.initialStatus,
		Notes:            fmt.Sprintf("Created from pickup order PDF, resolution confidence %d%%", percent(matches.Confidence)),
	}
}

func dateString(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func percent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

func failed(matches domain.MatchingResults, err error) *domain.CreationResult {
	return &domain.CreationResult{
		State:           domain.CreationFailed,
		MatchingResults: matches,
		Message:         err.Error(),
		Errors:          []string{err.Error()},
	}
}
