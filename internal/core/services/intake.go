package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driving"
	"github.com/custodia-labs/pickup-core/internal/extraction"
)

// Ensure intakeService implements IntakeService
var _ driving.IntakeService = (*intakeService)(nil)

// OrderLockTTL bounds how long one creation attempt may hold its order lock.
const OrderLockTTL = 2 * time.Minute

// intakeService implements the IntakeService interface
type intakeService struct {
	decoder      driven.DocumentDecoder
	extractor    *extraction.Extractor
	store        driven.IntakeStore
	resolver     driving.EntityResolver
	orchestrator driving.CreationOrchestrator
	lock         driven.DistributedLock
	exporter     driven.ReviewExporter
	maxUpload    int64
	now          func() time.Time
	logger       *slog.Logger
}

// IntakeServiceConfig holds the dependencies of the intake service.
type IntakeServiceConfig struct {
	Decoder      driven.DocumentDecoder
	Extractor    *extraction.Extractor // Optional: default extractor
	Store        driven.IntakeStore
	Resolver     driving.EntityResolver
	Orchestrator driving.CreationOrchestrator
	Lock         driven.DistributedLock // Optional: serialises creation per order number
	Exporter     driven.ReviewExporter  // Optional: required only for ExportReviewQueue
	MaxUpload    int64                  // Upload size ceiling in bytes (default: domain.DefaultMaxUploadBytes)
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewIntakeService creates a new IntakeService
func NewIntakeService(cfg IntakeServiceConfig) driving.IntakeService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extraction.New(extraction.WithClock(now))
	}
	maxUpload := cfg.MaxUpload
	if maxUpload <= 0 {
		maxUpload = domain.DefaultMaxUploadBytes
	}
	return &intakeService{
		decoder:      cfg.Decoder,
		extractor:    extractor,
		store:        cfg.Store,
		resolver:     cfg.Resolver,
		orchestrator: cfg.Orchestrator,
		lock:         cfg.Lock,
		exporter:     cfg.Exporter,
		maxUpload:    maxUpload,
		now:          now,
		logger:       logger,
	}
}

// Upload validates the file before decoding, then extracts and stores it.
func (s *intakeService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Intake, error) {
	if err := domain.ValidateUpload(req.Filename, req.ContentType, int64(len(req.Data)), s.maxUpload); err != nil {
		return nil, err
	}
	if !domain.HasPDFSignature(req.Data) {
		return nil, fmt.Errorf("%w: missing PDF signature", domain.ErrInvalidFileType)
	}

	pages, err := s.decoder.Decode(ctx, req.Data)
	if err != nil {
		return nil, err
	}

	result := s.extractor.Extract(pages)
	if result.Data.RawText == "" {
		return nil, fmt.Errorf("%w: no text extracted", domain.ErrUnsupportedDocument)
	}

	intake := domain.NewIntake(uuid.NewString(), req.Filename, len(pages), result, req.Operator, s.now())
	if err := s.store.Save(ctx, intake); err != nil {
		return nil, fmt.Errorf("save intake: %w", err)
	}

	s.logger.Info("document extracted",
		"intake_id", intake.ID,
		"filename", req.Filename,
		"pages", len(pages),
		"confidence", result.Confidence,
		"needs_review", result.NeedsReview,
	)
	return intake, nil
}

// Get retrieves an intake by ID
func (s *intakeService) Get(ctx context.Context, id string) (*domain.Intake, error) {
	return s.store.Get(ctx, id)
}

// List retrieves intakes, newest first
func (s *intakeService) List(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	return s.store.List(ctx, filter.Normalize())
}

// CreateOrder runs the orchestrator on a stored intake and records the outcome on it.
// The intake is reloaded and saved while its locks are held, so a concurrent
// attempt that waited on the lock sees the CREATED status.
func (s *intakeService) CreateOrder(ctx context.Context, intakeID string, corrections domain.Corrections, forceCreate bool) (*domain.CreationResult, error) {
	intake, err := s.store.Get(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	if err := alreadyCreated(intake); err != nil {
		return nil, err
	}

	req := domain.CreationRequest{
		Extracted:   intake.Extraction.Data,
		Corrections: corrections,
		ForceCreate: forceCreate,
	}
	number := orderNumberOf(req)

	var result *domain.CreationResult
	err = s.withLock(ctx, "intake:"+intake.ID, intake.ID, func(ctx context.Context) error {
		return s.withLock(ctx, orderLockKey(number), number, func(ctx context.Context) error {
			current, err := s.store.Get(ctx, intakeID)
			if err != nil {
				return err
			}
			if err := alreadyCreated(current); err != nil {
				return err
			}

			result = s.create(ctx, req, number)

			current.ApplyCreation(result, s.now())
			if err := s.store.Save(ctx, current); err != nil {
				// The registry write already happened; report the result anyway.
				s.logger.Error("failed to record creation outcome",
					"intake_id", current.ID,
					"state", result.State,
					"error", err,
				)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateOrderFromData runs the orchestrator on caller-supplied data
func (s *intakeService) CreateOrderFromData(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error) {
	number := orderNumberOf(req)
	var result *domain.CreationResult
	err := s.withLock(ctx, orderLockKey(number), number, func(ctx context.Context) error {
		result = s.create(ctx, req, number)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *intakeService) create(ctx context.Context, req domain.CreationRequest, number string) *domain.CreationResult {
	result := s.orchestrator.Create(ctx, req)
	s.logger.Info("creation attempt finished",
		"order_number", number,
		"state", result.State,
		"success", result.Success,
	)
	return result
}

// withLock runs fn while holding key. An empty key runs fn unlocked.
// Only a lock held elsewhere blocks; lock backend errors are logged.
func (s *intakeService) withLock(ctx context.Context, key, subject string, fn func(ctx context.Context) error) error {
	if s.lock == nil || key == "" {
		return fn(ctx)
	}

	acquired, err := s.lock.Acquire(ctx, key, OrderLockTTL)
	switch {
	case err != nil:
		s.logger.Warn("creation lock unavailable, continuing without it", "lock", key, "error", err)
		return fn(ctx)
	case !acquired:
		return fmt.Errorf("%w: %s", domain.ErrOrderInProgress, subject)
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("failed to release creation lock", "lock", key, "error", err)
		}
	}()
	return fn(ctx)
}

func orderNumberOf(req domain.CreationRequest) string {
	return strings.TrimSpace(domain.Merge(req.Extracted, req.Corrections).OrderNumber)
}

func orderLockKey(number string) string {
	if number == "" {
		return ""
	}
	return "order:" + number
}

func alreadyCreated(intake *domain.Intake) error {
	if intake.Status == domain.IntakeCreated {
		return fmt.Errorf("%w: intake %s is order %s", domain.ErrAlreadyCreated, intake.ID, intake.OrderID)
	}
	return nil
}

// Resolve matches data against the registry without writing
func (s *intakeService) Resolve(ctx context.Context, data domain.ExtractedData) domain.MatchingResults {
	return s.resolver.Resolve(ctx, data)
}

// ExportReviewQueue writes every intake still awaiting an operator.
func (s *intakeService) ExportReviewQueue(ctx context.Context, w io.Writer) error {
	if s.exporter == nil {
		return errors.New("review export not configured")
	}

	var queue []*domain.Intake
	for _, status := range []domain.IntakeStatus{domain.IntakeHeldForReview, domain.IntakeExtracted} {
		for offset := 0; ; offset += domain.MaxIntakeLimit {
			page, err := s.store.List(ctx, domain.IntakeFilter{Status: status, Limit: domain.MaxIntakeLimit, Offset: offset})
			if err != nil {
				return fmt.Errorf("list %s intakes: %w", status, err)
			}
			queue = append(queue, page...)
			if len(page) < domain.MaxIntakeLimit {
				break
			}
		}
	}

	return s.exporter.Export(w, queue)
}

// ExportContentType is the MIME type written by ExportReviewQueue
func (s *intakeService) ExportContentType() string {
	if s.exporter == nil {
		return ""
	}
	return s.exporter.ContentType()
}
