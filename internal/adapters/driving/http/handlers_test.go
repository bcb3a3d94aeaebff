package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driving"
)

// Mock services for testing

type mockIntakeService struct {
	uploadFn      func(ctx context.Context, req driving.UploadRequest) (*domain.Intake, error)
	getFn         func(ctx context.Context, id string) (*domain.Intake, error)
	listFn        func(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error)
	createOrderFn func(ctx context.Context, intakeID string, corrections domain.Corrections, forceCreate bool) (*domain.CreationResult, error)
	createDataFn  func(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error)
	resolveFn     func(ctx context.Context, data domain.ExtractedData) domain.MatchingResults
	exportFn      func(ctx context.Context, w io.Writer) error
}

func (m *mockIntakeService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Intake, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIntakeService) Get(ctx context.Context, id string) (*domain.Intake, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIntakeService) List(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIntakeService) CreateOrder(ctx context.Context, intakeID string, corrections domain.Corrections, forceCreate bool) (*domain.CreationResult, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, intakeID, corrections, forceCreate)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIntakeService) CreateOrderFromData(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error) {
	if m.createDataFn != nil {
		return m.createDataFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIntakeService) Resolve(ctx context.Context, data domain.ExtractedData) domain.MatchingResults {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, data)
	}
	return domain.MatchingResults{}
}

func (m *mockIntakeService) ExportReviewQueue(ctx context.Context, w io.Writer) error {
	if m.exportFn != nil {
		return m.exportFn(ctx, w)
	}
	return errors.New("not implemented")
}

func (m *mockIntakeService) ExportContentType() string {
	return "application/test"
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func newTestServer(svc *mockIntakeService) *Server {
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	cfg.MaxUploadBytes = 1024
	cfg.RateLimit = 0
	return NewServer(cfg, svc, nil, &mockPinger{}, nil, nil)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func multipartUpload(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/intakes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	rr := serve(newTestServer(&mockIntakeService{}), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}

func TestHandleVersion(t *testing.T) {
	rr := serve(newTestServer(&mockIntakeService{}), httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rr.Body.String())
}

func TestHandleReady(t *testing.T) {
	s := newTestServer(&mockIntakeService{})
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	s.lock = &mockPinger{err: errors.New("redis down")}
	rr = serve(s, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "unavailable", body["checks"].(map[string]any)["lock"])
}

// Upload

func TestHandleUpload_Success(t *testing.T) {
	var got driving.UploadRequest
	svc := &mockIntakeService{
		uploadFn: func(ctx context.Context, req driving.UploadRequest) (*domain.Intake, error) {
			got = req
			return &domain.Intake{ID: "i1", Filename: req.Filename, Status: domain.IntakeExtracted}, nil
		},
	}

	rr := serve(newTestServer(svc), multipartUpload(t, "ordine.pdf", []byte("%PDF-1.4 body")))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "ordine.pdf", got.Filename)
	assert.Equal(t, []byte("%PDF-1.4 body"), got.Data)
	assert.Nil(t, got.Operator)

	var intake domain.Intake
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &intake))
	assert.Equal(t, "i1", intake.ID)
}

func TestHandleUpload_TooLarge(t *testing.T) {
	called := false
	svc := &mockIntakeService{
		uploadFn: func(ctx context.Context, req driving.UploadRequest) (*domain.Intake, error) {
			called = true
			return nil, nil
		},
	}

	rr := serve(newTestServer(svc), multipartUpload(t, "big.pdf", bytes.Repeat([]byte("x"), 2048)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.False(t, called)
}

func TestHandleUpload_MissingFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/intakes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := serve(newTestServer(&mockIntakeService{}), req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleUpload_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/intakes", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	rr := serve(newTestServer(&mockIntakeService{}), req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleUpload_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: extension", domain.ErrInvalidFileType), http.StatusUnsupportedMediaType},
		{fmt.Errorf("%w: no text", domain.ErrUnsupportedDocument), http.StatusUnprocessableEntity},
		{domain.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &mockIntakeService{
				uploadFn: func(ctx context.Context, req driving.UploadRequest) (*domain.Intake, error) {
					return nil, tt.err
				},
			}
			rr := serve(newTestServer(svc), multipartUpload(t, "a.pdf", []byte("%PDF-")))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

// Intakes

func TestHandleListIntakes(t *testing.T) {
	var got domain.IntakeFilter
	svc := &mockIntakeService{
		listFn: func(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error) {
			got = filter
			return []*domain.Intake{{ID: "i1"}, {ID: "i2"}}, nil
		},
	}

	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodGet, "/api/v1/intakes?status=HELD_FOR_REVIEW&limit=10&offset=5", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.IntakeFilter{Status: domain.IntakeHeldForReview, Limit: 10, Offset: 5}, got)

	var intakes []domain.Intake
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &intakes))
	assert.Len(t, intakes, 2)
}

func TestHandleListIntakes_BadParams(t *testing.T) {
	s := newTestServer(&mockIntakeService{})

	for _, q := range []string{"limit=abc", "offset=x"} {
		rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/intakes?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestHandleListIntakes_InvalidStatus(t *testing.T) {
	svc := &mockIntakeService{
		listFn: func(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error) {
			return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, filter.Status)
		},
	}

	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodGet, "/api/v1/intakes?status=NOPE", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGetIntake(t *testing.T) {
	svc := &mockIntakeService{
		getFn: func(ctx context.Context, id string) (*domain.Intake, error) {
			if id == "i1" {
				return &domain.Intake{ID: "i1"}, nil
			}
			return nil, domain.ErrNotFound
		},
	}
	s := newTestServer(svc)

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/intakes/i1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/intakes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleExportReviewQueue(t *testing.T) {
	svc := &mockIntakeService{
		exportFn: func(ctx context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "workbook")
			return err
		},
	}

	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodGet, "/api/v1/intakes/review.xlsx", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/test", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "review-queue.xlsx")
	assert.Equal(t, "workbook", rr.Body.String())
}

func TestHandleExportReviewQueue_Error(t *testing.T) {
	svc := &mockIntakeService{
		exportFn: func(ctx context.Context, w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return errors.New("boom")
		},
	}

	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodGet, "/api/v1/intakes/review.xlsx", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "partial")
}

// Orders

func TestHandleCreateOrderFromIntake(t *testing.T) {
	var gotID string
	var gotCorrections domain.Corrections
	var gotForce bool
	svc := &mockIntakeService{
		createOrderFn: func(ctx context.Context, intakeID string, c domain.Corrections, force bool) (*domain.CreationResult, error) {
			gotID, gotCorrections, gotForce = intakeID, c, force
			return &domain.CreationResult{Success: true, State: domain.CreationDone, Message: "pickup order o1 created"}, nil
		},
	}

	body := `{"corrections":{"senderName":"<b>ECO &amp; GREEN</b>"},"forceCreate":true}`
	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodPost, "/api/v1/intakes/i1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "i1", gotID)
	assert.True(t, gotForce)
	require.NotNil(t, gotCorrections.SenderName)
	assert.Equal(t, "ECO & GREEN", *gotCorrections.SenderName)
}

func TestHandleCreateOrderFromIntake_EmptyBody(t *testing.T) {
	svc := &mockIntakeService{
		createOrderFn: func(ctx context.Context, intakeID string, c domain.Corrections, force bool) (*domain.CreationResult, error) {
			assert.False(t, force)
			assert.Nil(t, c.SenderName)
			return &domain.CreationResult{State: domain.CreationHeldForReview}, nil
		},
	}

	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodPost, "/api/v1/intakes/i1/orders", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestHandleCreateOrderFromIntake_Errors(t *testing.T) {
	tests := map[string]struct {
		err    error
		status int
	}{
		"not found":   {domain.ErrNotFound, http.StatusNotFound},
		"in progress": {domain.ErrOrderInProgress, http.StatusConflict},
		"created":     {domain.ErrAlreadyCreated, http.StatusConflict},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &mockIntakeService{
				createOrderFn: func(ctx context.Context, intakeID string, c domain.Corrections, force bool) (*domain.CreationResult, error) {
					return nil, tt.err
				},
			}
			rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodPost, "/api/v1/intakes/i1/orders", strings.NewReader(`{}`)))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestHandleCreateOrderFromIntake_BadBody(t *testing.T) {
	rr := serve(newTestServer(&mockIntakeService{}), httptest.NewRequest(http.MethodPost, "/api/v1/intakes/i1/orders", strings.NewReader(`{"forceCreate":`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleCreateOrder(t *testing.T) {
	var got domain.CreationRequest
	svc := &mockIntakeService{
		createDataFn: func(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error) {
			got = req
			return &domain.CreationResult{State: domain.CreationRejected, Errors: []string{"orderNumber is required"}}, nil
		},
	}

	body := `{"extractedData":{"senderName":" <i>ACME</i> ","issueDate":"2024-05-15"},"forceCreate":false}`
	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "ACME", got.Extracted.SenderName)
	assert.Equal(t, "2024-05-15", got.Extracted.IssueDate.String())
}

func TestHandleResolve(t *testing.T) {
	svc := &mockIntakeService{
		resolveFn: func(ctx context.Context, data domain.ExtractedData) domain.MatchingResults {
			results := domain.NewMatchingResults()
			results.Matches[domain.RoleSender] = &domain.MatchResult{Role: domain.RoleSender, ExtractedValue: data.SenderName, IsNew: true}
			return results
		},
	}

	body := `{"extractedData":{"senderName":"ACME"}}`
	rr := serve(newTestServer(svc), httptest.NewRequest(http.MethodPost, "/api/v1/resolve", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	var results domain.MatchingResults
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &results))
	assert.Equal(t, "ACME", results.Matches[domain.RoleSender].ExtractedValue)
}

func TestHandleResolve_BadBody(t *testing.T) {
	rr := serve(newTestServer(&mockIntakeService{}), httptest.NewRequest(http.MethodPost, "/api/v1/resolve", strings.NewReader("nope")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreationStatus(t *testing.T) {
	tests := map[domain.CreationState]int{
		domain.CreationDone:          http.StatusCreated,
		domain.CreationHeldForReview: http.StatusAccepted,
		domain.CreationRejected:      http.StatusUnprocessableEntity,
		domain.CreationFailed:        http.StatusBadGateway,
	}
	for state, want := range tests {
		assert.Equal(t, want, creationStatus(&domain.CreationResult{State: state}), string(state))
	}
}

func TestStatusFor(t *testing.T) {
	status, _ := statusFor(fmt.Errorf("wrap: %w", domain.ErrTokenExpired))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = statusFor(fmt.Errorf("wrap: %w", domain.ErrRegistryUnavailable))
	assert.Equal(t, http.StatusBadGateway, status)

	status, msg := statusFor(errors.New("secret detail"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, msg, "secret")
}
