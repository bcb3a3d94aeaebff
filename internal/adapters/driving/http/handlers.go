package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driving"
)

// multipartOverhead is allowed on top of the document size for form boundaries and headers.
const multipartOverhead = 1 << 20

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateOrderRequest is the body of POST /api/v1/intakes/{id}/orders
type CreateOrderRequest struct {
	Corrections domain.Corrections `json:"corrections"`
	ForceCreate bool               `json:"forceCreate"`
}

// ResolveRequest is the body of POST /api/v1/resolve
type ResolveRequest struct {
	ExtractedData domain.ExtractedData `json:"extractedData"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true
	for name, p := range map[string]Pinger{"database": s.db, "lock": s.lock} {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "component", name, "error", err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": checks})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Intake endpoints

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload+multipartOverhead {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)

	if err := r.ParseMultipartForm(s.maxUpload + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	intake, err := s.intakeService.Upload(r.Context(), uploadRequest(r, header.Filename, header.Header.Get("Content-Type"), data))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, intake)
}

func (s *Server) handleListIntakes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.IntakeFilter{Status: domain.IntakeStatus(q.Get("status"))}

	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
	}

	intakes, err := s.intakeService.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, intakes)
}

func (s *Server) handleGetIntake(w http.ResponseWriter, r *http.Request) {
	intake, err := s.intakeService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, intake)
}

func (s *Server) handleExportReviewQueue(w http.ResponseWriter, r *http.Request) {
	// Buffer so a failed export can still produce an error response.
	var buf bytes.Buffer
	if err := s.intakeService.ExportReviewQueue(r.Context(), &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", s.intakeService.ExportContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="review-queue.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCreateOrderFromIntake(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.intakeService.CreateOrder(r.Context(), r.PathValue("id"), s.sanitizer.Corrections(req.Corrections), req.ForceCreate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, creationStatus(result), result)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Extracted = s.sanitizer.Data(req.Extracted)
	req.Corrections = s.sanitizer.Corrections(req.Corrections)

	result, err := s.intakeService.CreateOrderFromData(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, creationStatus(result), result)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results := s.intakeService.Resolve(r.Context(), s.sanitizer.Data(req.ExtractedData))
	writeJSON(w, http.StatusOK, results)
}

// Helper functions

func uploadRequest(r *http.Request, filename, contentType string, data []byte) driving.UploadRequest {
	return driving.UploadRequest{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		Operator:    GetOperator(r.Context()),
	}
}

// decodeOptionalBody decodes a JSON body; an empty body leaves v untouched.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// creationStatus maps a creation outcome to a response code.
// Held and rejected attempts are answers, not transport failures.
func creationStatus(result *domain.CreationResult) int {
	switch result.State {
	case domain.CreationDone:
		return http.StatusCreated
	case domain.CreationHeldForReview:
		return http.StatusAccepted
	case domain.CreationRejected:
		return http.StatusUnprocessableEntity
	case domain.CreationFailed:
		return http.StatusBadGateway
	}
	return http.StatusOK
}

// statusFor maps domain errors to HTTP status codes and client messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, "document too large"
	case errors.Is(err, domain.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType, "only PDF documents are accepted"
	case errors.Is(err, domain.ErrUnsupportedDocument):
		return http.StatusUnprocessableEntity, "document has no readable text"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrOrderInProgress):
		return http.StatusConflict, "order creation already in progress"
	case errors.Is(err, domain.ErrAlreadyCreated):
		return http.StatusConflict, "pickup order already created"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrRegistryUnavailable):
		return http.StatusBadGateway, "registry unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
	}
	writeError(w, status, message)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
