package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the operator token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the operator token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrDocumentTooLarge indicates the upload exceeds the size ceiling
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrInvalidFileType indicates the upload is not a PDF by extension, MIME type or signature
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrUnsupportedDocument indicates the document carries no selectable text or cannot be read
	ErrUnsupportedDocument = errors.New("unsupported or unreadable document")

	// ErrRegistryUnavailable indicates the registry API could not be reached
	ErrRegistryUnavailable = errors.New("registry unavailable")

	// ErrNoBasins indicates the registry has no basins configured
	ErrNoBasins = errors.New("no basins configured")

	// ErrMissingEntityID indicates a mandatory logistic entity has no identifier
	ErrMissingEntityID = errors.New("missing entity identifier")

	// ErrOrderInProgress indicates another instance is creating the same order
	ErrOrderInProgress = errors.New("order creation already in progress")

	// ErrAlreadyCreated indicates the intake has already been turned into a pickup order
	ErrAlreadyCreated = errors.New("pickup order already created")
)
