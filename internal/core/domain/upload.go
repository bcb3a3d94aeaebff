package domain

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// DefaultMaxUploadBytes is the document size ceiling (10 MB).
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// PDFMimeType is the only accepted document type.
const PDFMimeType = "application/pdf"

var pdfSignature = []byte("%PDF-")

// acceptedContentTypes lists declared MIME types accepted at the boundary.
// Generic types still have to pass the extension and signature checks.
var acceptedContentTypes = map[string]bool{
	PDFMimeType:                true,
	"application/x-pdf":        true,
	"application/octet-stream": true,
	"":                         true,
}

// ValidateUpload checks size, extension and declared content type before any decoding.
func ValidateUpload(filename, contentType string, size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if size > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, size, limit)
	}
	if size == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return fmt.Errorf("%w: extension %q", ErrInvalidFileType, filepath.Ext(filename))
	}

	mediaType := ""
	if contentType != "" {
		parsed, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: content type %q", ErrInvalidFileType, contentType)
		}
		mediaType = strings.ToLower(parsed)
	}
	if !acceptedContentTypes[mediaType] {
		return fmt.Errorf("%w: content type %q", ErrInvalidFileType, mediaType)
	}
	return nil
}

// HasPDFSignature reports whether the leading bytes carry the PDF magic header.
func HasPDFSignature(head []byte) bool {
	return bytes.HasPrefix(head, pdfSignature)
}
