package driven

import "context"

// DocumentDecoder turns a document file into its selectable text, one string per page.
type DocumentDecoder interface {
	// Decode returns the page texts in page order.
	// Returns an error wrapping domain.ErrUnsupportedDocument when the file
	// cannot be read or carries no selectable text.
	Decode(ctx context.Context, data []byte) ([]string, error)
}
