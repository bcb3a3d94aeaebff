package driven

import (
	"io"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// ReviewExporter renders the review queue into a spreadsheet.
type ReviewExporter interface {
	// ContentType is the MIME type of the rendered document.
	ContentType() string

	// Export writes the intakes to w.
	Export(w io.Writer, intakes []*domain.Intake) error
}
