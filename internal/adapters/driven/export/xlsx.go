// Package export renders intakes into spreadsheets for offline review.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ReviewExporter = (*XLSXExporter)(nil)

// ContentTypeXLSX is the MIME type of Office Open XML workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet holding the review queue.
const SheetName = "Review"

var headers = []string{
	"Intake ID",
	"Filename",
	"Status",
	"Order Number",
	"Issue Date",
	"Sender",
	"Recipient",
	"Transporter",
	"Basin Code",
	"Flow Type",
	"Confidence",
	"Quality Score",
	"Review Required",
	"Fields To Review",
	"Message",
	"Uploaded At",
}

// XLSXExporter writes the review queue as a single-sheet workbook.
type XLSXExporter struct {
	logger *slog.Logger
}

// NewXLSXExporter creates a new exporter.
func NewXLSXExporter(logger *slog.Logger) *XLSXExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXExporter{logger: logger}
}

// ContentType returns the workbook MIME type.
func (e *XLSXExporter) ContentType() string {
	return ContentTypeXLSX
}

// Export writes one row per intake below a header row.
func (e *XLSXExporter) Export(w io.Writer, intakes []*domain.Intake) error {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, intake := range intakes {
		row := i + 2
		data := intake.Extraction.Data
		values := []any{
			guard(intake.ID),
			guard(intake.Filename),
			string(intake.Status),
			guard(data.OrderNumber),
			data.IssueDate.String(),
			guard(data.SenderName),
			guard(data.RecipientName),
			guard(data.TransporterValue()),
			guard(data.BasinCode),
			string(data.FlowType),
			intake.Extraction.Confidence,
			intake.Extraction.QualityScore,
			yesNo(intake.Extraction.ReviewRequired),
			strings.Join(intake.Extraction.NeedsReview, ", "),
			guard(intake.Message),
			intake.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "B", "B", 28)
	_ = f.SetColWidth(SheetName, "F", "H", 32)
	_ = f.SetColWidth(SheetName, "N", "O", 40)

	if len(intakes) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), len(intakes)+1)
		_ = f.AutoFilter(SheetName, "A1:"+last, nil)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("review queue exported",
		"rows", len(intakes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// guard keeps spreadsheet applications from evaluating extracted text as a formula.
func guard(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
