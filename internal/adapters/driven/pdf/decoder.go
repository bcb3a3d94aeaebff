// Package pdf decodes the selectable text of PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentDecoder = (*Decoder)(nil)

// Config holds decoder configuration.
type Config struct {
	MaxPages int // Longer documents are rejected (default: 200)
}

// DefaultConfig returns the default decoder configuration.
func DefaultConfig() Config {
	return Config{MaxPages: 200}
}

// Decoder extracts plain text page by page.
type Decoder struct {
	maxPages int
	logger   *slog.Logger
}

// NewDecoder creates a new PDF decoder.
func NewDecoder(cfg Config, logger *slog.Logger) *Decoder {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultConfig().MaxPages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{maxPages: cfg.MaxPages, logger: logger}
}

// pageSource is the part of a parsed document the decoder reads.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error) // n is 1-based
}

type libReader struct {
	r *pdflib.Reader
}

func (l libReader) NumPage() int { return l.r.NumPage() }

func (l libReader) PageText(n int) (string, error) {
	p := l.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// Decode returns the text of every page in page order.
// Pages are read sequentially; the parsed document is not safe for concurrent use.
func (d *Decoder) Decode(ctx context.Context, data []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrUnsupportedDocument, r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedDocument, err)
	}
	return d.decodePages(ctx, libReader{r: reader})
}

func (d *Decoder) decodePages(ctx context.Context, src pageSource) ([]string, error) {
	total := src.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrUnsupportedDocument)
	}
	if total > d.maxPages {
		return nil, fmt.Errorf("%w: %d pages exceeds limit of %d", domain.ErrUnsupportedDocument, total, d.maxPages)
	}

	pages := make([]string, 0, total)
	hasText := false
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(n)
		if err != nil {
			d.logger.Warn("page text unreadable, skipping", "page", n, "error", err)
			text = ""
		}
		text = cleanText(text)
		if strings.TrimSpace(text) != "" {
			hasText = true
		}
		pages = append(pages, text)
	}

	if !hasText {
		return nil, fmt.Errorf("%w: no selectable text", domain.ErrUnsupportedDocument)
	}
	return pages, nil
}

// cleanText composes Unicode sequences and blanks out invisible characters
// that would split words.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff':
			return -1
		case r == '\u00ad': // soft hyphen
			return -1
		case unicode.IsControl(r) && !unicode.IsSpace(r):
			return ' '
		}
		return r
	}, s)
}
