package extraction

import (
	"regexp"
	"sort"
	"strings"
)

// TokenKind classifies a scanned candidate.
type TokenKind string

const (
	KindLongNumber    TokenKind = "long_number"    // 9-12 digits, candidate order numbers
	KindMediumNumber  TokenKind = "medium_number"  // 7-8 digits, candidate basin codes
	KindDecimalNumber TokenKind = "decimal_number" // candidate distances
	KindCompanyName   TokenKind = "company_name"
)

// Token is one scanner candidate. Position is the byte offset in the scanned text.
type Token struct {
	Value    string
	Kind     TokenKind
	Position int
}

// Scan is the immutable result of scanning a normalized text once.
// Field strategies share it so that positional heuristics all see the same ordering.
type Scan struct {
	Text   string
	Tokens []Token
}

var (
	digitRunPattern = regexp.MustCompile(`\d+`)
	decimalPattern  = regexp.MustCompile(`\d+[.,]\d+`)

	// Legal form or "CC"/"CSS" label followed by the name.
	companyPrefixPattern = regexp.MustCompile(`(?:\b(?:CSS|CC|SPA|SRL)\b|S\.R\.L\.|S\.P\.A\.)\s*:?\s*([A-Z&][A-Z &]{3,29})`)

	// Name ending in a legal form.
	companySuffixPattern = regexp.MustCompile(`\b[A-Z][A-Z &]{4,28}[A-Z&]\s+(?:S\.R\.L\.|S\.P\.A\.|SRL\b|SPA\b|SNC\b|SAS\b)`)

	// Leading party label swallowed by the suffix pattern.
	companyLabelPattern = regexp.MustCompile(`^(?:CSS|CC)\s+`)

	// Name ending in a sector keyword.
	companyKeywordPattern = regexp.MustCompile(`\b[A-Z][A-Z ]{0,16}(?:RICYCLE|PLASTIC|ECO|GREEN|AMBIENTE)\b`)
)

const (
	keywordCompanyMinLen = 4
	keywordCompanyMaxLen = 20
)

// NewScan scans text for numeric and company candidates, sorted by position.
// Overlapping patterns may yield duplicates.
func NewScan(text string) *Scan {
	var tokens []Token

	for _, loc := range digitRunPattern.FindAllStringIndex(text, -1) {
		run := text[loc[0]:loc[1]]
		switch n := len(run); {
		case n >= 9 && n <= 12:
			tokens = append(tokens, Token{Value: run, Kind: KindLongNumber, Position: loc[0]})
		case n == 7 || n == 8:
			tokens = append(tokens, Token{Value: run, Kind: KindMediumNumber, Position: loc[0]})
		}
	}

	for _, loc := range decimalPattern.FindAllStringIndex(text, -1) {
		tokens = append(tokens, Token{Value: text[loc[0]:loc[1]], Kind: KindDecimalNumber, Position: loc[0]})
	}

	for _, m := range companyPrefixPattern.FindAllStringSubmatchIndex(text, -1) {
		name := captureName(text, m[2], m[3])
		if name == "" {
			continue
		}
		tokens = append(tokens, Token{Value: name, Kind: KindCompanyName, Position: m[2]})
	}

	for _, loc := range companySuffixPattern.FindAllStringIndex(text, -1) {
		start := skipLabel(text, loc[0], loc[1])
		tokens = append(tokens, Token{Value: text[start:loc[1]], Kind: KindCompanyName, Position: start})
	}

	for _, loc := range companyKeywordPattern.FindAllStringIndex(text, -1) {
		start := skipLabel(text, loc[0], loc[1])
		name := strings.TrimSpace(text[start:loc[1]])
		if len(name) < keywordCompanyMinLen || len(name) > keywordCompanyMaxLen {
			continue
		}
		tokens = append(tokens, Token{Value: name, Kind: KindCompanyName, Position: start})
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Position < tokens[j].Position
	})

	return &Scan{Text: text, Tokens: tokens}
}

// skipLabel returns the offset past a leading "CC"/"CSS" label in text[start:end].
func skipLabel(text string, start, end int) int {
	if label := companyLabelPattern.FindString(text[start:end]); label != "" {
		return start + len(label)
	}
	return start
}

// Of returns the tokens of one kind in position order.
func (s *Scan) Of(kind TokenKind) []Token {
	var out []Token
	for _, t := range s.Tokens {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}
