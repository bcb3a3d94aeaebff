package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// Penalties subtracted from the starting confidence.
const (
	PenaltyMissingOrderNumber = 15
	PenaltyMissingBasinCode   = 15
	PenaltyMissingParty       = 15
	PenaltyGuessedParty       = 5
	PenaltyMissingFlowType    = 10
)

const (
	minNameLen     = 3
	maxDistanceKm  = 10000
	headOfDocument = 0.3
)

var (
	orderLabelPattern = regexp.MustCompile(`(?i)\bPROD\.?\s*\d{1,6}\s+(\d{11,})\b`)

	basinListPattern  = regexp.MustCompile(`(?i)\blista\s+(?:dei\s+)?bacini\b\D{0,30}?\b(\d{7})\b`)
	basinLabelPattern = regexp.MustCompile(`(?i)\bbacino\b\D{0,30}?\b(\d{7})\b`)

	issueDateLabelPattern = regexp.MustCompile(`(?i)\b(?:data(?:\s+(?:di\s+)?(?:emissione|documento|ordine))?|emess[oa](?:\s+il)?|del)\s*:?\s*(\d{1,2})\s+(` + monthAlternation + `)\s+(\d{4})\b`)
	textualDatePattern    = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + monthAlternation + `)\s+(\d{4})\b`)
	numericDatePattern    = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)
	datePairPattern       = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\s*(?:/|-|(?i:scarico|carico)\s*:?)\s*(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)

	senderLabelPattern = regexp.MustCompile(`(?:(?i:\bmittente)\s*:?\s*|\bCC\b\s*:?\s*)([A-Z][A-Z ]{3,29})`)

	recipientLegalPattern   = regexp.MustCompile(`\bCSS\b\s*:?\s*([A-Z][A-Z &.']{2,40}?\s(?:S\.R\.L\.|S\.P\.A\.|SRL|SPA|SNC|SAS))(?:[^A-Za-z]|$)`)
	recipientUpperPattern   = regexp.MustCompile(`\bCSS\b\s*:?\s*([A-Z][A-Z &]{3,29})`)
	recipientLoosePattern   = regexp.MustCompile(`(?i:\bcss\b)\W{0,3}([A-Za-z][A-Za-z&.' ]{3,40})`)
	recipientKeywordPattern = regexp.MustCompile(`(?i:\bdestinatario)\s*:?\s*([A-Z][A-Z &.']{3,39})`)

	flowPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\btipo\s+(?:di\s+)?flusso)\s*:?\s*([A-D])\b`),
		regexp.MustCompile(`(?i:\bflusso)\s*:?\s*([A-D])\b`),
		regexp.MustCompile(`(?i:\btipologia(?:\s+flusso)?)\s*:?\s*([A-D])\b`),
		regexp.MustCompile(`(?i:\bcategoria)\s*:?\s*([A-D])\b`),
	}

	distancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{1,5}(?:[.,]\d{1,3})?)\s*(?i:km)\b`),
		regexp.MustCompile(`(?i:\bdistanza)(?:\s*\((?i:km)\))?\s*:?\s*(\d{1,5}(?:[.,]\d{1,3})?)`),
		regexp.MustCompile(`\b(\d{1,3},\d{1,3})\b`),
	}

	comunePattern = regexp.MustCompile(`\bCOMUNE DI [A-Z']{2,}(?: [A-Z']{2,}){0,2}`)

	transportQuotedPattern = regexp.MustCompile(`"([A-Za-z0-9][A-Za-z0-9 ]{0,14})"|'([A-Z0-9][A-Z0-9 ]{0,14})'`)
	transportLabelPattern  = regexp.MustCompile(`(?i:\btrasportatore)\s*:?\s*([A-Z]{2,10})\b`)
	transporterNamePattern = regexp.MustCompile(`(?i:\btrasportatore)\s*:?\s*([A-Z][A-Z &.']{1,39})`)
)

// Words that open the next label; a captured name ends before them.
var nameStopWords = map[string]bool{
	"CC": true, "CSS": true, "MITTENTE": true, "DESTINATARIO": true, "TRASPORTATORE": true,
	"VIA": true, "DATA": true, "NOTE": true, "DISTANZA": true, "KM": true,
	"FLUSSO": true, "TIPO": true, "TIPOLOGIA": true, "CATEGORIA": true, "BACINO": true, "LISTA": true,
}

// Substrings that mark a recipient capture as a false positive.
var recipientBlacklist = []string{"Distanza", "Note", "Data"}

// DefaultFields returns the field chains in evaluation order.
// Later fields may depend on values assigned by earlier ones.
func DefaultFields() []Field {
	return []Field{
		{
			Name: domain.FieldOrderNumber,
			Steps: []Step{
				{Name: "label", Run: submatch(orderLabelPattern)},
				{Name: "second-long-in-head", Run: secondLongNumberInHead, Degraded: true},
				{Name: "first-long", Run: firstLongNumber, Degraded: true},
			},
			MissingPenalty:  PenaltyMissingOrderNumber,
			ReviewOnMissing: true,
			Assign:          func(d *domain.ExtractedData, v string) bool { d.OrderNumber = v; return true },
		},
		{
			Name: domain.FieldIssueDate,
			Steps: []Step{
				{Name: "label", Run: textualDateFrom(issueDateLabelPattern)},
				{Name: "textual", Run: textualDateFrom(textualDatePattern)},
				{Name: "numeric", Run: numericDateFrom(numericDatePattern)},
			},
			Assign: func(d *domain.ExtractedData, v string) bool {
				date, err := domain.ParseDate(v)
				if err != nil {
					return false
				}
				d.IssueDate = date
				return true
			},
		},
		{
			Name: domain.FieldBasinCode,
			Steps: []Step{
				{Name: "basin-list", Run: submatch(basinListPattern)},
				{Name: "basin-label", Run: submatch(basinLabelPattern)},
				{Name: "first-medium", Run: firstBasinCodeCandidate, Degraded: true},
			},
			MissingPenalty:  PenaltyMissingBasinCode,
			ReviewOnMissing: true,
			Assign:          func(d *domain.ExtractedData, v string) bool { d.BasinCode = v; return true },
		},
		{
			Name: domain.FieldSenderName,
			Steps: []Step{
				{Name: "label", Run: senderLabel},
				{Name: "first-company", Run: firstCompany(nil), Degraded: true},
			},
			MissingPenalty:  PenaltyMissingParty,
			DegradedPenalty: PenaltyGuessedParty,
			ReviewOnMissing: true,
			Assign:          func(d *domain.ExtractedData, v string) bool { d.SenderName = v; return true },
		},
		{
			Name: domain.FieldRecipientName,
			Steps: []Step{
				{Name: "css-legal-form", Run: recipientFrom(recipientLegalPattern)},
				{Name: "css-upper", Run: recipientFrom(recipientUpperPattern)},
				{Name: "css-loose", Run: recipientLoose},
				{Name: "keyword", Run: recipientFrom(recipientKeywordPattern)},
				{Name: "first-other-company", Run: firstCompany(otherThanSender), Degraded: true},
			},
			MissingPenalty:  PenaltyMissingParty,
			DegradedPenalty: PenaltyGuessedParty,
			ReviewOnMissing: true,
			Assign:          func(d *domain.ExtractedData, v string) bool { d.RecipientName = v; return true },
		},
		{
			Name:            domain.FieldFlowType,
			Steps:           stepsFrom("label", flowPatterns, submatchFlow),
			MissingPenalty:  PenaltyMissingFlowType,
			ReviewOnMissing: true,
			Assign:          func(d *domain.ExtractedData, v string) bool { d.FlowType = domain.FlowType(v); return true },
		},
		{
			Name:  domain.FieldDistanceKm,
			Steps: stepsFrom("distance", distancePatterns, submatchDistance),
			Assign: func(d *domain.ExtractedData, v string) bool {
				km, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return false
				}
				d.DistanceKm = &km
				return true
			},
		},
		{
			Name: domain.FieldBasinDescription,
			Steps: []Step{
				{Name: "comune", Run: comuneName},
				{Name: "code-legal-entity", Run: basinEntityAfterCode},
				{Name: "code-before-flow", Run: basinNameAfterCodeBeforeFlow},
				{Name: "before-flow", Run: basinNameBeforeFlow, Degraded: true},
			},
			Assign: func(d *domain.ExtractedData, v string) bool { d.BasinDescription = v; return true },
		},
		{
			Name:  domain.FieldLoadingDate,
			Steps: []Step{{Name: "date-pair", Run: datePair}},
			Assign: func(d *domain.ExtractedData, v string) bool {
				loading, unloading, ok := strings.Cut(v, "|")
				if !ok {
					return false
				}
				l, err1 := domain.ParseDate(loading)
				u, err2 := domain.ParseDate(unloading)
				if err1 != nil || err2 != nil {
					return false
				}
				d.LoadingDate, d.UnloadingDate = &l, &u
				return true
			},
		},
		{
			Name: domain.FieldTransportType,
			Steps: []Step{
				{Name: "quoted", Run: quotedToken},
				{Name: "label", Run: submatch(transportLabelPattern)},
			},
			Assign: func(d *domain.ExtractedData, v string) bool { d.TransportType = v; return true },
		},
		{
			Name:   domain.FieldTransporterName,
			Steps:  []Step{{Name: "label", Run: transporterName}},
			Assign: func(d *domain.ExtractedData, v string) bool { d.TransporterName = v; return true },
		},
	}
}

func stepsFrom(name string, patterns []*regexp.Regexp, build func(*regexp.Regexp) Strategy) []Step {
	steps := make([]Step, len(patterns))
	for i, re := range patterns {
		steps[i] = Step{Name: name + "-" + strconv.Itoa(i+1), Run: build(re)}
	}
	return steps
}

// submatch yields the first capture group of the first match.
func submatch(re *regexp.Regexp) Strategy {
	return func(s *Scan, _ *domain.ExtractedData) (string, bool) {
		m := re.FindStringSubmatch(s.Text)
		if m == nil || m[1] == "" {
			return "", false
		}
		return m[1], true
	}
}

func submatchFlow(re *regexp.Regexp) Strategy {
	return func(s *Scan, _ *domain.ExtractedData) (string, bool) {
		m := re.FindStringSubmatch(s.Text)
		if m == nil {
			return "", false
		}
		if _, ok := domain.ParseFlowType(m[1]); !ok {
			return "", false
		}
		return m[1], true
	}
}

func submatchDistance(re *regexp.Regexp) Strategy {
	return func(s *Scan, _ *domain.ExtractedData) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(s.Text, -1) {
			km, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
			if err != nil || km <= 0 || km >= maxDistanceKm {
				continue
			}
			return strconv.FormatFloat(km, 'f', -1, 64), true
		}
		return "", false
	}
}

func secondLongNumberInHead(s *Scan, _ *domain.ExtractedData) (string, bool) {
	limit := headOfDocument * float64(len(s.Text))
	seen := 0
	for _, t := range s.Of(KindLongNumber) {
		if float64(t.Position) >= limit {
			break
		}
		seen++
		if seen == 2 {
			return t.Value, true
		}
	}
	return "", false
}

func firstLongNumber(s *Scan, _ *domain.ExtractedData) (string, bool) {
	if longs := s.Of(KindLongNumber); len(longs) > 0 {
		return longs[0].Value, true
	}
	return "", false
}

func firstBasinCodeCandidate(s *Scan, d *domain.ExtractedData) (string, bool) {
	for _, t := range s.Of(KindMediumNumber) {
		if len(t.Value) == 7 && t.Value != d.OrderNumber {
			return t.Value, true
		}
	}
	return "", false
}

func textualDateFrom(re *regexp.Regexp) Strategy {
	return func(s *Scan, _ *domain.ExtractedData) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(s.Text, -1) {
			if date, ok := textualDate(m[1], m[2], m[3]); ok {
				return date.String(), true
			}
		}
		return "", false
	}
}

func numericDateFrom(re *regexp.Regexp) Strategy {
	return func(s *Scan, _ *domain.ExtractedData) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(s.Text, -1) {
			if date, ok := numericDate(m[1], m[2], m[3]); ok {
				return date.String(), true
			}
		}
		return "", false
	}
}

func datePair(s *Scan, _ *domain.ExtractedData) (string, bool) {
	for _, m := range datePairPattern.FindAllStringSubmatch(s.Text, -1) {
		loading, ok1 := numericDate(m[1], m[2], m[3])
		unloading, ok2 := numericDate(m[4], m[5], m[6])
		if ok1 && ok2 {
			return loading.String() + "|" + unloading.String(), true
		}
	}
	return "", false
}

func senderLabel(s *Scan, _ *domain.ExtractedData) (string, bool) {
	for _, m := range senderLabelPattern.FindAllStringSubmatchIndex(s.Text, -1) {
		if name := captureName(s.Text, m[2], m[3]); len(name) > minNameLen {
			return name, true
		}
	}
	return "", false
}

func recipientFrom(re *regexp.Regexp) Strategy {
	return func(s *Scan, _ *domain.ExtractedData) (string, bool) {
		for _, m := range re.FindAllStringSubmatchIndex(s.Text, -1) {
			name := captureName(s.Text, m[2], m[3])
			if len(name) >= minNameLen && !blacklisted(name) {
				return name, true
			}
		}
		return "", false
	}
}

// recipientLoose accepts mixed-case captures, so only the blacklist guards it.
func recipientLoose(s *Scan, _ *domain.ExtractedData) (string, bool) {
	for _, m := range recipientLoosePattern.FindAllStringSubmatch(s.Text, -1) {
		name := strings.TrimSpace(m[1])
		if len(name) >= minNameLen && !blacklisted(name) {
			return name, true
		}
	}
	return "", false
}

func otherThanSender(t Token, d *domain.ExtractedData) bool {
	return !strings.EqualFold(strings.TrimSpace(t.Value), strings.TrimSpace(d.SenderName)) && !blacklisted(t.Value)
}

func firstCompany(keep func(Token, *domain.ExtractedData) bool) Strategy {
	return func(s *Scan, d *domain.ExtractedData) (string, bool) {
		for _, t := range s.Of(KindCompanyName) {
			if keep == nil || keep(t, d) {
				return t.Value, true
			}
		}
		return "", false
	}
}

func comuneName(s *Scan, _ *domain.ExtractedData) (string, bool) {
	loc := comunePattern.FindStringIndex(s.Text)
	if loc == nil {
		return "", false
	}
	name := captureName(s.Text, loc[0], loc[1])
	if len(strings.Fields(name)) < 3 {
		return "", false
	}
	return name, true
}

func basinEntityAfterCode(s *Scan, d *domain.ExtractedData) (string, bool) {
	if d.BasinCode == "" {
		return "", false
	}
	return compiledName(s.Text, `\b`+regexp.QuoteMeta(d.BasinCode)+`\b\s*[-:]?\s*([A-Z][A-Z &.']{2,60}?\s(?:S\.R\.L\.|S\.P\.A\.|SRL|SPA))(?:[^A-Za-z]|$)`)
}

func basinNameAfterCodeBeforeFlow(s *Scan, d *domain.ExtractedData) (string, bool) {
	if d.BasinCode == "" || d.FlowType == "" {
		return "", false
	}
	return compiledName(s.Text, `\b`+regexp.QuoteMeta(d.BasinCode)+`\b\s*[-:]?\s*([A-Z][A-Z &.']{2,60}?)\s+`+flowSuffix(d.FlowType))
}

func basinNameBeforeFlow(s *Scan, d *domain.ExtractedData) (string, bool) {
	if d.FlowType == "" {
		return "", false
	}
	return compiledName(s.Text, `([A-Z][A-Z &.']{3,60}?)\s+`+flowSuffix(d.FlowType))
}

func flowSuffix(flow domain.FlowType) string {
	return `(?:(?i:flusso)\s*:?\s*)?` + regexp.QuoteMeta(string(flow)) + `\b`
}

func compiledName(text, pattern string) (string, bool) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if name := captureName(text, m[2], m[3]); len(name) >= minNameLen {
			return name, true
		}
	}
	return "", false
}

func quotedToken(s *Scan, _ *domain.ExtractedData) (string, bool) {
	for _, m := range transportQuotedPattern.FindAllStringSubmatch(s.Text, -1) {
		for _, g := range m[1:] {
			if v := strings.TrimSpace(g); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func transporterName(s *Scan, _ *domain.ExtractedData) (string, bool) {
	for _, m := range transporterNamePattern.FindAllStringSubmatchIndex(s.Text, -1) {
		if name := captureName(s.Text, m[2], m[3]); len(name) >= 2 {
			return name, true
		}
	}
	return "", false
}

// captureName cleans an uppercase name capture text[start:end]. A final word
// cut short before a lowercase letter is dropped, and the name ends before
// the first word that opens another label.
func captureName(text string, start, end int) string {
	name := text[start:end]
	if end < len(text) && strings.TrimRight(name, " ") == name {
		if r, _ := utf8.DecodeRuneInString(text[end:]); unicode.IsLower(r) {
			i := strings.LastIndexByte(name, ' ')
			if i < 0 {
				return ""
			}
			name = name[:i]
		}
	}
	words := strings.Fields(name)
	for i, w := range words {
		if i > 0 && nameStopWords[w] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func blacklisted(name string) bool {
	for _, w := range recipientBlacklist {
		if strings.Contains(name, w) {
			return true
		}
	}
	for _, w := range strings.Fields(name) {
		for _, b := range recipientBlacklist {
			if w == strings.ToUpper(b) {
				return true
			}
		}
	}
	return false
}
