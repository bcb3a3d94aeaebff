package domain

// Role identifies which registry an extracted value resolves against.
type Role string

const (
	RoleSender      Role = "sender"
	RoleRecipient   Role = "recipient"
	RoleTransporter Role = "transporter"
	RoleClient      Role = "client"
	RoleBasin       Role = "basin"
)

// AllRoles lists the resolvable roles in resolution order.
var AllRoles = []Role{RoleSender, RoleRecipient, RoleTransporter, RoleClient, RoleBasin}

// LogisticRoles are resolved against the logistic entity registry and can be auto-created.
var LogisticRoles = []Role{RoleSender, RoleRecipient, RoleTransporter}

// IsLogistic reports whether the role is a logistic entity role.
func (r Role) IsLogistic() bool {
	return r == RoleSender || r == RoleRecipient || r == RoleTransporter
}

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleSender, RoleRecipient, RoleTransporter, RoleClient, RoleBasin:
		return true
	}
	return false
}

// MatchResult is the resolution outcome for one role.
// IsNew implies MatchedID is empty; IsExactMatch implies Similarity is 1.0.
type MatchResult struct {
	Role           Role    `json:"role"`
	ExtractedValue string  `json:"extractedValue"`
	MatchedID      string  `json:"matchedId,omitempty"`
	MatchedName    string  `json:"matchedName,omitempty"`
	Similarity     float64 `json:"similarity"` // 0-1
	IsNew          bool    `json:"isNew"`
	IsExactMatch   bool    `json:"isExactMatch"`
}

// Alternate is a non-selected registry candidate offered for review.
type Alternate struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// MatchingResults aggregates per-role matches for one document.
type MatchingResults struct {
	Matches     map[Role]*MatchResult `json:"matches"`
	Alternates  map[Role][]Alternate  `json:"alternates"`
	Confidence  float64               `json:"confidence"` // mean of role similarities, 0-1
	NeedsReview bool                  `json:"needsReview"`
}

// NewMatchingResults returns an empty result set.
func NewMatchingResults() MatchingResults {
	return MatchingResults{
		Matches:    make(map[Role]*MatchResult),
		Alternates: make(map[Role][]Alternate),
	}
}

// PlaceholderMatchingResults is returned when resolution never ran.
func PlaceholderMatchingResults() MatchingResults {
	mr := NewMatchingResults()
	mr.NeedsReview = true
	return mr
}

// Match returns the result for a role, or nil when the role was not resolved.
func (m MatchingResults) Match(role Role) *MatchResult {
	if m.Matches == nil {
		return nil
	}
	return m.Matches[role]
}

// Finalize computes Confidence and NeedsReview from the per-role matches.
func (m *MatchingResults) Finalize() {
	var total float64
	n := 0
	anyNew := false
	for _, role := range AllRoles {
		match, ok := m.Matches[role]
		if !ok {
			continue
		}
		n++
		total += match.Similarity
		if match.IsNew {
			anyNew = true
		}
	}
	if n == 0 {
		m.Confidence = 0
		m.NeedsReview = true
		return
	}
	m.Confidence = total / float64(n)
	m.NeedsReview = m.Confidence < ReviewConfidenceThreshold || anyNew
}

// ReviewConfidenceThreshold is the mean similarity below which a resolution needs review.
const ReviewConfidenceThreshold = 0.8
