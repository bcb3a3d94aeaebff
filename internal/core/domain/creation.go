package domain

// CreationState is the terminal or intermediate state of one creation attempt.
type CreationState string

const (
	CreationValidating    CreationState = "VALIDATING"
	CreationRejected      CreationState = "REJECTED"
	CreationResolving     CreationState = "RESOLVING"
	CreationHeldForReview CreationState = "HELD_FOR_REVIEW"
	CreationProvisioning  CreationState = "PROVISIONING"
	CreationCreating      CreationState = "CREATING"
	CreationDone          CreationState = "DONE"
	CreationFailed        CreationState = "FAILED"
)

// IsTerminal reports whether no further transition can follow.
func (s CreationState) IsTerminal() bool {
	switch s {
	case CreationRejected, CreationHeldForReview, CreationDone, CreationFailed:
		return true
	}
	return false
}

// DefaultOrderStatus is the initial workflow state of a created pickup order.
const DefaultOrderStatus = "PROGRAMMATO"

// CreationRequest is the input to one creation attempt.
type CreationRequest struct {
	Extracted   ExtractedData `json:"extractedData"`
	Corrections Corrections   `json:"corrections"`
	ForceCreate bool          `json:"forceCreate"`
}

// CreationResult is the terminal outcome of a creation attempt.
type CreationResult struct {
	Success         bool            `json:"success"`
	State           CreationState   `json:"state"`
	CreatedRecord   *PickupOrder    `json:"createdRecord,omitempty"`
	MatchingResults MatchingResults `json:"matchingResults"`
	Message         string          `json:"message"`
	Errors          []string        `json:"errors,omitempty"`
	CreatedEntities map[Role]string `json:"createdEntities,omitempty"`
}
