package domain

// Operator is the authenticated person acting on intakes.
// Tokens are issued by an external identity provider; only their claims are read here.
type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}
