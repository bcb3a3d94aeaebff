package domain

import "time"

// Suggestion is a registry candidate for a logistic entity name.
type Suggestion struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Similarity   *float64 `json:"similarity,omitempty"` // as reported by the registry, informational
	IsExactMatch bool     `json:"isExactMatch,omitempty"`
}

// Client is a registry client record.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Basin is a client-owned collection point.
type Basin struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	ClientID    string   `json:"clientId"`
	FlowType    FlowType `json:"flowType,omitempty"`
}

// NewLogisticEntity is the registry write request for an auto-created entity.
type NewLogisticEntity struct {
	Role    Role    `json:"role"`
	Name    string  `json:"name"`
	Contact Contact `json:"contact"`
}

// PickupOrderPayload is the final creation request sent to the registry.
// All dates are formatted as YYYY-MM-DD.
type PickupOrderPayload struct {
	OrderNumber      string   `json:"orderNumber"`
	IssueDate        string   `json:"issueDate"`
	LoadingDate      string   `json:"loadingDate,omitempty"`
	UnloadingDate    string   `json:"unloadingDate,omitempty"`
	AvailabilityDate string   `json:"availabilityDate,omitempty"`
	ScheduledDate    string   `json:"scheduledDate,omitempty"`
	SenderID         string   `json:"senderId"`
	RecipientID      string   `json:"recipientId"`
	TransporterID    string   `json:"transporterId,omitempty"`
	ClientID         string   `json:"clientId,omitempty"`
	BasinID          string   `json:"basinId"`
	FlowType         FlowType `json:"flowType,omitempty"`
	DistanceKm       *float64 `json:"distanceKm,omitempty"`
	TransportType    string   `json:"transportType,omitempty"`
	Status           string   `json:"status"`
	Notes            string   `json:"notes"`
}

// PickupOrder is the record returned by the registry after creation.
type PickupOrder struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}
