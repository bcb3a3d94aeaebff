package domain

// FlowType is the regulatory category of a waste-collection flow.
type FlowType string

const (
	FlowTypeA FlowType = "A"
	FlowTypeB FlowType = "B"
	FlowTypeC FlowType = "C"
	FlowTypeD FlowType = "D"
)

// ParseFlowType returns the flow type for a single letter A-D.
func ParseFlowType(s string) (FlowType, bool) {
	switch FlowType(s) {
	case FlowTypeA, FlowTypeB, FlowTypeC, FlowTypeD:
		return FlowType(s), true
	}
	return "", false
}

// Field names as exposed to callers in needsReview lists.
const (
	FieldOrderNumber      = "orderNumber"
	FieldIssueDate        = "issueDate"
	FieldLoadingDate      = "loadingDate"
	FieldUnloadingDate    = "unloadingDate"
	FieldSenderName       = "senderName"
	FieldRecipientName    = "recipientName"
	FieldBasinCode        = "basinCode"
	FieldBasinDescription = "basinDescription"
	FieldFlowType         = "flowType"
	FieldDistanceKm       = "distanceKm"
	FieldTransportType    = "transportType"
	FieldTransporterName  = "transporterName"
)

// Contact holds optional contact details for a logistic entity.
type Contact struct {
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	VATNumber  string `json:"vatNumber,omitempty"`
}

// ExtractedData is the structured content recovered from one pickup order document.
type ExtractedData struct {
	OrderNumber      string   `json:"orderNumber"`
	IssueDate        Date     `json:"issueDate"`
	LoadingDate      *Date    `json:"loadingDate,omitempty"`
	UnloadingDate    *Date    `json:"unloadingDate,omitempty"`
	AvailabilityDate *Date    `json:"availabilityDate,omitempty"`
	ScheduledDate    *Date    `json:"scheduledDate,omitempty"`
	SenderName       string   `json:"senderName"`
	SenderContact    Contact  `json:"senderContact"`
	RecipientName    string   `json:"recipientName"`
	RecipientContact Contact  `json:"recipientContact"`
	TransporterName  string   `json:"transporterName,omitempty"`
	ClientName       string   `json:"clientName,omitempty"`
	BasinCode        string   `json:"basinCode"`
	BasinDescription string   `json:"basinDescription"`
	FlowType         FlowType `json:"flowType"`
	DistanceKm       *float64 `json:"distanceKm,omitempty"`
	TransportType    string   `json:"transportType,omitempty"`
	Confidence       int      `json:"confidence"` // 0-100
	RawText          string   `json:"rawText"`
}

// TransporterValue is the name the transporter role resolves against.
func (d ExtractedData) TransporterValue() string {
	if d.TransporterName != "" {
		return d.TransporterName
	}
	return d.TransportType
}

// ClientValue is the name the client role resolves against.
// Pickup orders name the producing client as the sender unless corrected.
func (d ExtractedData) ClientValue() string {
	if d.ClientName != "" {
		return d.ClientName
	}
	return d.SenderName
}

// Corrections is a user-supplied overlay; nil fields keep the extracted value.
type Corrections struct {
	OrderNumber      *string   `json:"orderNumber,omitempty"`
	IssueDate        *Date     `json:"issueDate,omitempty"`
	LoadingDate      *Date     `json:"loadingDate,omitempty"`
	UnloadingDate    *Date     `json:"unloadingDate,omitempty"`
	AvailabilityDate *Date     `json:"availabilityDate,omitempty"`
	ScheduledDate    *Date     `json:"scheduledDate,omitempty"`
	SenderName       *string   `json:"senderName,omitempty"`
	SenderContact    *Contact  `json:"senderContact,omitempty"`
	RecipientName    *string   `json:"recipientName,omitempty"`
	RecipientContact *Contact  `json:"recipientContact,omitempty"`
	TransporterName  *string   `json:"transporterName,omitempty"`
	ClientName       *string   `json:"clientName,omitempty"`
	BasinCode        *string   `json:"basinCode,omitempty"`
	BasinDescription *string   `json:"basinDescription,omitempty"`
	FlowType         *FlowType `json:"flowType,omitempty"`
	DistanceKm       *float64  `json:"distanceKm,omitempty"`
	TransportType    *string   `json:"transportType,omitempty"`
}

// Merge returns a copy of data with every non-nil correction applied.
// Neither argument is modified.
func Merge(data ExtractedData, c Corrections) ExtractedData {
	out := data
	setString(&out.OrderNumber, c.OrderNumber)
	setString(&out.SenderName, c.SenderName)
	setString(&out.RecipientName, c.RecipientName)
	setString(&out.TransporterName, c.TransporterName)
	setString(&out.ClientName, c.ClientName)
	setString(&out.BasinCode, c.BasinCode)
	setString(&out.BasinDescription, c.BasinDescription)
	setString(&out.TransportType, c.TransportType)

	if c.IssueDate != nil {
		out.IssueDate = *c.IssueDate
	}
	out.LoadingDate = pickDate(data.LoadingDate, c.LoadingDate)
	out.UnloadingDate = pickDate(data.UnloadingDate, c.UnloadingDate)
	out.AvailabilityDate = pickDate(data.AvailabilityDate, c.AvailabilityDate)
	out.ScheduledDate = pickDate(data.ScheduledDate, c.ScheduledDate)

	if c.SenderContact != nil {
		out.SenderContact = *c.SenderContact
	}
	if c.RecipientContact != nil {
		out.RecipientContact = *c.RecipientContact
	}
	if c.FlowType != nil {
		out.FlowType = *c.FlowType
	}
	if c.DistanceKm != nil {
		v := *c.DistanceKm
		out.DistanceKm = &v
	} else if data.DistanceKm != nil {
		v := *data.DistanceKm
		out.DistanceKm = &v
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func pickDate(extracted, corrected *Date) *Date {
	src := extracted
	if corrected != nil {
		src = corrected
	}
	if src == nil {
		return nil
	}
	d := *src
	return &d
}

// FieldStatus is the outcome of one field's strategy chain.
type FieldStatus string

const (
	FieldFound    FieldStatus = "found"
	FieldDegraded FieldStatus = "degraded" // recovered by a positional fallback
	FieldMissing  FieldStatus = "missing"
)

// FieldOutcome records how a field was extracted and what it cost.
type FieldOutcome struct {
	Field    string      `json:"field"`
	Status   FieldStatus `json:"status"`
	Strategy int         `json:"strategy"` // index of the winning strategy, -1 if none
	Penalty  int         `json:"penalty"`
	Review   bool        `json:"review"`
}

// ExtractionResult is what the extractor hands to callers.
type ExtractionResult struct {
	Data           ExtractedData  `json:"data"`
	Confidence     int            `json:"confidence"`
	QualityScore   int            `json:"qualityScore"`
	NeedsReview    []string       `json:"needsReview"`
	ReviewRequired bool           `json:"reviewRequired"`
	Outcomes       []FieldOutcome `json:"outcomes,omitempty"`
}
