package http

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// Sanitizer strips markup from operator-supplied text before it reaches
// the registry. Entities produced by the policy are decoded again so names
// such as "ECO & GREEN" survive unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer that allows no markup at all.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text sanitizes a single value.
func (s *Sanitizer) Text(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func (s *Sanitizer) ptr(v *string) *string {
	if v == nil {
		return nil
	}
	clean := s.Text(*v)
	return &clean
}

func (s *Sanitizer) contact(c domain.Contact) domain.Contact {
	return domain.Contact{
		Address:    s.Text(c.Address),
		City:       s.Text(c.City),
		Province:   s.Text(c.Province),
		PostalCode: s.Text(c.PostalCode),
		Phone:      s.Text(c.Phone),
		Email:      s.Text(c.Email),
		VATNumber:  s.Text(c.VATNumber),
	}
}

// Corrections returns a sanitized copy of c.
func (s *Sanitizer) Corrections(c domain.Corrections) domain.Corrections {
	out := c
	out.OrderNumber = s.ptr(c.OrderNumber)
	out.SenderName = s.ptr(c.SenderName)
	out.RecipientName = s.ptr(c.RecipientName)
	out.TransporterName = s.ptr(c.TransporterName)
	out.ClientName = s.ptr(c.ClientName)
	out.BasinCode = s.ptr(c.BasinCode)
	out.BasinDescription = s.ptr(c.BasinDescription)
	out.TransportType = s.ptr(c.TransportType)
	if c.SenderContact != nil {
		contact := s.contact(*c.SenderContact)
		out.SenderContact = &contact
	}
	if c.RecipientContact != nil {
		contact := s.contact(*c.RecipientContact)
		out.RecipientContact = &contact
	}
	return out
}

// Data returns a sanitized copy of caller-supplied extracted data.
func (s *Sanitizer) Data(d domain.ExtractedData) domain.ExtractedData {
	out := d
	out.OrderNumber = s.Text(d.OrderNumber)
	out.SenderName = s.Text(d.SenderName)
	out.SenderContact = s.contact(d.SenderContact)
	out.RecipientName = s.Text(d.RecipientName)
	out.RecipientContact = s.contact(d.RecipientContact)
	out.TransporterName = s.Text(d.TransporterName)
	out.ClientName = s.Text(d.ClientName)
	out.BasinCode = s.Text(d.BasinCode)
	out.BasinDescription = s.Text(d.BasinDescription)
	out.TransportType = s.Text(d.TransportType)
	return out
}
