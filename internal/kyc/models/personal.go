package models

import (
	"strings"

	dErrors "kycdesk/pkg/domain-errors"
)

// DocumentType is the identity document presented by the applicant.
type DocumentType string

const (
	DocumentNationalID     DocumentType = "national-id"
	DocumentPassport       DocumentType = "passport"
	DocumentDrivingLicense DocumentType = "driving-license"
)

// IsValid reports whether d is one of the supported document types.
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentNationalID, DocumentPassport, DocumentDrivingLicense:
		return true
	}
	return false
}

// ParseDocumentType validates a raw document type.
func ParseDocumentType(s string) (DocumentType, error) {
	d := DocumentType(strings.TrimSpace(s))
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported document type: "+s)
	}
	return d, nil
}

// PersonalInfo is the applicant's self-declared identity data.
type PersonalInfo struct {
	FirstName    string       `json:"first_name"`
	MiddleName   string       `json:"middle_name"`
	LastName     string       `json:"last_name"`
	DateOfBirth  string       `json:"date_of_birth"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	ZipCode      string       `json:"zip_code"`
	Country      string       `json:"country"`
	DocumentType DocumentType `json:"document_type"`
}

// Normalize trims every field.
func (p *PersonalInfo) Normalize() {
	if p == nil {
		return
	}
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.MiddleName = strings.TrimSpace(p.MiddleName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	p.Address = strings.TrimSpace(p.Address)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.TrimSpace(p.State)
	p.ZipCode = strings.TrimSpace(p.ZipCode)
	p.Country = strings.TrimSpace(p.Country)
	p.DocumentType = DocumentType(strings.TrimSpace(string(p.DocumentType)))
}

// Validate checks the fields the wizard requires before leaving the first stage.
func (p *PersonalInfo) Validate() error {
	if p == nil {
		return dErrors.New(dErrors.CodeValidation, "personal info is required")
	}
	required := []struct{ field, value string }{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"date_of_birth", p.DateOfBirth},
		{"address", p.Address},
		{"city", p.City},
		{"state", p.State},
		{"zip_code", p.ZipCode},
		{"country", p.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return dErrors.New(dErrors.CodeValidation, r.field+" is required")
		}
	}
	if !p.DocumentType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "document_type must be one of national-id, passport, driving-license")
	}
	return nil
}

// IsPresent reports whether enough identity data exists to run a verification.
func (p *PersonalInfo) IsPresent() bool {
	return p != nil && p.FirstName != "" && p.LastName != "" && p.DocumentType != ""
}

// FullName joins first and last name with a single space.
func (p PersonalInfo) FullName() string {
	return p.FirstName + " " + p.LastName
}
