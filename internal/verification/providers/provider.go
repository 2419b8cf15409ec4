// Package providers defines the external capabilities identity verification
// depends on: document text extraction and face comparison.
package providers

import (
	"context"

	"kycdesk/internal/kyc/models"
)

// Extraction is the raw OCR output for one document image.
// Fields uses the keys name, dob, idNumber, passportNumber, licenseNumber,
// address, expiry and any document specific extras.
type Extraction struct {
	Fields     map[string]string
	Confidence float64
}

// IDNumber returns the first present document number field.
func (e *Extraction) IDNumber() string {
	for _, k := range []string{"idNumber", "passportNumber", "licenseNumber"} {
		if v := e.Fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// Comparison is a face match verdict.
type Comparison struct {
	Score       float64
	Explanation string
}

// TextExtractor reads text fields from a document image.
type TextExtractor interface {
	ID() string
	Extract(ctx context.Context, image string, docType models.DocumentType) (*Extraction, error)
}

// FaceComparer scores whether two images show the same person.
type FaceComparer interface {
	ID() string
	Compare(ctx context.Context, idImage, faceImage string) (*Comparison, error)
}
