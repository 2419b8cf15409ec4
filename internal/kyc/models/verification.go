package models

import "time"

// OcrData holds text fields extracted from the front of the document.
type OcrData struct {
	ExtractedName     string  `json:"extracted_name,omitempty"`
	ExtractedDOB      string  `json:"extracted_dob,omitempty"`
	ExtractedIDNumber string  `json:"extracted_id_number,omitempty"`
	ExtractedAddress  string  `json:"extracted_address,omitempty"`
	ExtractedExpiry   string  `json:"extracted_expiry,omitempty"`
	Confidence        float64 `json:"confidence"`
}

// VerificationResult is the outcome of one verification call.
// Score lies in [0,1]; IsVerified is derived from Score at creation.
type VerificationResult struct {
	IsVerified bool      `json:"is_verified"`
	Score      float64   `json:"score"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	OcrData    *OcrData  `json:"ocr_data,omitempty"`
}
