package models

import (
	"strings"
	"time"

	dErrors "kycdesk/pkg/domain-errors"
)

// Status is the review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusFlagged  Status = "flagged"
)

// AllStatuses lists every review state in display order.
var AllStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusFlagged}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFlagged:
		return true
	}
	return false
}

// CanTransitionTo reports whether a reviewer may move a submission from s to next.
// Review decisions are reversible: any known status may follow any other.
func (s Status) CanTransitionTo(next Status) bool {
	return s.IsValid() && next.IsValid()
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+raw)
	}
	return s, nil
}

// ClientInfo describes the browser that submitted the application.
type ClientInfo struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Mobile  bool   `json:"mobile"`
	IP      string `json:"ip,omitempty"`
}

// Submission is a persisted, reviewable application.
// Images are stored under their own keys; the flags record which exist.
type Submission struct {
	ID                 string              `json:"id"`
	PersonalInfo       PersonalInfo        `json:"personal_info"`
	HasIDFront         bool                `json:"has_id_front"`
	HasIDBack          bool                `json:"has_id_back"`
	HasFacialImage     bool                `json:"has_facial_image"`
	VerificationResult *VerificationResult `json:"verification_result,omitempty"`
	SubmittedAt        time.Time           `json:"submitted_at"`
	Status             Status              `json:"status"`
	Client             *ClientInfo         `json:"client,omitempty"`
}

// Score returns the verification score and whether one is present.
func (s *Submission) Score() (float64, bool) {
	if s.VerificationResult == nil {
		return 0, false
	}
	return s.VerificationResult.Score, true
}

// ApplyStatus sets a new review status after checking the transition.
func (s *Submission) ApplyStatus(next Status) error {
	if !s.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot move submission from "+string(s.Status)+" to "+string(next))
	}
	s.Status = next
	return nil
}
