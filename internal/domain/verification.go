package domain

import (
	"time"

	id "docverify/pkg/domain"
)

// Severity grades a flag. Any error-severity flag blocks auto-approval.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// VerificationFlag describes one field-level discrepancy or a terminal
// pipeline failure.
type VerificationFlag struct {
	Field    FieldName `json:"field"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Expected string    `json:"expected,omitempty"`
	Actual   string    `json:"actual,omitempty"`
}

// VerificationResult is the outcome of exactly one verification attempt.
type VerificationResult struct {
	Success         bool                  `json:"success"`
	ConfidenceScore int                   `json:"confidence_score"`
	Flags           []VerificationFlag    `json:"flags"`
	ExtractedData   ExtractedIdentityData `json:"extracted_data"`
	AutoApproved    bool                  `json:"auto_approved"`
	Message         string                `json:"message"`
}

// HasErrors reports whether any flag has error severity.
func (r VerificationResult) HasErrors() bool {
	return HasErrorFlag(r.Flags)
}

// HasErrorFlag reports whether any flag has error severity.
func HasErrorFlag(flags []VerificationFlag) bool {
	for _, f := range flags {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// VerificationStatus is the durable status written for an application.
type VerificationStatus string

const (
	StatusVerified      VerificationStatus = "verified"
	StatusPendingReview VerificationStatus = "pending_review"
)

func (s VerificationStatus) IsValid() bool {
	return s == StatusVerified || s == StatusPendingReview
}

// StatusFor maps the approval decision to the stored status.
func StatusFor(autoApproved bool) VerificationStatus {
	if autoApproved {
		return StatusVerified
	}
	return StatusPendingReview
}

// ClampScore bounds a score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StatusRecord is the durable verification outcome for one application.
// A newer commit for the same application replaces it.
type StatusRecord struct {
	ApplicationID   id.ApplicationID      `json:"application_id"`
	VerificationID  id.VerificationID     `json:"verification_id"`
	Status          VerificationStatus    `json:"status"`
	ConfidenceScore int                   `json:"confidence_score"`
	Flags           []VerificationFlag    `json:"flags"`
	ExtractedData   ExtractedIdentityData `json:"extracted_data"`
	UpdatedAt       time.Time             `json:"updated_at"`
}
