package verification

import (
	"time"

	"docverify/internal/decision"
	"docverify/internal/domain"
	"docverify/internal/matching"
)

// Terminal messages for runs that produce no score.
const (
	MessageOCRFailure          = "Could not extract text from document"
	MessageApplicationNotFound = "Application not found"
)

// Evaluate scores extracted data against the application of record and
// decides on approval. It performs no I/O; a nil record yields the
// application-not-found result.
func Evaluate(extracted domain.ExtractedIdentityData, record *domain.ApplicationIdentityRecord, policy domain.Policy, now time.Time) domain.VerificationResult {
	if record == nil {
		return ApplicationNotFoundResult(extracted)
	}
	outcome := matching.NewMatcher(policy).Match(extracted, *record, now)
	return scoredResult(extracted, outcome, decision.Decide(policy, outcome.ConfidenceScore, outcome.Flags))
}

// OCRFailureResult is the terminal result for a document whose text could not
// be read. No field checks are attempted.
func OCRFailureResult() domain.VerificationResult {
	return domain.VerificationResult{
		Success:         false,
		ConfidenceScore: 0,
		Flags: []domain.VerificationFlag{{
			Field:    domain.FieldOCR,
			Severity: domain.SeverityError,
			Message:  MessageOCRFailure,
		}},
		AutoApproved: false,
		Message:      MessageOCRFailure,
	}
}

// ApplicationNotFoundResult is the terminal result for an unknown application.
// The extracted data is kept for the caller.
func ApplicationNotFoundResult(extracted domain.ExtractedIdentityData) domain.VerificationResult {
	return domain.VerificationResult{
		Success:         false,
		ConfidenceScore: 0,
		Flags: []domain.VerificationFlag{{
			Field:    domain.FieldApplication,
			Severity: domain.SeverityError,
			Message:  MessageApplicationNotFound,
		}},
		ExtractedData: extracted,
		AutoApproved:  false,
		Message:       MessageApplicationNotFound,
	}
}

func scoredResult(extracted domain.ExtractedIdentityData, outcome matching.Outcome, d decision.Decision) domain.VerificationResult {
	return domain.VerificationResult{
		Success:         true,
		ConfidenceScore: domain.ClampScore(outcome.ConfidenceScore),
		Flags:           outcome.Flags,
		ExtractedData:   extracted,
		AutoApproved:    d.AutoApproved,
		Message:         d.Message,
	}
}
