package domain

import (
	"fmt"
	"time"

	dErrors "docverify/pkg/domain-errors"
)

// DefaultDateLayout is the MM/DD/YYYY layout printed on US identity documents.
const DefaultDateLayout = "01/02/2006"

// Policy holds the business risk thresholds used by matching and decisions.
// Values are loaded from configuration; DefaultPolicy returns the baseline.
type Policy struct {
	// Decision buckets.
	AutoApproveMin          int
	ManualReviewMinorMin    int
	ManualReviewMultipleMin int

	// Per-field flag thresholds. A score below ErrorBelow is an error, below
	// WarnBelow a warning.
	NameWarnBelow     int
	NameErrorBelow    int
	AddressWarnBelow  int
	AddressErrorBelow int

	// StatePartialCredit is the score for a state mismatch.
	StatePartialCredit int

	// DateLayout parses expiration dates and formats stored dates of birth.
	DateLayout string
}

// DefaultPolicy returns the baseline thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AutoApproveMin:          95,
		ManualReviewMinorMin:    80,
		ManualReviewMultipleMin: 60,
		NameWarnBelow:           70,
		NameErrorBelow:          50,
		AddressWarnBelow:        60,
		AddressErrorBelow:       40,
		StatePartialCredit:      50,
		DateLayout:              DefaultDateLayout,
	}
}

// Validate checks ranges and bucket ordering.
func (p Policy) Validate() error {
	scores := []struct {
		name  string
		value int
	}{
		{"auto_approve_min", p.AutoApproveMin},
		{"manual_review_minor_min", p.ManualReviewMinorMin},
		{"manual_review_multiple_min", p.ManualReviewMultipleMin},
		{"name_warn_below", p.NameWarnBelow},
		{"name_error_below", p.NameErrorBelow},
		{"address_warn_below", p.AddressWarnBelow},
		{"address_error_below", p.AddressErrorBelow},
		{"state_partial_credit", p.StatePartialCredit},
	}
	for _, s := range scores {
		if s.value < 0 || s.value > 100 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("policy %s must be within [0,100], got %d", s.name, s.value))
		}
	}
	if !(p.AutoApproveMin >= p.ManualReviewMinorMin && p.ManualReviewMinorMin >= p.ManualReviewMultipleMin) {
		return dErrors.New(dErrors.CodeValidation, "policy decision thresholds must satisfy auto_approve >= minor >= multiple")
	}
	if p.NameErrorBelow > p.NameWarnBelow {
		return dErrors.New(dErrors.CodeValidation, "policy name_error_below must not exceed name_warn_below")
	}
	if p.AddressErrorBelow > p.AddressWarnBelow {
		return dErrors.New(dErrors.CodeValidation, "policy address_error_below must not exceed address_warn_below")
	}
	if p.DateLayout == "" {
		return dErrors.New(dErrors.CodeValidation, "policy date_layout is required")
	}
	if _, err := time.Parse(p.DateLayout, time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC).Format(p.DateLayout)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "policy date_layout does not round-trip")
	}
	return nil
}
