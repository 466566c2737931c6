package matching

import (
	"strconv"
	"time"

	"docverify/internal/domain"
)

// Outcome is the per-field comparison result for one extraction.
type Outcome struct {
	Scores          map[domain.FieldName]int
	Flags           []domain.VerificationFlag
	ChecksPerformed int
	ConfidenceScore int
}

// check compares one extracted value with the record. scored=false means the
// field contributes neither a score nor a check.
type check func(value string, record domain.ApplicationIdentityRecord, now time.Time) (score int, scored bool, flag *domain.VerificationFlag)

type fieldCheck struct {
	field domain.FieldName
	run   check
}

// Matcher applies the field comparison rules under a Policy.
type Matcher struct {
	policy domain.Policy
	checks []fieldCheck
}

// NewMatcher builds a matcher. Fields are checked in a fixed order so flags
// are reported deterministically.
func NewMatcher(policy domain.Policy) *Matcher {
	m := &Matcher{policy: policy}
	m.checks = []fieldCheck{
		{domain.FieldFullName, m.checkFullName},
		{domain.FieldDateOfBirth, m.checkDateOfBirth},
		{domain.FieldAddress, m.checkAddress},
		{domain.FieldState, m.checkState},
		{domain.FieldExpirationDate, m.checkExpiration},
	}
	return m
}

// Match compares every present field of extracted with record. Absent fields
// are skipped entirely.
func (m *Matcher) Match(extracted domain.ExtractedIdentityData, record domain.ApplicationIdentityRecord, now time.Time) Outcome {
	out := Outcome{
		Scores: make(map[domain.FieldName]int, len(m.checks)),
		Flags:  []domain.VerificationFlag{},
	}

	sum := 0
	for _, c := range m.checks {
		value, ok := extracted.Get(c.field).Get()
		if !ok {
			continue
		}
		score, scored, flag := c.run(value, record, now)
		if flag != nil {
			out.Flags = append(out.Flags, *flag)
		}
		if !scored {
			continue
		}
		out.Scores[c.field] = score
		sum += score
		out.ChecksPerformed++
	}

	if out.ChecksPerformed > 0 {
		out.ConfidenceScore = domain.ClampScore(roundDiv(sum, out.ChecksPerformed))
	}
	return out
}

func (m *Matcher) checkFullName(value string, record domain.ApplicationIdentityRecord, _ time.Time) (int, bool, *domain.VerificationFlag) {
	score := Similarity(value, record.FullName)
	switch {
	case score < m.policy.NameErrorBelow:
		return score, true, mismatch(domain.FieldFullName, domain.SeverityError, "Name does not match application (similarity "+strconv.Itoa(score)+"%)", record.FullName, value)
	case score < m.policy.NameWarnBelow:
		return score, true, mismatch(domain.FieldFullName, domain.SeverityWarning, "Name partially matches application (similarity "+strconv.Itoa(score)+"%)", record.FullName, value)
	}
	return score, true, nil
}

func (m *Matcher) checkDateOfBirth(value string, record domain.ApplicationIdentityRecord, _ time.Time) (int, bool, *domain.VerificationFlag) {
	if value == record.DateOfBirth {
		return 100, true, nil
	}
	return 0, true, mismatch(domain.FieldDateOfBirth, domain.SeverityError, "Date of birth does not match application", record.DateOfBirth, value)
}

func (m *Matcher) checkAddress(value string, record domain.ApplicationIdentityRecord, _ time.Time) (int, bool, *domain.VerificationFlag) {
	expected := record.FormattedAddress()
	score := Similarity(value, expected)
	switch {
	case score < m.policy.AddressErrorBelow:
		return score, true, mismatch(domain.FieldAddress, domain.SeverityError, "Address does not match application (similarity "+strconv.Itoa(score)+"%)", expected, value)
	case score < m.policy.AddressWarnBelow:
		return score, true, mismatch(domain.FieldAddress, domain.SeverityWarning, "Address partially matches application (similarity "+strconv.Itoa(score)+"%)", expected, value)
	}
	return score, true, nil
}

func (m *Matcher) checkState(value string, record domain.ApplicationIdentityRecord, _ time.Time) (int, bool, *domain.VerificationFlag) {
	if value == record.State {
		return 100, true, nil
	}
	return m.policy.StatePartialCredit, true, mismatch(domain.FieldState, domain.SeverityWarning, "State does not match application", record.State, value)
}

func (m *Matcher) checkExpiration(value string, _ domain.ApplicationIdentityRecord, now time.Time) (int, bool, *domain.VerificationFlag) {
	expiresAt, err := time.ParseInLocation(m.policy.DateLayout, value, now.Location())
	if err != nil {
		return 0, false, &domain.VerificationFlag{
			Field:    domain.FieldExpirationDate,
			Severity: domain.SeverityWarning,
			Message:  "Could not parse expiration date",
			Actual:   value,
		}
	}
	if expiresAt.Before(now) {
		return 0, true, &domain.VerificationFlag{
			Field:    domain.FieldExpirationDate,
			Severity: domain.SeverityError,
			Message:  "ID has expired",
			Actual:   value,
		}
	}
	return 100, true, nil
}

func mismatch(field domain.FieldName, sev domain.Severity, msg, expected, actual string) *domain.VerificationFlag {
	return &domain.VerificationFlag{
		Field:    field,
		Severity: sev,
		Message:  msg,
		Expected: expected,
		Actual:   actual,
	}
}

// roundDiv divides non-negative a by positive b rounding half up.
func roundDiv(a, b int) int {
	return (2*a + b) / (2 * b)
}
