package domain

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "docverify/pkg/domain-errors"
)

// ApplicationID identifies a loan application owned by the loan subsystem.
type ApplicationID int64

// VerificationID identifies a single verification attempt. It correlates the
// stored status row with the published completion event.
type VerificationID uuid.UUID

const maxApplicationIDLen = 19

// ParseApplicationID parses a positive decimal application identifier.
func ParseApplicationID(s string) (ApplicationID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "application id is required")
	}
	if len(s) > maxApplicationIDLen || !utf8.ValidString(s) {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid application id")
	}
	if strings.TrimLeft(s, "0123456789") != "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid application id")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid application id")
	}
	return ApplicationID(n), nil
}

func (id ApplicationID) Int64() int64 {
	return int64(id)
}

func (id ApplicationID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// NewVerificationID returns a fresh random verification id.
func NewVerificationID() VerificationID {
	return VerificationID(uuid.New())
}

// ParseVerificationID parses a non-nil UUID.
func ParseVerificationID(s string) (VerificationID, error) {
	if s == "" {
		return VerificationID{}, dErrors.New(dErrors.CodeInvalidInput, "verification id is required")
	}
	if !utf8.ValidString(s) {
		return VerificationID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid verification id")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return VerificationID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid verification id")
	}
	if parsed == uuid.Nil {
		return VerificationID{}, dErrors.New(dErrors.CodeInvalidInput, "verification id cannot be nil")
	}
	return VerificationID(parsed), nil
}

func (id VerificationID) String() string {
	return uuid.UUID(id).String()
}

func (id VerificationID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id VerificationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *VerificationID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid verification id")
	}
	*id = VerificationID(parsed)
	return nil
}
