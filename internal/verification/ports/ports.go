package ports

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks

import (
	"context"

	"docverify/internal/domain"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/audit"
)

// Extraction is the outcome of reading text from a document (port model).
// Error is set iff Success is false.
type Extraction struct {
	Success bool
	Text    string
	Error   string
}

// TextExtractor reads the raw text of a scanned identity document.
// Failures are reported in the Extraction, not as errors.
type TextExtractor interface {
	Extract(ctx context.Context, documentPath string) Extraction
}

// FieldParser recovers identity fields from OCR text. It never fails; fields
// it cannot find are Absent.
type FieldParser interface {
	Parse(ctx context.Context, raw string) domain.ExtractedIdentityData
}

// ApplicationStore resolves the applicant's self-reported identity.
// Returns sentinel.ErrNotFound if the application does not exist.
type ApplicationStore interface {
	FindIdentity(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error)
}

// StatusStore persists the verification outcome for an application.
// SaveStatus replaces any previous record (last writer wins).
// FindStatus returns sentinel.ErrNotFound if the application was never verified.
type StatusStore interface {
	SaveStatus(ctx context.Context, record domain.StatusRecord) error
	FindStatus(ctx context.Context, applicationID id.ApplicationID) (*domain.StatusRecord, error)
}

// EventPublisher emits events after a status commit.
// This matches audit.Publisher's Emit but is defined here
// to maintain hexagonal boundaries.
type EventPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
