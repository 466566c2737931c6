package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"docverify/internal/domain"
	"docverify/internal/platform/postgres"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// PostgresStore persists verification statuses in PostgreSQL. Writes are
// unconditional upserts, so concurrent commits for one application resolve
// as last writer wins.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveStatus(ctx context.Context, record domain.StatusRecord) error {
	if !record.Status.IsValid() {
		return fmt.Errorf("invalid verification status %q", record.Status)
	}
	flags := record.Flags
	if flags == nil {
		flags = []domain.VerificationFlag{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}
	extractedJSON, err := json.Marshal(record.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}

	query := `
		INSERT INTO identity_verifications (
			application_id, verification_id, status, confidence_score, flags, extracted_data, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (application_id) DO UPDATE SET
			verification_id = EXCLUDED.verification_id,
			status = EXCLUDED.status,
			confidence_score = EXCLUDED.confidence_score,
			flags = EXCLUDED.flags,
			extracted_data = EXCLUDED.extracted_data,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		record.ApplicationID.Int64(),
		record.VerificationID.String(),
		string(record.Status),
		record.ConfidenceScore,
		flagsJSON,
		extractedJSON,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification status: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindStatus(ctx context.Context, applicationID id.ApplicationID) (*domain.StatusRecord, error) {
	query := `
		SELECT verification_id, status, confidence_score, flags, extracted_data, updated_at
		FROM identity_verifications
		WHERE application_id = $1
	`
	var (
		record         domain.StatusRecord
		verificationID string
		status         string
		flagsJSON      []byte
		extractedJSON  []byte
	)
	err := s.db.QueryRowContext(ctx, query, applicationID.Int64()).Scan(
		&verificationID,
		&status,
		&record.ConfidenceScore,
		&flagsJSON,
		&extractedJSON,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification status: %w", postgres.Classify(err))
	}

	record.ApplicationID = applicationID
	record.VerificationID, err = id.ParseVerificationID(verificationID)
	if err != nil {
		return nil, fmt.Errorf("parse verification id: %w", err)
	}
	record.Status = domain.VerificationStatus(status)
	if err := json.Unmarshal(flagsJSON, &record.Flags); err != nil {
		return nil, fmt.Errorf("unmarshal flags: %w", err)
	}
	if err := json.Unmarshal(extractedJSON, &record.ExtractedData); err != nil {
		return nil, fmt.Errorf("unmarshal extracted data: %w", err)
	}
	return &record, nil
}
