package handler

import (
	"time"

	"docverify/internal/domain"
)

// VerificationResponse is the HTTP response for a completed evaluation.
type VerificationResponse struct {
	ApplicationID   string                    `json:"application_id"`
	Success         bool                      `json:"success"`
	ConfidenceScore int                       `json:"confidence_score"`
	AutoApproved    bool                      `json:"auto_approved"`
	Message         string                    `json:"message"`
	Flags           []domain.VerificationFlag `json:"flags"`
	ExtractedData   ExtractedDataResponse     `json:"extracted_data"`
}

// ExtractedDataResponse mirrors the extracted fields. Absent fields are null.
// Raw OCR text is not returned.
type ExtractedDataResponse struct {
	FullName       domain.Field `json:"full_name"`
	DateOfBirth    domain.Field `json:"date_of_birth"`
	Address        domain.Field `json:"address"`
	IDNumber       domain.Field `json:"id_number"`
	State          domain.Field `json:"state"`
	ExpirationDate domain.Field `json:"expiration_date"`
}

// StatusResponse is the HTTP response for
// GET /v1/applications/{applicationID}/identity-verification.
type StatusResponse struct {
	ApplicationID   string                    `json:"application_id"`
	VerificationID  string                    `json:"verification_id"`
	Status          string                    `json:"status"`
	ConfidenceScore int                       `json:"confidence_score"`
	Flags           []domain.VerificationFlag `json:"flags"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

func fromExtracted(d domain.ExtractedIdentityData) ExtractedDataResponse {
	return ExtractedDataResponse{
		FullName:       d.FullName,
		DateOfBirth:    d.DateOfBirth,
		Address:        d.Address,
		IDNumber:       d.IDNumber,
		State:          d.State,
		ExpirationDate: d.ExpirationDate,
	}
}

// FromResult converts a VerificationResult to an HTTP response.
func FromResult(applicationID string, result *domain.VerificationResult) *VerificationResponse {
	flags := result.Flags
	if flags == nil {
		flags = []domain.VerificationFlag{}
	}
	return &VerificationResponse{
		ApplicationID:   applicationID,
		Success:         result.Success,
		ConfidenceScore: result.ConfidenceScore,
		AutoApproved:    result.AutoApproved,
		Message:         result.Message,
		Flags:           flags,
		ExtractedData:   fromExtracted(result.ExtractedData),
	}
}

// FromStatus converts a stored StatusRecord to an HTTP response.
func FromStatus(record *domain.StatusRecord) *StatusResponse {
	flags := record.Flags
	if flags == nil {
		flags = []domain.VerificationFlag{}
	}
	return &StatusResponse{
		ApplicationID:   record.ApplicationID.String(),
		VerificationID:  record.VerificationID.String(),
		Status:          string(record.Status),
		ConfidenceScore: record.ConfidenceScore,
		Flags:           flags,
		UpdatedAt:       record.UpdatedAt,
	}
}
