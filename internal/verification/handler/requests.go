package handler

import (
	"strings"

	dErrors "docverify/pkg/domain-errors"
)

const maxDocumentPathLen = 4096

// VerifyRequest is the HTTP request body for
// POST /v1/applications/{applicationID}/identity-verifications.
type VerifyRequest struct {
	DocumentPath string `json:"document_path"`
}

// Validate implements httputil.Validatable.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.DocumentPath) > maxDocumentPathLen {
		return dErrors.New(dErrors.CodeValidation, "document_path is too long")
	}
	r.DocumentPath = strings.TrimSpace(r.DocumentPath)
	if r.DocumentPath == "" {
		return dErrors.New(dErrors.CodeValidation, "document_path is required")
	}
	if strings.ContainsRune(r.DocumentPath, 0) {
		return dErrors.New(dErrors.CodeValidation, "document_path is invalid")
	}
	return nil
}
