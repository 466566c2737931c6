package handler

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"docverify/internal/domain"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// Service defines the verification operations the handler needs.
type Service interface {
	VerifyAndCommit(ctx context.Context, applicationID id.ApplicationID, documentPath string) (*domain.VerificationResult, error)
	Status(ctx context.Context, applicationID id.ApplicationID) (*domain.StatusRecord, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	documentRoot string
}

// New constructs a handler. When documentRoot is set, document paths must
// resolve inside it; relative paths are resolved against it.
func New(service Service, logger *slog.Logger, documentRoot string) *Handler {
	if documentRoot != "" {
		documentRoot = filepath.Clean(documentRoot)
	}
	return &Handler{
		service:      service,
		logger:       logger,
		documentRoot: documentRoot,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/applications/{applicationID}/identity-verifications", h.HandleVerify)
	r.Get("/v1/applications/{applicationID}/identity-verification", h.HandleGetStatus)
}

// HandleVerify runs a verification and returns the result. Any completed
// evaluation is a 200, including Success=false results.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	documentPath, err := h.resolveDocumentPath(req.DocumentPath)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected document path",
			"request_id", requestID,
			"application_id", applicationID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.VerifyAndCommit(ctx, applicationID, documentPath)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"application_id", applicationID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification completed",
		"request_id", requestID,
		"application_id", applicationID.String(),
		"client_id", requestcontext.ClientID(ctx),
		"success", result.Success,
		"auto_approved", result.AutoApproved,
		"confidence_score", result.ConfidenceScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(applicationID.String(), result))
}

// HandleGetStatus returns the last committed status for an application.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Status(ctx, applicationID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load verification status",
				"request_id", requestcontext.RequestID(ctx),
				"application_id", applicationID.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromStatus(record))
}

func (h *Handler) resolveDocumentPath(p string) (string, error) {
	if h.documentRoot == "" {
		if !filepath.IsAbs(p) {
			return "", dErrors.New(dErrors.CodeValidation, "document_path must be absolute")
		}
		return filepath.Clean(p), nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(h.documentRoot, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(h.documentRoot, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", dErrors.New(dErrors.CodeValidation, "document_path is outside the document root")
	}
	return p, nil
}
