// Package application resolves the applicant's self-reported identity for a
// loan application, reading through an optional cache.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docverify/internal/domain"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// Source is the system of record for application identity data.
// FindIdentity returns sentinel.ErrNotFound when the application does not exist.
type Source interface {
	FindIdentity(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error)
}

// Cache stores identity records close to the service.
type Cache interface {
	FindIdentity(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error)
	SaveIdentity(ctx context.Context, applicationID id.ApplicationID, record *domain.ApplicationIdentityRecord) error
}

// Service looks up identity records. A cache failure degrades to the source;
// only source failures are returned to the caller.
type Service struct {
	source Source
	cache  Cache
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithCache enables read-through caching.
func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindIdentity returns the record for applicationID, or sentinel.ErrNotFound.
func (s *Service) FindIdentity(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error) {
	requestID := requestcontext.RequestID(ctx)

	if s.cache != nil {
		cached, err := s.cache.FindIdentity(ctx, applicationID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "application cache lookup failed",
				"request_id", requestID,
				"application_id", applicationID.String(),
				"error", err,
			)
		}
	}

	record, err := s.source.FindIdentity(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find application %s: %w", applicationID, err)
	}

	if s.cache != nil {
		if err := s.cache.SaveIdentity(ctx, applicationID, record); err != nil {
			s.logger.WarnContext(ctx, "application cache write failed",
				"request_id", requestID,
				"application_id", applicationID.String(),
				"error", err,
			)
		}
	}
	return record, nil
}
