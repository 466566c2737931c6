package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/domain"
	"docverify/internal/evidence/application"
	"docverify/internal/evidence/application/store"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

type countingSource struct {
	inner application.Source
	calls int
	err   error
}

func (s *countingSource) FindIdentity(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.FindIdentity(ctx, applicationID)
}

type brokenCache struct{}

func (brokenCache) FindIdentity(context.Context, id.ApplicationID) (*domain.ApplicationIdentityRecord, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) SaveIdentity(context.Context, id.ApplicationID, *domain.ApplicationIdentityRecord) error {
	return errors.New("connection refused")
}

func johnDoe() *domain.ApplicationIdentityRecord {
	return &domain.ApplicationIdentityRecord{
		FullName:    "JOHN DOE",
		DateOfBirth: "01/15/1985",
		Street:      "123 MAIN ST",
		City:        "SPRINGFIELD",
		State:       "IL",
		ZipCode:     "62701",
	}
}

func seededSource(t *testing.T) *countingSource {
	t.Helper()
	records := store.NewInMemoryStore(0)
	require.NoError(t, records.SaveIdentity(context.Background(), 42, johnDoe()))
	return &countingSource{inner: records}
}

func TestService_FindIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("without cache reads the source", func(t *testing.T) {
		source := seededSource(t)
		svc := application.NewService(source)

		record, err := svc.FindIdentity(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, johnDoe(), record)
		assert.Equal(t, 1, source.calls)
	})

	t.Run("cache hit skips the source", func(t *testing.T) {
		source := seededSource(t)
		svc := application.NewService(source, application.WithCache(store.NewInMemoryStore(0)))

		_, err := svc.FindIdentity(ctx, 42)
		require.NoError(t, err)
		_, err = svc.FindIdentity(ctx, 42)
		require.NoError(t, err)

		assert.Equal(t, 1, source.calls)
	})

	t.Run("not found passes through unwrapped", func(t *testing.T) {
		svc := application.NewService(seededSource(t), application.WithCache(store.NewInMemoryStore(0)))

		record, err := svc.FindIdentity(ctx, 7)
		assert.Nil(t, record)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("source failure is returned", func(t *testing.T) {
		source := &countingSource{err: errors.New("db down")}
		svc := application.NewService(source)

		_, err := svc.FindIdentity(ctx, 42)
		require.Error(t, err)
		assert.NotErrorIs(t, err, sentinel.ErrNotFound)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("broken cache degrades to the source", func(t *testing.T) {
		source := seededSource(t)
		svc := application.NewService(source, application.WithCache(brokenCache{}))

		record, err := svc.FindIdentity(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "JOHN DOE", record.FullName)
	})
}
