//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"docverify/internal/domain"
	"docverify/internal/evidence/application/store"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB, domain.DefaultDateLayout)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "loan_applications")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestFindIdentity() {
	ctx := context.Background()
	_, err := s.postgres.Exec(ctx, `
		INSERT INTO loan_applications (id, full_name, date_of_birth, street, city, state, zip_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		1001, "JOHN DOE", "1985-01-15", "123 MAIN ST", "SPRINGFIELD", "IL", "62701")
	s.Require().NoError(err)

	record, err := s.store.FindIdentity(ctx, 1001)
	s.Require().NoError(err)
	s.Equal("JOHN DOE", record.FullName)
	s.Equal("01/15/1985", record.DateOfBirth, "dates render in document layout")
	s.Equal("123 MAIN ST, SPRINGFIELD, IL 62701", record.FormattedAddress())
}

func (s *PostgresStoreSuite) TestMissingApplication() {
	_, err := s.store.FindIdentity(context.Background(), 404)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
