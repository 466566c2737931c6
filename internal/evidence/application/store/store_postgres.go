package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"docverify/internal/domain"
	"docverify/internal/platform/postgres"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

const findIdentityQuery = `
SELECT full_name, date_of_birth, street, city, state, zip_code
FROM loan_applications
WHERE id = $1`

// PostgresStore reads application identity records from the loan application
// tables. It never writes to them.
type PostgresStore struct {
	db         *sql.DB
	dateLayout string
}

// NewPostgresStore constructs a store. Dates of birth are rendered with
// dateLayout so they compare equal to dates printed on documents.
func NewPostgresStore(db *sql.DB, dateLayout string) *PostgresStore {
	if dateLayout == "" {
		dateLayout = domain.DefaultDateLayout
	}
	return &PostgresStore{db: db, dateLayout: dateLayout}
}

func (s *PostgresStore) FindIdentity(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error) {
	var (
		record domain.ApplicationIdentityRecord
		dob    time.Time
	)
	err := s.db.QueryRowContext(ctx, findIdentityQuery, applicationID.Int64()).Scan(
		&record.FullName,
		&dob,
		&record.Street,
		&record.City,
		&record.State,
		&record.ZipCode,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application identity: %w", postgres.Classify(err))
	}
	record.DateOfBirth = dob.Format(s.dateLayout)
	return &record, nil
}
