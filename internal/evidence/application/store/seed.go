package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"docverify/internal/domain"
	id "docverify/pkg/domain"
)

type seedEntry struct {
	ApplicationID int64 `json:"application_id"`
	domain.ApplicationIdentityRecord
}

// isoDateLayout is the form PostgreSQL prints DATE columns in.
const isoDateLayout = "2006-01-02"

// LoadSeed reads a JSON array of application records into s. It backs local
// runs without a database. Dates of birth may be given in dateLayout or ISO
// form and are stored in dateLayout, as PostgresStore renders them.
func LoadSeed(ctx context.Context, path string, s *InMemoryStore, dateLayout string) (int, error) {
	if dateLayout == "" {
		dateLayout = domain.DefaultDateLayout
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i, e := range entries {
		if e.ApplicationID <= 0 {
			return 0, fmt.Errorf("seed entry %d: application_id must be positive", i)
		}
		record := e.ApplicationIdentityRecord
		dob, err := normalizeDate(record.DateOfBirth, dateLayout)
		if err != nil {
			return 0, fmt.Errorf("seed entry %d: date_of_birth: %w", i, err)
		}
		record.DateOfBirth = dob
		if err := s.SaveIdentity(ctx, id.ApplicationID(e.ApplicationID), &record); err != nil {
			return 0, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return len(entries), nil
}

func normalizeDate(value, layout string) (string, error) {
	if value == "" {
		return "", nil
	}
	for _, l := range []string{layout, isoDateLayout} {
		if t, err := time.Parse(l, value); err == nil {
			return t.Format(layout), nil
		}
	}
	return "", fmt.Errorf("%q matches neither %s nor %s", value, layout, isoDateLayout)
}
