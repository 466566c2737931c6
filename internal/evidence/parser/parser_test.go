package parser

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/domain"
)

const labelledLicense = `ILLINOIS
DRIVER LICENSE
DL: D1234567
NAME: JOHN DOE
DOB: 01/15/1985
123 MAIN STREET, SPRINGFIELD, IL 62701
EXP: 12/31/2030
`

const unlabelledLicense = `ILLINOIS
DRIVER LICENSE
JANE ROE
A12345678
03/04/1990
456 OAK AVE, CHICAGO, IL 60601
09/30/2029
`

func TestParse_LabelledLicense(t *testing.T) {
	got := New().Parse(context.Background(), labelledLicense)

	assert.Equal(t, domain.Present("JOHN DOE"), got.FullName)
	assert.Equal(t, domain.Present("01/15/1985"), got.DateOfBirth)
	assert.Equal(t, domain.Present("D1234567"), got.IDNumber)
	assert.Equal(t, domain.Present("123 MAIN STREET, SPRINGFIELD, IL 62701"), got.Address)
	assert.Equal(t, domain.Present("IL"), got.State)
	assert.Equal(t, domain.Present("12/31/2030"), got.ExpirationDate)
	assert.Equal(t, labelledLicense, got.RawText)
}

func TestParse_UnlabelledLicenseFallsBackToHeuristics(t *testing.T) {
	got := New().Parse(context.Background(), unlabelledLicense)

	assert.Equal(t, domain.Present("JANE ROE"), got.FullName, "header lines are excluded from the caps-line heuristic")
	assert.Equal(t, domain.Present("A12345678"), got.IDNumber)
	assert.Equal(t, domain.Present("03/04/1990"), got.DateOfBirth)
	assert.Equal(t, domain.Present("09/30/2029"), got.ExpirationDate, "second bare date is taken as expiration")
	assert.Equal(t, domain.Present("456 OAK AVE, CHICAGO, IL 60601"), got.Address)
	assert.Equal(t, domain.Present("IL"), got.State)
}

func TestParse_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field domain.FieldName
		want  domain.Field
	}{
		{"label beats heuristic line", "JOHN SMITH\nNAME: JANE DOE", domain.FieldFullName, domain.Present("JANE DOE")},
		{"last name label", "LAST NAME: O'BRIEN", domain.FieldFullName, domain.Present("O'BRIEN")},
		{"LN label", "LN: DOE\nFN: JOHN", domain.FieldFullName, domain.Present("DOE")},
		{"three word caps line", "MARY ANN SMITH\n", domain.FieldFullName, domain.Present("MARY ANN SMITH")},
		{"middle initial", "JOHN Q PUBLIC\n", domain.FieldFullName, domain.Present("JOHN Q PUBLIC")},
		{"middle initial with period", "JOHN Q. PUBLIC\n", domain.FieldFullName, domain.Present("JOHN Q. PUBLIC")},
		{"single letter surname is not a name", "JOHN Q\n", domain.FieldFullName, domain.Absent()},
		{"four words is not a name", "ONE TWO THREE FOUR", domain.FieldFullName, domain.Absent()},
		{"date of birth label beats earlier date", "ISS 02/02/2020\nDATE OF BIRTH: 07/04/1976", domain.FieldDateOfBirth, domain.Present("07/04/1976")},
		{"birth date label without colon", "BIRTH DATE 07/04/1976", domain.FieldDateOfBirth, domain.Present("07/04/1976")},
		{"license number label", "LICENSE NO: X99-123-456", domain.FieldIDNumber, domain.Present("X99-123-456")},
		{"identification card is not an id label", "IDENTIFICATION CARD\nB7654321", domain.FieldIDNumber, domain.Present("B7654321")},
		{"abbreviated boulevard with newline before city", "9 SUNSET BLVD.\nLOS ANGELES, CA 90028", domain.FieldAddress, domain.Present("9 SUNSET BLVD., LOS ANGELES, CA 90028")},
		{"address needs street keyword", "12 NOWHERE, TOWN, TX 75001", domain.FieldAddress, domain.Absent()},
		{"state needs zip", "IL", domain.FieldState, domain.Absent()},
		{"expires label", "EXPIRES: 05/05/2031", domain.FieldExpirationDate, domain.Present("05/05/2031")},
		{"expiration label beats position", "01/01/1980 EXPIRATION DATE 03/03/2030 02/02/2020", domain.FieldExpirationDate, domain.Present("03/03/2030")},
		{"second of three bare dates", "01/01/1980 02/02/2020 03/03/2030", domain.FieldExpirationDate, domain.Present("02/02/2020")},
		{"single bare date is not an expiration", "DOB 01/01/1980", domain.FieldExpirationDate, domain.Absent()},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(context.Background(), tt.text)
			assert.Equal(t, tt.want, got.Get(tt.field))
		})
	}
}

func TestParse_NoiseYieldsAbsentFields(t *testing.T) {
	got := New().Parse(context.Background(), "@@ ## ~~ \n\n")

	for _, field := range Fields {
		assert.False(t, got.Get(field).IsPresent(), "field %s", field)
	}
	assert.Equal(t, "@@ ## ~~ \n\n", got.RawText)
}

func TestParse_InjectedRules(t *testing.T) {
	rules := RuleSet{
		domain.FieldIDNumber: {
			{Name: "passport", Pattern: regexp.MustCompile(`PASSPORT NO\. ([A-Z]{2}\d{6})`)},
		},
	}

	got := New(WithRules(rules)).Parse(context.Background(), "PASSPORT NO. AB123456\nNAME: JOHN DOE")

	assert.Equal(t, domain.Present("AB123456"), got.IDNumber)
	assert.False(t, got.FullName.IsPresent(), "fields without rules stay absent")
}

func TestRule_Apply(t *testing.T) {
	t.Run("nil pattern never matches", func(t *testing.T) {
		_, ok := Rule{Name: "empty"}.Apply("anything")
		assert.False(t, ok)
	})

	t.Run("pattern without groups uses whole match", func(t *testing.T) {
		v, ok := Rule{Pattern: regexp.MustCompile(`[A-Z]\d{3}`)}.Apply("xx B123 yy")
		require.True(t, ok)
		assert.Equal(t, "B123", v)
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		v, ok := Rule{Pattern: regexp.MustCompile(`NAME:(.*)`)}.Apply("NAME:   JOHN \t  DOE  ")
		require.True(t, ok)
		assert.Equal(t, "JOHN DOE", v)
	})

	t.Run("blank capture is a miss", func(t *testing.T) {
		_, ok := Rule{Pattern: regexp.MustCompile(`NAME:(.*)`)}.Apply("NAME:   ")
		assert.False(t, ok)
	})

	t.Run("occurrence counts only non-excluded matches", func(t *testing.T) {
		rule := Rule{
			Pattern:    regexp.MustCompile(`\b([A-Z]+)\b`),
			Exclude:    regexp.MustCompile(`^SKIP$`),
			Occurrence: 2,
		}
		v, ok := rule.Apply("SKIP ONE SKIP TWO")
		require.True(t, ok)
		assert.Equal(t, "TWO", v)
	})
}
