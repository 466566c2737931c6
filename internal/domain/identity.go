package domain

import "fmt"

// FieldName identifies a checkable identity field or a pipeline stage in flags.
type FieldName string

const (
	FieldFullName       FieldName = "fullName"
	FieldDateOfBirth    FieldName = "dateOfBirth"
	FieldAddress        FieldName = "address"
	FieldIDNumber       FieldName = "idNumber"
	FieldState          FieldName = "state"
	FieldExpirationDate FieldName = "expirationDate"

	// Stage names used by terminal flags.
	FieldOCR         FieldName = "ocr"
	FieldApplication FieldName = "application"
)

// ApplicationIdentityRecord is the applicant's self-reported identity as owned
// by the loan-application subsystem. It is read-only here.
type ApplicationIdentityRecord struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
}

// FormattedAddress renders the record address as "street, city, state zip",
// the form the parser normalises extracted addresses to.
func (r ApplicationIdentityRecord) FormattedAddress() string {
	return fmt.Sprintf("%s, %s, %s %s", r.Street, r.City, r.State, r.ZipCode)
}

// ExtractedIdentityData is what the parser recovered from one document's OCR
// text. It is built once per run and not modified afterwards.
type ExtractedIdentityData struct {
	FullName       Field  `json:"full_name"`
	DateOfBirth    Field  `json:"date_of_birth"`
	Address        Field  `json:"address"`
	IDNumber       Field  `json:"id_number"`
	ExpirationDate Field  `json:"expiration_date"`
	State          Field  `json:"state"`
	RawText        string `json:"raw_text"`
}

// Get returns the field value for name. Unknown names are Absent.
func (d ExtractedIdentityData) Get(name FieldName) Field {
	switch name {
	case FieldFullName:
		return d.FullName
	case FieldDateOfBirth:
		return d.DateOfBirth
	case FieldAddress:
		return d.Address
	case FieldIDNumber:
		return d.IDNumber
	case FieldState:
		return d.State
	case FieldExpirationDate:
		return d.ExpirationDate
	default:
		return Absent()
	}
}

// With returns a copy with the named field set.
func (d ExtractedIdentityData) With(name FieldName, f Field) ExtractedIdentityData {
	switch name {
	case FieldFullName:
		d.FullName = f
	case FieldDateOfBirth:
		d.DateOfBirth = f
	case FieldAddress:
		d.Address = f
	case FieldIDNumber:
		d.IDNumber = f
	case FieldState:
		d.State = f
	case FieldExpirationDate:
		d.ExpirationDate = f
	}
	return d
}
