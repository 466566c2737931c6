package parser

import (
	"regexp"
	"strings"

	"docverify/internal/domain"
)

// Rule extracts one field value from OCR text.
//
// Matches of Pattern whose full text also matches Exclude are skipped. The
// Occurrence-th remaining match (1-based, default 1) supplies the value: the
// expanded Template when set, otherwise capture Group (default 1 when the
// pattern has groups). Whitespace in the value is collapsed.
type Rule struct {
	Name       string
	Pattern    *regexp.Regexp
	Exclude    *regexp.Regexp
	Group      int
	Occurrence int
	Template   string
}

// Apply runs the rule against text.
func (r Rule) Apply(text string) (string, bool) {
	if r.Pattern == nil {
		return "", false
	}
	want := r.Occurrence
	if want <= 0 {
		want = 1
	}

	seen := 0
	for _, loc := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
		if r.Exclude != nil && r.Exclude.MatchString(text[loc[0]:loc[1]]) {
			continue
		}
		seen++
		if seen < want {
			continue
		}
		value := strings.Join(strings.Fields(r.value(text, loc)), " ")
		return value, value != ""
	}
	return "", false
}

func (r Rule) value(text string, loc []int) string {
	if r.Template != "" {
		return string(r.Pattern.ExpandString(nil, r.Template, text, loc))
	}
	g := r.Group
	if g == 0 && r.Pattern.NumSubexp() > 0 {
		g = 1
	}
	if 2*g+1 >= len(loc) || loc[2*g] < 0 {
		return ""
	}
	return text[loc[2*g]:loc[2*g+1]]
}

// RuleSet maps each field to its ordered rule chain. The first rule that
// yields a value wins.
type RuleSet map[domain.FieldName][]Rule

// Fields lists the fields the parser fills, in evaluation order.
var Fields = []domain.FieldName{
	domain.FieldFullName,
	domain.FieldDateOfBirth,
	domain.FieldIDNumber,
	domain.FieldAddress,
	domain.FieldState,
	domain.FieldExpirationDate,
}

// Clone returns a copy whose chains can be modified independently.
func (rs RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(rs))
	for field, rules := range rs {
		out[field] = append([]Rule(nil), rules...)
	}
	return out
}

const datePattern = `\d{2}/\d{2}/\d{4}`

// DefaultRules returns the built-in rule chains for US driver licenses and
// state ID cards.
func DefaultRules() RuleSet {
	return RuleSet{
		domain.FieldFullName: {
			{
				Name:    "name-label",
				Pattern: regexp.MustCompile(`\b(?i:LAST[ \t]+NAME|NAME|LN)[ \t]*:[ \t]*([A-Z][A-Z' .\-]*[A-Z])`),
			},
			{
				Name:    "name-caps-line",
				Pattern: regexp.MustCompile(`(?m)^[ \t]*([A-Z]{2,}(?:[ \t]+[A-Z]+\.?)?[ \t]+[A-Z]{2,})[ \t]*$`),
				Exclude: regexp.MustCompile(`\b(?:DRIVER|DRIVERS|LICENSE|LICENCE|IDENTIFICATION|CARD|DEPARTMENT|USA|CLASS|ENDORSEMENTS|RESTRICTIONS|DONOR|VETERAN)\b`),
			},
		},
		domain.FieldDateOfBirth: {
			{
				Name:    "dob-label",
				Pattern: regexp.MustCompile(`\b(?i:DOB|DATE[ \t]+OF[ \t]+BIRTH|BIRTH[ \t]+DATE)[ \t]*:?[ \t]*(` + datePattern + `)`),
			},
			{
				Name:    "dob-first-date",
				Pattern: regexp.MustCompile(`\b(` + datePattern + `)\b`),
			},
		},
		domain.FieldIDNumber: {
			{
				Name:    "id-label",
				Pattern: regexp.MustCompile(`\b(?i:LICENSE|NUMBER|DL|ID)\b(?:[ \t]*(?i:NO\.?|NUMBER|#))?[ \t]*[:#]?[ \t]*([A-Z]{0,3}\d[A-Z0-9\-]{4,})`),
			},
			{
				Name:    "id-letter-digits",
				Pattern: regexp.MustCompile(`\b([A-Z]\d{7,8})\b`),
			},
		},
		domain.FieldAddress: {
			{
				Name: "address-line",
				Pattern: regexp.MustCompile(
					`(?i)\b(\d+[ \t]+[A-Z0-9 .'\-]*?\b(?:STREET|ST|AVENUE|AVE|ROAD|RD|DRIVE|DR|LANE|LN|BOULEVARD|BLVD)\b\.?)` +
						`[ \t]*(?:,|\n)[ \t\r\n]*([A-Z][A-Z .'\-]*?)[ \t]*,[ \t]*([A-Z]{2})[ \t]+(\d{5})\b`),
				Template: "$1, $2, $3 $4",
			},
		},
		domain.FieldState: {
			{
				Name:    "state-before-zip",
				Pattern: regexp.MustCompile(`\b([A-Z]{2})[ \t]+\d{5}\b`),
			},
		},
		domain.FieldExpirationDate: {
			{
				Name:    "exp-label",
				Pattern: regexp.MustCompile(`\b(?i:EXPIRATION(?:[ \t]+DATE)?|EXPIRES|EXP)\b[ \t]*:?[ \t]*(` + datePattern + `)`),
			},
			{
				// Without a label the second date on the card is taken as the
				// expiration, the first being the date of birth.
				Name:       "exp-second-date",
				Pattern:    regexp.MustCompile(`\b(` + datePattern + `)\b`),
				Occurrence: 2,
			},
		},
	}
}
