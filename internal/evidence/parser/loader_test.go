package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/domain"
)

func TestParseRules_MergesIntoDefaults(t *testing.T) {
	data := []byte(`{
		"rules": [
			{"field": "idNumber", "name": "wi-dl", "pattern": "\\b([A-Z]\\d{3}-\\d{4}-\\d{4}-\\d{2})\\b"},
			{"field": "fullName", "name": "surname-given", "pattern": "(?m)^([A-Z]+),([A-Z]+)$", "template": "$2 $1", "position": "after"}
		]
	}`)

	rules, err := ParseRules(data, DefaultRules())
	require.NoError(t, err)

	ids := rules[domain.FieldIDNumber]
	require.Len(t, ids, 3)
	assert.Equal(t, "wi-dl", ids[0].Name, "before rules run ahead of defaults")

	names := rules[domain.FieldFullName]
	require.Len(t, names, 3)
	assert.Equal(t, "surname-given", names[2].Name, "after rules run once defaults miss")

	assert.Len(t, DefaultRules()[domain.FieldIDNumber], 2, "defaults are not mutated")

	got := New(WithRules(rules)).Parse(context.Background(), "D123-4567-8901-23\nDOE,JOHN")
	assert.Equal(t, domain.Present("D123-4567-8901-23"), got.IDNumber)
	assert.Equal(t, domain.Present("JOHN DOE"), got.FullName)
}

func TestParseRules_ReplaceDefaults(t *testing.T) {
	data := []byte(`{"replace_defaults": true, "rules": [{"field": "state", "name": "st", "pattern": "STATE ([A-Z]{2})"}]}`)

	rules, err := ParseRules(data, DefaultRules())
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	assert.Len(t, rules[domain.FieldState], 1)
}

func TestParseRules_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not JSON", `{`},
		{"missing rules", `{}`},
		{"unknown field", `{"rules":[{"field":"zip","name":"z","pattern":"\\d{5}"}]}`},
		{"unknown property", `{"rules":[{"field":"state","name":"s","pattern":"x","weight":2}]}`},
		{"bad position", `{"rules":[{"field":"state","name":"s","pattern":"x","position":"middle"}]}`},
		{"zero occurrence", `{"rules":[{"field":"state","name":"s","pattern":"x","occurrence":0}]}`},
		{"invalid regex", `{"rules":[{"field":"state","name":"s","pattern":"([A-Z"}]}`},
		{"invalid exclude", `{"rules":[{"field":"state","name":"s","pattern":"x","exclude":"("}]}`},
		{"group out of range", `{"rules":[{"field":"state","name":"s","pattern":"([A-Z]{2})","group":2}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.data), DefaultRules())
			require.Error(t, err)
		})
	}
}

func TestLoadRules_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rules":[{"field":"state","name":"st","pattern":"ST ([A-Z]{2})"}]}`), 0o600))

	rules, err := LoadRules(path, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, "st", rules[domain.FieldState][0].Name)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)
}
