package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"docverify/internal/domain"
)

//go:embed rules.schema.json
var rulesSchema []byte

const rulesSchemaURL = "rules.schema.json"

type rulesFile struct {
	ReplaceDefaults bool       `json:"replace_defaults"`
	Rules           []ruleSpec `json:"rules"`
}

type ruleSpec struct {
	Field      domain.FieldName `json:"field"`
	Name       string           `json:"name"`
	Pattern    string           `json:"pattern"`
	Exclude    string           `json:"exclude"`
	Group      int              `json:"group"`
	Occurrence int              `json:"occurrence"`
	Template   string           `json:"template"`
	Position   string           `json:"position"`
}

// LoadRules reads a rules file and merges it into base. Rules with position
// "before" (the default) are tried ahead of the base chain for their field;
// "after" rules are tried once the base chain misses. With replace_defaults
// the base is ignored.
func LoadRules(path string, base RuleSet) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data, base)
}

// ParseRules validates data against the rules schema, compiles every pattern
// and merges the result into base.
func ParseRules(data []byte, base RuleSet) (RuleSet, error) {
	if err := validateRules(data); err != nil {
		return nil, err
	}

	var file rulesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	out := RuleSet{}
	if !file.ReplaceDefaults && base != nil {
		out = base.Clone()
	}

	before := map[domain.FieldName][]Rule{}
	for _, spec := range file.Rules {
		rule, err := spec.compile()
		if err != nil {
			return nil, err
		}
		if spec.Position == "after" {
			out[spec.Field] = append(out[spec.Field], rule)
			continue
		}
		before[spec.Field] = append(before[spec.Field], rule)
	}
	for field, rules := range before {
		out[field] = append(rules, out[field]...)
	}
	return out, nil
}

func (s ruleSpec) compile() (Rule, error) {
	pattern, err := regexp.Compile(s.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: compile pattern: %w", s.Name, err)
	}
	if s.Group > pattern.NumSubexp() {
		return Rule{}, fmt.Errorf("rule %q: group %d exceeds %d capture groups", s.Name, s.Group, pattern.NumSubexp())
	}
	rule := Rule{
		Name:       s.Name,
		Pattern:    pattern,
		Group:      s.Group,
		Occurrence: s.Occurrence,
		Template:   s.Template,
	}
	if s.Exclude != "" {
		rule.Exclude, err = regexp.Compile(s.Exclude)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: compile exclude: %w", s.Name, err)
		}
	}
	return rule, nil
}

func validateRules(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(rulesSchemaURL, bytes.NewReader(rulesSchema)); err != nil {
		return fmt.Errorf("add rules schema: %w", err)
	}
	schema, err := compiler.Compile(rulesSchemaURL)
	if err != nil {
		return fmt.Errorf("compile rules schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal rules: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("rules do not match schema: %w", err)
	}
	return nil
}
