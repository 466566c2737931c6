// Package parser turns raw OCR text into a partially populated identity record
// using ordered, pluggable pattern rules per field.
package parser

import (
	"context"
	"log/slog"

	"docverify/internal/domain"
)

// Parser applies a RuleSet to OCR text. It never fails: fields whose rules
// all miss stay Absent.
type Parser struct {
	rules  RuleSet
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithRules replaces the default rule chains.
func WithRules(rules RuleSet) Option {
	return func(p *Parser) {
		if rules != nil {
			p.rules = rules
		}
	}
}

// WithLogger enables debug logging of which rule matched each field.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{rules: DefaultRules()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts every field it can from raw.
func (p *Parser) Parse(ctx context.Context, raw string) domain.ExtractedIdentityData {
	data := domain.ExtractedIdentityData{RawText: raw}
	for _, field := range Fields {
		for _, rule := range p.rules[field] {
			value, ok := rule.Apply(raw)
			if !ok {
				continue
			}
			data = data.With(field, domain.Present(value))
			if p.logger != nil {
				p.logger.DebugContext(ctx, "field extracted",
					"field", field,
					"rule", rule.Name,
				)
			}
			break
		}
	}
	return data
}
