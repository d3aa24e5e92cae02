// Package validation evaluates declarative per-field rules against raw form
// input. Every rule of every field runs; failures are collected, never
// short-circuited, so a form can show all violations at once.
package validation

import (
	"sort"
	"strings"

	autherrors "github.com/jrsteele09/go-admin-console/internal/errors"
)

// Rule is a single check on a field value. Message is reported when Check
// returns false.
type Rule struct {
	Message string
	Check   func(value string) bool
}

// Field binds an input name to its rules. When Trim is set, surrounding
// whitespace is removed before the rules run and from the normalized value.
type Field struct {
	Name  string
	Trim  bool
	Rules []Rule
}

// Schema is an ordered set of fields
type Schema []Field

// Values are normalized inputs keyed by field name
type Values map[string]string

// Result maps a field name to its failure messages, in rule order.
// A field that passed has no entry.
type Result map[string][]string

// Valid reports whether no field failed
func (r Result) Valid() bool {
	return len(r) == 0
}

// Errors returns the messages recorded for field
func (r Result) Errors(field string) []string {
	return r[field]
}

// First returns the first message for field, or ""
func (r Result) First(field string) string {
	if msgs := r[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Err is nil for a valid result, otherwise ErrFieldValidation naming the
// failing fields
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return autherrors.Wrapf(autherrors.ErrFieldValidation, "fields %s", strings.Join(r.Fields(), ","))
}

// Fields lists the failing field names in sorted order
func (r Result) Fields() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate runs the schema over input. A missing input is treated as the
// empty string; there is no separate "required" rule.
func (s Schema) Validate(input map[string]string) (Values, Result) {
	values := make(Values, len(s))
	result := make(Result)
	for _, field := range s {
		value := input[field.Name]
		if field.Trim {
			value = strings.TrimSpace(value)
		}
		values[field.Name] = value

		for _, rule := range field.Rules {
			if !rule.Check(value) {
				result[field.Name] = append(result[field.Name], rule.Message)
			}
		}
	}
	return values, result
}

// Field returns the named field definition
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
