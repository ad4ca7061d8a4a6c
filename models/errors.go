package models

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports every invalid field of a failed save at once,
// field-scoped so callers can surface per-field messages.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty validation error ready to collect
// field failures.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records one failure message for a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Any reports whether at least one field failed.
func (e *ValidationError) Any() bool {
	return len(e.Fields) > 0
}

// FullMessages returns "field message" strings sorted by field for stable
// output.
func (e *ValidationError) FullMessages() []string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		for _, message := range e.Fields[field] {
			messages = append(messages, fmt.Sprintf("%s %s", field, message))
		}
	}
	return messages
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.FullMessages(), "; "))
}
