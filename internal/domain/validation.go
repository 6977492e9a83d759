package domain

import (
	"fmt"
	"strings"
)

// MaxNameLength caps workout and exercise names.
const MaxNameLength = 100

// FieldViolation describes a single invalid input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field violations. It is always produced before
// any write, so a failed operation leaves no partial state behind.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// violations collects field errors during precondition checks.
type violations []FieldViolation

func (v *violations) add(field, message string) {
	*v = append(*v, FieldViolation{Field: field, Message: message})
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}
