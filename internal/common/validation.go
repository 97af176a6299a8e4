package common

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator collects validation errors across fields
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Err returns the collected errors wrapped in ErrInvalidInput, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, v.ErrorMessage())
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required rejects nil and blank strings.
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case []byte:
		if len(v) == 0 {
			return &ValidationError{Field: fieldName, Value: "<empty>", Message: "is required"}
		}
	}
	return nil
}

// PDFFileName accepts names ending in .pdf (case-insensitive).
func PDFFileName(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok || !strings.HasSuffix(strings.ToLower(strings.TrimSpace(str)), ".pdf") {
		return &ValidationError{Field: fieldName, Value: value, Message: "file must be a PDF"}
	}
	return nil
}

func Email(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if _, err := mail.ParseAddress(str); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid email address"}
	}
	return nil
}

func UUID(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if _, err := uuid.Parse(str); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid UUID"}
	}
	return nil
}

// ArtifactPath returns a rule that only admits relative paths inside root with no parent traversal.
func ArtifactPath(root string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
		}
		if _, err := CleanArtifactPath(root, str); err != nil {
			return &ValidationError{Field: fieldName, Value: value, Message: "invalid path"}
		}
		return nil
	}
}

// CleanArtifactPath normalizes p and checks that its first element is root.
func CleanArtifactPath(root, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, "..") || strings.HasPrefix(p, "/") {
		return "", ErrInvalidInput
	}
	p = strings.Trim(strings.ReplaceAll(p, `\`, "/"), "/")
	parts := strings.Split(p, "/")
	rootParts := strings.Split(strings.Trim(filepath.ToSlash(filepath.Clean(root)), "/"), "/")
	if len(parts) <= len(rootParts) {
		return "", ErrInvalidInput
	}
	for i, rp := range rootParts {
		if parts[i] != rp {
			return "", ErrInvalidInput
		}
	}
	return filepath.FromSlash(p), nil
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}
