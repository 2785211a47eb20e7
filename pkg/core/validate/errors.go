// Package validate holds the error taxonomy shared by every calculation layer
// and the accounting integrity checks run over reshaped statements.
package validate

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// ConfigurationError reports a required rule table that is absent or malformed.
type ConfigurationError struct {
	Source string // file or table name, e.g. "thresholds.yaml"
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration %s: %s", e.Source, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// FieldError is a single unmet field requirement.
type FieldError struct {
	Field  string `json:"field"`
	Record string `json:"record,omitempty"` // e.g. "debt[2]", "cadastral"
	Reason string `json:"reason"`
}

func (f FieldError) String() string {
	if f.Record != "" {
		return fmt.Sprintf("%s.%s: %s", f.Record, f.Field, f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// ValidationError collects every field-level cause found in one pass.
// It is returned instead of letting individual calculators fail partially.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add appends a field cause.
func (e *ValidationError) Add(record, field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Record: record, Reason: reason})
}

// Merge appends all causes of other. A nil other is ignored.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Fields = append(e.Fields, other.Fields...)
}

// HasErrors reports whether any cause has been collected.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e as an error when it holds causes, nil otherwise.
// Avoids the typed-nil-in-interface trap at call sites.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	sort.Strings(parts)
	return fmt.Sprintf("validation failed (%d): %s", len(e.Fields), strings.Join(parts, "; "))
}

// =============================================================================
// COMPUTATION ERRORS
// =============================================================================

// ComputationError reports a stage whose prerequisite output is present but
// structurally wrong.
type ComputationError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *ComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Reason)
}

func (e *ComputationError) Unwrap() error { return e.Err }
