package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/luffluo/ormsupport"
	"github.com/luffluo/ormsupport/shard"
)

// ValidationError represents a monthly table validation error.
type ValidationError struct {
	Table   string
	Month   shard.Month
	Message string
}

func (e *ValidationError) Error() string {
	if !e.Month.IsZero() {
		return fmt.Sprintf("%s (%s): %s", e.Table, e.Month, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of monthly table validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Missing returns the names of the tables reported missing.
func (r *ValidationResult) Missing() []string {
	var names []string
	for _, e := range r.Errors {
		names = append(names, e.Table)
	}
	return names
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateMonths checks that the monthly table of base exists for every
// month. Each missing table is an error and each repeated month a
// warning. Run it before executing a composed query, since a missing
// branch table fails the whole UNION ALL.
//
// Example:
//
//	result, err := tables.ValidateMonths(ctx, "orders", months)
//	if err != nil {
//	    return err
//	}
//	if result.HasErrors() {
//	    log.Println("missing tables:", result)
//	}
func (t *Tables) ValidateMonths(ctx context.Context, base string, months []shard.Month) (*ValidationResult, error) {
	if len(months) == 0 {
		return nil, ormsupport.NewArgumentError("months", months, "at least one month is required")
	}
	existing, err := t.List(ctx, t.Name(base))
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	result := &ValidationResult{}
	seen := make(map[shard.Month]bool, len(months))
	for _, m := range months {
		name := t.MonthlyName(base, m)
		if seen[m] {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   name,
				Month:   m,
				Message: "month requested more than once",
			})
			continue
		}
		seen[m] = true
		if !have[name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   name,
				Month:   m,
				Message: "table does not exist",
			})
		}
	}
	return result, nil
}
