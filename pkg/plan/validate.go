package plan

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks planning
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks planning
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Field    string             // which parameter has the problem
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Field, e.Message)
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) add(e ValidationError) {
	if e.Severity == SeverityError {
		r.Errors = append(r.Errors, e)
	} else {
		r.Warnings = append(r.Warnings, e)
	}
}

func (r *ValidationResult) errorf(field, format string, args ...any) {
	r.add(ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
}

func (r *ValidationResult) warnf(field, format string, args ...any) {
	r.add(ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}
