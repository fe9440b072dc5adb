package schedconfig

import "fmt"

// ConfigError reports a single structural or semantic defect found while
// validating a Config, naming the offending field and the form expected
// of it.
type ConfigError struct {
	// Kind identifies the class of defect, e.g. "BadTimeFormat", "BadDuration",
	// "UnalignedBoundary", "UnknownPanelReference", "DuplicateInOrder".
	Kind string
	// Field is the config key or path that failed, e.g. "panels.HR" or
	// "position_constraints.Goodbye".
	Field string
	// Expected describes the form the field was expected to take.
	Expected string
	// Cause is the underlying error, if any (e.g. a schedtime parse error).
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error [%s] field %q: %v", e.Kind, e.Field, e.Cause)
	}
	return fmt.Sprintf("config error [%s] field %q: expected %s", e.Kind, e.Field, e.Expected)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// ConfigErrors aggregates every defect found in a single validation pass
// so a coordinator sees all problems at once instead of one-at-a-time.
type ConfigErrors struct {
	Errors []*ConfigError
}

func (e *ConfigErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d config errors, first: %v", len(e.Errors), e.Errors[0])
}

func (e *ConfigErrors) Add(err *ConfigError) {
	e.Errors = append(e.Errors, err)
}

func (e *ConfigErrors) Empty() bool { return len(e.Errors) == 0 }

// AsConfigErrors returns nil if there were no accumulated errors, or the
// aggregate error otherwise; callers can return errs.AsConfigErrors()
// directly from a function signature expecting `error`.
func (e *ConfigErrors) AsConfigErrors() error {
	if e.Empty() {
		return nil
	}
	return e
}
