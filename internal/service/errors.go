package service

import "fmt"

// ValidationError reports malformed input: a rule with no keywords, a
// non-positive COGS amount, an unknown match type, or a bad import row.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness violation. Entity and ID identify the
// record already occupying the slot.
type ConflictError struct {
	Entity string
	ID     string
	Msg    string
}

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError reports an operation against a nonexistent record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
