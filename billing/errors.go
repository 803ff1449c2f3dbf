/*
errors.go - Centralized error types for the billing pipeline

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers distinguish error kinds with errors.Is().

ERROR CATEGORIES:
  1. Fatal errors - Abort the run (bad dates, unknown categories)
  2. Recoverable errors - Accumulated as warnings, run continues

FATAL vs RECOVERABLE:
  The asymmetry is deliberate and mirrors the reference system:
  - An hours record naming a student absent from the stay dataset is
    skipped and reported (ErrUnmatchedStudent).
  - An hours record naming an unregistered category aborts the entire
    run (ErrUnknownCategory). No further records are processed and the
    post-subsidy report is never produced.

USAGE:
    if errors.Is(err, billing.ErrUnknownCategory) {
        // hard stop, diagnose the offending record
    }
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateFormat is returned when a calendar or input date string
	// cannot be parsed with day-before-month interpretation. Fatal before
	// any processing.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrUnknownCategory is returned when an hours record references a
	// category code that is not registered in the subsidy schedule.
	// Fatal: aborts the run immediately.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnmatchedStudent is returned when an hours record references a
	// student absent from the stay dataset. Recoverable: the record is
	// skipped and a warning accumulated.
	ErrUnmatchedStudent = errors.New("student not found in stay records")

	// ErrMalformedLabel is returned when a week or CCA label cannot be
	// reduced to an index or category code. Fatal, like a bad date.
	ErrMalformedLabel = errors.New("malformed label")

	// ErrInvalidSchedule is returned when a category tier table is not
	// well-formed (missing baseline tier, non-ascending thresholds).
	ErrInvalidSchedule = errors.New("invalid subsidy schedule")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending record
// =============================================================================

// InvalidDateError identifies the unparseable date string.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date format: %q (expected day-first dd/mm/yyyy)", e.Input)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDateFormat }

// UnknownCategoryError identifies the record that halted the run.
type UnknownCategoryError struct {
	Matric   Matric
	Week     int
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q (matric %s, week %d)", e.Category, e.Matric, e.Week)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// UnmatchedStudentError identifies the skipped record.
type UnmatchedStudentError struct {
	Matric Matric
	Week   int
}

func (e *UnmatchedStudentError) Error() string {
	return fmt.Sprintf("matriculation %s not found in stay records (week %d)", e.Matric, e.Week)
}

func (e *UnmatchedStudentError) Unwrap() error { return ErrUnmatchedStudent }

// MalformedLabelError identifies the label that could not be normalized.
type MalformedLabelError struct {
	Kind  string // "week" or "category"
	Input string
}

func (e *MalformedLabelError) Error() string {
	return fmt.Sprintf("malformed %s label: %q", e.Kind, e.Input)
}

func (e *MalformedLabelError) Unwrap() error { return ErrMalformedLabel }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal returns true if the error must abort the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrMalformedLabel) ||
		errors.Is(err, ErrInvalidSchedule)
}

// IsRecoverable returns true if the offending record can be skipped.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUnmatchedStudent)
}
