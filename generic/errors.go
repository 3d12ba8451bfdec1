/*
errors.go - Centralized error types for the hours engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine never catches-and-swallows: every detected inconsistency is
  returned to the caller, which decides whether to abort or skip.

ERROR CATEGORIES:
  1. Validation errors - an activity record, schedule hour value or billing
     day is structurally invalid
  2. Configuration errors - entitlements or season settings are malformed
  3. Lookup errors - a collaborator could not find a referenced record

USAGE:
  var verr *generic.ValidationError
  if errors.As(err, &verr) {
      log.Printf("bad %s: %s", verr.Field, verr.Reason)
  }

  if errors.Is(err, generic.ErrConfiguration) { ... }

SEE ALSO:
  - hours/activity.go: Raises ValidationError for hours rules
  - hours/schedule.go: Raises both kinds for schedule configs
  - api/handlers.go: Maps these to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration is the root of every ConfigurationError.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrDuplicateActivity is returned when two activity records share an
	// (employee, date) pair.
	ErrDuplicateActivity = errors.New("duplicate activity for employee and date")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrCompanyNotFound is returned when a referenced company doesn't exist.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrTeamNotFound is returned when a team has no members.
	ErrTeamNotFound = errors.New("team not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a structurally invalid input value.
type ValidationError struct {
	Field  string // e.g., "hours", "start_day"
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConfigurationError reports malformed entitlement or season settings.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// DuplicateActivityError names the colliding record.
type DuplicateActivityError struct {
	EmployeeID string
	Date       Date
}

func (e *DuplicateActivityError) Error() string {
	return fmt.Sprintf("activity already recorded for %s on %s", e.EmployeeID, e.Date)
}

func (e *DuplicateActivityError) Unwrap() error {
	return ErrDuplicateActivity
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflict returns true if the error is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateActivity)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrTeamNotFound)
}
