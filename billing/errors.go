/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores map their constraint violations onto these sentinels so callers
  can branch with errors.Is regardless of the backing database.

ERROR CATEGORIES:
  1. Per-entity errors - accumulated into GenerationResult.Skipped, never returned
  2. Request errors    - returned immediately, abort the whole call
  3. Payment errors    - reject a transition before any mutation

USAGE:
  if errors.Is(err, billing.ErrDuplicatePeriodRecord) {
      // expected on re-runs; the generator converts this into a skip
  }

SEE ALSO:
  - generator.go: Converts duplicate/insert errors into skip outcomes
  - payment.go: Uses the payment sentinels
  - store/sqlite: Maps SQLite unique-constraint errors onto these
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
	// ErrDuplicatePeriodRecord is returned by stores when an insert would
	// violate the one-record-per-(entity, period, family) invariant.
	// The generator converts it into a normal skip outcome.
	ErrDuplicatePeriodRecord = errors.New("duplicate period record")

	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrEntityNotFound is returned when a referenced entity doesn't exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrMissingTenant is returned when a request cannot be attributed to a
	// tenant. This is a hard failure: records generated without a tenant
	// would be orphaned, so the whole request aborts.
	ErrMissingTenant = errors.New("missing tenant association")

	// ErrInvalidPaymentMode is returned before any mutation when the payment
	// mode is not one of the enumerated values.
	ErrInvalidPaymentMode = errors.New("invalid payment mode")

	// ErrAlreadyPaid is returned when marking a record that is already paid.
	// Rejecting (rather than overwriting) prevents accidental re-dating of
	// historic payments.
	ErrAlreadyPaid = errors.New("record already paid")

	// ErrInvalidPeriod is returned when a period key is malformed.
	ErrInvalidPeriod = errors.New("invalid period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateRecordError reports which entity/period pair already has a record.
type DuplicateRecordError struct {
	EntityID EntityID
	Period   PeriodKey
	Family   RecordFamily
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate %s record for %s in %s", e.Family, e.EntityID, e.Period)
}

func (e *DuplicateRecordError) Unwrap() error {
	return ErrDuplicatePeriodRecord
}

// PaymentModeError reports the rejected mode.
type PaymentModeError struct {
	Mode PaymentMode
}

func (e *PaymentModeError) Error() string {
	return fmt.Sprintf("invalid payment mode %q", e.Mode)
}

func (e *PaymentModeError) Unwrap() error {
	return ErrInvalidPaymentMode
}

// AlreadyPaidError reports the existing payment a caller tried to overwrite.
type AlreadyPaidError struct {
	RecordID RecordID
	Mode     PaymentMode
}

func (e *AlreadyPaidError) Error() string {
	return fmt.Sprintf("record %s already paid (%s)", e.RecordID, e.Mode)
}

func (e *AlreadyPaidError) Unwrap() error {
	return ErrAlreadyPaid
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPaymentMode) ||
		errors.Is(err, ErrAlreadyPaid) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMissingTenant) ||
		errors.Is(err, ErrDuplicatePeriodRecord)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrEntityNotFound)
}
