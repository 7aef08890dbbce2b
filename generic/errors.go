/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context; callers
  classify them with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - negative or zero money, malformed tier tables
  2. Configuration errors - missing or ambiguous commission parameters
  3. Idempotency errors - duplicate calculation, double remuneration
  4. Lookup errors - unknown collecteur, client, parameter, rubric
  5. Ledger errors - duplicate idempotency keys

USAGE:
  if errors.Is(err, generic.ErrAlreadyRemunerated) {
      // map to a conflict response
  }

SEE ALSO:
  - ledger.go: Uses ErrDuplicateIdempotencyKey
  - history/guard.go: Uses the idempotency errors
  - api/handlers.go: Maps kinds to HTTP statuses
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
	// ErrValidation is returned for invalid monetary input or malformed data.
	ErrValidation = errors.New("validation error")

	// ErrConfiguration is returned when commission configuration cannot be
	// applied (ambiguous parameters, tier tables with gaps).
	ErrConfiguration = errors.New("configuration error")

	// ErrAlreadyProcessed is returned when a period was already calculated
	// for a collecteur and recalculation was not forced.
	ErrAlreadyProcessed = errors.New("commission already processed")

	// ErrAlreadyRemunerated is returned when a batch was already marked
	// remunerated. This guards against double payment.
	ErrAlreadyRemunerated = errors.New("commission batch already remunerated")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdempotencyKey is returned when a ledger entry with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConfigurationError describes an unusable commission configuration.
type ConfigurationError struct {
	Subject string
	Message string
}

func NewConfigurationError(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Subject, e.Message)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyProcessedError identifies the existing batch that blocks a new one.
type AlreadyProcessedError struct {
	CollecteurID string
	Period       Period
	ExistingID   string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("commissions already calculated for collecteur %s over %s (historique %s)",
		e.CollecteurID, e.Period, e.ExistingID)
}

func (e *AlreadyProcessedError) Unwrap() error { return ErrAlreadyProcessed }

// AlreadyRemuneratedError identifies the batch that was already paid.
type AlreadyRemuneratedError struct {
	HistoriqueID string
}

func (e *AlreadyRemuneratedError) Error() string {
	return fmt.Sprintf("historique %s already remunerated", e.HistoriqueID)
}

func (e *AlreadyRemuneratedError) Unwrap() error { return ErrAlreadyRemunerated }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or
// unusable configuration.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflict returns true if the error is an idempotency violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed) ||
		errors.Is(err, ErrAlreadyRemunerated) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
