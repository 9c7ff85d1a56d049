package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError reports malformed input. Nothing is written when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Is implements the errors.Is interface for ValidationError
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	// An empty target field matches any validation error
	if t.Field == "" {
		return true
	}
	return e.Field == t.Field
}

// NotFoundError indicates a missing project, donation or donor
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Is implements the errors.Is interface for NotFoundError
func (e NotFoundError) Is(target error) bool {
	t, ok := target.(NotFoundError)
	if !ok {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	return t.ID == "" || t.ID == e.ID
}

// PartialDistributionError is returned when the donation was persisted but at least
// one per-project leg could not be applied. The listed projects can be retried.
type PartialDistributionError struct {
	DonationID       uuid.UUID
	FailedProjectIDs []string
	Cause            error
}

func (e PartialDistributionError) Error() string {
	msg := "partial distribution for donation " + e.DonationID.String()
	if len(e.FailedProjectIDs) > 0 {
		msg += ": failed projects [" + strings.Join(e.FailedProjectIDs, ", ") + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e PartialDistributionError) Unwrap() error {
	return e.Cause
}

// Is implements the errors.Is interface for PartialDistributionError
func (e PartialDistributionError) Is(target error) bool {
	t, ok := target.(PartialDistributionError)
	if !ok {
		return false
	}
	return t.DonationID == uuid.Nil || t.DonationID == e.DonationID
}

// StoreUnavailableError signals that the ledger store could not be reached in time
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e StoreUnavailableError) Error() string {
	if e.Err == nil {
		return "ledger store unavailable: " + e.Op
	}
	return fmt.Sprintf("ledger store unavailable: %s: %v", e.Op, e.Err)
}

func (e StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Is implements the errors.Is interface for StoreUnavailableError
func (e StoreUnavailableError) Is(target error) bool {
	t, ok := target.(StoreUnavailableError)
	if !ok {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}
