package edition

import (
	"errors"
	"fmt"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/instance"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/metadata"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/payment"
	"github.com/xraph/edition/types"
)

// Error categories. Every error the engine returns matches one of these with
// errors.Is, either directly or through the classifiers below.
var (
	ErrInvalidConfiguration = types.ErrInvalid
	ErrNoCapacityAvailable  = lane.ErrNoCapacity
	ErrUnauthorized         = errors.New("edition: unauthorized")
	ErrNotFound             = errors.New("edition: not found")
	ErrConflict             = errors.New("edition: conflict")
	ErrPreconditionViolated = errors.New("edition: precondition violated")
)

// Sentinel errors.
var (
	// Configuration errors. All of them match ErrInvalidConfiguration.
	ErrInvalidSupply       = lane.ErrInvalidSupply
	ErrInvalidBatchSize    = lane.ErrInvalidBatchSize
	ErrInvalidLaneCount    = lane.ErrInvalidCount
	ErrInvalidName         = fmt.Errorf("%w: base name", ErrInvalidConfiguration)
	ErrInvalidIdentity     = instance.ErrInvalidIdentity
	ErrInvalidQuantity     = payment.ErrInvalidQuantity
	ErrInvalidPaymentTable = payment.ErrInvalidTable
	ErrInvalidUnit         = types.ErrInvalidUnit
	ErrInvalidEditionID    = metadata.ErrInvalidID
	ErrInvalidWriteSet     = object.ErrInvalidWriteSet
	ErrInvalidAssetName    = capability.ErrInvalidAssetName
	ErrInvalidActor        = fmt.Errorf("%w: no actor address", ErrInvalidConfiguration)

	// Capacity errors
	ErrLaneFull          = lane.ErrLaneFull
	ErrCapacityExhausted = lane.ErrExhausted

	// Authorization errors
	ErrWrongInstance = fmt.Errorf("%w: capability belongs to another instance", ErrUnauthorized)
	ErrNotHolder     = fmt.Errorf("%w: capability not held by actor", ErrUnauthorized)
	ErrWrongEdition  = fmt.Errorf("%w: capability is for another edition", ErrUnauthorized)

	// Lookup errors
	ErrObjectNotFound       = fmt.Errorf("%w: object", ErrNotFound)
	ErrRecordNotFound       = fmt.Errorf("%w: metadata record", ErrNotFound)
	ErrPaymentTableNotFound = fmt.Errorf("%w: payment table", ErrNotFound)
	ErrInstanceNotBound     = fmt.Errorf("%w: no instance bound", ErrNotFound)
	ErrNoSpendableInput     = fmt.Errorf("%w: actor has no spendable objects", ErrNotFound)

	// Precondition errors
	ErrLanesStillActive      = fmt.Errorf("%w: lanes still active", ErrPreconditionViolated)
	ErrAlreadyDeployed       = fmt.Errorf("%w: already deployed", ErrPreconditionViolated)
	ErrPaymentTablePublished = fmt.Errorf("%w: payment table already published", ErrPreconditionViolated)
	ErrInsufficientFunds     = fmt.Errorf("%w: insufficient funds", ErrPreconditionViolated)
	ErrNoFreshNonce          = fmt.Errorf("%w: wallet holds one object, every attempt draws the same nonce", ErrPreconditionViolated)

	// Payment errors
	ErrNoMatchingPaymentOption = payment.ErrNoMatchingOption
	ErrAmountOverflow          = payment.ErrAmountOverflow

	// Store errors
	ErrStoreClosed = errors.New("edition: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("edition: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap places validation failures in the configuration category.
func (e ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// MultiError collects several errors.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "edition: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("edition: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsInvalidConfiguration reports input errors that are rejected before any
// store interaction.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if a required capability was not presented.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConflict returns true if a concurrent commit consumed an object the
// operation depended on.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPreconditionViolated returns true if the operation is not allowed in the
// current state.
func IsPreconditionViolated(err error) bool {
	return errors.Is(err, ErrPreconditionViolated) ||
		errors.Is(err, ErrNoMatchingPaymentOption) ||
		errors.Is(err, ErrAmountOverflow)
}

// IsCapacityError returns true for both lane-full and exhausted supply.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrNoCapacityAvailable)
}

// IsRetryable returns true if resampling inputs and trying again may succeed.
// A full lane is not retryable when the wallet had no other nonce to offer.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrNoFreshNonce) {
		return false
	}
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrLaneFull)
}

// IsTerminal returns true if no retry can succeed because supply is gone.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrCapacityExhausted)
}
