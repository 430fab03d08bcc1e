package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrLoginRequired means the operation needs a logged-in user.
	ErrLoginRequired = errors.New("login required")

	// ErrLocationRequired means the user has not set a location yet, so
	// no fulfilling company can be resolved.
	ErrLocationRequired = errors.New("location required")

	// ErrEmptyCart rejects checkout of a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidQuantity rejects a non-positive quantity on the add path.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrCartLineNotFound means the cart line does not exist or is owned
	// by someone else.
	ErrCartLineNotFound = errors.New("cart line not found")

	// ErrOrderNotFound means the order does not exist or is owned by
	// someone else.
	ErrOrderNotFound = errors.New("order not found")

	// ErrPackageUnavailable means a referenced package no longer exists
	// or is off-shelf.
	ErrPackageUnavailable = errors.New("package unavailable")

	// ErrInvalidTransition rejects a status change the transition table
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateOrderNo signals an order-number collision; the order
	// repository retries internally and never surfaces this to callers.
	ErrDuplicateOrderNo = errors.New("duplicate order number")

	// ErrOrderCreationFailed is the generic failure surfaced when the
	// checkout transaction cannot commit; the cause is logged, not exposed.
	ErrOrderCreationFailed = errors.New("order creation failed")
)

// PackageUnavailableError names the offending package on checkout failure.
type PackageUnavailableError struct {
	PackageID int64
}

func (e *PackageUnavailableError) Error() string {
	return fmt.Sprintf("package %d unavailable", e.PackageID)
}

func (e *PackageUnavailableError) Is(target error) bool {
	return target == ErrPackageUnavailable
}

// InvalidTransitionError carries the rejected from/to pair.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
