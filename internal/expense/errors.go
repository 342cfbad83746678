package expense

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrEmptyDescription = errors.New("description is required")
	ErrUnknownCategory  = errors.New("unknown category")
)

// ValidationError is returned before any remote call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteError wraps a failed store call. Op names the gateway operation.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s expense: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// SubscriptionError ends a Subscription.
type SubscriptionError struct {
	Err error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("expense subscription: %v", e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
