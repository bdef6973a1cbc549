package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

var ErrNotFound = errors.New("resource not found")
var ErrValidation = errors.New("invalid request")

var ErrEventNotBookable = errors.New("event is not available for booking")
var ErrEventAlreadyStarted = errors.New("event has already started")

var ErrInvalidTier = errors.New("invalid ticket tier")
var ErrSoldOut = errors.New("not enough tickets available")

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

var ErrAlreadyCancelled = errors.New("booking is already cancelled")
var ErrAlreadyCheckedIn = errors.New("attendee is already checked in")
var ErrNotPending = errors.New("booking is not in pending status")

// InsufficientBalanceError carries the amounts the client needs to prompt a recharge.
type InsufficientBalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: required %s, available %s",
		e.Required.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
