package domain

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ErrorCode identifies a class of registry failures. Codes are part of the
// public contract: callers match them with errors.Is or ErrorCode.Is.
type ErrorCode struct {
	Code uint16
	Name string
}

// New creates a new error with the given code and message.
func (c ErrorCode) New(msg string, args ...any) *Error {
	return &Error{code: c, cause: fmt.Errorf(msg, args...)}
}

// Wrap creates a new error with the given code and the cause error.
func (c ErrorCode) Wrap(cause error) *Error {
	return &Error{code: c, cause: cause}
}

// Is reports whether err carries this code anywhere in its chain.
func (c ErrorCode) Is(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.code == c
}

func (c ErrorCode) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

// Error is a typed registry error: a code plus the underlying cause.
type Error struct {
	code  ErrorCode
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Code() uint16 {
	return e.code.Code
}

func (e *Error) CodeName() string {
	return e.code.Name
}

func (e *Error) Log() *log.Entry {
	return log.WithField("name", e.code.Name).WithField("code", e.code.Code)
}

var (
	ErrInsufficientBalance = ErrorCode{1, "INSUFFICIENT_BALANCE"}
	ErrOwnerCapacity       = ErrorCode{2, "OWNER_CAPACITY_EXCEEDED"}
	ErrTotalCapacity       = ErrorCode{3, "TOTAL_CAPACITY_EXCEEDED"}
	ErrDuplicateUnit       = ErrorCode{4, "DUPLICATE_UNIT"}
	ErrUnitNotFound        = ErrorCode{5, "UNIT_NOT_FOUND"}
	ErrNotOwner            = ErrorCode{6, "NOT_OWNER"}
	ErrIdenticalParents    = ErrorCode{7, "IDENTICAL_PARENTS"}
	ErrTransferToSelf      = ErrorCode{8, "TRANSFER_TO_SELF"}
	ErrBidTooLow           = ErrorCode{9, "BID_TOO_LOW"}
	ErrNotForSale          = ErrorCode{10, "NOT_FOR_SALE"}
)
