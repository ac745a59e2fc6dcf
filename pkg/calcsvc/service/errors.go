package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies calculator failures. Every kind except UnexpectedFault
// is a handled outcome that is reported to the caller as an error payload.
type ErrorKind int

const (
	UnexpectedFault ErrorKind = iota
	MissingParameters
	MalformedNumber
	InvalidOperation
	DivisionByZero
	MalformedJSON
	NumericOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case MissingParameters:
		return "missing_parameters"
	case MalformedNumber:
		return "malformed_number"
	case InvalidOperation:
		return "invalid_operation"
	case DivisionByZero:
		return "division_by_zero"
	case MalformedJSON:
		return "malformed_json"
	case NumericOverflow:
		return "numeric_overflow"
	default:
		return "unexpected_fault"
	}
}

// Error is a handled calculator failure. Message is shown to the caller as is.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrDivisionByZero  = &Error{Kind: DivisionByZero, Message: "Division by zero is not allowed"}
	ErrNumericOverflow = &Error{Kind: NumericOverflow, Message: "Result is out of range"}
)

// Errorf builds an Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err. Errors that did not originate from the
// calculator are unexpected faults.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnexpectedFault
}

// IsHandled reports whether err is a calculator failure that should be
// answered with an error payload rather than a transport level fault.
func IsHandled(err error) bool {
	return err != nil && KindOf(err) != UnexpectedFault
}
