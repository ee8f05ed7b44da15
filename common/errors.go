package common

import (
	"errors"
	"fmt"
)

// ErrorKind is the user actionable category of a failure. Every operation of
// the client either succeeds or fails with exactly one kind.
type ErrorKind uint8

const (
	Unknown ErrorKind = iota
	AgentUnavailable
	AuthenticationFailed
	InvalidInput
	RemoteUnavailable
	UserDeclined
	RemoteRejected
	ResourceLimitExceeded
	TransactionFailed
	ConfirmationUnknown
)

var kindNames = map[ErrorKind]string{
	Unknown:               "Unknown",
	AgentUnavailable:      "AgentUnavailable",
	AuthenticationFailed:  "AuthenticationFailed",
	InvalidInput:          "InvalidInput",
	RemoteUnavailable:     "RemoteUnavailable",
	UserDeclined:          "UserDeclined",
	RemoteRejected:        "RemoteRejected",
	ResourceLimitExceeded: "ResourceLimitExceeded",
	TransactionFailed:     "TransactionFailed",
	ConfirmationUnknown:   "ConfirmationUnknown",
}

var kindMessages = map[ErrorKind]string{
	Unknown:               "Something went wrong. Please try again.",
	AgentUnavailable:      "No signing agent is available. Please set up an account first.",
	AuthenticationFailed:  "Error connecting to wallet. Please try again.",
	InvalidInput:          "The input is invalid. Please check it and try again.",
	RemoteUnavailable:     "Not connected. Please connect your wallet first.",
	UserDeclined:          "The request was rejected in the wallet.",
	RemoteRejected:        "The contract rejected the call (reverted).",
	ResourceLimitExceeded: "Gas estimation failed or the gas limit was exceeded.",
	TransactionFailed:     "The transaction was mined but failed.",
	ConfirmationUnknown:   "The transaction outcome is unknown. Check it on chain before retrying.",
}

func (k ErrorKind) String() string {
	if name, found := kindNames[k]; found {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Message is the fixed human readable template of the kind.
func (k ErrorKind) Message() string {
	if msg, found := kindMessages[k]; found {
		return msg
	}
	return kindMessages[Unknown]
}

// Error is a classified failure. Op names the operation that failed and Err
// keeps the raw cause reachable through errors.Unwrap.
type Error struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Err    error
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error whose cause is a formatted message.
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.Message()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, &Error{Kind: k}) match on kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err. Errors that were never classified are
// Unknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err was classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
