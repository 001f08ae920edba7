/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package errors provides kind-carrying errors for credential protocol
// operations. Every failure surfaced by the services maps onto one of the
// Kind values below; callers branch on Kind, not on message text.
package errors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind int

const (
	// Input reports invalid caller-supplied data.
	Input Kind = iota
	// IOError reports a filesystem or stream failure.
	IOError
	// InvalidState reports an operation attempted against inconsistent state.
	InvalidState
	// Unexpected reports an internal failure with no better classification.
	Unexpected
	// CredentialRevoked reports an operation on a revoked credential.
	CredentialRevoked
	// InvalidUserRevocID reports a registry index outside the registry bounds.
	InvalidUserRevocID
	// RevocationRegistryFull reports a registry with no free indexes left.
	RevocationRegistryFull
	// ProofRejected reports a presentation that failed verification checks.
	ProofRejected
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "Input error"
	case IOError:
		return "IO error"
	case InvalidState:
		return "Invalid state"
	case Unexpected:
		return "Unexpected error"
	case CredentialRevoked:
		return "Credential revoked"
	case InvalidUserRevocID:
		return "Invalid user revocation id"
	case RevocationRegistryFull:
		return "Revocation registry is full"
	case ProofRejected:
		return "Proof rejected"
	default:
		return "Unexpected error"
	}
}

// Error is a failure tagged with a Kind and an optional cause chain.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

// New returns an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg, cause: pkgerrors.New(msg)}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithCause returns an error of the given kind wrapping cause.
func WithCause(kind Kind, cause error, msg string) error {
	return &Error{kind: kind, msg: msg, cause: pkgerrors.WithStack(cause)}
}

// Extend prepends context to err, preserving its kind.
func Extend(err error, msg string) error {
	return &Error{kind: KindOf(err), msg: msg, cause: err}
}

// Extendf prepends formatted context to err, preserving its kind.
func Extendf(err error, format string, args ...interface{}) error {
	return Extend(err, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.msg {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the classification of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf walks the wrap chain of err and returns the kind of the outermost
// classified error. Unclassified errors report Unexpected.
func KindOf(err error) Kind {
	var classified *Error
	if stderrors.As(err, &classified) {
		return classified.kind
	}

	return Unexpected
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
