// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRuleNotFound is matched by every *RuleNotFoundError via errors.Is.
var ErrRuleNotFound = errors.New("sysbus: NAT rule not found")

// AuthError is returned when the device rejects a login or answers it with an
// unusable body.
type AuthError struct {
	// HTTP status code of the login response (0 if the body could not be parsed)
	StatusCode int

	// Human-readable error message
	Message string

	// Raw response body, kept for diagnostics
	Body string

	// Underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sysbus: login failed: %s (status: %d)", e.Message, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("sysbus: login failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("sysbus: login failed: %s", e.Message)
}

// DetailedError returns the error message including the raw response body
//
// The body may contain device details and should only be written to debug output.
func (e *AuthError) DetailedError() string {
	if e.Body == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s (body: %s)", e.Error(), e.Body)
}

// Unwrap returns the underlying cause
func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrorModel represents one entry of the "errors" array the device attaches to
// a response when a call is rejected at the application level.
type ErrorModel struct {
	// Code is the device error number
	Code int64

	// Description is the device error text
	Description string

	// Info carries the offending parameter or service, if any
	Info string
}

// RPCError is returned when a sysbus call fails: a transport failure, a non-2xx
// status, a body that is not a JSON envelope or, for NAT mutations, an
// application error reported by the device.
type RPCError struct {
	// Service and Method of the failed call
	Service string
	Method  string

	// HTTP status code (0 if no response was received)
	StatusCode int

	// Human-readable error message
	Message string

	// Raw response body, kept for diagnostics
	Body string

	// Errors reported by the device in the response body
	Errors []ErrorModel

	// Underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *RPCError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sysbus: %s.%s failed: %s", e.Service, e.Method, e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, em := range e.Errors {
		fmt.Fprintf(&b, "; %d %s", em.Code, em.Description)
		if em.Info != "" {
			fmt.Fprintf(&b, " (%s)", em.Info)
		}
	}
	return b.String()
}

// DetailedError returns the error message including the raw response body
func (e *RPCError) DetailedError() string {
	if e.Body == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s (body: %s)", e.Error(), e.Body)
}

// Unwrap returns the underlying cause
func (e *RPCError) Unwrap() error {
	return e.Err
}

// RuleNotFoundError is returned by id-keyed NAT operations when no listed rule
// carries the requested id.
type RuleNotFoundError struct {
	ID string
}

// Error implements the error interface
func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("sysbus: no NAT rule with id %q", e.ID)
}

// Is reports whether target is ErrRuleNotFound
func (e *RuleNotFoundError) Is(target error) bool {
	return target == ErrRuleNotFound
}

// CommitError is returned when a NAT mutation was accepted by the device but
// the following commit failed. The change is pending on the device and is
// neither rolled back nor retried.
type CommitError struct {
	// Operation is the NAT operation (add, enable, disable, remove)
	Operation string

	// ID of the rule that was mutated
	ID string

	// Err is the commit failure
	Err error
}

// Error implements the error interface
func (e *CommitError) Error() string {
	return fmt.Sprintf("sysbus: %s of NAT rule %q submitted but not committed: %v", e.Operation, e.ID, e.Err)
}

// Unwrap returns the commit failure
func (e *CommitError) Unwrap() error {
	return e.Err
}
