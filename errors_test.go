// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestAuthError_Error tests the Error() method of AuthError
func TestAuthError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      AuthError
		expected string
	}{
		{
			name:     "with status",
			err:      AuthError{StatusCode: 401, Message: "authentication failed"},
			expected: "sysbus: login failed: authentication failed (status: 401)",
		},
		{
			name:     "with cause",
			err:      AuthError{Message: "invalid login response", Err: errors.New("not JSON")},
			expected: "sysbus: login failed: invalid login response: not JSON",
		},
		{
			name:     "message only",
			err:      AuthError{Message: "login response carries no context id"},
			expected: "sysbus: login failed: login response carries no context id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestAuthError_DetailedError tests that the body only shows in DetailedError
func TestAuthError_DetailedError(t *testing.T) {
	err := &AuthError{StatusCode: 401, Message: "authentication failed", Body: `{"status":null}`}

	want := `sysbus: login failed: authentication failed (status: 401) (body: {"status":null})`
	if got := err.DetailedError(); got != want {
		t.Errorf("DetailedError() = %q, want %q", got, want)
	}

	noBody := &AuthError{Message: "x"}
	if noBody.DetailedError() != noBody.Error() {
		t.Errorf("DetailedError() without body = %q", noBody.DetailedError())
	}
}

// TestRPCError_Error tests the Error() method of RPCError
func TestRPCError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      RPCError
		expected string
	}{
		{
			name:     "transport failure",
			err:      RPCError{Service: "NMC", Method: "getWANStatus", Message: "request failed", Err: errors.New("connection refused")},
			expected: "sysbus: NMC.getWANStatus failed: request failed: connection refused",
		},
		{
			name:     "http status",
			err:      RPCError{Service: "NMC", Method: "getWANStatus", Message: "execution failed", StatusCode: 500},
			expected: "sysbus: NMC.getWANStatus failed: execution failed (status: 500)",
		},
		{
			name: "device errors",
			err: RPCError{
				Service:    "Firewall",
				Method:     "setPortForwarding",
				Message:    "rejected by device",
				StatusCode: 200,
				Errors: []ErrorModel{
					{Code: 196618, Description: "Object or parameter not found", Info: "id"},
					{Code: 13, Description: "Permission denied"},
				},
			},
			expected: "sysbus: Firewall.setPortForwarding failed: rejected by device (status: 200); 196618 Object or parameter not found (id); 13 Permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestRPCError_DetailedError tests the DetailedError() method
func TestRPCError_DetailedError(t *testing.T) {
	err := &RPCError{Service: "S", Method: "m", Message: "execution failed", StatusCode: 500, Body: "oops"}

	want := "sysbus: S.m failed: execution failed (status: 500) (body: oops)"
	if got := err.DetailedError(); got != want {
		t.Errorf("DetailedError() = %q, want %q", got, want)
	}
}

// TestErrorUnwrap tests errors.Is and errors.As through the error types
func TestErrorUnwrap(t *testing.T) {
	rpc := &RPCError{Service: "Firewall", Method: "commit", Message: "request failed", Err: context.DeadlineExceeded}
	commit := &CommitError{Operation: "enable", ID: "ssh", Err: rpc}
	wrapped := fmt.Errorf("nat enable: %w", commit)

	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Error("expected context.DeadlineExceeded in chain")
	}
	var gotRPC *RPCError
	if !errors.As(wrapped, &gotRPC) || gotRPC.Method != "commit" {
		t.Errorf("errors.As(*RPCError) = %v", gotRPC)
	}
	var gotCommit *CommitError
	if !errors.As(wrapped, &gotCommit) || gotCommit.ID != "ssh" {
		t.Errorf("errors.As(*CommitError) = %v", gotCommit)
	}

	auth := &AuthError{Message: "invalid login response", Err: context.Canceled}
	if !errors.Is(auth, context.Canceled) {
		t.Error("expected context.Canceled through AuthError")
	}
}

// TestRuleNotFoundError tests the sentinel match
func TestRuleNotFoundError(t *testing.T) {
	err := fmt.Errorf("remove: %w", &RuleNotFoundError{ID: "ssh"})

	if !errors.Is(err, ErrRuleNotFound) {
		t.Error("expected errors.Is(err, ErrRuleNotFound)")
	}
	if errors.Is(err, errors.New("sysbus: NAT rule not found")) {
		t.Error("expected no match for a different error value")
	}
	if got := err.Error(); got != `remove: sysbus: no NAT rule with id "ssh"` {
		t.Errorf("Error() = %q", got)
	}
}

// TestCommitError_Error tests the partial success message
func TestCommitError_Error(t *testing.T) {
	err := &CommitError{Operation: "add", ID: "rdp", Err: errors.New("timeout")}

	want := `sysbus: add of NAT rule "rdp" submitted but not committed: timeout`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
