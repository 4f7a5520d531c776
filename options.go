// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import "time"

// Client configuration options using the functional options pattern

// Username sets the administration username used at login (default: admin)
func Username(username string) func(*Client) {
	return func(c *Client) {
		c.username = username
	}
}

// Password sets the administration password used at login
func Password(password string) func(*Client) {
	return func(c *Client) {
		c.password = password
	}
}

// ApplicationName sets the application identifier sent with createContext and
// releaseContext (default: livebox-cli)
func ApplicationName(name string) func(*Client) {
	return func(c *Client) {
		c.applicationName = name
	}
}

// InsecureSkipVerify disables TLS certificate verification (default: false)
//
// WARNING: Disabling certificate verification makes the connection vulnerable
// to Man-in-the-Middle attacks. Gateways commonly serve self-signed
// certificates, which is the only case this option is meant for.
func InsecureSkipVerify(insecure bool) func(*Client) {
	return func(c *Client) {
		c.InsecureSkipVerify = insecure
	}
}

// OperationTimeout bounds every HTTP exchange with the device (default: 30s)
func OperationTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.OperationTimeout = duration
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// Request and response bodies are logged at Debug level with passwords and
// session tokens redacted.
//
// Example:
//
//	logger := sysbus.NewDefaultLogger(sysbus.LogLevelDebug)
//	client, _ := sysbus.Login(ctx, "http://livebox.home",
//	    sysbus.Username("admin"),
//	    sysbus.Password("secret"),
//	    sysbus.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs
// (default: true)
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// Request modifiers for individual operations

// Timeout returns a request modifier that bounds a single call.
//
// The timeout is applied on top of the caller's context; the earlier deadline
// wins.
//
// Example:
//
//	res, err := client.Exec(ctx, "NMC", "getWANStatus", nil,
//	    sysbus.Timeout(5*time.Second))
func Timeout(duration time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = duration
	}
}

// NoCommit returns a request modifier that skips the commit after a NAT Add.
//
// Some firmwares apply an added rule immediately; others only after a commit.
// Committing is the default.
func NoCommit() func(*Req) {
	return func(req *Req) {
		req.SkipCommit = true
	}
}
