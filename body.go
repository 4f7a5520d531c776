// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
)

// Body provides a fluent interface for building JSON payloads
// using sjson for path-based manipulation.
//
// The Body builder tracks errors internally to enable method chaining
// while providing error checking through String() or Err() methods.
//
// Example:
//
//	params := sysbus.Body{}.
//	    Set("id", "ssh").
//	    Set("enable", true)
//
//	res, err := client.Invoke(ctx, "Firewall", "setPortForwarding", params)
type Body struct {
	// str contains the JSON string being built
	str string
	// err tracks the first error encountered during building
	err error
}

// Set sets a value at the specified JSON path and returns a new Body
//
// The path uses dot notation for nested fields (e.g., "parameters.id").
// Once an error occurs, all subsequent operations are no-ops that preserve the error.
func (b Body) Set(path string, value any) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.Set(b.str, path, value)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("Set(%q): %w", path, err)}
	}
	return Body{str: result}
}

// SetRaw sets pre-encoded JSON at the specified path and returns a new Body
func (b Body) SetRaw(path string, raw string) Body {
	if b.err != nil {
		return b
	}

	result, err := sjson.SetRaw(b.str, path, raw)
	if err != nil {
		return Body{str: b.str, err: fmt.Errorf("SetRaw(%q): %w", path, err)}
	}
	return Body{str: result}
}

// SetKey sets a value under a literal key of the top-level object.
//
// Unlike Set, dots and wildcards in key are not interpreted as a path.
func (b Body) SetKey(key string, value any) Body {
	return b.Set(escapePathKey(key), value)
}

// String returns the JSON string representation and any error encountered during building
//
// An empty Body renders as "{}".
func (b Body) String() (string, error) {
	if b.err == nil && b.str == "" {
		return "{}", nil
	}
	return b.str, b.err
}

// Err returns any error that occurred during the building process
func (b Body) Err() error {
	return b.err
}

// Bytes returns the JSON byte slice representation and any error encountered during building
func (b Body) Bytes() ([]byte, error) {
	s, err := b.String()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

var pathKeyEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`:`, `\:`,
)

// escapePathKey escapes the sjson path syntax characters of a literal key
func escapePathKey(key string) string {
	return pathKeyEscaper.Replace(key)
}
