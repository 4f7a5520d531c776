// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Input validation constants
const (
	// MaxNameLength is the maximum length of a service or method name
	MaxNameLength = 256
)

// validateName validates a service or method name
//
// Checks:
//   - Name is not empty
//   - Name length does not exceed MaxNameLength
//   - Name contains no whitespace or control characters
func validateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", kind, MaxNameLength)
	}
	for i := 0; i < len(name); i++ {
		if name[i] <= ' ' || name[i] == 127 {
			return fmt.Errorf("%s contains invalid character at position %d", kind, i)
		}
	}
	return nil
}

// Invoke calls service.method with params and returns the response envelope.
//
// params may be nil, a Body, raw JSON or any value encoding to a JSON object.
// A single POST is issued: there is no retry and no batching. A transport
// failure, a non-2xx status or a body that is not a JSON object yields an
// *RPCError. Application errors reported by the device with a 2xx status are
// returned as part of Res (see Res.Errors) and are not turned into an error.
//
// Example:
//
//	res, err := client.Invoke(ctx, "NeMo.Intf.lan", "getMIBs",
//	    sysbus.Body{}.Set("mibs", "base"))
func (c *Client) Invoke(ctx context.Context, service, method string, params any, mods ...func(*Req)) (Res, error) {
	if err := validateName("service", service); err != nil {
		return Res{}, fmt.Errorf("invoke: %w", err)
	}
	if err := validateName("method", method); err != nil {
		return Res{}, fmt.Errorf("invoke: %w", err)
	}

	req := &Req{}
	for _, mod := range mods {
		mod(req)
	}

	body, err := newEnvelope(service, method, params)
	if err != nil {
		return Res{}, fmt.Errorf("invoke: %w", err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	c.logger.Debug(ctx, "sysbus call",
		"service", service,
		"method", method)

	header := http.Header{}
	header.Set("Content-Type", ContentTypeSahWS)

	statusCode, respBody, err := c.post(ctx, body, header)
	if err != nil {
		c.logger.Error(ctx, "sysbus call failed",
			"service", service,
			"method", method,
			"error", err.Error())
		return Res{}, &RPCError{
			Service:    service,
			Method:     method,
			StatusCode: statusCode,
			Message:    "request failed",
			Err:        err,
		}
	}

	if statusCode < 200 || statusCode > 299 {
		c.logger.Error(ctx, "sysbus call rejected",
			"service", service,
			"method", method,
			"status", statusCode)
		return Res{}, &RPCError{
			Service:    service,
			Method:     method,
			StatusCode: statusCode,
			Message:    "execution failed",
			Body:       string(respBody),
		}
	}

	res, err := parseRes(statusCode, respBody)
	if err != nil {
		return Res{}, &RPCError{
			Service:    service,
			Method:     method,
			StatusCode: statusCode,
			Message:    "invalid response",
			Body:       string(respBody),
			Err:        err,
		}
	}

	return res, nil
}

// Exec calls service.method with a flat string parameter map.
//
// Keys are used literally; dots are not interpreted as nesting. A nil map is
// sent as empty parameters.
//
// Example:
//
//	res, err := client.Exec(ctx, "NMC", "getWANStatus", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Data().Raw)
func (c *Client) Exec(ctx context.Context, service, method string, params map[string]string, mods ...func(*Req)) (Res, error) {
	if params == nil {
		params = map[string]string{}
	}
	return c.Invoke(ctx, service, method, params, mods...)
}

// ParseParams parses key=value pairs into a parameter map
//
// Only the first '=' separates key and value, so values may contain '='.
func ParseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		params[strings.TrimSpace(key)] = value
	}
	return params, nil
}
