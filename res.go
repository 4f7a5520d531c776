// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
)

// Res represents a sysbus response envelope: {"status": …, "data": …}.
//
// The meaning of status depends on the call (0/1 for context calls, a boolean
// for most data calls, the payload itself for some getters such as
// Firewall.getPortForwarding). data may be absent, which is distinct from
// data being null.
type Res struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Raw is the response body as received
	Raw []byte
}

// parseRes validates that body is a JSON object and wraps it
func parseRes(statusCode int, body []byte) (Res, error) {
	trimmed := bytes.TrimSpace(body)
	if !gjson.ValidBytes(trimmed) {
		return Res{}, fmt.Errorf("response body is not valid JSON")
	}
	if !gjson.ParseBytes(trimmed).IsObject() {
		return Res{}, fmt.Errorf("response body is not a JSON object")
	}
	return Res{StatusCode: statusCode, Raw: trimmed}, nil
}

// GetValue retrieves a value from the response using a gjson path.
//
// Example:
//
//	res, err := client.Exec(ctx, "NMC", "getWANStatus", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ip := res.GetValue("data.IPAddress").String()
func (r Res) GetValue(path string) gjson.Result {
	if len(r.Raw) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Raw, path)
}

// Status returns the status member of the envelope
func (r Res) Status() gjson.Result {
	return r.GetValue("status")
}

// Data returns the data member of the envelope
//
// Use HasData to tell an absent data member from an explicit null.
func (r Res) Data() gjson.Result {
	return r.GetValue("data")
}

// HasData reports whether the envelope carries a data member (possibly null)
func (r Res) HasData() bool {
	return r.Data().Exists()
}

// OK reports whether the status member signals success: true, a non-zero
// number, or a payload object/array.
func (r Res) OK() bool {
	status := r.Status()
	switch status.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return status.Int() != 0
	case gjson.JSON:
		return true
	default:
		return false
	}
}

// Errors returns the application errors the device attached to the response
func (r Res) Errors() []ErrorModel {
	var errs []ErrorModel
	r.GetValue("errors").ForEach(func(_, value gjson.Result) bool {
		errs = append(errs, ErrorModel{
			Code:        value.Get("error").Int(),
			Description: value.Get("description").String(),
			Info:        value.Get("info").String(),
		})
		return true
	})
	return errs
}

// JSON returns the raw response body as a string
func (r Res) JSON() string {
	return string(r.Raw)
}
