// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Req represents a request modifier
//
// This struct is used to apply call-specific options via functional modifiers.
// Service, method and parameters are passed directly to methods.
type Req struct {
	// Timeout is the call-specific timeout
	Timeout time.Duration

	// SkipCommit suppresses the commit that follows a NAT Add
	SkipCommit bool
}

// Sysbus service and method names used by the client
const (
	ServiceDeviceInformation = "sah.Device.Information"
	MethodCreateContext      = "createContext"
	MethodReleaseContext     = "releaseContext"

	ServiceFirewall            = "Firewall"
	MethodGetPortForwarding    = "getPortForwarding"
	MethodSetPortForwarding    = "setPortForwarding"
	MethodDeletePortForwarding = "deletePortForwarding"
	MethodCommit               = "commit"
)

// LoginParameters are the createContext parameters.
type LoginParameters struct {
	ApplicationName string `json:"applicationName"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

// LogoutParameters are the releaseContext parameters. The device expects
// snake_case here while createContext uses camelCase.
type LogoutParameters struct {
	ApplicationName string `json:"application_name"`
}

// noParameters encodes as {}
type noParameters struct{}

// newEnvelope builds {"service":…,"method":…,"parameters":…}
//
// params may be a Body, raw JSON ([]byte, json.RawMessage), nil (encoded as
// {}) or any value encodable as a JSON object.
func newEnvelope(service, method string, params any) ([]byte, error) {
	raw, err := encodeParameters(params)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: encode parameters: %w", service, method, err)
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%s.%s: parameters are not valid JSON", service, method)
	}

	return Body{}.
		Set("service", service).
		Set("method", method).
		SetRaw("parameters", raw).
		Bytes()
}

func encodeParameters(params any) (string, error) {
	switch p := params.(type) {
	case nil:
		return "{}", nil
	case Body:
		return p.String()
	case *Body:
		if p == nil {
			return "{}", nil
		}
		return p.String()
	case json.RawMessage:
		if len(p) == 0 {
			return "{}", nil
		}
		return string(p), nil
	case []byte:
		if len(p) == 0 {
			return "{}", nil
		}
		return string(p), nil
	case map[string]string:
		body := Body{}
		for k, v := range p {
			body = body.SetKey(k, v)
		}
		return body.String()
	}

	b, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "{}", nil
	}
	return string(b), nil
}
