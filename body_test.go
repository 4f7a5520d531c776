// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// TestBodySet tests basic Set operation
func TestBodySet(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		value    any
		wantJSON string
	}{
		{
			name:     "set string value",
			path:     "id",
			value:    "ssh",
			wantJSON: `{"id":"ssh"}`,
		},
		{
			name:     "set boolean value",
			path:     "enable",
			value:    true,
			wantJSON: `{"enable":true}`,
		},
		{
			name:     "set integer value",
			path:     "leaseDuration",
			value:    3600,
			wantJSON: `{"leaseDuration":3600}`,
		},
		{
			name:     "set nested value",
			path:     "parameters.mibs",
			value:    "base",
			wantJSON: `{"parameters":{"mibs":"base"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			json, err := Body{}.Set(tt.path, tt.value).String()
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if json != tt.wantJSON {
				t.Errorf("Expected JSON %s, got %s", tt.wantJSON, json)
			}
		})
	}
}

// TestBodySetChaining tests method chaining
func TestBodySetChaining(t *testing.T) {
	json, err := Body{}.
		Set("service", "NMC").
		Set("method", "getWANStatus").
		SetRaw("parameters", `{}`).
		String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := `{"service":"NMC","method":"getWANStatus","parameters":{}}`
	if json != want {
		t.Errorf("Expected JSON %s, got %s", want, json)
	}
}

// TestBodySetRaw tests inserting pre-encoded JSON
func TestBodySetRaw(t *testing.T) {
	json, err := Body{}.SetRaw("parameters", `{"a":[1,2]}`).String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := gjson.Get(json, "parameters.a.1").Int(); got != 2 {
		t.Errorf("parameters.a.1 = %d, want 2 (json %s)", got, json)
	}
}

// TestBodySetKey tests that keys are used literally
func TestBodySetKey(t *testing.T) {
	tests := []struct {
		key      string
		wantJSON string
	}{
		{key: "plain", wantJSON: `{"plain":"v"}`},
		{key: "a.b", wantJSON: `{"a.b":"v"}`},
		{key: "x*", wantJSON: `{"x*":"v"}`},
		{key: "why?", wantJSON: `{"why?":"v"}`},
		{key: "#", wantJSON: `{"#":"v"}`},
		{key: `back\slash`, wantJSON: `{"back\\slash":"v"}`},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			json, err := Body{}.SetKey(tt.key, "v").String()
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if json != tt.wantJSON {
				t.Errorf("Expected JSON %s, got %s", tt.wantJSON, json)
			}
		})
	}
}

// TestBodyErrorPropagation tests that the first error sticks
func TestBodyErrorPropagation(t *testing.T) {
	body := Body{}.
		Set("id", "ssh").
		Set("", "broken").
		Set("enable", true)

	if body.Err() == nil {
		t.Fatal("Expected error to be tracked")
	}
	if !strings.Contains(body.Err().Error(), `Set("")`) {
		t.Errorf("Expected error to name the failing path, got: %v", body.Err())
	}

	json, err := body.String()
	if err == nil {
		t.Error("Expected String() to return the error")
	}
	if strings.Contains(json, "enable") {
		t.Errorf("Expected operations after the error to be skipped, got %s", json)
	}

	if _, err := body.Bytes(); err == nil {
		t.Error("Expected Bytes() to return the error")
	}
}

// TestBodyEmptyBody tests the zero value
func TestBodyEmptyBody(t *testing.T) {
	json, err := Body{}.String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if json != "{}" {
		t.Errorf("Expected {}, got %s", json)
	}

	b, err := Body{}.Bytes()
	if err != nil || string(b) != "{}" {
		t.Errorf("Bytes() = %q, %v", b, err)
	}
}

// TestBodyImmutability tests that Set returns a new Body
func TestBodyImmutability(t *testing.T) {
	base := Body{}.Set("id", "ssh")
	enabled := base.Set("enable", true)
	disabled := base.Set("enable", false)

	baseJSON, _ := base.String()
	if baseJSON != `{"id":"ssh"}` {
		t.Errorf("Expected base to be unchanged, got %s", baseJSON)
	}
	if s, _ := enabled.String(); !strings.Contains(s, `"enable":true`) {
		t.Errorf("enabled = %s", s)
	}
	if s, _ := disabled.String(); !strings.Contains(s, `"enable":false`) {
		t.Errorf("disabled = %s", s)
	}
}

// BenchmarkBodyBuildEnvelope benchmarks building a call envelope
func BenchmarkBodyBuildEnvelope(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Body{}.
			Set("service", "Firewall").
			Set("method", "setPortForwarding").
			SetRaw("parameters", `{"id":"ssh","enable":true}`).
			Bytes()
	}
}
