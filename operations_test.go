// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/netascode/go-sysbus/internal/sysbustest"
	"github.com/tidwall/gjson"
)

// TestValidateName tests service and method name validation
func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "valid service", input: "NMC"},
		{name: "valid dotted service", input: "NeMo.Intf.lan"},
		{name: "empty", input: "", wantErr: "cannot be empty"},
		{name: "space", input: "get WAN", wantErr: "invalid character at position 3"},
		{name: "newline", input: "get\n", wantErr: "invalid character"},
		{name: "too long", input: strings.Repeat("a", MaxNameLength+1), wantErr: "exceeds maximum length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateName("service", tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestExecWANStatus tests the generic call against a known payload
func TestExecWANStatus(t *testing.T) {
	d := sysbustest.NewDevice()
	defer d.Close()
	client := login(t, d)

	res, err := client.Exec(context.Background(), "NMC", "getWANStatus", nil)
	if err != nil {
		t.Fatalf("Exec() unexpected error: %v", err)
	}

	call := d.Calls()[1]
	if call.Service != "NMC" || call.Method != "getWANStatus" {
		t.Errorf("call = %s.%s", call.Service, call.Method)
	}
	if call.Parameters.Raw != "{}" {
		t.Errorf("parameters = %s, want {}", call.Parameters.Raw)
	}
	if call.Header.Get("X-Context") != sysbustest.ContextID {
		t.Errorf("x-context = %q", call.Header.Get("X-Context"))
	}

	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if !res.OK() {
		t.Error("OK() = false, want true")
	}
	want := gjson.Get(sysbustest.WANStatus, "data").Raw
	if res.Data().Raw != want {
		t.Errorf("Data() = %s, want %s", res.Data().Raw, want)
	}
	if got := res.GetValue("data.IPAddress").String(); got != "55.27.2.115" {
		t.Errorf("IPAddress = %q", got)
	}
}

// TestExecParameters tests that parameters are sent flat and literal
func TestExecParameters(t *testing.T) {
	d := sysbustest.NewDevice()
	defer d.Close()
	client := login(t, d)

	res, err := client.Exec(context.Background(), "Test", "echo", map[string]string{
		"mibs":     "base",
		"flag.sub": "x",
	})
	if err != nil {
		t.Fatalf("Exec() unexpected error: %v", err)
	}
	if got := res.Data().Get("mibs").String(); got != "base" {
		t.Errorf("mibs = %q", got)
	}
	if got := res.Data().Get(`flag\.sub`).String(); got != "x" {
		t.Errorf("flag.sub = %q (data %s)", got, res.Data().Raw)
	}
}

// TestInvokeParameterKinds tests the accepted parameter encodings
func TestInvokeParameterKinds(t *testing.T) {
	d := sysbustest.NewDevice()
	defer d.Close()
	client := login(t, d)

	tests := []struct {
		name   string
		params any
		want   string
	}{
		{name: "nil", params: nil, want: `{}`},
		{name: "body", params: Body{}.Set("a.b", 1), want: `{"a":{"b":1}}`},
		{name: "raw message", params: json.RawMessage(`{"x":true}`), want: `{"x":true}`},
		{name: "bytes", params: []byte(`{"y":"z"}`), want: `{"y":"z"}`},
		{name: "struct", params: LogoutParameters{ApplicationName: "app"}, want: `{"application_name":"app"}`},
		{name: "empty struct", params: noParameters{}, want: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := client.Invoke(context.Background(), "Test", "echo", tt.params)
			if err != nil {
				t.Fatalf("Invoke() unexpected error: %v", err)
			}
			if res.Data().Raw != tt.want {
				t.Errorf("parameters echoed = %s, want %s", res.Data().Raw, tt.want)
			}
		})
	}
}

// TestInvokeInvalidInput tests that nothing is sent for invalid input
func TestInvokeInvalidInput(t *testing.T) {
	d := sysbustest.NewDevice()
	defer d.Close()
	client := login(t, d)

	tests := []struct {
		name    string
		service string
		method  string
		params  any
		wantErr string
	}{
		{name: "empty service", service: "", method: "m", wantErr: "service cannot be empty"},
		{name: "empty method", service: "s", method: "", wantErr: "method cannot be empty"},
		{name: "invalid raw params", service: "s", method: "m", params: []byte(`{`), wantErr: "not valid JSON"},
		{name: "broken body", service: "s", method: "m", params: Body{}.Set("", 1), wantErr: "encode parameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Invoke(context.Background(), tt.service, tt.method, tt.params)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}

	if n := len(d.Calls()); n != 1 {
		t.Errorf("expected only the login call, got %d calls", n)
	}
}

// TestInvokeDataPresence tests absent versus null data
func TestInvokeDataPresence(t *testing.T) {
	d := sysbustest.NewDevice()
	defer d.Close()
	client := login(t, d)

	res, err := client.Invoke(context.Background(), "Test", "noData", nil)
	if err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}
	if res.HasData() {
		t.Error("HasData() = true for a response without data")
	}

	res, err = client.Invoke(context.Background(), "Test", "nullData", nil)
	if err != nil {
		t.Fatalf("Invoke() unexpected error: %v", err)
	}
	if !res.HasData() {
		t.Error("HasData() = false for data: null")
	}
	if res.Data().Type != gjson.Null {
		t.Errorf("Data().Type = %v, want Null", res.Data().Type)
	}
}

// TestInvokeErrors tests the RPCError cases
func TestInvokeErrors(t *testing.T) {
	d := sysbustest.NewDevice()
	defer d.Close()
	client := login(t, d)

	t.Run("non 2xx", func(t *testing.T) {
		d.FailMethod = "broken"
		defer func() { d.FailMethod = "" }()

		_, err := client.Invoke(context.Background(), "Test", "broken", nil)
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			t.Fatalf("expected *RPCError, got %T: %v", err, err)
		}
		if rpcErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d", rpcErr.StatusCode)
		}
		if rpcErr.Body != "internal error" {
			t.Errorf("Body = %q", rpcErr.Body)
		}
		if rpcErr.Service != "Test" || rpcErr.Method != "broken" {
			t.Errorf("call = %s.%s", rpcErr.Service, rpcErr.Method)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		_, err := client.Invoke(context.Background(), "Test", "notJSON", nil)
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			t.Fatalf("expected *RPCError, got %T: %v", err, err)
		}
		if rpcErr.Message != "invalid response" {
			t.Errorf("Message = %q", rpcErr.Message)
		}
		if rpcErr.Err == nil {
			t.Error("expected the parse failure as cause")
		}
	})

	t.Run("device errors are returned in Res", func(t *testing.T) {
		res, err := client.Invoke(context.Background(), "Unknown", "call", nil)
		if err != nil {
			t.Fatalf("Invoke() unexpected error: %v", err)
		}
		errs := res.Errors()
		if len(errs) != 1 || errs[0].Code != 196618 || errs[0].Info != "Unknown" {
			t.Errorf("Errors() = %+v", errs)
		}
		if res.OK() {
			t.Error("OK() = true for status null")
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Invoke(ctx, "NMC", "getWANStatus", nil)
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			t.Fatalf("expected *RPCError, got %T: %v", err, err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
	})
}

// TestInvokeTimeoutModifier tests that the per-call timeout is applied
func TestInvokeTimeoutModifier(t *testing.T) {
	d := sysbustest.NewDevice()
	defer d.Close()
	client := login(t, d)

	_, err := client.Exec(context.Background(), "NMC", "getWANStatus", nil, Timeout(5*time.Second))
	if err != nil {
		t.Fatalf("Exec() unexpected error: %v", err)
	}
}

// TestParseParams tests key=value parsing
func TestParseParams(t *testing.T) {
	got, err := ParseParams([]string{"mibs=base", "expr=a=b", " key =v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"mibs": "base", "expr": "a=b", "key": "v"}
	if len(got) != len(want) {
		t.Fatalf("ParseParams() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ParseParams()[%q] = %q, want %q", k, got[k], v)
		}
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := ParseParams([]string{bad}); err == nil {
			t.Errorf("ParseParams(%q) expected error", bad)
		}
	}
}
