// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package sysbustest provides an in-process fake gateway speaking the sysbus
// protocol, for tests of the client and the command-line tool.
package sysbustest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Credentials and token accepted by the fake device
const (
	Username  = "admin"
	Password  = "passw0rd"
	ContextID = "dummy-context"
)

// WANStatus is the payload returned for NMC.getWANStatus
const WANStatus = `{"status":true,"data":{"LinkType":"dsl","LinkState":"up","MACAddress":"11:AA:2B:33:44:5C","Protocol":"ppp","ConnectionState":"Bound","LastConnectionError":"None","IPAddress":"55.27.2.115","RemoteGateway":"193.253.160.3","DNSServers":"80.10.246.2,81.253.149.10","IPv6Address":"2a01:cb00::1","IPv6DelegatedPrefix":"2a01:cb00::/56"}}`

// Call is one request received by the device
type Call struct {
	Service    string
	Method     string
	Parameters gjson.Result
	Header     http.Header
	Body       string
}

// Device is a fake gateway. Zero-valued knobs mean "behave like a healthy
// device".
type Device struct {
	Server *httptest.Server

	// LoginStatus overrides the HTTP status of createContext
	LoginStatus int
	// LoginBody overrides the body of createContext
	LoginBody string
	// LogoutStatus overrides the HTTP status of releaseContext
	LogoutStatus int
	// LogoutBody overrides the body of releaseContext
	LogoutBody string
	// FailCommit makes Firewall.commit answer 500
	FailCommit bool
	// FailMethod makes the named method answer 500
	FailMethod string
	// ListInData moves the getPortForwarding payload from status to data
	ListInData bool

	mu      sync.Mutex
	calls   []Call
	rules   map[string]map[string]any
	order   []string
	pending bool
}

// NewDevice starts a fake device over plain HTTP
func NewDevice() *Device {
	d := &Device{rules: map[string]map[string]any{}}
	d.Server = httptest.NewServer(http.HandlerFunc(d.serve))
	return d
}

// NewTLSDevice starts a fake device over HTTPS with a self-signed certificate
func NewTLSDevice() *Device {
	d := &Device{rules: map[string]map[string]any{}}
	d.Server = httptest.NewTLSServer(http.HandlerFunc(d.serve))
	return d
}

// URL returns the base URL of the device (without the /ws path)
func (d *Device) URL() string {
	return d.Server.URL
}

// Close shuts the device down
func (d *Device) Close() {
	d.Server.Close()
}

// AddRule seeds a rule in listing shape; missing device-owned fields get defaults
func (d *Device) AddRule(rule map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := fmt.Sprint(rule["Id"])
	stored := map[string]any{
		"Origin":                "webui",
		"Description":           "",
		"SourceInterface":       "data",
		"Protocol":              "6",
		"ExternalPort":          "",
		"InternalPort":          "",
		"SourcePrefix":          "",
		"DestinationIPAddress":  "",
		"DestinationMACAddress": "",
		"LeaseDuration":         0,
		"HairpinNAT":            true,
		"SymmetricSNAT":         false,
		"UPnPV1Compat":          false,
		"Enable":                true,
	}
	for k, v := range rule {
		stored[k] = v
	}
	stored["Status"] = statusOf(stored["Enable"])
	d.store(id, stored)
}

// Rule returns a copy of the stored rule with the given id
func (d *Device) Rule(id string) (map[string]any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rule, ok := d.rules[id]
	if !ok {
		return nil, false
	}
	cp := make(map[string]any, len(rule))
	for k, v := range rule {
		cp[k] = v
	}
	return cp, true
}

// Pending reports whether a mutation was submitted without a commit
func (d *Device) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Calls returns the requests received so far
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Methods returns "service.method" for every request received so far
func (d *Device) Methods() []string {
	calls := d.Calls()
	methods := make([]string, 0, len(calls))
	for _, c := range calls {
		methods = append(methods, c.Service+"."+c.Method)
	}
	return methods
}

func (d *Device) store(id string, rule map[string]any) {
	if _, ok := d.rules[id]; !ok {
		d.order = append(d.order, id)
	}
	d.rules[id] = rule
}

func (d *Device) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/ws" {
		http.NotFound(w, r)
		return
	}

	raw, _ := io.ReadAll(r.Body)
	if !gjson.ValidBytes(raw) {
		writeJSON(w, http.StatusBadRequest, `{"status":null,"errors":[{"error":1,"description":"invalid JSON"}]}`)
		return
	}
	req := gjson.ParseBytes(raw)
	call := Call{
		Service:    req.Get("service").String(),
		Method:     req.Get("method").String(),
		Parameters: req.Get("parameters"),
		Header:     r.Header.Clone(),
		Body:       string(raw),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)

	if call.Service == "sah.Device.Information" && call.Method == "createContext" {
		d.login(w, r, call)
		return
	}

	if r.Header.Get("X-Context") != ContextID {
		writeJSON(w, http.StatusUnauthorized, `{"status":null,"errors":[{"error":13,"description":"Permission denied"}]}`)
		return
	}

	if d.FailMethod != "" && call.Method == d.FailMethod {
		writeJSON(w, http.StatusInternalServerError, `internal error`)
		return
	}

	switch call.Service + "." + call.Method {
	case "sah.Device.Information.releaseContext":
		d.logout(w, r)
	case "NMC.getWANStatus":
		writeJSON(w, http.StatusOK, WANStatus)
	case "Test.noData":
		writeJSON(w, http.StatusOK, `{"status":true}`)
	case "Test.nullData":
		writeJSON(w, http.StatusOK, `{"status":true,"data":null}`)
	case "Test.notJSON":
		writeJSON(w, http.StatusOK, `<html>oops</html>`)
	case "Test.echo":
		writeJSON(w, http.StatusOK, `{"status":true,"data":`+call.Parameters.Raw+`}`)
	case "Firewall.getPortForwarding":
		d.list(w)
	case "Firewall.setPortForwarding":
		d.set(w, call.Parameters)
	case "Firewall.deletePortForwarding":
		d.delete(w, call.Parameters)
	case "Firewall.commit":
		if d.FailCommit {
			writeJSON(w, http.StatusInternalServerError, `commit failed`)
			return
		}
		d.pending = false
		writeJSON(w, http.StatusOK, `{"status":true}`)
	default:
		writeJSON(w, http.StatusOK, `{"status":null,"errors":[{"error":196618,"description":"Object or parameter not found","info":"`+call.Service+`"}]}`)
	}
}

func (d *Device) login(w http.ResponseWriter, r *http.Request, call Call) {
	if d.LoginStatus != 0 {
		writeJSON(w, d.LoginStatus, d.LoginBody)
		return
	}
	if d.LoginBody != "" {
		writeJSON(w, http.StatusOK, d.LoginBody)
		return
	}
	if r.Header.Get("Authorization") != "X-Sah-Login" ||
		call.Parameters.Get("username").String() != Username ||
		call.Parameters.Get("password").String() != Password {
		writeJSON(w, http.StatusUnauthorized, `{"status":null,"errors":[{"error":13,"description":"Permission denied"}]}`)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "sessid", Value: "cookie-value", Path: "/"})
	writeJSON(w, http.StatusOK, `{"status":0,"data":{"contextID":"`+ContextID+`","username":"admin","groups":"http,admin"}}`)
}

func (d *Device) logout(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "X-Sah-Logout "+ContextID {
		writeJSON(w, http.StatusUnauthorized, `{"status":null}`)
		return
	}
	status := http.StatusOK
	if d.LogoutStatus != 0 {
		status = d.LogoutStatus
	}
	body := `{"status":1}`
	if d.LogoutBody != "" {
		body = d.LogoutBody
	}
	writeJSON(w, status, body)
}

// list answers with the rules in insertion order
func (d *Device) list(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteByte('{')
	n := 0
	for _, id := range d.order {
		rule := d.rules[id]
		rule["Id"] = id
		raw, _ := json.Marshal(rule)
		if n > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%s", "webui_"+id, raw)
		n++
	}
	b.WriteByte('}')

	key := "status"
	if d.ListInData {
		key = "data"
	}
	writeJSON(w, http.StatusOK, `{"`+key+`":`+b.String()+`}`)
}

func (d *Device) set(w http.ResponseWriter, p gjson.Result) {
	id := p.Get("id").String()
	rule, ok := d.rules[id]
	if !ok {
		rule = map[string]any{
			"SourcePrefix":  "",
			"LeaseDuration": 0,
			"HairpinNAT":    true,
			"SymmetricSNAT": false,
			"UPnPV1Compat":  false,
		}
	}
	rule["Origin"] = p.Get("origin").String()
	rule["Description"] = p.Get("description").String()
	rule["SourceInterface"] = p.Get("sourceInterface").String()
	rule["Protocol"] = p.Get("protocol").String()
	rule["ExternalPort"] = p.Get("externalPort").String()
	rule["InternalPort"] = p.Get("internalPort").String()
	rule["DestinationIPAddress"] = p.Get("destinationIPAddress").String()
	rule["DestinationMACAddress"] = p.Get("destinationMACAddress").String()
	rule["Enable"] = p.Get("enable").Bool()
	rule["Status"] = statusOf(rule["Enable"])
	d.store(id, rule)
	d.pending = true
	writeJSON(w, http.StatusOK, `{"status":"`+id+`"}`)
}

func (d *Device) delete(w http.ResponseWriter, p gjson.Result) {
	id := p.Get("id").String()
	if _, ok := d.rules[id]; !ok {
		writeJSON(w, http.StatusOK, `{"status":false,"errors":[{"error":196639,"description":"Rule not found","info":"`+id+`"}]}`)
		return
	}
	delete(d.rules, id)
	d.order = slices.DeleteFunc(d.order, func(o string) bool { return o == id })
	d.pending = true
	writeJSON(w, http.StatusOK, `{"status":true}`)
}

func statusOf(enable any) string {
	if b, ok := enable.(bool); ok && b {
		return "Enabled"
	}
	return "Disabled"
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/x-sah-ws-4-call+json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
