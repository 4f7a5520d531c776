// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// newTransport creates the cookie-keeping HTTP client shared by login and all
// later calls.
func newTransport(c *Client) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if c.InsecureSkipVerify {
		//nolint:gosec // G402: explicitly requested for self-signed gateway certificates
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Jar:       jar,
		Transport: base,
		Timeout:   c.OperationTimeout,
	}, nil
}

// headerTransport adds default headers to every request that does not
// already set them.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

// RoundTrip implements http.RoundTripper
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for name, values := range t.headers {
		if r.Header.Get(name) == "" {
			r.Header[name] = append([]string(nil), values...)
		}
	}
	return t.base.RoundTrip(r)
}

// withDefaultHeaders returns a client sharing hc's cookie jar whose requests
// carry headers by default.
func withDefaultHeaders(hc *http.Client, headers http.Header) *http.Client {
	return &http.Client{
		Jar:       hc.Jar,
		Transport: &headerTransport{base: hc.Transport, headers: headers},
		Timeout:   hc.Timeout,
	}
}
