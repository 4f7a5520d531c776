// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Default client configuration values
const (
	DefaultBaseURL          = "http://livebox.home"
	DefaultUsername         = "admin"
	DefaultApplicationName  = "livebox-cli"
	DefaultOperationTimeout = 30 * time.Second
	DefaultPrettyPrintLogs  = true
)

// Protocol headers and markers
const (
	ContentTypeSahWS = "application/x-sah-ws-4-call+json"
	HeaderContext    = "X-Context"
	AuthLogin        = "X-Sah-Login"
	AuthLogout       = "X-Sah-Logout"

	endpointPath = "/ws"
)

// Security limits for JSON processing and logging
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024 // 1MB
	MaxSensitiveFields    = 1000
	maxResponseSize       = 16 * 1024 * 1024
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

type redactionRule struct {
	field       string
	pattern     *regexp.Regexp
	replacement string
}

func newRedactionRule(field string) redactionRule {
	return redactionRule{
		field:       field,
		pattern:     regexp.MustCompile(`"` + field + `"\s*:\s*"(?:[^"\\]|\\.)*"`),
		replacement: `"` + field + `":"[REDACTED]"`,
	}
}

// defaultRedactionRules covers login credentials and the session token
var defaultRedactionRules = []redactionRule{
	newRedactionRule("password"),
	newRedactionRule("secret"),
	newRedactionRule("token"),
	newRedactionRule("contextID"),
}

// Client is an authenticated sysbus session.
//
// A Client only exists after a successful Login and is never mutated
// afterwards; a new Login is required to obtain a fresh context token. It is
// meant to be used sequentially by a single workflow.
type Client struct {
	// BaseURL is the sysbus endpoint (<base url>/ws)
	BaseURL string

	// HTTP client carrying the cookie jar and the x-context default header
	httpClient *http.Client

	// contextID is the token issued by createContext
	contextID string

	username        string // unexported for security
	password        string // unexported for security
	applicationName string

	InsecureSkipVerify bool
	OperationTimeout   time.Duration

	logger          Logger
	prettyPrintLogs bool
	redactionRules  []redactionRule
}

// Login authenticates against the gateway at baseURL and returns the session.
//
// A single createContext call is sent; it is not retried. A transport failure
// is returned wrapped, a rejected login or an unusable response as *AuthError.
//
// Example:
//
//	client, err := sysbus.Login(ctx, "https://192.168.1.1",
//	    sysbus.Username("admin"),
//	    sysbus.Password("secret"),
//	    sysbus.InsecureSkipVerify(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout(ctx)
func Login(ctx context.Context, baseURL string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		BaseURL:          normalizeBaseURL(baseURL),
		username:         DefaultUsername,
		applicationName:  DefaultApplicationName,
		OperationTimeout: DefaultOperationTimeout,
		logger:           &NoOpLogger{},
		prettyPrintLogs:  DefaultPrettyPrintLogs,
		redactionRules:   defaultRedactionRules,
	}

	for _, opt := range opts {
		opt(client)
	}

	if err := client.validateConfig(ctx); err != nil {
		return nil, err
	}
	client.BaseURL = endpointURL(client.BaseURL)

	hc, err := newTransport(client)
	if err != nil {
		return nil, err
	}
	client.httpClient = hc

	if err := client.login(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

// normalizeBaseURL trims spaces and a trailing slash, falling back to
// DefaultBaseURL when empty
func normalizeBaseURL(baseURL string) string {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/")
}

// endpointURL returns the sysbus endpoint of a base URL
func endpointURL(baseURL string) string {
	return normalizeBaseURL(baseURL) + endpointPath
}

// ContextID returns the session token issued at login
func (c *Client) ContextID() string {
	return c.contextID
}

// validateConfig validates client configuration before login. BaseURL still
// holds the caller's base URL at this point, without the endpoint path.
func (c *Client) validateConfig(ctx context.Context) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}

	if strings.TrimSpace(c.username) == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if strings.TrimSpace(c.applicationName) == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got: %v", c.OperationTimeout)
	}

	if c.password == "" {
		c.logger.Warn(ctx, "No password configured",
			"url", c.BaseURL,
			"message", "device will most likely reject the login")
	}

	if c.InsecureSkipVerify && u.Scheme == "https" {
		c.logger.Warn(ctx, "InsecureSkipVerify enabled - TLS certificate verification disabled",
			"url", c.BaseURL,
			"security_risk", "Man-in-the-Middle attacks possible")
	}

	return nil
}

// login performs createContext and installs the session headers
func (c *Client) login(ctx context.Context) error {
	body, err := newEnvelope(ServiceDeviceInformation, MethodCreateContext, LoginParameters{
		ApplicationName: c.applicationName,
		Username:        c.username,
		Password:        c.password,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", ContentTypeSahWS)
	header.Set("Authorization", AuthLogin)

	statusCode, respBody, err := c.post(ctx, body, header)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if statusCode < 200 || statusCode > 299 {
		c.logger.Error(ctx, "sysbus login rejected",
			"url", c.BaseURL,
			"status", statusCode)
		return &AuthError{
			StatusCode: statusCode,
			Message:    "authentication failed",
			Body:       string(respBody),
		}
	}

	res, err := parseRes(statusCode, respBody)
	if err != nil {
		return &AuthError{
			Message: "invalid login response",
			Body:    string(respBody),
			Err:     err,
		}
	}

	contextID := res.GetValue("data.contextID")
	if contextID.Type != gjson.String || contextID.String() == "" {
		return &AuthError{
			Message: "login response carries no context id",
			Body:    string(respBody),
		}
	}
	c.contextID = contextID.String()

	defaults := http.Header{}
	defaults.Set("Accept", ContentTypeSahWS)
	defaults.Set(HeaderContext, c.contextID)
	c.httpClient = withDefaultHeaders(c.httpClient, defaults)

	c.logger.Info(ctx, "sysbus session established",
		"url", c.BaseURL,
		"username", c.username,
		"groups", res.GetValue("data.groups").String())

	return nil
}

// Logout releases the session.
//
// Logout is best effort and never fails: the device may already have expired
// the context, in which case it answers 401. That case is logged at Debug
// level; any other non-2xx status, an unparsable body or a status other than 1
// is logged as a warning.
func (c *Client) Logout(ctx context.Context) {
	body, err := newEnvelope(ServiceDeviceInformation, MethodReleaseContext, LogoutParameters{
		ApplicationName: c.applicationName,
	})
	if err != nil {
		c.logger.Warn(ctx, "sysbus logout not sent", "error", err.Error())
		return
	}

	header := http.Header{}
	header.Set("Content-Type", ContentTypeSahWS)
	header.Set("Authorization", AuthLogout+" "+c.contextID)

	statusCode, respBody, err := c.post(ctx, body, header)
	if err != nil {
		c.logger.Warn(ctx, "sysbus logout failed",
			"url", c.BaseURL,
			"error", err.Error())
		return
	}

	if statusCode == http.StatusUnauthorized {
		c.logger.Debug(ctx, "sysbus session already released",
			"url", c.BaseURL,
			"status", statusCode)
		return
	}

	if statusCode < 200 || statusCode > 299 {
		c.logger.Warn(ctx, "sysbus logout error",
			"url", c.BaseURL,
			"status", statusCode,
			"body", string(respBody))
		return
	}

	res, err := parseRes(statusCode, respBody)
	if err != nil {
		c.logger.Warn(ctx, "sysbus logout error",
			"url", c.BaseURL,
			"error", err.Error(),
			"body", string(respBody))
		return
	}

	if status := res.Status(); status.Type != gjson.Number || status.Int() != 1 {
		c.logger.Warn(ctx, "sysbus logout error",
			"url", c.BaseURL,
			"body", string(respBody))
		return
	}

	c.logger.Info(ctx, "sysbus session released", "url", c.BaseURL)
}

// post sends body to the sysbus endpoint and returns status code and body.
//
// Request and response bodies are logged at Debug level.
func (c *Client) post(ctx context.Context, body []byte, header http.Header) (int, []byte, error) {
	c.logger.Debug(ctx, ">>> POST",
		"url", c.BaseURL,
		"body", c.prepareJSONForLogging(string(body)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range header {
		req.Header[name] = values
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug(ctx, "<<< response",
		"status", resp.StatusCode,
		"body", c.prepareJSONForLogging(string(respBody)))

	return resp.StatusCode, respBody, nil
}

// prepareJSONForLogging redacts sensitive data and formats JSON for logging
//
// Oversized payloads and payloads with an excessive number of sensitive fields
// are replaced by a marker instead of being run through the redaction regexes.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	sensitiveCount := 0
	for _, rule := range c.redactionRules {
		sensitiveCount += strings.Count(jsonStr, `"`+rule.field+`"`)
	}
	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}

	return redacted
}

// redactSensitiveData replaces the values of sensitive string fields with [REDACTED]
func (c *Client) redactSensitiveData(json string) string {
	result := json
	for _, rule := range c.redactionRules {
		result = rule.pattern.ReplaceAllString(result, rule.replacement)
	}
	return result
}
