// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Default values for client-created NAT rules
const (
	DefaultRuleOrigin          = "webui"
	DefaultRuleSourceInterface = "data"
)

// RuleStatus is the read-only state reported for a listed rule
type RuleStatus string

// Rule states
const (
	RuleEnabled  RuleStatus = "Enabled"
	RuleDisabled RuleStatus = "Disabled"
)

// NatRule is a port-forwarding rule as listed by Firewall.getPortForwarding.
//
// Status, SourcePrefix, LeaseDuration and the capability flags are reported
// by the device and never written by the client.
type NatRule struct {
	ID                    string     `json:"Id"`
	Origin                string     `json:"Origin"`
	Description           string     `json:"Description"`
	Status                RuleStatus `json:"Status"`
	SourceInterface       string     `json:"SourceInterface"`
	Protocol              Protocol   `json:"Protocol"`
	ExternalPort          string     `json:"ExternalPort"`
	InternalPort          string     `json:"InternalPort"`
	SourcePrefix          string     `json:"SourcePrefix"`
	DestinationIPAddress  string     `json:"DestinationIPAddress"`
	DestinationMACAddress string     `json:"DestinationMACAddress"`
	LeaseDuration         int64      `json:"LeaseDuration"`
	HairpinNAT            bool       `json:"HairpinNAT"`
	SymmetricSNAT         bool       `json:"SymmetricSNAT"`
	UPnPV1Compat          bool       `json:"UPnPV1Compat"`
	Enable                bool       `json:"Enable"`
}

// PortForwardingParams is the complete parameter set of setPortForwarding.
// The device has no patch semantics: every field is sent on every update.
type PortForwardingParams struct {
	ID                    string   `json:"id" validate:"required"`
	Origin                string   `json:"origin" validate:"required"`
	Description           string   `json:"description"`
	SourceInterface       string   `json:"sourceInterface" validate:"required"`
	Protocol              Protocol `json:"protocol" validate:"protocol"`
	ExternalPort          string   `json:"externalPort" validate:"required,ports"`
	InternalPort          string   `json:"internalPort" validate:"required,ports"`
	DestinationIPAddress  string   `json:"destinationIPAddress" validate:"required,ip"`
	DestinationMACAddress string   `json:"destinationMACAddress" validate:"omitempty,mac"`
	Enable                bool     `json:"enable"`
	Persistent            bool     `json:"persistent"`
}

// NewPortForwardingParams returns an enabled, persistent rule with the
// default origin and source interface.
func NewPortForwardingParams(id, description string, protocol Protocol, externalPort, internalPort, destinationIP string) PortForwardingParams {
	return PortForwardingParams{
		ID:                   id,
		Origin:               DefaultRuleOrigin,
		Description:          description,
		SourceInterface:      DefaultRuleSourceInterface,
		Protocol:             protocol,
		ExternalPort:         externalPort,
		InternalPort:         internalPort,
		DestinationIPAddress: destinationIP,
		Enable:               true,
		Persistent:           true,
	}
}

// DeletePortForwardingParams is the parameter set of deletePortForwarding
type DeletePortForwardingParams struct {
	ID                   string `json:"id"`
	Origin               string `json:"origin"`
	DestinationIPAddress string `json:"destinationIPAddress"`
}

// PortForwardingParams converts a listed rule into a full mutation parameter set
func (r NatRule) PortForwardingParams() PortForwardingParams {
	return PortForwardingParams{
		ID:                    r.ID,
		Origin:                r.Origin,
		Description:           r.Description,
		SourceInterface:       r.SourceInterface,
		Protocol:              r.Protocol,
		ExternalPort:          r.ExternalPort,
		InternalPort:          r.InternalPort,
		DestinationIPAddress:  r.DestinationIPAddress,
		DestinationMACAddress: r.DestinationMACAddress,
		Enable:                r.Enable,
		Persistent:            true,
	}
}

// DeleteParams converts a listed rule into a delete parameter set
func (r NatRule) DeleteParams() DeletePortForwardingParams {
	return DeletePortForwardingParams{
		ID:                   r.ID,
		Origin:               r.Origin,
		DestinationIPAddress: r.DestinationIPAddress,
	}
}

// portsPattern matches a port or a port range such as 8000-8010
var portsPattern = regexp.MustCompile(`^([0-9]{1,5})(?:-([0-9]{1,5}))?$`)

// validPorts reports whether s is a port in 1-65535 or an ascending range of
// such ports
func validPorts(s string) bool {
	m := portsPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end := start
	if m[2] != "" {
		end, _ = strconv.Atoi(m[2])
	}
	return start >= 1 && end <= 65535 && start <= end
}

var ruleValidator = newRuleValidator()

func newRuleValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("protocol", func(fl validator.FieldLevel) bool {
		return ValidateProtocol(Protocol(fl.Field().String())) == nil
	})
	_ = v.RegisterValidation("ports", func(fl validator.FieldLevel) bool {
		return validPorts(fl.Field().String())
	})
	return v
}

// Validate checks that the parameter set is complete and well formed
func (p PortForwardingParams) Validate() error {
	if err := ruleValidator.Struct(p); err != nil {
		return fmt.Errorf("invalid NAT rule %q: %w", p.ID, err)
	}
	return nil
}

// Stage is the step a NAT mutation reached
type Stage int

// Mutation stages, in order
const (
	// StageResolving lists the rules and looks up the target id, or validates
	// the new rule for Add. Nothing has been changed on the device yet.
	StageResolving Stage = iota

	// StageMutating submits the changed parameter set
	StageMutating

	// StageCommitting submits the commit
	StageCommitting

	// StageDone means the change was submitted and committed
	StageDone
)

// String returns the string representation of a Stage
func (s Stage) String() string {
	switch s {
	case StageResolving:
		return "resolving"
	case StageMutating:
		return "mutating"
	case StageCommitting:
		return "committing"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MutationResult reports how far a NAT mutation got.
//
// Stage is StageDone on full success. On failure it names the stage that
// failed; StageCommitting means the mutation was accepted by the device but
// not committed.
type MutationResult struct {
	Stage Stage

	// Mutation is the response of the set/delete call
	Mutation Res

	// Commit is the response of the commit call (zero if not reached or skipped)
	Commit Res
}

// Committed reports whether the mutation was submitted and committed
func (m MutationResult) Committed() bool {
	return m.Stage == StageDone && len(m.Commit.Raw) > 0
}

// NatRules manages the port-forwarding rules of the Firewall service.
//
// Every id-keyed operation re-reads the full rule list first. No version check
// is made between that read and the write, so concurrent writers from other
// processes race and the last commit wins.
type NatRules struct {
	client *Client
}

// NAT returns the port-forwarding rule repository bound to the session
func (c *Client) NAT() *NatRules {
	return &NatRules{client: c}
}

// List returns the current port-forwarding rules in the order the device
// returned them.
func (n *NatRules) List(ctx context.Context) ([]NatRule, error) {
	res, err := n.client.Invoke(ctx, ServiceFirewall, MethodGetPortForwarding, noParameters{})
	if err != nil {
		return nil, fmt.Errorf("list NAT rules: %w", err)
	}
	if err := deviceErrors(res, ServiceFirewall, MethodGetPortForwarding); err != nil {
		return nil, fmt.Errorf("list NAT rules: %w", err)
	}

	// Rules are keyed by an opaque group id under status; some firmwares
	// answer with data instead.
	rules := res.Status()
	if !rules.IsObject() {
		rules = res.Data()
	}
	if !rules.IsObject() {
		if rules.Exists() && rules.Type != gjson.Null && rules.Type != gjson.False {
			return nil, fmt.Errorf("list NAT rules: unexpected payload type %s", rules.Type)
		}
		return []NatRule{}, nil
	}

	list := []NatRule{}
	var decodeErr error
	rules.ForEach(func(key, value gjson.Result) bool {
		var rule NatRule
		if err := json.Unmarshal([]byte(value.Raw), &rule); err != nil {
			decodeErr = fmt.Errorf("decode NAT rule %q: %w", key.String(), err)
			return false
		}
		list = append(list, rule)
		return true
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("list NAT rules: %w", decodeErr)
	}

	n.client.logger.Debug(ctx, "NAT rules listed", "count", len(list))
	return list, nil
}

// Get returns the listed rule with the given id
func (n *NatRules) Get(ctx context.Context, id string) (NatRule, error) {
	rules, err := n.List(ctx)
	if err != nil {
		return NatRule{}, err
	}
	for _, rule := range rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return NatRule{}, &RuleNotFoundError{ID: id}
}

// Add creates a rule from a complete parameter set and commits it.
//
// The rule is validated before anything is sent. Pass NoCommit() to skip the
// commit on firmwares that apply added rules immediately.
func (n *NatRules) Add(ctx context.Context, rule PortForwardingParams, mods ...func(*Req)) (MutationResult, error) {
	req := &Req{}
	for _, mod := range mods {
		mod(req)
	}

	rule.Persistent = true
	if err := rule.Validate(); err != nil {
		return MutationResult{Stage: StageResolving}, fmt.Errorf("add: %w", err)
	}

	return n.mutate(ctx, "add", rule.ID, MethodSetPortForwarding, rule, req.SkipCommit, mods...)
}

// Enable sets enable=true on the rule with the given id and commits
func (n *NatRules) Enable(ctx context.Context, id string, mods ...func(*Req)) (MutationResult, error) {
	return n.update(ctx, "enable", id, func(p *PortForwardingParams) { p.Enable = true }, mods...)
}

// Disable sets enable=false on the rule with the given id and commits
func (n *NatRules) Disable(ctx context.Context, id string, mods ...func(*Req)) (MutationResult, error) {
	return n.update(ctx, "disable", id, func(p *PortForwardingParams) { p.Enable = false }, mods...)
}

// Remove deletes the rule with the given id and commits
func (n *NatRules) Remove(ctx context.Context, id string, mods ...func(*Req)) (MutationResult, error) {
	rule, err := n.Get(ctx, id)
	if err != nil {
		return MutationResult{Stage: StageResolving}, fmt.Errorf("remove: %w", err)
	}
	return n.mutate(ctx, "remove", id, MethodDeletePortForwarding, rule.DeleteParams(), false, mods...)
}

// update resolves the rule, applies transform to its full parameter set and
// submits it
func (n *NatRules) update(ctx context.Context, op, id string, transform func(*PortForwardingParams), mods ...func(*Req)) (MutationResult, error) {
	rule, err := n.Get(ctx, id)
	if err != nil {
		return MutationResult{Stage: StageResolving}, fmt.Errorf("%s: %w", op, err)
	}

	params := rule.PortForwardingParams()
	transform(&params)

	return n.mutate(ctx, op, id, MethodSetPortForwarding, params, false, mods...)
}

// mutate submits params with method and then commits unless skipCommit is set
func (n *NatRules) mutate(ctx context.Context, op, id, method string, params any, skipCommit bool, mods ...func(*Req)) (MutationResult, error) {
	result := MutationResult{Stage: StageMutating}

	res, err := n.client.Invoke(ctx, ServiceFirewall, method, params, mods...)
	if err == nil {
		err = deviceErrors(res, ServiceFirewall, method)
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	result.Mutation = res

	if skipCommit {
		result.Stage = StageDone
		n.client.logger.Info(ctx, "NAT rule submitted without commit",
			"operation", op,
			"id", id)
		return result, nil
	}

	result.Stage = StageCommitting
	commit, err := n.client.Invoke(ctx, ServiceFirewall, MethodCommit, noParameters{}, mods...)
	if err == nil {
		err = deviceErrors(commit, ServiceFirewall, MethodCommit)
	}
	if err != nil {
		n.client.logger.Error(ctx, "NAT rule submitted but commit failed",
			"operation", op,
			"id", id,
			"error", err.Error())
		return result, &CommitError{Operation: op, ID: id, Err: err}
	}
	result.Commit = commit
	result.Stage = StageDone

	n.client.logger.Info(ctx, "NAT rule committed",
		"operation", op,
		"id", id)

	return result, nil
}

// deviceErrors turns application errors reported in a 2xx response into an
// *RPCError
func deviceErrors(res Res, service, method string) error {
	errs := res.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &RPCError{
		Service:    service,
		Method:     method,
		StatusCode: res.StatusCode,
		Message:    "rejected by device",
		Body:       res.JSON(),
		Errors:     errs,
	}
}
