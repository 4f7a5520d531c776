// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/netascode/go-sysbus"
)

// mutationOutput is printed after add, enable, disable and remove
type mutationOutput struct {
	Operation string          `json:"operation"`
	ID        string          `json:"id"`
	Stage     string          `json:"stage"`
	Committed bool            `json:"committed"`
	Mutation  json.RawMessage `json:"mutation,omitempty"`
	Commit    json.RawMessage `json:"commit,omitempty"`
}

func newMutationOutput(op, id string, result sysbus.MutationResult) mutationOutput {
	return mutationOutput{
		Operation: op,
		ID:        id,
		Stage:     result.Stage.String(),
		Committed: result.Committed(),
		Mutation:  json.RawMessage(result.Mutation.Raw),
		Commit:    json.RawMessage(result.Commit.Raw),
	}
}

func newNatCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nat",
		Aliases: []string{"firewall"},
		Short:   "manage NAT port-forwarding rules",
	}

	cmd.AddCommand(
		newNatListCommand(a),
		newNatAddCommand(a),
		newNatToggleCommand(a, "enable", "enable the rule with the given id", (*sysbus.NatRules).Enable),
		newNatToggleCommand(a, "disable", "disable the rule with the given id", (*sysbus.NatRules).Disable),
		newNatToggleCommand(a, "remove", "delete the rule with the given id", (*sysbus.NatRules).Remove),
	)
	return cmd
}

func newNatListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list the port-forwarding rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, c *sysbus.Client) ([]byte, error) {
				rules, err := c.NAT().List(ctx)
				if err != nil {
					return nil, err
				}
				return marshal(rules)
			})
		},
	}
}

type natOperation func(*sysbus.NatRules, context.Context, string, ...func(*sysbus.Req)) (sysbus.MutationResult, error)

func newNatToggleCommand(a *app, use, short string, op natOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withSession(cmd.Context(), func(ctx context.Context, c *sysbus.Client) ([]byte, error) {
				result, err := op(c.NAT(), ctx, id)
				if err != nil {
					return nil, err
				}
				return marshal(newMutationOutput(use, id, result))
			})
		},
	}
}

func newNatAddCommand(a *app) *cobra.Command {
	var (
		id            string
		description   string
		protocol      string
		externalPort  string
		internalPort  string
		destinationIP string
		mac           string
		origin        string
		disabled      bool
		noCommit      bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "create a port-forwarding rule",
		Example: `  livebox nat add --id ssh --external-port 2222 --internal-port 22 --destination-ip 192.168.1.10
  livebox nat add --id games --protocol udp --external-port 27015-27030 --destination-ip 192.168.1.20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := sysbus.ParseProtocol(protocol)
			if err != nil {
				return err
			}
			if internalPort == "" {
				internalPort = externalPort
			}

			rule := sysbus.NewPortForwardingParams(id, description, proto, externalPort, internalPort, destinationIP)
			rule.DestinationMACAddress = mac
			rule.Origin = origin
			rule.Enable = !disabled
			if err := rule.Validate(); err != nil {
				return err
			}

			var mods []func(*sysbus.Req)
			if noCommit {
				mods = append(mods, sysbus.NoCommit())
			}

			return a.withSession(cmd.Context(), func(ctx context.Context, c *sysbus.Client) ([]byte, error) {
				result, err := c.NAT().Add(ctx, rule, mods...)
				if err != nil {
					return nil, err
				}
				return marshal(newMutationOutput("add", id, result))
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "rule id")
	flags.StringVar(&description, "description", "", "rule description")
	flags.StringVar(&protocol, "protocol", "tcp", "protocol: tcp, udp or all")
	flags.StringVar(&externalPort, "external-port", "", "external port or range (ex: 8000-8010)")
	flags.StringVar(&internalPort, "internal-port", "", "internal port or range (default: the external port)")
	flags.StringVar(&destinationIP, "destination-ip", "", "LAN address the traffic is forwarded to")
	flags.StringVar(&mac, "destination-mac", "", "MAC address of the destination host")
	flags.StringVar(&origin, "origin", sysbus.DefaultRuleOrigin, "rule origin")
	flags.BoolVar(&disabled, "disabled", false, "create the rule disabled")
	flags.BoolVar(&noCommit, "no-commit", false, "do not commit after adding the rule")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("external-port")
	_ = cmd.MarkFlagRequired("destination-ip")

	return cmd
}
