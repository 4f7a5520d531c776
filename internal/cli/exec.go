// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/netascode/go-sysbus"
)

func newExecCommand(a *app) *cobra.Command {
	var (
		service string
		method  string
		params  []string
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "invoke a sysbus method and print the response",
		Example: `  livebox exec --service NMC --method getWANStatus
  livebox exec -s NeMo.Intf.data -m getMIBs --param mibs=dsl -q '$.data.dsl'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := sysbus.ParseParams(params)
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(ctx context.Context, c *sysbus.Client) ([]byte, error) {
				res, err := c.Exec(ctx, service, method, parameters)
				if err != nil {
					return nil, err
				}
				return res.Raw, nil
			})
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", "", "service name (ex: NMC)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "method name (ex: getWANStatus)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "method parameter as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("method")

	return cmd
}
