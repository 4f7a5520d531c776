// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"

	"github.com/netascode/go-sysbus"
)

// withSession logs in, runs work, logs out and prints what work returned.
//
// A failed login skips both the work and the logout. Once logged in, logout is
// attempted whatever the outcome of work; its failures are only logged. The
// output is filtered and printed after logout.
func (a *app) withSession(ctx context.Context, work func(context.Context, *sysbus.Client) ([]byte, error)) error {
	logger, err := newLogger(a.errOut, a.v.GetString(keyLogLevel))
	if err != nil {
		return err
	}

	client, err := sysbus.Login(ctx, a.v.GetString(keyBaseURL),
		sysbus.Username(a.v.GetString(keyUsername)),
		sysbus.Password(a.v.GetString(keyPassword)),
		sysbus.InsecureSkipVerify(a.v.GetBool(keyInsecure)),
		sysbus.WithLogger(logger))
	if err != nil {
		return err
	}

	doc, err := work(ctx, client)
	client.Logout(ctx)
	if err != nil {
		return err
	}

	return a.printer().print(doc)
}

func (a *app) printer() printer {
	return printer{
		out:   a.out,
		query: a.v.GetString(keyQuery),
		raw:   a.v.GetBool(keyRaw),
	}
}
