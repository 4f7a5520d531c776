// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package sysbus provides a client for the session-based JSON RPC interface
// ("sysbus") exposed by Livebox-style home gateways.
//
// The library handles session establishment and teardown, the generic
// service/method request envelope, and a read-modify-write-commit workflow for
// the port-forwarding (NAT) rules of the device firewall.
//
// # Quick Start
//
// Log in, invoke a method and release the session:
//
//	ctx := context.Background()
//	client, err := sysbus.Login(ctx, "http://livebox.home",
//	    sysbus.Username("admin"),
//	    sysbus.Password("secret"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout(ctx)
//
//	res, err := client.Exec(ctx, "NMC", "getWANStatus", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.GetValue("data.IPAddress").String())
//
// # NAT Rules
//
// Port-forwarding rules are managed through the repository returned by NAT:
//
//	rules, err := client.NAT().List(ctx)
//
//	rule := sysbus.NewPortForwardingParams("ssh", "SSH to NAS",
//	    sysbus.ProtocolTCP, "2222", "22", "192.168.1.20")
//	result, err := client.NAT().Add(ctx, rule)
//
//	result, err = client.NAT().Disable(ctx, "ssh")
//
// The device has no patch API: Enable, Disable and Remove list the current
// rules, rebuild the complete parameter set of the matching rule, submit it and
// then submit a commit. The returned MutationResult reports the stage that was
// reached so a submitted-but-uncommitted change can be told apart from a full
// success.
//
// No version check is performed between the listing and the mutation. Two
// processes changing the same rule concurrently race and the last commit wins.
//
// # Error Handling
//
// Login failures are reported as *AuthError, failed calls as *RPCError,
// unknown rule ids as *RuleNotFoundError (matching ErrRuleNotFound) and
// mutations whose commit failed as *CommitError. Logout never fails: the device
// may already have expired the session, so problems are only logged.
//
// # References
//
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package sysbus
