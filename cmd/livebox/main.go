// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import "github.com/netascode/go-sysbus/internal/cli"

func main() {
	cli.Execute()
}
