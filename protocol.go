// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package sysbus

import (
	"fmt"
	"strings"
)

// Protocol is the transport protocol of a port-forwarding rule, encoded on the
// wire as IP protocol numbers.
type Protocol string

// Protocol constants for NAT rules
const (
	// ProtocolTCP forwards TCP only
	ProtocolTCP Protocol = "6"

	// ProtocolUDP forwards UDP only
	ProtocolUDP Protocol = "17"

	// ProtocolAll forwards both TCP and UDP
	ProtocolAll Protocol = "6,17"
)

// ValidProtocols contains the list of valid protocol values
var ValidProtocols = []Protocol{
	ProtocolTCP,
	ProtocolUDP,
	ProtocolAll,
}

// ValidateProtocol checks if the protocol is one of the supported wire values
func ValidateProtocol(p Protocol) error {
	for _, valid := range ValidProtocols {
		if p == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid protocol: %q (valid values: 6, 17, 6,17)", string(p))
}

// ParseProtocol converts a protocol name (tcp, udp, all) or wire value into a Protocol
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp", "6":
		return ProtocolTCP, nil
	case "udp", "17":
		return ProtocolUDP, nil
	case "all", "both", "6,17", "tcp,udp":
		return ProtocolAll, nil
	}
	return "", fmt.Errorf("invalid protocol: %q (valid values: tcp, udp, all)", s)
}

// String returns the protocol name (TCP, UDP, ALL)
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "TCP"
	case ProtocolUDP:
		return "UDP"
	case ProtocolAll:
		return "ALL"
	default:
		return fmt.Sprintf("UNKNOWN(%s)", string(p))
	}
}
