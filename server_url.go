package main

import (
	"fmt"
	"net"
	"strings"
)

// streamURL returns the client-facing WebSocket URL for the listen address,
// normalised so the startup log always shows a reachable host:port pair.
func streamURL(address string) string {
	return fmt.Sprintf("ws://%s/ws", normaliseHostPort(address))
}

func normaliseHostPort(address string) string {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "localhost"
	}
	host, port, err := net.SplitHostPort(trimmed)
	if err != nil {
		if strings.HasPrefix(trimmed, ":") {
			return "localhost" + trimmed
		}
		return trimmed
	}
	host = strings.TrimSpace(host)
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
