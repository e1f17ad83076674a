package utils

import (
	"fmt"
	"net"
	"time"
)

// PingHostPort checks that a TCP listener is reachable, used to wait for
// containerized databases to come up.
func PingHostPort(host, port string, timeout time.Duration) error {
	address := net.JoinHostPort(host, port)

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}
