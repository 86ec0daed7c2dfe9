package compose

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint is a host-reachable address for a published container port.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// parseEndpoint reads the output of `docker compose port`. Wildcard bind
// addresses are mapped to loopback.
func parseEndpoint(out string) (Endpoint, error) {
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return Endpoint{}, fmt.Errorf("port is not published")
	}

	host, portStr, err := net.SplitHostPort(line)
	if err != nil {
		return Endpoint{}, fmt.Errorf("unexpected port output %q: %w", line, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("unexpected port output %q", line)
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return Endpoint{Host: host, Port: port}, nil
}
