package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

// TCPPrecheck attempts a raw TCP connect to conn.URI within timeout,
// failing fast on DNS/firewall misconfiguration rather than waiting for
// a protocol-level handshake to time out.
func TCPPrecheck(ctx context.Context, uri model.URI, timeout time.Duration) error {
	address := net.JoinHostPort(uri.Host, strconv.Itoa(uri.Port))

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return &ditterr.ConnectionFailed{
			Host:        uri.Host,
			Port:        uri.Port,
			Description: fmt.Sprintf("TCP pre-check failed, check firewall/DNS: %s", err),
			Err:         err,
		}
	}
	_ = conn.Close()
	return nil
}
