package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/liamg/netscan/scanerr"
)

// Connect probes by opening a TCP connection. A host that accepts the
// connection or actively refuses it is up.
type Connect struct {
	port int
}

func NewConnect(port int) (*Connect, error) {
	if port < 1 || port > 65535 {
		return nil, scanerr.Newf(scanerr.CodeInvalidArgument, "invalid port number: %d", port)
	}
	return &Connect{port: port}, nil
}

func (c *Connect) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(c.port)))
	if err == nil {
		_ = conn.Close()
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(err.Error(), "refused") {
		return true, nil
	}
	return false, nil
}
