// Package probe implements the mechanisms used to decide whether a single host
// answers: the operating system's ping command, a raw ICMP echo, and a TCP
// connect.
package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/liamg/netscan/scanerr"
)

// Prober sends one probe to ip and waits up to timeout for an answer.
//
// A nil error with false means the host definitely did not answer. A non-nil
// error means the probe could not be sent at all.
type Prober interface {
	Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error)

func (f ProberFunc) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error) {
	return f(ctx, ip, timeout)
}

// Methods lists the accepted values for New's method argument.
var Methods = []string{"ping", "icmp", "icmp-udp", "connect"}

// New creates the prober for method. goos selects the ping command's flag
// conventions and port is the TCP port used by the connect method.
func New(method string, goos string, port int) (Prober, error) {
	switch strings.ToLower(method) {
	case "ping", "":
		p, err := NewPing(goos)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "icmp":
		return NewICMP(), nil
	case "icmp-udp":
		return NewUnprivilegedICMP(), nil
	case "connect":
		c, err := NewConnect(port)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, scanerr.Newf(scanerr.CodeInvalidArgument, "unknown probe method '%s', must be one of %s", method, strings.Join(Methods, ", "))
}
