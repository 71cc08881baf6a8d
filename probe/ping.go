package probe

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"strconv"
	"time"

	"github.com/liamg/netscan/scanerr"
)

// Ping probes by running the system ping command once per host.
type Ping struct {
	command string
	args    func(timeout time.Duration) []string
}

// NewPing returns a Ping using the flag conventions of goos. Platforms other
// than linux, darwin and windows are rejected.
func NewPing(goos string) (*Ping, error) {
	p := &Ping{command: "ping"}
	switch goos {
	case "linux":
		p.args = func(timeout time.Duration) []string {
			return []string{"-c", "1", "-W", formatFloat(timeout.Seconds())}
		}
	case "darwin":
		p.args = func(timeout time.Duration) []string {
			return []string{"-c", "1", "-W", formatFloat(milliseconds(timeout))}
		}
	case "windows":
		p.args = func(timeout time.Duration) []string {
			return []string{"-n", "1", "-w", strconv.FormatInt(timeout.Milliseconds(), 10)}
		}
	default:
		return nil, scanerr.NewWithTarget(scanerr.CodeUnsupportedPlatform, "operating system unsupported by the ping method", goos)
	}
	return p, nil
}

// Args returns the arguments passed to the ping command for ip.
func (p *Ping) Args(ip net.IP, timeout time.Duration) []string {
	return append(p.args(timeout), ip.String())
}

func (p *Ping) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error) {
	cmd := exec.CommandContext(ctx, p.command, p.Args(ip, timeout)...)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return false, err
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
