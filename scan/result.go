package scan

import (
	"fmt"
	"net"
	"time"
)

// Result is the outcome of a whole scan. Up holds the reachable addresses in
// the order their probes completed.
type Result struct {
	Range       AddressRange
	Up          []Outcome
	Probed      int
	Unreachable int
	Errors      int
	Elapsed     time.Duration
}

func (r *Result) add(outcome Outcome) {
	r.Probed++
	switch outcome.Status {
	case StatusReachable:
		r.Up = append(r.Up, outcome)
	case StatusError:
		r.Errors++
	default:
		r.Unreachable++
	}
}

// Hosts returns the reachable addresses in completion order.
func (r Result) Hosts() []net.IP {
	hosts := make([]net.IP, 0, len(r.Up))
	for _, outcome := range r.Up {
		hosts = append(hosts, outcome.Addr)
	}
	return hosts
}

func (r Result) String() string {
	text := fmt.Sprintf("Scanned %d addresses of %s in %s: %d up", r.Probed, r.Range, r.Elapsed, len(r.Up))
	if r.Errors > 0 {
		text = fmt.Sprintf("%s, %d probe errors", text, r.Errors)
	}
	return text
}
