package scan

import (
	"context"
	"net"
	"time"

	"github.com/liamg/netscan/probe"
	"github.com/liamg/netscan/scanerr"
	"github.com/sirupsen/logrus"
)

type Status uint8

const (
	StatusUnreachable Status = iota
	StatusReachable
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusError:
		return "error"
	}
	return "unreachable"
}

// Outcome is the verdict for a single address.
type Outcome struct {
	Addr    net.IP
	Status  Status
	Err     error
	Latency time.Duration
}

// Runner probes one address at a time. It holds no mutable state, so a single
// Runner is shared by every worker of a scan.
type Runner struct {
	prober probe.Prober
	log    logrus.FieldLogger
}

func NewRunner(prober probe.Prober, logger logrus.FieldLogger) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		prober: prober,
		log:    logger,
	}
}

// Run probes ip once, waiting up to timeout.
func (r *Runner) Run(ctx context.Context, ip net.IP, timeout time.Duration) Outcome {
	start := time.Now()
	up, err := r.prober.Probe(ctx, ip, timeout)
	outcome := Outcome{
		Addr:    ip,
		Latency: time.Since(start),
	}

	switch {
	case err != nil:
		outcome.Status = StatusError
		outcome.Err = scanerr.WrapWithTarget(scanerr.CodeProbeFailed, "probe could not be sent", ip.String(), err)
		r.log.Debugf("Error probing %s: %s", ip, err)
	case up:
		outcome.Status = StatusReachable
		r.log.Debugf("%s is up (%s)", ip, outcome.Latency)
	default:
		outcome.Status = StatusUnreachable
	}

	return outcome
}
