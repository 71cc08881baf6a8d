package scan

import (
	"context"
	"net"
	"time"

	"github.com/liamg/netscan/scanerr"
)

// Scanner scans a resolved target.
type Scanner interface {
	Scan(ctx context.Context, target Target) (Result, error)
}

// Target is the resolved input of a scan. It is never modified after
// construction and is shared by every probe of the scan.
type Target struct {
	IP       net.IP
	Range    AddressRange
	PoolSize int
	Timeout  time.Duration
}

// NewTarget validates the pool size and timeout of a scan.
func NewTarget(ip net.IP, addressRange AddressRange, poolSize int, timeout time.Duration) (Target, error) {
	if poolSize <= 0 {
		return Target{}, scanerr.Newf(scanerr.CodeInvalidPoolSize, "pool size must be a positive whole number, got %d", poolSize)
	}
	if timeout < 0 {
		return Target{}, scanerr.Newf(scanerr.CodeInvalidArgument, "wait time must not be negative, got %s", timeout)
	}
	return Target{
		IP:       ip,
		Range:    addressRange,
		PoolSize: poolSize,
		Timeout:  timeout,
	}, nil
}
