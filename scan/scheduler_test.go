package scan

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/liamg/netscan/netif"
	"github.com/liamg/netscan/probe"
	"github.com/liamg/netscan/scanerr"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProber answers from a fixed set of reachable addresses and records how
// many probes ran and how many overlapped.
type fakeProber struct {
	up       map[string]bool
	broken   map[string]bool
	delay    time.Duration
	calls    int64
	inFlight int64
	maxSeen  int64

	mu   sync.Mutex
	seen map[string]int
}

func newFakeProber(up ...string) *fakeProber {
	f := &fakeProber{
		up:     map[string]bool{},
		broken: map[string]bool{},
		seen:   map[string]int{},
	}
	for _, ip := range up {
		f.up[ip] = true
	}
	return f
}

func (f *fakeProber) Probe(ctx context.Context, ip net.IP, timeout time.Duration) (bool, error) {
	atomic.AddInt64(&f.calls, 1)
	current := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		max := atomic.LoadInt64(&f.maxSeen)
		if current <= max || atomic.CompareAndSwapInt64(&f.maxSeen, max, current) {
			break
		}
	}

	f.mu.Lock()
	f.seen[ip.String()]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	if f.broken[ip.String()] {
		return false, errors.New("exec: \"ping\": executable file not found in $PATH")
	}
	return f.up[ip.String()], nil
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestScheduler(prober probe.Prober) *Scheduler {
	logger := quietLogger()
	return NewScheduler(NewRunner(prober, logger), logger)
}

func hostStrings(result Result) []string {
	var hosts []string
	for _, ip := range result.Hosts() {
		hosts = append(hosts, ip.String())
	}
	sort.Strings(hosts)
	return hosts
}

func TestScanEndToEndPrefix(t *testing.T) {
	prober := newFakeProber("10.0.0.5", "10.0.0.6")

	r, err := Resolve(net.ParseIP("10.0.0.5"), intPtr(30), nil, nil)
	require.NoError(t, err)
	target, err := NewTarget(net.ParseIP("10.0.0.5"), r, 2, time.Second)
	require.NoError(t, err)

	result, err := newTestScheduler(prober).Scan(context.Background(), target)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"10.0.0.5", "10.0.0.6"}, hostStrings(result))
	assert.Equal(t, 4, result.Probed)
	assert.Equal(t, 2, result.Unreachable)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, int64(4), atomic.LoadInt64(&prober.calls))
}

func TestScanEndToEndLocalInterface(t *testing.T) {
	prober := newFakeProber("192.168.1.1", "192.168.1.200")
	interfaces := []netif.Interface{
		{Name: "eth0", V4: []netif.Address{{IP: net.ParseIP("192.168.1.20"), Prefix: 24}}},
	}

	ip := net.ParseIP("192.168.1.20")
	r, err := Resolve(ip, intPtr(30), nil, interfaces)
	require.NoError(t, err)
	target, err := NewTarget(ip, r, 16, 0)
	require.NoError(t, err)

	result, err := newTestScheduler(prober).Scan(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, 256, result.Probed)
	assert.Len(t, prober.seen, 256)
	assert.Equal(t, []string{"192.168.1.1", "192.168.1.200"}, hostStrings(result))
}

func TestScanEndToEndMask(t *testing.T) {
	prober := newFakeProber("192.168.1.0", "192.168.1.255", "192.168.2.1")

	ip := net.ParseIP("192.168.1.1")
	r, err := Resolve(ip, nil, net.ParseIP("255.255.255.0"), nil)
	require.NoError(t, err)
	target, err := NewTarget(ip, r, 32, 0)
	require.NoError(t, err)

	result, err := newTestScheduler(prober).Scan(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.0/24", result.Range.String())
	assert.Equal(t, 256, result.Probed)
	// network and broadcast addresses are probed too
	assert.Equal(t, []string{"192.168.1.0", "192.168.1.255"}, hostStrings(result))
}

func TestScanEveryPoolSize(t *testing.T) {
	r := mustRange(t, "10.20.0.0", 26)
	var up []string
	it := r.Iterator()
	for i := 0; ; i++ {
		ip, err := it.Next()
		if err != nil {
			break
		}
		if i%3 == 0 {
			up = append(up, ip.String())
		}
	}
	sort.Strings(up)

	for _, poolSize := range []int{1, 2, 3, 7, 63, 64, 65, 500} {
		prober := newFakeProber(up...)
		prober.delay = time.Millisecond

		target, err := NewTarget(r.Network(), r, poolSize, time.Second)
		require.NoError(t, err)

		result, err := newTestScheduler(prober).Scan(context.Background(), target)
		require.NoError(t, err)

		assert.Equal(t, up, hostStrings(result), "pool %d", poolSize)
		assert.Equal(t, 64, result.Probed, "pool %d", poolSize)
		assert.Equal(t, int64(64), atomic.LoadInt64(&prober.calls), "pool %d", poolSize)
		for ip, n := range prober.seen {
			assert.Equal(t, 1, n, "%s probed %d times with pool %d", ip, n, poolSize)
		}
		assert.LessOrEqual(t, atomic.LoadInt64(&prober.maxSeen), int64(poolSize), "pool %d", poolSize)
	}
}

func TestScanRejectsNonPositivePool(t *testing.T) {
	r := mustRange(t, "10.0.0.0", 30)

	for _, poolSize := range []int{0, -1, -256} {
		_, err := NewTarget(r.Network(), r, poolSize, time.Second)
		assert.True(t, scanerr.HasCode(err, scanerr.CodeInvalidPoolSize))
		assert.Equal(t, scanerr.KindConfiguration, scanerr.KindOf(err))

		prober := newFakeProber()
		_, err = newTestScheduler(prober).Scan(context.Background(), Target{Range: r, PoolSize: poolSize})
		assert.True(t, scanerr.HasCode(err, scanerr.CodeInvalidPoolSize))
		assert.Equal(t, int64(0), atomic.LoadInt64(&prober.calls))
	}
}

func TestNewTargetRejectsNegativeTimeout(t *testing.T) {
	r := mustRange(t, "10.0.0.0", 30)
	_, err := NewTarget(r.Network(), r, 4, -time.Millisecond)
	assert.True(t, scanerr.HasCode(err, scanerr.CodeInvalidArgument))
}

func TestScanProbeErrorsAreNotFatal(t *testing.T) {
	prober := newFakeProber("10.0.0.1")
	prober.broken["10.0.0.2"] = true
	prober.broken["10.0.0.3"] = true

	r := mustRange(t, "10.0.0.0", 30)
	target, err := NewTarget(r.Network(), r, 4, time.Second)
	require.NoError(t, err)

	var mu sync.Mutex
	var errs []error
	scheduler := newTestScheduler(prober)
	scheduler.OnOutcome(func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		if o.Status == StatusError {
			errs = append(errs, o.Err)
		}
	})

	result, err := scheduler.Scan(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.1"}, hostStrings(result))
	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, 1, result.Unreachable)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.True(t, scanerr.HasCode(e, scanerr.CodeProbeFailed))
	}
}

func TestScanCanceled(t *testing.T) {
	prober := newFakeProber("10.0.0.1")
	prober.delay = time.Hour

	r := mustRange(t, "10.0.0.0", 24)
	target, err := NewTarget(r.Network(), r, 8, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := newTestScheduler(prober).Scan(ctx, target)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Up)
	assert.Less(t, atomic.LoadInt64(&prober.calls), int64(256))
}

func TestScanSingleAddress(t *testing.T) {
	prober := newFakeProber("10.0.0.9")
	r := mustRange(t, "10.0.0.9", 32)
	target, err := NewTarget(r.Network(), r, 256, time.Second)
	require.NoError(t, err)

	result, err := newTestScheduler(prober).Scan(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.9"}, hostStrings(result))
}
