package scan

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/liamg/netscan/scanerr"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// Scheduler fans probes for every address of a range out over a fixed-size
// worker pool and collects the outcomes.
type Scheduler struct {
	runner    *Runner
	log       logrus.FieldLogger
	onOutcome func(Outcome)
}

var _ Scanner = (*Scheduler)(nil)

func NewScheduler(runner *Runner, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		runner: runner,
		log:    logger,
	}
}

// OnOutcome registers fn to be called for every outcome as it arrives. Calls
// happen one at a time from the collecting goroutine.
func (s *Scheduler) OnOutcome(fn func(Outcome)) {
	s.onOutcome = fn
}

// Scan probes every address of target.Range exactly once with at most
// target.PoolSize probes in flight, and blocks until all of them finished.
// If ctx is canceled the scan drains and returns the context's error without
// a result.
func (s *Scheduler) Scan(ctx context.Context, target Target) (Result, error) {
	if target.PoolSize <= 0 {
		return Result{}, scanerr.Newf(scanerr.CodeInvalidPoolSize, "pool size must be a positive whole number, got %d", target.PoolSize)
	}

	pool, err := ants.NewPool(target.PoolSize)
	if err != nil {
		return Result{}, scanerr.Wrap(scanerr.CodeInvalidPoolSize, "unable to create worker pool", err)
	}
	defer pool.Release()

	wg := &sync.WaitGroup{}
	outcomes := make(chan Outcome)
	result := Result{Range: target.Range}
	doneChan := make(chan struct{})

	go func() {
		defer close(doneChan)
		for outcome := range outcomes {
			result.add(outcome)
			if s.onOutcome != nil {
				s.onOutcome(outcome)
			}
		}
	}()

	s.log.Debugf("Scanning %d addresses of %s with %d workers...", target.Range.Size(), target.Range, target.PoolSize)
	startTime := time.Now()

	var submitErr error
	ti := target.Range.Iterator()
	for ctx.Err() == nil {
		ip, err := ti.Next()
		if err != nil {
			if err != io.EOF {
				submitErr = err
			}
			break
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			outcomes <- s.runner.Run(ctx, ip, target.Timeout)
		}); err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}

	wg.Wait()
	close(outcomes)
	<-doneChan

	result.Elapsed = time.Since(startTime)

	if submitErr != nil {
		return Result{}, submitErr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.log.Debugf("%s", result)
	return result, nil
}
