package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wan_failover/internal/logger"

	"github.com/cenkalti/backoff/v4"
)

// Restart pacing. A unit that stays up past healthyRunDuration gets its
// backoff reset, so a crash after days of uptime restarts quickly again.
const (
	initialBackoff     = 1 * time.Second
	maxBackoff         = 1 * time.Minute
	healthyRunDuration = 5 * time.Minute
)

// Unit is one independently supervised execution unit. Run must block until
// it fails or ctx is cancelled; returning while ctx is still live counts as
// an unexpected exit.
type Unit struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor keeps its units alive: each runs in its own goroutine and is
// restarted after an escalating, capped delay whenever it exits or panics.
// Only context cancellation stops a unit for good.
type Supervisor struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Supervisor {
	return &Supervisor{log: log}
}

// Run launches all units and blocks until ctx is cancelled and every unit
// has exited. At most one instance of each unit is live at any time.
func (s *Supervisor) Run(ctx context.Context, units ...Unit) {
	var wg sync.WaitGroup
	for _, u := range units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			s.supervise(ctx, u)
		}(u)
	}
	wg.Wait()
}

func (s *Supervisor) supervise(ctx context.Context, u Unit) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.MaxInterval = maxBackoff
	bo.MaxElapsedTime = 0 // retry forever
	bo.Reset()

	for {
		started := time.Now()
		err := s.runUnit(ctx, u)
		if ctx.Err() != nil {
			s.log.Infow("unit stopped", "unit", u.Name)
			return
		}

		if time.Since(started) >= healthyRunDuration {
			bo.Reset()
		}
		wait := bo.NextBackOff()
		s.log.Errorw("unit exited unexpectedly, restarting",
			"unit", u.Name, "err", err, "restart_in", wait)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// runUnit invokes the unit, converting panics into errors so one bad tick
// or request cannot take the whole process down.
func (s *Supervisor) runUnit(ctx context.Context, u Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit %s panicked: %v", u.Name, r)
		}
	}()
	return u.Run(ctx)
}
