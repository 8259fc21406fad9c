package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"wan_failover/internal/logger"
)

func TestSupervisor_RestartsCrashedUnit(t *testing.T) {
	sup := New(logger.Get(logger.ErrorLevel))

	var starts atomic.Int32
	restarted := make(chan struct{})

	unit := Unit{
		Name: "flaky",
		Run: func(ctx context.Context) error {
			n := starts.Add(1)
			if n == 1 {
				return errors.New("simulated crash")
			}
			close(restarted)
			<-ctx.Done()
			return ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx, unit)
		close(done)
	}()

	// The unit crashes once and must come back within the initial backoff.
	select {
	case <-restarted:
	case <-time.After(5 * time.Second):
		t.Fatalf("unit not restarted after crash")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("supervisor did not stop after cancellation")
	}

	if got := starts.Load(); got != 2 {
		t.Fatalf("starts: want 2, got %d", got)
	}
}

func TestSupervisor_RecoversPanickingUnit(t *testing.T) {
	sup := New(logger.Get(logger.ErrorLevel))

	var starts atomic.Int32
	restarted := make(chan struct{})

	unit := Unit{
		Name: "panicky",
		Run: func(ctx context.Context) error {
			if starts.Add(1) == 1 {
				panic("boom")
			}
			close(restarted)
			<-ctx.Done()
			return ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx, unit)

	select {
	case <-restarted:
	case <-time.After(5 * time.Second):
		t.Fatalf("unit not restarted after panic")
	}
}

func TestSupervisor_RunsUnitsIndependently(t *testing.T) {
	sup := New(logger.Get(logger.ErrorLevel))

	var aCrashes atomic.Int32
	bAlive := make(chan struct{})
	bStopped := make(chan struct{})

	a := Unit{
		Name: "crasher",
		Run: func(ctx context.Context) error {
			aCrashes.Add(1)
			return errors.New("down again")
		},
	}
	b := Unit{
		Name: "steady",
		Run: func(ctx context.Context) error {
			close(bAlive)
			<-ctx.Done()
			close(bStopped)
			return ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx, a, b)
		close(done)
	}()

	<-bAlive
	// Let the crasher cycle at least once without disturbing the steady unit.
	time.Sleep(1500 * time.Millisecond)
	select {
	case <-bStopped:
		t.Fatalf("steady unit stopped by sibling crashes")
	default:
	}
	if aCrashes.Load() < 1 {
		t.Fatalf("crasher never started")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("supervisor did not drain units on shutdown")
	}
}

func TestSupervisor_StopsCleanUnitOnCancel(t *testing.T) {
	sup := New(logger.Get(logger.ErrorLevel))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx, Unit{
			Name: "clean",
			Run: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("supervisor did not return after cancel")
	}
}
