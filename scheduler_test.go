package swtick_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/rkubicek/swtick"
	"github.com/rkubicek/swtick/internal/testutil/tickmock"
)

func runScheduler(t *testing.T, ctx context.Context, s *swtick.Scheduler) <-chan error {
	t.Helper()

	errs := make(chan error, 1)
	go func() { errs <- s.Run(ctx) }()
	return errs
}

func waitErr(t *testing.T, errs <-chan error) error {
	t.Helper()

	select {
	case err := <-errs:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not return")
		return nil
	}
}

func TestScheduler_FiresTimer(t *testing.T) {
	t.Parallel()

	reg, clk := newManualRegistry(t, 0)

	firedAt := make(chan swtick.Tick, 1)
	tmr := mustCreate(t, reg, 5, swtick.OneShot, swtick.ActionFunc(func(_ swtick.TimerID, at swtick.Tick) {
		firedAt <- at
	}))
	if err := tmr.Start(); err != nil {
		t.Fatalf("tmr.Start() error = %v, want nil", err)
	}

	s := swtick.NewScheduler(reg, &swtick.SchedulerOptions{PollInterval: time.Millisecond})
	errs := runScheduler(t, context.Background(), s)

	clk.Advance(5)
	select {
	case at := <-firedAt:
		if at != 5 {
			t.Fatalf("action fired at tick %d, want 5", at)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not fire")
	}

	s.Stop()
	if err := waitErr(t, errs); err != nil {
		t.Fatalf("s.Run() error = %v, want nil", err)
	}
}

func TestScheduler_DeadlineSleep(t *testing.T) {
	t.Parallel()

	reg, clk := newManualRegistry(t, 0)

	fired := make(chan struct{}, 1)
	tmr := mustCreate(t, reg, 2, swtick.OneShot, swtick.ActionFunc(func(swtick.TimerID, swtick.Tick) {
		fired <- struct{}{}
	}))
	if err := tmr.Start(); err != nil {
		t.Fatalf("tmr.Start() error = %v, want nil", err)
	}
	clk.Advance(2)

	// PollInterval 0 selects sleep-until-next-deadline.
	s := swtick.NewScheduler(reg, &swtick.SchedulerOptions{TickUnit: time.Millisecond})
	errs := runScheduler(t, context.Background(), s)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not fire")
	}

	s.Stop()
	if err := waitErr(t, errs); err != nil {
		t.Fatalf("s.Run() error = %v, want nil", err)
	}
}

func TestScheduler_Stop(t *testing.T) {
	t.Parallel()

	reg, _ := newManualRegistry(t, 0)
	s := swtick.NewScheduler(reg, &swtick.SchedulerOptions{PollInterval: time.Millisecond})
	errs := runScheduler(t, context.Background(), s)

	s.Stop()
	s.Stop() // idempotent
	if err := waitErr(t, errs); err != nil {
		t.Fatalf("s.Run() error = %v, want nil", err)
	}
}

func TestScheduler_ContextCancelled(t *testing.T) {
	t.Parallel()

	reg, _ := newManualRegistry(t, 0)
	s := swtick.NewScheduler(reg, &swtick.SchedulerOptions{PollInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errs := runScheduler(t, ctx, s)

	cancel()
	if err := waitErr(t, errs); !errors.Is(err, context.Canceled) {
		t.Fatalf("s.Run() error = %v, want %v", err, context.Canceled)
	}
}

func TestScheduler_ClockFailureFatal(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	cause := errors.New("tick source gone")
	clk := tickmock.NewMockClock(ctrl)
	clk.EXPECT().
		Now().
		Return(swtick.Tick(0), cause).
		Times(1)

	reg := swtick.NewRegistry(&swtick.RegistryOptions{Clock: clk})
	t.Cleanup(func() { _ = reg.Close() })

	s := swtick.NewScheduler(reg, &swtick.SchedulerOptions{PollInterval: time.Millisecond})
	errs := runScheduler(t, context.Background(), s)

	// The loop must stop rather than tick on unknown time.
	err := waitErr(t, errs)
	if !errors.Is(err, swtick.ErrClockUnavailable) {
		t.Fatalf("s.Run() error = %v, want %v", err, swtick.ErrClockUnavailable)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("s.Run() error = %v, want wrapped cause %v", err, cause)
	}
}

func TestScheduler_RegistryClosed(t *testing.T) {
	t.Parallel()

	reg, _ := newManualRegistry(t, 0)
	if err := reg.Close(); err != nil {
		t.Fatalf("reg.Close() error = %v, want nil", err)
	}

	s := swtick.NewScheduler(reg, &swtick.SchedulerOptions{PollInterval: time.Millisecond})
	errs := runScheduler(t, context.Background(), s)

	if err := waitErr(t, errs); err != nil {
		t.Fatalf("s.Run() on closed registry error = %v, want nil", err)
	}
}
