// Package swtick implements a deterministic software timer engine over an
// abstract monotonic tick source.
//
// A [Registry] owns one-shot and periodic [Timer] instances and drives
// expiration passes; a [Scheduler] runs the cooperative tick loop; a
// [Clock] supplies logical time, either from the OS monotonic clock
// ([SystemClock]) or simulated for tests and deterministic replay
// ([ManualClock]).
//
// All tick arithmetic is modular, so the engine keeps working when the
// tick counter wraps. Periodic timers reschedule relative to their own
// previous deadline, which keeps firing drift-free regardless of tick-loop
// jitter; when an expiration pass is late by more than one period, the
// timer fires once and skips the missed periods.
//
// Timers expiring within the same pass fire in ascending deadline order
// with ties broken by creation order, so dispatch sequences are
// reproducible. Actions may create, start or cancel timers on the owning
// registry during dispatch: a timer cancelled by an earlier action in the
// same pass does not fire, and a timer created during a pass cannot fire
// before the next one.
//
// Basic usage:
//
//	reg := swtick.NewRegistry(nil)
//	defer reg.Close()
//
//	tmr, err := reg.Create(500, swtick.OneShot, swtick.ActionFunc(func(id swtick.TimerID, firedAt swtick.Tick) {
//	    // handle the timeout
//	}))
//	if err != nil {
//	    // ...
//	}
//	if err := tmr.Start(); err != nil {
//	    // ...
//	}
//
//	sched := swtick.NewScheduler(reg, nil)
//	go sched.Run(context.Background())
//	defer sched.Stop()
package swtick
