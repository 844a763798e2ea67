// Package dispatch marshals callbacks onto a designated consumer goroutine.
//
// The graphics toolkit is not thread-safe and must only be touched from the
// UI goroutine. Background goroutines (sensor polling, button handlers,
// service workers) request UI-visible changes by dispatching a callback to
// the UI dispatcher; the UI loop consumes and runs them in FIFO order.
//
//	ui := dispatch.New("ui", 128, dispatch.WithLogger(logger))
//
//	// producer
//	ui.Dispatch(func(arg any) { bar.SetIcon(arg.(string)) }, "sdcard", 10*time.Millisecond)
//
//	// UI goroutine
//	ui.Run(ctx)
//
// A full queue applies backpressure to the producer instead of dropping
// messages. Messages still queued when the dispatcher is closed never run.
package dispatch
