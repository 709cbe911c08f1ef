// Package jobmon monitors asynchronous report generation jobs.
//
// # Overview
//
// A Monitor owns at most one job session at a time. It starts a job (or
// attaches to one already running), polls its status on a fixed cadence,
// keeps the latest output, and ends polling exactly once when the job
// completes, fails, is stopped, or the user dismisses the status view.
//
// # Effects and Events
//
// The monitor performs no I/O and starts no goroutines. User actions
// (Confirm, Reenter, Stop, Close) and delivered events (StartResult,
// PollResult, StopResult, Tick) return a slice of Effect values for the
// driver to execute:
//
//	StartJob, Poll, StopJob   network requests; run them with Perform
//	ArmTimer                  deliver Tick{Timer} after the delay
//	RefreshReports            re-fetch the report list of a server
//	Notify                    show a message to the user
//
// The Bubble Tea model turns effects into tea.Cmds; the headless watcher runs
// them on goroutines and feeds results back over a channel. Either way,
// Deliver is only ever called from the driver's single event loop.
//
// # Session Lifecycle
//
//	Idle ──Confirm──▶ Starting ──ok──▶ Polling ──completed──▶ Done
//	                     │                │ ▲
//	                     └─err─▶ Idle     │ └─stop failed─┐
//	                                      ├──Stop──▶ Stopping ──ok──▶ Stopped
//	                                      └──error / 3 transport failures──▶ Failed
//
//	Reenter ──▶ Polling            Close (any state) ──▶ Closed, then Idle
//
// Entering Polling arms the timer and issues the first poll at once. Each
// honored Tick re-arms the timer and issues a poll unless one is still in
// flight.
//
// # Stale Events
//
// Every session has a uuid and every timer arm produces a new TimerHandle.
// Deliver drops results of another session, results arriving after the
// session left the state that requested them, and ticks of any handle other
// than the one currently armed. Clearing a timer is therefore just forgetting
// its handle; a tick that fires later is ignored and never re-armed, so at
// most one polling loop exists at any time.
//
// # Output
//
// A poll returns the job's full output, which replaces the stored output
// (bounded to MaxOutputLines). A completed status without output keeps the
// last snapshot. Poll failures are recorded in Session.Err next to the
// partial output rather than replacing it.
package jobmon
