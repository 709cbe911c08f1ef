// Package app is the composition root of logdeck.
//
// # Overview
//
// app wires configuration, logging, the report service client, the shared
// server catalog and the UI together. The same wiring backs the headless
// subcommands, which follow a job on the terminal instead of in the TUI.
//
// # Components
//
//   - app.go: Options, Setup (config + logging + client) and Run for the TUI
//   - logging.go: slog setup writing to the log file, never the terminal
//   - poller.go: background refresh of the server catalog into state.Store
//   - watch.go: Generate and Watch, a channel-driven loop around jobmon
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> Setup()             config.Load, SetupLogging, reportapi.NewClient
//	       ├─────> prefs.Load()        theme and last server
//	       ├─────> store.Seed()        configured servers until the catalog loads
//	       ├─────> StartPoller()       catalog refresh goroutine
//	       └─────> ui.Run()            blocks until quit
//
// # Catalog Polling
//
// The poller fetches /api/servers immediately and then every
// CatalogInterval (30s by default). While the service is unreachable it
// retries sooner, starting at 2s and doubling up to 30s. Failures are
// counted in the store; two in a row mark the service offline in the header.
//
// # Headless Watching
//
// Generate and Watch drive a jobmon.Monitor exactly like the TUI does, but
// from a select loop: request effects and timers run on goroutines and send
// their events back over a channel. Stale events are discarded by the
// monitor. Output is printed incrementally and a spinner is drawn with
// progressbar when a progress writer is given. On completion the report
// list is printed with links to the rendered reports.
//
// # Error Handling
//
// Fatal errors (returned from Run or Setup):
//   - Invalid configuration file or environment overrides
//   - Invalid API URL
//
// Recoverable errors (logged, the program keeps running):
//   - Log file cannot be opened
//   - Catalog fetch failures
//   - Preferences that cannot be read or written
package app
