// Package reportapi provides the HTTP client for the log report service.
//
// # Overview
//
// The report service lists log files per server, generates reports from a
// chosen log asynchronously, and exposes the status of a running generation.
// This package is the only place logdeck speaks HTTP; everything above it works
// with the typed values and errors defined here.
//
// # Endpoints
//
//	GET  /api/servers                          []Server
//	GET  /api/logs/{server}                    []LogEntry
//	GET  /api/reports/{server}                 []ReportEntry
//	POST /api/report/{server}       logFile=.. {report} | {error}
//	GET  /api/report-status/{s}/{r}            {status, output} | {error}
//	POST /api/stop-report/{s}/{r}              {message} | {error}
//	GET  /report/{server}/{report}             rendered document (ReportURL)
//
// Path segments are escaped individually, so a server or report name can
// never address a different endpoint.
//
// # Error Model
//
// Every operation returns *Error, classified by Kind:
//
//   - KindTransport: the request failed or the body could not be decoded
//   - KindBackend: the service answered with an error payload
//   - KindConflict: HTTP 409, a report for that log is already generating
//   - KindNotRunning: stop requested for a job that is not active
//
// errors.Is works against ErrTransport, ErrBackend, ErrConflict and
// ErrNotRunning. PollJob treats HTTP 404 as a terminal JobError status
// instead of an error: the service forgets finished or rotated jobs, and a
// poller must stop rather than retry forever.
//
// # Output Semantics
//
// JobStatus.Output is the full output produced so far, not a delta. Callers
// replace what they show; appending would duplicate text on every poll. A
// completed status carries no output, so callers keep the last snapshot.
//
// # Testing
//
// API is implemented by *Client. UI and watcher tests use in-memory fakes of
// API; client tests run against httptest servers.
package reportapi
