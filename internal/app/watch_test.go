package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/five82/logdeck/internal/jobmon"
	"github.com/five82/logdeck/internal/reportapi"
)

// scriptedAPI replays a fixed sequence of poll results.
type scriptedAPI struct {
	mu       sync.Mutex
	startErr error
	report   string
	polls    []reportapi.JobStatus
	pollErrs []error
	reports  []reportapi.ReportEntry
	block    bool // PollJob waits for ctx instead of answering

	started     []string
	pollCount   int
	reportCalls int
}

func (a *scriptedAPI) ListServers(context.Context) ([]reportapi.Server, error) {
	return nil, nil
}

func (a *scriptedAPI) ListLogs(context.Context, string) ([]reportapi.LogEntry, error) {
	return nil, nil
}

func (a *scriptedAPI) ListReports(_ context.Context, server string) ([]reportapi.ReportEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reportCalls++
	return a.reports, nil
}

func (a *scriptedAPI) StartJob(_ context.Context, server, logName string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = append(a.started, server+"/"+logName)
	if a.startErr != nil {
		return "", a.startErr
	}
	return a.report, nil
}

func (a *scriptedAPI) PollJob(ctx context.Context, _, _ string) (reportapi.JobStatus, error) {
	a.mu.Lock()
	block := a.block
	a.mu.Unlock()
	if block {
		<-ctx.Done()
		return reportapi.JobStatus{}, &reportapi.Error{Op: "report status", Kind: reportapi.KindTransport, Err: ctx.Err()}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.pollCount
	a.pollCount++
	if i < len(a.pollErrs) && a.pollErrs[i] != nil {
		return reportapi.JobStatus{}, a.pollErrs[i]
	}
	if i >= len(a.polls) {
		i = len(a.polls) - 1
	}
	return a.polls[i], nil
}

func (a *scriptedAPI) StopJob(context.Context, string, string) error { return nil }

func (a *scriptedAPI) ReportURL(server, report string) string {
	return "http://reports.test/report/" + server + "/" + report
}

func TestGenerate_FollowsJobToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := &scriptedAPI{
		report: "access.log.report",
		polls: []reportapi.JobStatus{
			{State: reportapi.JobRunning, Output: "10%"},
			{State: reportapi.JobCompleted, Output: "10%\n100%"},
		},
		reports: []reportapi.ReportEntry{
			{Name: "access.log.report", CreatedAt: time.Now().Add(-time.Minute)},
		},
	}
	var out bytes.Buffer

	sess, err := Generate(context.Background(), api, "web-01", "access.log", WatchOptions{
		Interval: 5 * time.Millisecond,
		Out:      &out,
	})
	require.NoError(t, err)

	assert.Equal(t, jobmon.Done, sess.State)
	assert.Equal(t, "access.log.report", sess.Report)
	assert.Equal(t, "10%\n100%", sess.Output)
	assert.Equal(t, []string{"web-01/access.log"}, api.started)
	assert.Equal(t, 1, api.reportCalls)

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "10%\n"), "output printed once: %q", text)
	assert.Contains(t, text, "100%")
	assert.Contains(t, text, "Reports on web-01:")
	assert.Contains(t, text, "http://reports.test/report/web-01/access.log.report")
	assert.NotContains(t, text, "[processing]")
	assert.Contains(t, text, "Report access.log.report completed")
}

func TestGenerate_StartConflict(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := &scriptedAPI{
		startErr: &reportapi.Error{
			Op:      "start report",
			Kind:    reportapi.KindConflict,
			Status:  http.StatusConflict,
			Message: "Report is already being generated",
		},
	}
	var out bytes.Buffer

	sess, err := Generate(context.Background(), api, "web-01", "access.log", WatchOptions{
		Interval: 5 * time.Millisecond,
		Out:      &out,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to start report generation: Report is already being generated")
	assert.Empty(t, sess.Report)
	assert.Zero(t, api.pollCount)
	assert.Contains(t, out.String(), "Failed to start report generation")
}

func TestWatch_BackendFailureEndsWatch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := &scriptedAPI{
		polls: []reportapi.JobStatus{
			{State: reportapi.JobRunning, Output: "LOG: parsing"},
			{State: reportapi.JobError, Message: "pgbadger exited with status 2"},
		},
	}
	var out bytes.Buffer

	sess, err := Watch(context.Background(), api, "db-2", "pg.report", WatchOptions{
		Interval: 5 * time.Millisecond,
		Out:      &out,
	})
	require.Error(t, err)
	assert.Equal(t, jobmon.Failed, sess.State)
	assert.True(t, sess.Reentered)
	assert.Equal(t, "LOG: parsing", sess.Output, "partial output survives failure")
	assert.Contains(t, out.String(), "pgbadger exited with status 2")
	assert.Empty(t, api.started, "reentry never starts a job")
}

func TestWatch_TransportFailuresAreRetried(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	flaky := &reportapi.Error{Op: "report status", Kind: reportapi.KindTransport, Err: errors.New("connection refused")}
	api := &scriptedAPI{
		pollErrs: []error{flaky, flaky},
		polls: []reportapi.JobStatus{
			{}, {},
			{State: reportapi.JobCompleted, Output: "done"},
		},
	}
	var out bytes.Buffer

	sess, err := Watch(context.Background(), api, "db-2", "pg.report", WatchOptions{
		Interval: 5 * time.Millisecond,
		Out:      &out,
	})
	require.NoError(t, err)
	assert.Equal(t, jobmon.Done, sess.State)
	assert.Empty(t, sess.Err)
	assert.Equal(t, 1, strings.Count(out.String(), "Error checking status"), "repeated error printed once")
}

func TestWatch_ContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := &scriptedAPI{block: true}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	sess, err := Watch(ctx, api, "db-2", "pg.report", WatchOptions{Interval: 5 * time.Millisecond})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, jobmon.Closed, sess.State)
}

func TestWatch_ProgressLineRedrawnInPlace(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const header = "LOG: Parsing log file\nLOG: some setup line\n"
	api := &scriptedAPI{
		polls: []reportapi.JobStatus{
			{State: reportapi.JobRunning, Output: header + "[==>] Parsed 10%"},
			{State: reportapi.JobRunning, Output: header + "[==>] Parsed 10%\r[====>] Parsed 40%"},
			{State: reportapi.JobRunning, Output: header + "[==>] Parsed 10%\r[====>] Parsed 40%\r[=====>] Parsed 80%"},
			{State: reportapi.JobCompleted},
		},
	}
	var out bytes.Buffer

	sess, err := Watch(context.Background(), api, "db-2", "pg.html", WatchOptions{
		Interval: 5 * time.Millisecond,
		Out:      &out,
	})
	require.NoError(t, err)
	assert.Equal(t, jobmon.Done, sess.State)

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "LOG: Parsing log file"), "header printed once: %q", text)
	assert.Equal(t, 1, strings.Count(text, "LOG: some setup line"))
	assert.Contains(t, text, "[==>] Parsed 10%"+clearLine+"[====>] Parsed 40%"+clearLine+"[=====>] Parsed 80%")
}

func TestRenderOutput(t *testing.T) {
	tests := []struct {
		name      string
		snapshots []string
		want      string
	}{
		{
			name:      "appended lines",
			snapshots: []string{"a", "a\nb", "a\nb\nc"},
			want:      "a\nb\nc",
		},
		{
			name:      "open line extended",
			snapshots: []string{"a\npars", "a\nparsing"},
			want:      "a\nparsing",
		},
		{
			name:      "last line rewritten",
			snapshots: []string{"a\n10%", "a\n40%"},
			want:      "a\n10%" + clearLine + "40%",
		},
		{
			name:      "window slides",
			snapshots: []string{"a\nb\nc", "b\nc\nd", "c\nd\ne"},
			want:      "a\nb\nc\nd\ne",
		},
		{
			name:      "window slides while progress redraws",
			snapshots: []string{"a\nb\n1%", "b\nc\n2%"},
			want:      "a\nb\n1%" + clearLine + "c\n2%",
		},
		{
			name:      "unchanged snapshot",
			snapshots: []string{"a\nb", "a\nb", ""},
			want:      "a\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			w := newWatcher(&scriptedAPI{}, WatchOptions{Out: &out})
			for _, snap := range tt.snapshots {
				w.renderOutput(snap)
			}
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRenderOutput_AfterMessageStartsFreshLine(t *testing.T) {
	var out bytes.Buffer
	w := newWatcher(&scriptedAPI{}, WatchOptions{Out: &out})

	w.renderOutput("a\n10%")
	w.println("Error checking status: connection refused")
	w.renderOutput("a\n40%")

	assert.Equal(t, "a\n10%\nError checking status: connection refused\n40%", out.String())
}
