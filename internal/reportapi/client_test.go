package reportapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), DefaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:1234" {
		t.Fatalf("url = %q, want http://example.com:1234", u.String())
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestNewClient_TimeoutOptions(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, requestTimeout, c.http.Timeout)

	for _, order := range []string{"timeout first", "client first"} {
		t.Run(order, func(t *testing.T) {
			shared := &http.Client{}
			opts := []Option{WithTimeout(3 * time.Second), WithHTTPClient(shared)}
			if order == "client first" {
				opts[0], opts[1] = opts[1], opts[0]
			}
			c, err := NewClient("", opts...)
			require.NoError(t, err)
			assert.Equal(t, 3*time.Second, c.http.Timeout)
			assert.NotSame(t, shared, c.http)
			assert.Zero(t, shared.Timeout, "caller's client is left alone")
		})
	}

	custom := &http.Client{Timeout: time.Minute}
	c, err = NewClient("", WithHTTPClient(custom))
	require.NoError(t, err)
	assert.Same(t, custom, c.http)
	assert.Equal(t, time.Minute, c.http.Timeout)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestClient_ListEndpoints(t *testing.T) {
	t.Parallel()

	var (
		mu                      sync.Mutex
		gotUserAgent, gotAccept string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/servers":
			_, _ = w.Write([]byte(`[{"name":"web-01","host":"10.0.0.1","port":5432}]`))
		case "/api/logs/web-01":
			_, _ = w.Write([]byte(`[{"name":"b.log","size":10,"date":"2025-01-02T03:04:05Z"},{"name":"a.log","size":2048,"date":"2025-01-01 00:00:00"}]`))
		case "/api/reports/web-01":
			_, _ = w.Write([]byte(`[{"name":"a.html","createdAt":"2025-01-01T00:00:00Z","isProcessing":false},{"name":"b.out","createdAt":"2025-01-02T00:00:00Z","isProcessing":true}]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	servers, err := c.ListServers(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "web-01", servers[0].Name)

	logs, err := c.ListLogs(ctx, "web-01")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// Backend order is preserved.
	assert.Equal(t, "b.log", logs[0].Name)
	assert.Equal(t, int64(2048), logs[1].Size)
	assert.False(t, logs[0].ParsedDate().IsZero())
	assert.False(t, logs[1].ParsedDate().IsZero())

	reports, err := c.ListReports(ctx, "web-01")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.False(t, reports[0].IsProcessing)
	assert.True(t, reports[1].IsProcessing)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasPrefix(gotUserAgent, "logdeck/"), "User-Agent = %q", gotUserAgent)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_StartJobSendsFormAndMapsConflict(t *testing.T) {
	t.Parallel()

	var (
		mu              sync.Mutex
		calls           int
		gotLog, gotPath string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		gotPath = r.URL.EscapedPath()
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotLog = r.PostForm.Get("logFile")
		w.Header().Set("Content-Type", "application/json")
		if calls > 1 {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"Report generation already in progress"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Report generation started", "report": "access.html"})
	})

	report, err := c.StartJob(context.Background(), "web 01", "access.log")
	require.NoError(t, err)
	assert.Equal(t, "access.html", report)
	mu.Lock()
	assert.Equal(t, "access.log", gotLog)
	assert.Equal(t, "/api/report/web%2001", gotPath)
	mu.Unlock()

	_, err = c.StartJob(context.Background(), "web 01", "access.log")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Report generation already in progress", Message(err))
}

func TestClient_StartJobRequiresLogName(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.StartJob(context.Background(), "web-01", "  ")
	require.Error(t, err)
	assert.Equal(t, KindBackend, KindOf(err))
}

func TestClient_PollJob(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/report-status/web-01/running.html":
			_, _ = w.Write([]byte(`{"status":"running","output":"10%","startTime":"2025-01-01T00:00:00Z"}`))
		case "/api/report-status/web-01/done.html":
			_, _ = w.Write([]byte(`{"status":"completed","path":"/reports/web-01/done.html"}`))
		case "/api/report-status/web-01/broken.html":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Failed to read output file"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Report not found"}`))
		}
	})
	ctx := context.Background()

	st, err := c.PollJob(ctx, "web-01", "running.html")
	require.NoError(t, err)
	assert.Equal(t, JobRunning, st.State)
	assert.Equal(t, "10%", st.Output)
	assert.False(t, st.StartTime.IsZero())

	st, err = c.PollJob(ctx, "web-01", "done.html")
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, st.State)
	assert.Empty(t, st.Output)

	st, err = c.PollJob(ctx, "web-01", "gone.html")
	require.NoError(t, err, "a vanished job is a terminal status, not an error")
	assert.Equal(t, JobError, st.State)
	assert.Equal(t, "Report not found", st.Message)
	assert.True(t, st.State.Terminal())

	_, err = c.PollJob(ctx, "web-01", "broken.html")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_StopJobMapsNotRunning(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/stop-report/web-01/active.html" {
			_, _ = w.Write([]byte(`{"message":"Report generation stopped"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"No active report generation found"}`))
	})

	require.NoError(t, c.StopJob(context.Background(), "web-01", "active.html"))

	err := c.StopJob(context.Background(), "web-01", "idle.html")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRunning))
	assert.False(t, errors.Is(err, ErrBackend))
}

func TestClient_TransportAndDecodeErrors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not-json"))
	})
	_, err := c.ListLogs(context.Background(), "web-01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "decode response")

	dead, err := NewClient("127.0.0.1:1", WithTimeout(500*time.Millisecond))
	require.NoError(t, err)
	_, err = dead.ListReports(context.Background(), "web-01")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestClient_ReportURL(t *testing.T) {
	c, err := NewClient("http://reports.local:8080/ignored")
	require.NoError(t, err)
	assert.Equal(t, "http://reports.local:8080/report/web-01/access.html", c.ReportURL("web-01", "access.html"))
	assert.Equal(t, "http://reports.local:8080/report/db%2F2/a%20b.html", c.ReportURL("db/2", "a b.html"))
}
