package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.CatalogInterval != 30*time.Second {
		t.Fatalf("timeouts = %v/%v, want 5s/30s", cfg.RequestTimeout, cfg.CatalogInterval)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if len(cfg.Servers) != 0 {
		t.Fatalf("Servers = %v, want none", cfg.Servers)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  http://reports.internal:9000  "
poll_seconds = 5
request_timeout_seconds = 10
catalog_seconds = 60
servers = [" web-01 ", "db-01", "web-01", ""]
log_file = "  ~/logs/logdeck.log  "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://reports.internal:9000" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PollInterval != 5*time.Second || cfg.RequestTimeout != 10*time.Second || cfg.CatalogInterval != time.Minute {
		t.Fatalf("intervals = %v/%v/%v", cfg.PollInterval, cfg.RequestTimeout, cfg.CatalogInterval)
	}
	if !reflect.DeepEqual(cfg.Servers, []string{"web-01", "db-01"}) {
		t.Fatalf("Servers = %v, want [web-01 db-01]", cfg.Servers)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_NonPositiveValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
api_url = "   "
poll_seconds = 0
request_timeout_seconds = -4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PollInterval != 2*time.Second || cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("intervals = %v/%v, want defaults", cfg.PollInterval, cfg.RequestTimeout)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOGDECK_API_URL", "http://env-host:1234")
	t.Setenv("LOGDECK_POLL_SECONDS", "7")
	t.Setenv("LOGDECK_SERVERS", "a,b")

	path := writeConfig(t, `
api_url = "http://file-host:9000"
poll_seconds = 3
catalog_seconds = 45
servers = ["file-01"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://env-host:1234" {
		t.Fatalf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.PollInterval != 7*time.Second {
		t.Fatalf("PollInterval = %v, want 7s", cfg.PollInterval)
	}
	if cfg.CatalogInterval != 45*time.Second {
		t.Fatalf("CatalogInterval = %v, want file value 45s", cfg.CatalogInterval)
	}
	if !reflect.DeepEqual(cfg.Servers, []string{"a", "b"}) {
		t.Fatalf("Servers = %v, want [a b]", cfg.Servers)
	}
}

func TestLoad_InvalidEnvironmentFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOGDECK_POLL_SECONDS", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "parse environment") {
		t.Fatalf("Load error = %v, want parse environment error", err)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `api_url = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
