package app

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

// SetupLogging routes slog and the standard logger to the file at path. The
// terminal belongs to the TUI, so nothing is ever logged to stderr. When the
// file cannot be opened logging is discarded rather than failing startup.
func SetupLogging(path string, debug bool) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = io.Discard
		closer io.Closer = nopCloser{}
		setErr error
	)
	if path != "" {
		file, err := openLogFile(path)
		if err != nil {
			setErr = err
		} else {
			w, closer = file, file
		}
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags)
	return logger, closer, setErr
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
