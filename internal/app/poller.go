package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/logdeck/internal/reportapi"
	"github.com/five82/logdeck/internal/state"
)

const (
	defaultCatalogInterval = 30 * time.Second
	retryBase              = 2 * time.Second
	maxBackoff             = 30 * time.Second
)

// ServerLister is the part of the API the catalog poller needs.
type ServerLister interface {
	ListServers(ctx context.Context) ([]reportapi.Server, error)
}

// StartPoller launches a background goroutine that refreshes the server
// catalog. A healthy catalog is refreshed every interval; while the service is
// unreachable retries back off from retryBase up to maxBackoff. The goroutine
// exits when ctx is cancelled; the returned channel is closed when it has.
func StartPoller(ctx context.Context, store *state.Store, client ServerLister, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = defaultCatalogInterval
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, client)
			timer.Reset(nextDelay(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
	return done
}

func refresh(ctx context.Context, store *state.Store, client ServerLister) {
	servers, err := client.ListServers(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, err)
		slog.Warn("server catalog poll failed", "err", err)
		return
	}
	store.Update(servers, nil)
	slog.Debug("server catalog refreshed", "servers", len(servers))
}

func nextDelay(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	return min(calculateBackoff(failures-1, retryBase), interval)
}

// calculateBackoff doubles base per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
