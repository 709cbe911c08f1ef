package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/logdeck/internal/reportapi"
)

// Snapshot is the server catalog as last seen by the catalog poller.
type Snapshot struct {
	Servers []reportapi.Server
	// HasServers is false until the catalog has been fetched or seeded.
	HasServers bool
	// Fallback is true while Servers came from configuration rather than the
	// service.
	Fallback            bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the service has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Names lists the server names in catalog order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.Servers))
	for _, srv := range s.Servers {
		names = append(names, srv.Name)
	}
	return names
}

// Store is shared between the catalog poller and the UI.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Seed installs configured servers when nothing better is known. It never
// replaces a catalog fetched from the service.
func (s *Store) Seed(names []string) {
	if len(names) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.HasServers && !s.snapshot.Fallback {
		return
	}
	servers := make([]reportapi.Server, 0, len(names))
	for _, n := range names {
		servers = append(servers, reportapi.Server{Name: n})
	}
	s.snapshot.Servers = servers
	s.snapshot.HasServers = true
	s.snapshot.Fallback = true
}

// Update records a catalog fetch. On error the previous servers are kept and
// the failure is counted.
func (s *Store) Update(servers []reportapi.Server, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Servers = cloneServers(servers)
	s.snapshot.HasServers = true
	s.snapshot.Fallback = false
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Servers = cloneServers(s.snapshot.Servers)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneServers(items []reportapi.Server) []reportapi.Server {
	if len(items) == 0 {
		return nil
	}
	dup := make([]reportapi.Server, len(items))
	copy(dup, items)
	return dup
}
