package jobmon

import (
	"time"

	"github.com/google/uuid"

	"github.com/five82/logdeck/internal/logtail"
	"github.com/five82/logdeck/internal/reportapi"
)

const (
	// DefaultInterval is the poll cadence of a running job.
	DefaultInterval = 2 * time.Second
	// MaxTransportFailures consecutive failed polls end a session.
	MaxTransportFailures = 3
	// MaxOutputLines bounds the output kept per session.
	MaxOutputLines = 2000
)

// State is the lifecycle position of a session.
type State int

const (
	Idle State = iota
	Starting
	Polling
	Stopping
	Done
	Stopped
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Polling:
		return "polling"
	case Stopping:
		return "stopping"
	case Done:
		return "done"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further polling happens in s.
func (s State) Terminal() bool {
	switch s {
	case Done, Stopped, Failed, Closed:
		return true
	default:
		return false
	}
}

// Session is a read-only snapshot of the monitored job.
type Session struct {
	ID        uuid.UUID
	Server    string
	Log       string
	Report    string
	State     State
	Output    string
	Err       string
	StartTime time.Time
	// Reentered is set when monitoring attached to an already running job.
	Reentered         bool
	TransportFailures int
	PollInFlight      bool
}

// Monitor drives at most one job session. It performs no I/O: every method
// returns the effects its driver must carry out, and results come back via
// Deliver. A Monitor must only be used from one goroutine.
type Monitor struct {
	interval time.Duration
	maxLines int
	newID    func() uuid.UUID

	sess  *Session
	timer *TimerHandle
	seq   uint64
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithInterval sets the poll cadence.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMaxOutputLines bounds the stored output.
func WithMaxOutputLines(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.maxLines = n
		}
	}
}

// WithIDSource replaces uuid.New, for deterministic tests.
func WithIDSource(fn func() uuid.UUID) Option {
	return func(m *Monitor) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// New returns an idle Monitor.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		interval: DefaultInterval,
		maxLines: MaxOutputLines,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Interval returns the poll cadence.
func (m *Monitor) Interval() time.Duration { return m.interval }

// State returns the state of the current session, or Idle.
func (m *Monitor) State() State {
	if m.sess == nil {
		return Idle
	}
	return m.sess.State
}

// Session returns a snapshot of the current session.
func (m *Monitor) Session() (Session, bool) {
	if m.sess == nil {
		return Session{}, false
	}
	return *m.sess, true
}

// ArmedTimers is 1 while a poll timer is armed, 0 otherwise.
func (m *Monitor) ArmedTimers() int {
	if m.timer == nil {
		return 0
	}
	return 1
}

// Confirm starts report generation for log on server, replacing any current
// session.
func (m *Monitor) Confirm(server, log string) []Effect {
	m.discard()
	m.sess = &Session{
		ID:     m.newID(),
		Server: server,
		Log:    log,
		State:  Starting,
	}
	return []Effect{StartJob{Session: m.sess.ID, Server: server, Log: log}}
}

// Reenter attaches to a report that is already generating. No StartJob is
// issued; polling begins immediately.
func (m *Monitor) Reenter(server, report string) []Effect {
	m.discard()
	m.sess = &Session{
		ID:        m.newID(),
		Server:    server,
		Report:    report,
		State:     Polling,
		Reentered: true,
	}
	return m.beginPolling()
}

// Stop requests cancellation of the running job. It is a no-op unless the
// session is polling.
func (m *Monitor) Stop() []Effect {
	if m.sess == nil || m.sess.State != Polling {
		return nil
	}
	m.sess.State = Stopping
	return []Effect{StopJob{Session: m.sess.ID, Server: m.sess.Server, Report: m.sess.Report}}
}

// Close dismisses the session from any state. The timer is cleared and every
// later event for the session is dropped. The returned snapshot reads Closed.
func (m *Monitor) Close() (Session, bool) {
	if m.sess == nil {
		return Session{}, false
	}
	closed := *m.sess
	closed.State = Closed
	closed.PollInFlight = false
	m.discard()
	return closed, true
}

// Deliver applies the outcome of an earlier effect. Events that no longer
// belong to the current session are dropped and yield no effects.
func (m *Monitor) Deliver(ev Event) []Effect {
	switch ev := ev.(type) {
	case StartResult:
		return m.onStart(ev)
	case PollResult:
		return m.onPoll(ev)
	case StopResult:
		return m.onStop(ev)
	case Tick:
		return m.onTick(ev)
	default:
		return nil
	}
}

// IsStale reports whether ev would be dropped by Deliver.
func (m *Monitor) IsStale(ev Event) bool {
	switch ev := ev.(type) {
	case StartResult:
		return !m.current(ev.Session, Starting)
	case PollResult:
		return !m.current(ev.Session, Polling, Stopping)
	case StopResult:
		return !m.current(ev.Session, Stopping)
	case Tick:
		return m.timer == nil || ev.Timer != *m.timer
	default:
		return true
	}
}

func (m *Monitor) current(id uuid.UUID, states ...State) bool {
	if m.sess == nil || m.sess.ID != id {
		return false
	}
	for _, s := range states {
		if m.sess.State == s {
			return true
		}
	}
	return false
}

func (m *Monitor) onStart(ev StartResult) []Effect {
	if m.IsStale(ev) {
		return nil
	}
	if ev.Err != nil {
		m.discard()
		return []Effect{Notify{
			Severity: SeverityError,
			Message:  "Failed to start report generation: " + reportapi.Message(ev.Err),
		}}
	}
	m.sess.Report = ev.Report
	m.sess.State = Polling
	return m.beginPolling()
}

func (m *Monitor) onTick(ev Tick) []Effect {
	if m.IsStale(ev) {
		return nil
	}
	effects := []Effect{m.arm()}
	if !m.sess.PollInFlight {
		effects = append(effects, m.poll())
	}
	return effects
}

func (m *Monitor) onPoll(ev PollResult) []Effect {
	if m.IsStale(ev) {
		return nil
	}
	s := m.sess
	s.PollInFlight = false

	if ev.Err != nil {
		if reportapi.KindOf(ev.Err) == reportapi.KindBackend {
			m.fail(reportapi.Message(ev.Err))
			return nil
		}
		s.TransportFailures++
		s.Err = "Error checking status: " + reportapi.Message(ev.Err)
		if s.TransportFailures >= MaxTransportFailures {
			m.fail(s.Err)
		}
		return nil
	}

	s.TransportFailures = 0
	if !ev.Status.StartTime.IsZero() {
		s.StartTime = ev.Status.StartTime
	}
	switch ev.Status.State {
	case reportapi.JobRunning:
		s.Output = logtail.TailString(ev.Status.Output, m.maxLines)
		s.Err = ""
		return nil
	case reportapi.JobCompleted:
		if ev.Status.Output != "" {
			s.Output = logtail.TailString(ev.Status.Output, m.maxLines)
		}
		s.Err = ""
		s.State = Done
		m.timer = nil
		return []Effect{
			RefreshReports{Server: s.Server},
			Notify{Severity: SeverityInfo, Message: "Report " + s.Report + " completed"},
		}
	default:
		msg := ev.Status.Message
		if msg == "" {
			msg = "report generation failed"
		}
		m.fail(msg)
		return nil
	}
}

func (m *Monitor) onStop(ev StopResult) []Effect {
	if m.IsStale(ev) {
		return nil
	}
	s := m.sess
	if ev.Err != nil {
		s.State = Polling
		return []Effect{Notify{
			Severity: SeverityError,
			Message:  "Failed to stop report generation: " + reportapi.Message(ev.Err),
		}}
	}
	s.State = Stopped
	m.timer = nil
	return []Effect{
		RefreshReports{Server: s.Server},
		Notify{Severity: SeverityInfo, Message: "Report generation stopped"},
	}
}

// beginPolling arms the timer and issues the first poll without waiting for
// it.
func (m *Monitor) beginPolling() []Effect {
	return []Effect{m.arm(), m.poll()}
}

func (m *Monitor) arm() Effect {
	m.seq++
	m.timer = &TimerHandle{Session: m.sess.ID, Seq: m.seq}
	return ArmTimer{Timer: *m.timer, After: m.interval}
}

func (m *Monitor) poll() Effect {
	m.sess.PollInFlight = true
	return Poll{Session: m.sess.ID, Server: m.sess.Server, Report: m.sess.Report}
}

// fail ends polling but keeps the partial output visible.
func (m *Monitor) fail(msg string) {
	m.sess.State = Failed
	m.sess.Err = msg
	m.timer = nil
}

func (m *Monitor) discard() {
	m.timer = nil
	m.sess = nil
}
