package jobmon

import (
	"time"

	"github.com/google/uuid"

	"github.com/five82/logdeck/internal/reportapi"
)

// TimerHandle names one armed poll timer. Only the handle the monitor holds
// at delivery time is honored; every other tick is stale.
type TimerHandle struct {
	Session uuid.UUID
	Seq     uint64
}

// Effect is work the monitor asks its driver to perform.
type Effect interface{ isEffect() }

// StartJob requests report generation for Log on Server.
type StartJob struct {
	Session uuid.UUID
	Server  string
	Log     string
}

// Poll requests the status of Report.
type Poll struct {
	Session uuid.UUID
	Server  string
	Report  string
}

// StopJob requests cancellation of Report.
type StopJob struct {
	Session uuid.UUID
	Server  string
	Report  string
}

// ArmTimer asks for a Tick carrying Timer after the given delay.
type ArmTimer struct {
	Timer TimerHandle
	After time.Duration
}

// RefreshReports asks for the report list of Server to be fetched again.
type RefreshReports struct {
	Server string
}

// Severity grades a Notify message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

// Notify carries a message for the user.
type Notify struct {
	Severity Severity
	Message  string
}

func (StartJob) isEffect()       {}
func (Poll) isEffect()           {}
func (StopJob) isEffect()        {}
func (ArmTimer) isEffect()       {}
func (RefreshReports) isEffect() {}
func (Notify) isEffect()         {}

// Event is the outcome of an effect, fed back through Monitor.Deliver.
type Event interface{ isEvent() }

type StartResult struct {
	Session uuid.UUID
	Report  string
	Err     error
}

type PollResult struct {
	Session uuid.UUID
	Status  reportapi.JobStatus
	Err     error
}

type StopResult struct {
	Session uuid.UUID
	Err     error
}

// Tick fires when an armed timer elapses.
type Tick struct {
	Timer TimerHandle
}

func (StartResult) isEvent() {}
func (PollResult) isEvent()  {}
func (StopResult) isEvent()  {}
func (Tick) isEvent()        {}
