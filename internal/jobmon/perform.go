package jobmon

import (
	"context"

	"github.com/five82/logdeck/internal/reportapi"
)

// JobClient is the part of reportapi.API the monitor's requests need.
type JobClient interface {
	StartJob(ctx context.Context, server, logName string) (string, error)
	PollJob(ctx context.Context, server, report string) (reportapi.JobStatus, error)
	StopJob(ctx context.Context, server, report string) error
}

// Perform executes a request effect and converts its outcome into the event
// Deliver expects. Effects that are not requests return nil.
func Perform(ctx context.Context, client JobClient, eff Effect) Event {
	switch eff := eff.(type) {
	case StartJob:
		report, err := client.StartJob(ctx, eff.Server, eff.Log)
		return StartResult{Session: eff.Session, Report: report, Err: err}
	case Poll:
		status, err := client.PollJob(ctx, eff.Server, eff.Report)
		return PollResult{Session: eff.Session, Status: status, Err: err}
	case StopJob:
		err := client.StopJob(ctx, eff.Server, eff.Report)
		return StopResult{Session: eff.Session, Err: err}
	default:
		return nil
	}
}
