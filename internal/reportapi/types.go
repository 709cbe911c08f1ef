package reportapi

import (
	"strings"
	"time"
)

const backendTimestampLayout = "2006-01-02 15:04:05"

// Server mirrors an entry of /api/servers. Only the name matters to the client.
type Server struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
}

// LogEntry describes one log file on a server.
type LogEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Date string `json:"date"`
}

// ParsedDate returns the modification date as time.Time when possible.
func (l LogEntry) ParsedDate() time.Time {
	return parseTime(l.Date)
}

// ReportEntry describes a generated (or generating) report artifact.
// IsProcessing is only accurate at fetch time.
type ReportEntry struct {
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	IsProcessing bool      `json:"isProcessing"`
}

// JobState is the coarse status of a report job.
type JobState string

const (
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobError     JobState = "error"
)

// Terminal reports whether no further polling is useful.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobError
}

// JobStatus is the client view of /api/report-status. Output is the full
// current output of the job, never a delta.
type JobStatus struct {
	State     JobState
	Output    string
	Message   string
	StartTime time.Time
}

type startResponse struct {
	Message string `json:"message"`
	Report  string `json:"report"`
	Error   string `json:"error"`
}

type statusResponse struct {
	Status    string `json:"status"`
	Output    string `json:"output"`
	Path      string `json:"path"`
	StartTime string `json:"startTime"`
	Error     string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r statusResponse) jobStatus() JobStatus {
	st := JobStatus{
		Output:    r.Output,
		StartTime: parseTime(r.StartTime),
	}
	switch strings.ToLower(strings.TrimSpace(r.Status)) {
	case string(JobCompleted):
		st.State = JobCompleted
	case string(JobRunning):
		st.State = JobRunning
	default:
		st.State = JobError
		st.Message = r.Error
		if st.Message == "" {
			st.Message = "unknown job status " + r.Status
		}
	}
	return st
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.Local); err == nil {
		return t
	}
	// pg_ls_logdir timestamps come back as "2006-01-02 15:04:05-07".
	if t, err := time.Parse("2006-01-02 15:04:05-07", value); err == nil {
		return t
	}
	return time.Time{}
}
