package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logdeck/internal/jobmon"
	"github.com/five82/logdeck/internal/reportapi"
	"github.com/five82/logdeck/internal/selection"
	"github.com/five82/logdeck/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// logsMsg and reportsMsg carry the selection tag their request was issued
// under; results for an older tag are dropped.
type logsMsg struct {
	tag  selection.Tag
	logs []reportapi.LogEntry
	err  error
}

type reportsMsg struct {
	tag     selection.Tag
	reports []reportapi.ReportEntry
	err     error
}

// jobEventMsg feeds a job monitor event back into Update.
type jobEventMsg struct {
	event jobmon.Event
}

type reportOpenedMsg struct {
	url     string
	openErr error
	copied  bool
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// fetchLogsCmd and fetchReportsCmd rely on the client's request timeout.
func fetchLogsCmd(ctx context.Context, client reportapi.API, tag selection.Tag) tea.Cmd {
	return func() tea.Msg {
		logs, err := client.ListLogs(ctx, tag.Server)
		return logsMsg{tag: tag, logs: logs, err: err}
	}
}

func fetchReportsCmd(ctx context.Context, client reportapi.API, tag selection.Tag) tea.Cmd {
	return func() tea.Msg {
		reports, err := client.ListReports(ctx, tag.Server)
		return reportsMsg{tag: tag, reports: reports, err: err}
	}
}

// performCmd runs a job request effect off the Update loop.
func performCmd(ctx context.Context, client jobmon.JobClient, eff jobmon.Effect) tea.Cmd {
	return func() tea.Msg {
		return jobEventMsg{event: jobmon.Perform(ctx, client, eff)}
	}
}

// timerCmd delivers the tick for an armed poll timer.
func timerCmd(eff jobmon.ArmTimer) tea.Cmd {
	return tea.Tick(eff.After, func(time.Time) tea.Msg {
		return jobEventMsg{event: jobmon.Tick{Timer: eff.Timer}}
	})
}

func openReportCmd(url string, open, copyText func(string) error) tea.Cmd {
	return func() tea.Msg {
		msg := reportOpenedMsg{url: url}
		if open != nil {
			msg.openErr = open(url)
		}
		if copyText != nil {
			msg.copied = copyText(url) == nil
		}
		return msg
	}
}
