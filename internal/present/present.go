// Package present turns log and report listings into view items.
//
// Everything here is a pure function of its arguments: order is preserved as
// received, nothing is fetched and nothing is mutated. Each item carries a
// typed Action that a UI dispatches through an ActionHandler.
package present

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/five82/logdeck/internal/reportapi"
)

// ActionHandler receives the user's choice for a list item.
type ActionHandler interface {
	ConfirmGenerate(log string)
	ViewStatus(server, report string)
	ViewReport(server, report string)
}

// Action is what activating an item does.
type Action interface {
	Dispatch(h ActionHandler)
}

// Generate asks for confirmation before generating a report from Log.
type Generate struct {
	Log string
}

func (a Generate) Dispatch(h ActionHandler) { h.ConfirmGenerate(a.Log) }

// ViewStatus re-enters job monitoring for a report still being generated.
type ViewStatus struct {
	Server string
	Report string
}

func (a ViewStatus) Dispatch(h ActionHandler) { h.ViewStatus(a.Server, a.Report) }

// ViewReport opens a finished report.
type ViewReport struct {
	Server string
	Report string
}

func (a ViewReport) Dispatch(h ActionHandler) { h.ViewReport(a.Server, a.Report) }

// LogItem is one rendered log file.
type LogItem struct {
	Name   string
	Size   string
	Date   string
	Label  string
	Action Action
}

// ReportItem is one rendered report.
type ReportItem struct {
	Name       string
	Created    string
	Age        string
	Processing bool
	Action     Action
}

const dateLayout = "2006-01-02 15:04"

// RenderLogs maps logs to items in the order given.
func RenderLogs(logs []reportapi.LogEntry) []LogItem {
	items := make([]LogItem, 0, len(logs))
	for _, l := range logs {
		size := FormatSize(l.Size)
		date := l.Date
		if t := l.ParsedDate(); !t.IsZero() {
			date = t.Local().Format(dateLayout)
		}
		items = append(items, LogItem{
			Name:   l.Name,
			Size:   size,
			Date:   date,
			Label:  l.Name + " — " + size,
			Action: Generate{Log: l.Name},
		})
	}
	return items
}

// RenderReports maps reports of server to items in the order given. Ages are
// relative to now.
func RenderReports(server string, reports []reportapi.ReportEntry, now time.Time) []ReportItem {
	items := make([]ReportItem, 0, len(reports))
	for _, r := range reports {
		item := ReportItem{
			Name:       r.Name,
			Processing: r.IsProcessing,
		}
		if !r.CreatedAt.IsZero() {
			item.Created = r.CreatedAt.Local().Format(dateLayout)
			item.Age = humanize.RelTime(r.CreatedAt, now, "ago", "from now")
		}
		if r.IsProcessing {
			item.Action = ViewStatus{Server: server, Report: jobReport(r.Name)}
		} else {
			item.Action = ViewReport{Server: server, Report: r.Name}
		}
		items = append(items, item)
	}
	return items
}

// jobReport names the report a job is tracked under. The service lists the
// job's raw output file (x.out) next to the report (x.html), but only the
// report name has a job status.
func jobReport(name string) string {
	if base, ok := strings.CutSuffix(name, ".out"); ok {
		return base + ".html"
	}
	return name
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders bytes in 1024 steps with one decimal: 2048 -> "2.0 KB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", size, sizeUnits[unit])
}
