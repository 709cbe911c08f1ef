package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// listRow is one line of a pane: main text, a muted right-hand column and an
// optional badge.
type listRow struct {
	text   string
	aside  string
	badge  string
	marked bool
}

// renderPanes lays out the server, log and report panes side by side.
func (m Model) renderPanes() string {
	height := max(m.height-2, 3)
	serverW, logW, reportW := paneWidths(m.width)

	server, selected := m.sel.Current()

	serverRows := make([]listRow, 0, len(m.snapshot.Servers))
	for _, name := range m.snapshot.Names() {
		serverRows = append(serverRows, listRow{text: name, marked: selected && name == server})
	}
	serverEmpty := "No servers"
	if !m.snapshot.HasServers {
		serverEmpty = "Loading..."
	}
	servers := m.renderTitledBox("Servers",
		m.renderRows(serverRows, m.serverRow, serverW-2, height-2, paneServers, serverEmpty),
		serverW, height, m.focus == paneServers)

	logTitle, reportTitle := "Logs", "Reports"
	if selected {
		logTitle = fmt.Sprintf("Logs · %s (%d)", server, len(m.logs))
		reportTitle = fmt.Sprintf("Reports (%d)", len(m.reports))
	}

	logRows := make([]listRow, 0, len(m.logs))
	for _, item := range m.logs {
		logRows = append(logRows, listRow{text: item.Label, aside: item.Date})
	}
	logs := m.renderTitledBox(logTitle,
		m.renderRows(logRows, m.logRow, logW-2, height-2, paneLogs, m.emptyText(m.loadingLogs, "No log files")),
		logW, height, m.focus == paneLogs)

	reportRows := make([]listRow, 0, len(m.reports))
	for _, item := range m.reports {
		row := listRow{text: item.Name, aside: item.Age}
		if item.Processing {
			row.badge = "processing"
		}
		reportRows = append(reportRows, row)
	}
	reports := m.renderTitledBox(reportTitle,
		m.renderRows(reportRows, m.reportRow, reportW-2, height-2, paneReports, m.emptyText(m.loadingReports, "No reports")),
		reportW, height, m.focus == paneReports)

	return lipgloss.JoinHorizontal(lipgloss.Top, servers, logs, reports)
}

func (m Model) emptyText(loading bool, none string) string {
	if _, ok := m.sel.Current(); !ok {
		return "Select a server"
	}
	if loading {
		return "Loading..."
	}
	return none
}

// renderRows renders rows scrolled so the cursor stays visible. The cursor is
// only highlighted in the focused pane.
func (m Model) renderRows(rows []listRow, cursor, width, height int, p pane, empty string) string {
	bgColor := m.theme.SurfaceAlt
	if m.focus == p {
		bgColor = m.theme.FocusBg
	}
	styles := m.theme.Styles()
	if len(rows) == 0 {
		return NewBgStyle(bgColor).Render(empty, styles.MutedText)
	}

	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.formatRow(rows[i], width, i == cursor && m.focus == p, bgColor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatRow(row listRow, width int, selected bool, bgColor string) string {
	styles := m.theme.Styles()
	textStyle, asideStyle := styles.Text, styles.FaintText
	if row.marked {
		textStyle = styles.AccentText.Bold(true)
	}
	if selected {
		bgColor = m.theme.SelectionBg
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		textStyle, asideStyle = sel, sel
	}
	bg := NewBgStyle(bgColor)

	prefix := "  "
	if row.marked {
		prefix = "● "
	}

	badge := ""
	badgeW := 0
	if row.badge != "" {
		badge = bg.Space() + styles.Badge.Render(row.badge)
		badgeW = lipgloss.Width(badge)
	}

	aside := row.aside
	asideW := 0
	if aside != "" && width >= 40 {
		asideW = lipgloss.Width(aside) + 1
	} else {
		aside = ""
	}

	textW := max(width-lipgloss.Width(prefix)-badgeW-asideW, 4)
	text := padRight(truncateText(row.text, textW), textW)

	line := bg.Render(prefix, textStyle) + bg.Render(text, textStyle) + badge
	if aside != "" {
		line += bg.Space() + bg.Render(aside, asideStyle)
	}
	return bg.FillLine(line, width)
}
