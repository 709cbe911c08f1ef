package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logdeck/internal/reportapi"
)

// renderHeader renders the status bar: logo, catalog health, selection.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("logdeck", styles.Logo)}
	parts = append(parts, m.catalogStatus(styles, bg))

	parts = append(parts,
		bg.Render("Servers:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Servers)), styles.Text))

	if server, ok := m.sel.Current(); ok {
		parts = append(parts,
			bg.Render("Server:", styles.MutedText)+bg.Space()+
				bg.Render(truncateText(server, 24), styles.AccentText))
	}

	if sess, ok := m.monitor.Session(); ok && !sess.State.Terminal() {
		parts = append(parts, bg.Render("JOB "+sess.State.String(), styles.WarningText.Bold(true)))
	}

	if !compact {
		if m.apiURL != "" {
			parts = append(parts, bg.Render(truncateMiddle(m.apiURL, 40), styles.FaintText))
		}
		if !m.lastUpdated.IsZero() {
			parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.MutedText))
		}
	}

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) catalogStatus(styles Styles, bg BgStyle) string {
	snap := m.snapshot
	switch {
	case snap.IsOffline():
		return bg.Render("● "+classifyConnectionError(snap.LastError), styles.DangerText) +
			bg.Space() + bg.Render("Retrying...", styles.WarningText)
	case !snap.HasServers:
		return bg.Render("Connecting...", styles.WarningText.Bold(true))
	case snap.Fallback:
		return bg.Render("● CONFIGURED", styles.WarningText)
	default:
		return bg.Render("● ONLINE", styles.SuccessText)
	}
}

// classifyConnectionError returns a short label for a catalog failure.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	if errors.Is(err, reportapi.ErrBackend) {
		return "SERVICE ERROR"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "OFFLINE"
	}
}

// renderFooter shows the latest notice and the short key help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	h := m.help
	h.Styles.ShortKey = styles.AccentText
	h.Styles.ShortDesc = styles.MutedText
	h.Styles.ShortSeparator = styles.FaintText
	hints := h.ShortHelpView(m.keys.ShortHelp())

	line := hints
	if m.notice != "" {
		style := styles.Text
		if m.noticeErr {
			style = styles.DangerText
		}
		room := max(m.width-lipgloss.Width(hints)-4, 10)
		line = style.Render(truncateMiddle(m.notice, room)) + "  " + hints
	}
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(line)
}

// renderMain renders header, panes and footer.
func (m Model) renderMain() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderPanes(),
		m.renderFooter(),
	)
}
