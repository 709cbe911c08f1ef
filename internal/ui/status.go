package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/five82/logdeck/internal/jobmon"
	"github.com/five82/logdeck/internal/logtail"
)

// statusView is the job status modal: job output in a viewport, the last
// error underneath, and a spinner while the job is active.
type statusView struct {
	viewport viewport.Model
	spinner  spinner.Model
	follow   bool

	rendered string // raw output last written to the viewport
	width    int
	themeID  string
}

func newStatusView() *statusView {
	return &statusView{
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		follow:   true,
	}
}

// statusSize returns the outer size of the modal for a screen.
func statusSize(width, height int) (int, int) {
	return max(width*85/100, 40), max(height*75/100, 10)
}

// resize fits the viewport to the modal. Chrome: border 2, padding 2,
// title 2, error and hint lines 3.
func (s *statusView) resize(width, height int) {
	w, h := statusSize(width, height)
	s.viewport.Width = max(w-6, 10)
	s.viewport.Height = max(h-9, 3)
}

// sync re-renders the output when the session or layout changed.
func (s *statusView) sync(sess jobmon.Session, theme Theme) {
	if sess.Output == s.rendered && s.width == s.viewport.Width && s.themeID == theme.Name {
		return
	}
	s.rendered = sess.Output
	s.width = s.viewport.Width
	s.themeID = theme.Name
	s.viewport.SetContent(renderOutput(sess.Output, s.viewport.Width, theme.Styles()))
	if s.follow {
		s.viewport.GotoBottom()
	}
}

// update handles keys and scroll messages aimed at the viewport.
func (s *statusView) update(msg tea.Msg, keys keyMap) tea.Cmd {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(kmsg, keys.Bottom):
			s.follow = true
			s.viewport.GotoBottom()
			return nil
		case key.Matches(kmsg, keys.Top):
			s.follow = false
			s.viewport.GotoTop()
			return nil
		case key.Matches(kmsg, keys.Up):
			s.follow = false
			s.viewport.LineUp(1)
			return nil
		case key.Matches(kmsg, keys.Down):
			s.viewport.LineDown(1)
			s.follow = s.viewport.AtBottom()
			return nil
		case key.Matches(kmsg, keys.PageUp):
			s.follow = false
			s.viewport.HalfViewUp()
			return nil
		case key.Matches(kmsg, keys.PageDown):
			s.viewport.HalfViewDown()
			s.follow = s.viewport.AtBottom()
			return nil
		}
		return nil
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

func renderOutput(output string, width int, styles Styles) string {
	if output == "" {
		return styles.FaintText.Render("Waiting for output...")
	}
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		style := styles.LevelStyle(logtail.Classify(line))
		lines[i] = style.Render(wordwrap.String(line, max(width, 1)))
	}
	return strings.Join(lines, "\n")
}

// view renders the modal for sess.
func (s *statusView) view(sess jobmon.Session, theme Theme, keys keyMap, width, height int) string {
	styles := theme.Styles()
	w, _ := statusSize(width, height)

	name := sess.Report
	if name == "" {
		name = sess.Log
	}
	title := styles.Text.Bold(true).Render(truncateMiddle(sess.Server+" / "+name, w-24))

	var state string
	switch sess.State {
	case jobmon.Starting, jobmon.Polling, jobmon.Stopping:
		state = s.spinner.View() + " " + styles.AccentText.Render(sess.State.String())
	case jobmon.Done:
		state = styles.SuccessText.Render("completed")
	case jobmon.Failed:
		state = styles.DangerText.Render("failed")
	default:
		state = styles.MutedText.Render(sess.State.String())
	}
	if !sess.StartTime.IsZero() && !sess.State.Terminal() {
		state += styles.FaintText.Render(" " + formatElapsed(time.Since(sess.StartTime)))
	}

	errLine := ""
	if sess.Err != "" {
		errLine = styles.DangerText.Render(truncateText(sess.Err, s.viewport.Width))
	}

	var hints []string
	for _, b := range keys.statusHelp(sess.State == jobmon.Polling) {
		h := b.Help()
		hints = append(hints, styles.WarningText.Render(h.Key)+" "+styles.MutedText.Render(h.Desc))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title+"  "+state,
		"",
		s.viewport.View(),
		"",
		errLine,
		strings.Join(hints, "   "),
	)

	border := theme.BorderFocus
	if sess.State == jobmon.Failed {
		border = theme.Danger
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 2).
		Width(w - 2).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
