package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal closes.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmResultMsg reports the answer of a confirmModal.
type confirmResultMsg struct {
	accepted bool
}

// confirmModal asks a yes/no question.
type confirmModal struct {
	title   string
	message string
}

func newConfirmModal(title, message string) confirmModal {
	return confirmModal{title: title, message: message}
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(kmsg, keys.Yes):
		return c, answer(true), true
	case key.Matches(kmsg, keys.No):
		return c, answer(false), true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	hint := styles.WarningText.Render("y") + styles.MutedText.Render(" confirm   ") +
		styles.WarningText.Render("n") + styles.MutedText.Render(" cancel")
	return renderDialog(theme, c.title, c.message, hint, theme.Accent, width, height)
}

func answer(accepted bool) tea.Cmd {
	return func() tea.Msg { return confirmResultMsg{accepted: accepted} }
}

// alertModal blocks input until dismissed.
type alertModal struct {
	title   string
	message string
}

func newAlertModal(title, message string) alertModal {
	return alertModal{title: title, message: message}
}

func (a alertModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil, false
	}
	if key.Matches(kmsg, keys.Select) || key.Matches(kmsg, keys.Close) {
		return a, nil, true
	}
	return a, nil, false
}

func (a alertModal) View(theme Theme, width, height int) string {
	hint := theme.Styles().MutedText.Render("enter to dismiss")
	return renderDialog(theme, a.title, a.message, hint, theme.Danger, width, height)
}

func renderDialog(theme Theme, title, message, hint, borderColor string, width, height int) string {
	styles := theme.Styles()
	dialogWidth := min(max(width/2, 40), max(width-4, 20))
	textWidth := max(dialogWidth-6, 10)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(wordwrap.String(message, textWidth)))
	b.WriteString("\n\n")
	b.WriteString(hint)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(1, 2).
		Width(dialogWidth).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
