package ui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logdeck/internal/jobmon"
	"github.com/five82/logdeck/internal/prefs"
	"github.com/five82/logdeck/internal/present"
	"github.com/five82/logdeck/internal/reportapi"
	"github.com/five82/logdeck/internal/selection"
	"github.com/five82/logdeck/internal/state"
)

// pane identifies a focusable column.
type pane int

const (
	paneServers pane = iota
	paneLogs
	paneReports
	paneCount
)

func (p pane) next() pane { return (p + 1) % paneCount }
func (p pane) prev() pane { return (p + paneCount - 1) % paneCount }

// Options configures the UI.
type Options struct {
	Context      context.Context
	Client       reportapi.API
	Store        *state.Store
	PollInterval time.Duration // job status polling
	RefreshTick  time.Duration // catalog snapshot re-read
	ThemeName    string
	LastServer   string
	PrefsPath    string
	APIURL       string

	// Opener and Copier default to the platform browser and clipboard.
	Opener func(url string) error
	Copier func(text string) error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	client      reportapi.API
	store       *state.Store
	prefsPath   string
	apiURL      string
	refreshTick time.Duration
	opener      func(string) error
	copier      func(string) error
	now         func() time.Time

	// UI state
	keys     keyMap
	help     help.Model
	theme    Theme
	width    int
	height   int
	ready    bool
	focus    pane
	showHelp bool
	modal    Modal
	status   *statusView

	notice    string
	noticeErr bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	sel         *selection.Context
	monitor     *jobmon.Monitor
	lastServer  string
	restored    bool

	logs           []present.LogItem
	reports        []present.ReportItem
	loadingLogs    bool
	loadingReports bool
	serverRow      int
	logRow         int
	reportRow      int

	// Commands queued by ActionHandler callbacks.
	pending []tea.Cmd
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	refreshTick := opts.RefreshTick
	if refreshTick <= 0 {
		refreshTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	opener := opts.Opener
	if opener == nil {
		opener = openURL
	}
	copier := opts.Copier
	if copier == nil {
		copier = copyToClipboard
	}

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		prefsPath:   prefsPath,
		apiURL:      opts.APIURL,
		refreshTick: refreshTick,
		opener:      opener,
		copier:      copier,
		now:         time.Now,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(opts.ThemeName),
		sel:         selection.New(),
		monitor:     jobmon.New(jobmon.WithInterval(opts.PollInterval)),
		lastServer:  opts.LastServer,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.store == nil {
		return nil
	}
	return tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.refreshTick))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		if m.status != nil {
			m.status.resize(m.width, m.height)
			m.syncStatus()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.store == nil {
			return m, nil
		}
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.refreshTick))

	case snapshotMsg:
		cmd := m.handleSnapshot(state.Snapshot(msg))
		return m, cmd

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case reportsMsg:
		m.handleReports(msg)
		return m, nil

	case jobEventMsg:
		cmd := m.handleJobEvent(msg.event)
		return m, cmd

	case confirmResultMsg:
		cmd := m.handleConfirm(msg.accepted)
		return m, cmd

	case reportOpenedMsg:
		text := "Report: " + msg.url
		if msg.copied {
			text += " (copied)"
		}
		if msg.openErr != nil {
			slog.Warn("open report failed", "url", msg.url, "err", msg.openErr)
			m.setNotice(text+" (could not open browser)", true)
		} else {
			m.setNotice(text, false)
		}
		return m, nil

	case spinner.TickMsg:
		if m.status == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.status.spinner, cmd = m.status.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.status != nil {
		if sess, ok := m.monitor.Session(); ok {
			return m.status.view(sess, m.theme, m.keys, m.width, m.height)
		}
	}
	return m.renderMain()
}

// handleKey routes keys to the topmost layer: help, modal, status, panes.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.monitor.Close()
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.status != nil {
		return m.handleStatusKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		m.savePrefs(func(p *prefs.Prefs) { p.Theme = name })
	case key.Matches(msg, m.keys.Tab):
		m.focus = m.focus.next()
	case key.Matches(msg, m.keys.ShiftTab):
		m.focus = m.focus.prev()
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.reload()
		return m, cmd
	case key.Matches(msg, m.keys.Select):
		return m.activate()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-m.rowCount())
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(m.rowCount())
	}
	return m, nil
}

func (m Model) handleStatusKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		cmd := m.closeStatus()
		return m, cmd
	case key.Matches(msg, m.keys.Stop):
		cmd := m.runEffects(m.monitor.Stop())
		m.syncStatus()
		return m, cmd
	case key.Matches(msg, m.keys.Quit):
		m.monitor.Close()
		return m, tea.Quit
	}
	return m, m.status.update(msg, m.keys)
}

// activate runs the action of the row under the cursor.
func (m Model) activate() (tea.Model, tea.Cmd) {
	switch m.focus {
	case paneServers:
		names := m.snapshot.Names()
		if m.serverRow < len(names) {
			cmd := m.selectServer(names[m.serverRow])
			return m, cmd
		}
	case paneLogs:
		if m.logRow < len(m.logs) {
			m.logs[m.logRow].Action.Dispatch(&m)
		}
	case paneReports:
		if m.reportRow < len(m.reports) {
			m.reports[m.reportRow].Action.Dispatch(&m)
		}
	}
	cmd := m.drain()
	return m, cmd
}

// ConfirmGenerate asks before starting a report job for log.
func (m *Model) ConfirmGenerate(log string) {
	server, ok := m.sel.Current()
	if !ok {
		return
	}
	m.sel.SetPendingLog(log)
	m.modal = newConfirmModal("Generate report",
		fmt.Sprintf("Generate a report from %s on %s?", log, server))
}

// ViewStatus re-enters monitoring of a report that is still being generated.
func (m *Model) ViewStatus(server, report string) {
	effects := m.monitor.Reenter(server, report)
	m.queue(m.openStatus())
	m.queue(m.runEffects(effects))
}

// ViewReport opens a finished report and copies its address.
func (m *Model) ViewReport(server, report string) {
	url := m.client.ReportURL(server, report)
	m.setNotice("Opening "+url, false)
	m.queue(openReportCmd(url, m.opener, m.copier))
}

func (m *Model) handleConfirm(accepted bool) tea.Cmd {
	logName := m.sel.PendingLog()
	m.sel.ClearPendingLog()
	if !accepted || logName == "" {
		return nil
	}
	server, ok := m.sel.Current()
	if !ok {
		return nil
	}
	effects := m.monitor.Confirm(server, logName)
	spin := m.openStatus()
	return tea.Batch(spin, m.runEffects(effects))
}

func (m *Model) handleJobEvent(ev jobmon.Event) tea.Cmd {
	if m.monitor.IsStale(ev) {
		slog.Debug("dropping stale job event", "event", fmt.Sprintf("%T", ev))
		return nil
	}
	cmd := m.runEffects(m.monitor.Deliver(ev))
	m.syncStatus()
	return cmd
}

// runEffects turns monitor effects into commands. Notifications are shown
// immediately.
func (m *Model) runEffects(effects []jobmon.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effects {
		switch eff := eff.(type) {
		case jobmon.StartJob, jobmon.Poll, jobmon.StopJob:
			cmds = append(cmds, performCmd(m.ctx, m.client, eff))
		case jobmon.ArmTimer:
			cmds = append(cmds, timerCmd(eff))
		case jobmon.RefreshReports:
			if server, ok := m.sel.Current(); ok && server == eff.Server {
				cmds = append(cmds, m.reload())
			}
		case jobmon.Notify:
			if eff.Severity == jobmon.SeverityError {
				m.modal = newAlertModal("Report generation", eff.Message)
			} else {
				m.setNotice(eff.Message, false)
			}
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) openStatus() tea.Cmd {
	m.status = newStatusView()
	m.status.resize(m.width, m.height)
	m.syncStatus()
	return m.status.spinner.Tick
}

// closeStatus dismisses the status modal and tears the session down. The
// lists are reloaded so a job left running shows up as processing.
func (m *Model) closeStatus() tea.Cmd {
	m.status = nil
	if sess, ok := m.monitor.Close(); ok {
		slog.Debug("job status closed", "server", sess.Server, "report", sess.Report)
	}
	return m.reload()
}

// syncStatus mirrors the monitor's session into the status modal and drops
// the modal once there is no session.
func (m *Model) syncStatus() {
	if m.status == nil {
		return
	}
	sess, ok := m.monitor.Session()
	if !ok {
		m.status = nil
		return
	}
	m.status.sync(sess, m.theme)
}

func (m *Model) handleSnapshot(snap state.Snapshot) tea.Cmd {
	m.snapshot = snap
	m.lastUpdated = m.now()
	names := snap.Names()
	m.serverRow = clampRow(m.serverRow, len(names))

	if m.restored || m.lastServer == "" {
		return nil
	}
	if idx := slices.Index(names, m.lastServer); idx >= 0 {
		m.restored = true
		m.serverRow = idx
		return m.selectServer(m.lastServer)
	}
	if snap.HasServers && !snap.Fallback {
		m.restored = true
	}
	return nil
}

// selectServer makes name current and fetches its logs and reports. A job
// session for another server is closed.
func (m *Model) selectServer(name string) tea.Cmd {
	if sess, ok := m.monitor.Session(); ok && sess.Server != name {
		m.monitor.Close()
		m.status = nil
	}
	tag := m.sel.SelectServer(name)
	m.logs, m.reports = nil, nil
	m.logRow, m.reportRow = 0, 0
	m.loadingLogs, m.loadingReports = true, true
	m.focus = paneLogs
	m.savePrefs(func(p *prefs.Prefs) { p.LastServer = name })
	return tea.Batch(
		fetchLogsCmd(m.ctx, m.client, tag),
		fetchReportsCmd(m.ctx, m.client, tag),
	)
}

// reload re-fetches both lists for the current server under a fresh tag.
func (m *Model) reload() tea.Cmd {
	if _, ok := m.sel.Current(); !ok {
		return nil
	}
	tag := m.sel.Refresh()
	m.loadingLogs, m.loadingReports = true, true
	return tea.Batch(
		fetchLogsCmd(m.ctx, m.client, tag),
		fetchReportsCmd(m.ctx, m.client, tag),
	)
}

func (m *Model) handleLogs(msg logsMsg) {
	if !m.sel.IsCurrent(msg.tag) {
		slog.Debug("dropping stale log listing", "server", msg.tag.Server, "epoch", msg.tag.Epoch)
		return
	}
	m.loadingLogs = false
	if msg.err != nil {
		m.listingFailed("Failed to load logs", msg.err)
		return
	}
	m.logs = present.RenderLogs(msg.logs)
	m.logRow = clampRow(m.logRow, len(m.logs))
}

func (m *Model) handleReports(msg reportsMsg) {
	if !m.sel.IsCurrent(msg.tag) {
		slog.Debug("dropping stale report listing", "server", msg.tag.Server, "epoch", msg.tag.Epoch)
		return
	}
	m.loadingReports = false
	if msg.err != nil {
		m.listingFailed("Failed to load reports", msg.err)
		return
	}
	m.reports = present.RenderReports(msg.tag.Server, msg.reports, m.now())
	m.reportRow = clampRow(m.reportRow, len(m.reports))
}

// listingFailed reports a listing error without touching the lists. An open
// dialog is not replaced; the error goes to the footer instead.
func (m *Model) listingFailed(title string, err error) {
	slog.Warn(title, "err", err)
	if m.modal == nil {
		m.modal = newAlertModal(title, reportapi.Message(err))
		return
	}
	m.setNotice(title+": "+reportapi.Message(err), true)
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case paneServers:
		m.serverRow = clampRow(m.serverRow+delta, len(m.snapshot.Servers))
	case paneLogs:
		m.logRow = clampRow(m.logRow+delta, len(m.logs))
	case paneReports:
		m.reportRow = clampRow(m.reportRow+delta, len(m.reports))
	}
}

func (m Model) rowCount() int {
	switch m.focus {
	case paneServers:
		return len(m.snapshot.Servers)
	case paneLogs:
		return len(m.logs)
	default:
		return len(m.reports)
	}
}

func (m *Model) savePrefs(fn func(*prefs.Prefs)) {
	if err := prefs.Update(m.prefsPath, fn); err != nil {
		slog.Warn("save prefs failed", "path", m.prefsPath, "err", err)
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

func (m *Model) drain() tea.Cmd {
	cmds := m.pending
	m.pending = nil
	return tea.Batch(cmds...)
}

func clampRow(row, n int) int {
	if n <= 0 || row < 0 {
		return 0
	}
	if row >= n {
		return n - 1
	}
	return row
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if err != nil && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
