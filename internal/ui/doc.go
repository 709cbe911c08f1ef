// Package ui is the logdeck terminal interface, built on Bubble Tea.
//
// # Layout
//
//	┌ header: logo · catalog status · selected server · api url ─────────┐
//	┌ Servers ┐┌ Logs · web-01 (3) ────────┐┌ Reports (2) ───────────────┐
//	│● web-01 ││  access.log — 2.0 KB      ││  access.log.report  2m ago │
//	│  db-2   ││  error.log — 512.0 B      ││  slow.report [processing]  │
//	└─────────┘└───────────────────────────┘└────────────────────────────┘
//	└ footer: last notice · key hints ───────────────────────────────────┘
//
// Dialogs (confirmation, alert), the help overlay and the job status modal
// replace the main view while open and take all keys.
//
// # State
//
// Model owns a selection.Context and a jobmon.Monitor. Both are touched only
// from Update, so neither needs locking. Network calls run in tea.Cmds and
// come back as messages:
//
//   - logsMsg / reportsMsg carry the selection.Tag they were requested under
//     and are dropped when the tag is no longer current.
//   - jobEventMsg carries a jobmon.Event; events the monitor reports stale
//     are dropped before Deliver.
//
// Monitor effects become commands in runEffects: request effects run
// jobmon.Perform, ArmTimer becomes tea.Tick, RefreshReports reloads the lists
// under a fresh tag, and Notify goes to an alert (errors) or the footer.
//
// List items come from the present package; activating one dispatches its
// action to the Model, which implements present.ActionHandler.
//
// The server catalog is read from state.Store every DefaultUIInterval; the
// store is filled by the app package's background poller.
//
// # Preferences
//
// The theme and the last selected server are written to prefs.toml when they
// change. The last server is re-selected once it appears in the catalog.
package ui
