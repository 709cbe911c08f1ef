// Package state shares the server catalog between the catalog poller and the
// UI.
//
// # Overview
//
// The catalog poller runs on its own goroutine and writes the result of every
// /api/servers fetch into a Store; the UI reads snapshots on its refresh
// tick. This is the only state in logdeck touched from more than one
// goroutine. Everything about selection and job monitoring lives on the UI
// event loop and needs no locking.
//
//	Poller goroutine               UI event loop
//	ListServers() ─▶ store.Update ─▶ store.Snapshot() ─▶ server pane
//
// # Update Semantics
//
//	store.Update(servers, nil)  replace catalog, reset failure count
//	store.Update(nil, err)      keep catalog, record error, count failure
//	store.Seed(names)           configured servers, only until a real fetch
//
// Two consecutive failures mark the catalog offline, which the UI shows in
// the header while still letting the operator work with the last known
// servers.
//
// # Copying
//
// Update and Snapshot copy the server slice and Snapshot copies the error, so
// the UI can never observe a half-written catalog or mutate the stored one.
//
// The zero Store is ready to use.
package state
