// Package ui is the Bubble Tea front end of dials.
//
// The left pane lists the registered sections. Selecting one mounts a
// panel.Controller for it; the right pane renders the controller's
// snapshots and forwards edits back through Controller.Set. Blocking work
// (loads, reloads, resets, region commits) runs in tea.Cmds and reports
// back with actionDoneMsg.
//
// # Snapshot flow
//
// Each mount subscribes to its controller with a one-slot channel. The
// subscriber never blocks: an unread snapshot is replaced by the newer one.
// waitSnapshot turns the channel into messages, and every message carries
// the mount generation so snapshots of an unmounted section are dropped.
//
// # Editors
//
//   - toggles: space
//   - dropdowns and numbers: h/l or arrows step through options or by Step
//   - free text and numbers without options: enter opens an input modal
//   - string lists and the regions table: a list pane reached with enter or tab
//
// Fields that are loading, errored or disabled by a dependency rule ignore
// edits; errored fields retry with r.
package ui
