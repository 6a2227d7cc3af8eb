// Package panel implements the settings panel controller shared by every
// section of the console.
//
// A Controller owns the keys of one section and tracks, per key, the
// current value, the last value known to be valid, and the loading, error
// and retry state. Hydration (backend to panel) never produces writes: the
// first-load guard stays armed until LoadSettings settles, and hydrated
// values are assigned directly instead of through Set.
//
// Set is the value-changed event of a bound control. After the first load
// an edit to a loaded key is validated, written through the Updater and then
// handed to the section's rules, whose forced changes go through Set again.
// Invalid edits snap back to the last good value without a write, and so
// does an edit to one bound of a pair while the other bound is not loaded.
// Programmatic corrections suppress outbound writes of the keys they touch.
//
// Failed key loads are retried by a Scheduler according to a RetryPolicy;
// Close cancels whatever is still pending.
//
// List-shaped state (string sets, the regions table) is edited through a
// ListEditor that keeps a snapshot, reports Dirty by comparison and writes
// only on Commit.
package panel
