// Package app is the composition root of dials.
//
// Run loads the configuration, points logging at the log file, builds the
// settings client with its cache and services, and hands everything to the
// UI. With Demo set the client talks to an in-process fakeapi backend seeded
// with every registered section; Serve runs that backend alone, mirroring
// logs to stderr, so another dials can connect to it.
//
// # Cache invalidation
//
// Listener subscribes to the backend's websocket change feed. Every
// section_changed event clears that section from the fetch cache so the next
// load goes to the network. A dropped connection is retried with
// exponential backoff starting at two seconds and capped at thirty.
//
//	Run()
//	  ├─> config.Load()            ~/.config/dials/config.toml
//	  ├─> logging.Configure()      ~/.local/state/dials/dials.log
//	  ├─> settingsapi.NewClient()  REST + websocket endpoints
//	  ├─> service.*                fetch cache, ordered writes, regions
//	  ├─> Listener.Run()           background invalidation
//	  └─> ui.Run()                 blocks until quit
//
// Startup never fails on an unreachable backend: the panels show per-field
// errors and retry on their own.
package app
