// Package state holds the section cache shared by the fetch and update paths.
//
// # Overview
//
// The cache maps a section path to the list of settings last fetched for it.
// The panel controller only peeks at it; the service layer fills it after a
// network fetch, merges successful writes into it, and the change feed
// listener clears sections that were modified elsewhere.
//
//	Fetch path:                  Update path:           Change feed:
//	FetchSettings()              write worker           section_changed
//	   ├─ cache hit → return       └─ store.Merge()       └─ store.Clear()
//	   └─ network → store.Put()
//
// # Concurrency Model
//
// Store uses a sync.RWMutex. Reads hand out deep copies, so callers may keep
// and mutate what they receive. Merge never creates a section: a write to a
// section that was never fetched must not make a partial list look complete.
package state
